package pgsql_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgsql-go/pgsql"
	"github.com/pgsql-go/pgsql/pgmock"
	"github.com/pgsql-go/pgsql/pgproto"
)

// connectScripted connects through an in-process scripted server. The
// script must start with the steps of AcceptUnauthenticatedConnRequestSteps.
func connectScripted(t *testing.T, script *pgmock.Script) (*pgsql.Conn, <-chan error) {
	t.Helper()

	server, err := pgmock.NewServer(script)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- server.ServeOne() }()

	connString := fmt.Sprintf("postgres://pgsql@%s/pgsql_test?sslmode=disable", server.Addr())
	conn, err := pgsql.Connect(context.Background(), connString)
	require.NoError(t, err)

	return conn, errCh
}

func TestManagedCommitAndRollbackAreNoOpsWhenIdle(t *testing.T) {
	steps := pgmock.AcceptUnauthenticatedConnRequestSteps()
	steps = append(steps, pgmock.ExpectMessage(&pgproto.Terminate{}))
	script := &pgmock.Script{Steps: steps}

	conn, errCh := connectScripted(t, script)
	ctx := context.Background()

	// Neither may send anything: the script only allows Terminate next.
	require.NoError(t, conn.Rollback(ctx))
	require.NoError(t, conn.Commit(ctx))

	require.NoError(t, conn.Close(ctx))

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for script to finish")
	}
}

func TestCursorBeforeExecution(t *testing.T) {
	steps := pgmock.AcceptUnauthenticatedConnRequestSteps()
	steps = append(steps, pgmock.WaitForClose())
	script := &pgmock.Script{Steps: steps}

	conn, errCh := connectScripted(t, script)
	defer conn.Close(context.Background())

	cursor := conn.Cursor()
	assert.Equal(t, int64(-1), cursor.RowCount())
	assert.Nil(t, cursor.Description())

	conn.Close(context.Background())
	<-errCh
}

func TestLogLevelFromString(t *testing.T) {
	level, err := pgsql.LogLevelFromString("debug")
	require.NoError(t, err)
	assert.Equal(t, pgsql.LogLevelDebug, level)

	_, err = pgsql.LogLevelFromString("verbose")
	require.Error(t, err)
}
