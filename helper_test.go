package pgsql_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgsql-go/pgsql"
)

// mustConnect returns a connection to the server named by PGSQL_TEST_DSN,
// skipping the test when the variable is unset.
func mustConnect(t *testing.T) *pgsql.Conn {
	t.Helper()

	dsn := os.Getenv("PGSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("PGSQL_TEST_DSN is not set")
	}

	conn, err := pgsql.Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(context.Background()) })

	return conn
}
