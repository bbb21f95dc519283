package pgconn

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgsql-go/pgsql/pgmock"
	"github.com/pgsql-go/pgsql/pgproto"
)

// scriptedConn runs script against an in-memory connection and returns a
// PgConn speaking to it, skipping the startup handshake.
func scriptedConn(t *testing.T, script *pgmock.Script) (*PgConn, <-chan error) {
	t.Helper()

	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })

	errCh := make(chan error, 1)
	go func() {
		defer serverConn.Close()
		errCh <- script.Run(pgproto.NewBackend(serverConn, serverConn))
	}()

	return newPgConnForTest(clientConn, &Config{}), errCh
}

func requireScriptDone(t *testing.T, errCh <-chan error) {
	t.Helper()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for script to finish")
	}
}

func TestConnectCleartextPasswordHandshake(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectAnyMessage(&pgproto.StartupMessage{}),
		pgmock.SendMessage(&pgproto.Authentication{Type: pgproto.AuthTypeCleartextPassword}),
		pgmock.ExpectMessage(&pgproto.PasswordMessage{Password: "sesame"}),
		pgmock.SendMessage(&pgproto.Authentication{Type: pgproto.AuthTypeOk}),
		pgmock.SendMessage(&pgproto.ParameterStatus{Name: "server_version", Value: "14.5 (Debian 14.5-1.pgdg110+1)"}),
		pgmock.SendMessage(&pgproto.BackendKeyData{ProcessID: 31007, SecretKey: 271828}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.WaitForClose(),
	}}

	server, err := pgmock.NewServer(script)
	require.NoError(t, err)

	serverErrCh := make(chan error, 1)
	go func() { serverErrCh <- server.ServeOne() }()

	connString := fmt.Sprintf("postgres://alice:sesame@%s/testdb?sslmode=disable", server.Addr())
	pgConn, err := Connect(context.Background(), connString)
	require.NoError(t, err)

	assert.Equal(t, uint32(31007), pgConn.PID())
	assert.Equal(t, uint32(271828), pgConn.SecretKey())
	assert.Equal(t, byte(TxStatusIdle), pgConn.TxStatus())

	version, err := pgConn.ServerVersion()
	require.NoError(t, err)
	assert.Equal(t, uint64(14), version.Major())
	assert.Equal(t, uint64(5), version.Minor())

	require.NoError(t, pgConn.Close())
	requireScriptDone(t, serverErrCh)
}

func TestConnectMD5PasswordHandshake(t *testing.T) {
	salt := [4]byte{0x01, 0x02, 0x03, 0x04}
	digest := "md5" + hexMD5(hexMD5("sesame"+"alice")+string(salt[:]))

	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectAnyMessage(&pgproto.StartupMessage{}),
		pgmock.SendMessage(&pgproto.Authentication{Type: pgproto.AuthTypeMD5Password, Salt: salt}),
		pgmock.ExpectMessage(&pgproto.PasswordMessage{Password: digest}),
		pgmock.SendMessage(&pgproto.Authentication{Type: pgproto.AuthTypeOk}),
		pgmock.SendMessage(&pgproto.BackendKeyData{ProcessID: 1, SecretKey: 2}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.WaitForClose(),
	}}

	server, err := pgmock.NewServer(script)
	require.NoError(t, err)

	serverErrCh := make(chan error, 1)
	go func() { serverErrCh <- server.ServeOne() }()

	connString := fmt.Sprintf("postgres://alice:sesame@%s/testdb?sslmode=disable", server.Addr())
	pgConn, err := Connect(context.Background(), connString)
	require.NoError(t, err)

	require.NoError(t, pgConn.Close())
	requireScriptDone(t, serverErrCh)
}

func TestConnectServerError(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectAnyMessage(&pgproto.StartupMessage{}),
		pgmock.SendMessage(&pgproto.ErrorResponse{Severity: "FATAL", Code: "28P01", Message: "password authentication failed"}),
	}}

	server, err := pgmock.NewServer(script)
	require.NoError(t, err)

	serverErrCh := make(chan error, 1)
	go func() { serverErrCh <- server.ServeOne() }()

	connString := fmt.Sprintf("postgres://alice:wrong@%s/testdb?sslmode=disable", server.Addr())
	_, err = Connect(context.Background(), connString)
	require.Error(t, err)

	var pgErr *PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "28P01", pgErr.SQLState())
	requireScriptDone(t, serverErrCh)
}

func TestExecSimpleQuery(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Query{String: "select n from widgets"}),
		pgmock.SendMessage(&pgproto.RowDescription{Fields: []pgproto.FieldDescription{
			{Name: "n", DataTypeOID: 23, DataTypeSize: 4, TypeModifier: -1},
		}}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{[]byte("1")}}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{[]byte("2")}}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: []byte("SELECT 2")}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}}

	pgConn, errCh := scriptedConn(t, script)

	results, err := pgConn.Exec(context.Background(), "select n from widgets")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "n", results[0].FieldDescriptions[0].Name)
	assert.Equal(t, [][][]byte{{[]byte("1")}, {[]byte("2")}}, results[0].Rows)
	assert.Equal(t, int64(2), results[0].CommandTag.RowsAffected())
	requireScriptDone(t, errCh)
}

func TestExecMultipleResults(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Query{String: "select 1; create table t (a int)"}),
		pgmock.SendMessage(&pgproto.RowDescription{Fields: []pgproto.FieldDescription{
			{Name: "?column?", DataTypeOID: 23, DataTypeSize: 4, TypeModifier: -1},
		}}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{[]byte("1")}}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: []byte("SELECT 1")}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: []byte("CREATE TABLE")}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}}

	pgConn, errCh := scriptedConn(t, script)

	results, err := pgConn.Exec(context.Background(), "select 1; create table t (a int)")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].CommandTag.RowsAffected())
	assert.Equal(t, int64(-1), results[1].CommandTag.RowsAffected())
	requireScriptDone(t, errCh)
}

func TestExecEmptyQuery(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Query{String: ""}),
		pgmock.SendMessage(&pgproto.EmptyQueryResponse{}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}}

	pgConn, errCh := scriptedConn(t, script)

	results, err := pgConn.Exec(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrEmptyQuery)
	requireScriptDone(t, errCh)
}

func TestExecServerErrorKeepsConnectionUsable(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Query{String: "select no_such_column"}),
		pgmock.SendMessage(&pgproto.ErrorResponse{Severity: "ERROR", Code: "42703", Message: `column "no_such_column" does not exist`}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.ExpectMessage(&pgproto.Query{String: "select 1"}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: []byte("SELECT 1")}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}}

	pgConn, errCh := scriptedConn(t, script)

	results, err := pgConn.Exec(context.Background(), "select no_such_column")
	require.NoError(t, err)
	require.Len(t, results, 1)

	var pgErr *PgError
	require.ErrorAs(t, results[0].Err, &pgErr)
	assert.Equal(t, "42703", pgErr.SQLState())
	assert.False(t, pgConn.IsClosed())

	_, err = pgConn.Exec(context.Background(), "select 1")
	require.NoError(t, err)
	requireScriptDone(t, errCh)
}

func TestFatalErrorInvalidatesConnection(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Query{String: "select pg_terminate_backend(pg_backend_pid())"}),
		pgmock.SendMessage(&pgproto.ErrorResponse{Severity: "FATAL", Code: "57P01", Message: "terminating connection due to administrator command"}),
	}}

	pgConn, errCh := scriptedConn(t, script)

	_, err := pgConn.Exec(context.Background(), "select pg_terminate_backend(pg_backend_pid())")
	require.Error(t, err)

	var pgErr *PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "57P01", pgErr.SQLState())
	assert.True(t, pgConn.IsClosed())

	_, err = pgConn.Exec(context.Background(), "select 1")
	assert.ErrorIs(t, err, ErrConnClosed)
	requireScriptDone(t, errCh)
}

func TestTxStatusFollowsReadyForQuery(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Query{String: "begin"}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: []byte("BEGIN")}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'T'}),
		pgmock.ExpectMessage(&pgproto.Query{String: "select 1/0"}),
		pgmock.SendMessage(&pgproto.ErrorResponse{Severity: "ERROR", Code: "22012", Message: "division by zero"}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'E'}),
		pgmock.ExpectMessage(&pgproto.Query{String: "rollback"}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: []byte("ROLLBACK")}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}}

	pgConn, errCh := scriptedConn(t, script)
	ctx := context.Background()

	_, err := pgConn.Exec(ctx, "begin")
	require.NoError(t, err)
	assert.Equal(t, byte(TxStatusInTransaction), pgConn.TxStatus())

	_, err = pgConn.Exec(ctx, "select 1/0")
	require.NoError(t, err)
	assert.Equal(t, byte(TxStatusFailed), pgConn.TxStatus())

	_, err = pgConn.Exec(ctx, "rollback")
	require.NoError(t, err)
	assert.Equal(t, byte(TxStatusIdle), pgConn.TxStatus())
	requireScriptDone(t, errCh)
}

func TestNoticesAccumulate(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Query{String: "rollback"}),
		pgmock.SendMessage(&pgproto.NoticeResponse{Severity: "WARNING", Code: "25P01", Message: "there is no transaction in progress"}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: []byte("ROLLBACK")}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}}

	pgConn, errCh := scriptedConn(t, script)

	_, err := pgConn.Exec(context.Background(), "rollback")
	require.NoError(t, err)

	notices := pgConn.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "25P01", notices[0].Code)
	assert.Equal(t, "WARNING", notices[0].Severity)

	pgConn.ClearNotices()
	assert.Empty(t, pgConn.Notices())
	requireScriptDone(t, errCh)
}

func TestNotificationsAccumulate(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Query{String: "select 1"}),
		pgmock.SendMessage(&pgproto.NotificationResponse{PID: 123, Channel: "jobs", Payload: "wake"}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: []byte("SELECT 1")}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}}

	pgConn, errCh := scriptedConn(t, script)

	_, err := pgConn.Exec(context.Background(), "select 1")
	require.NoError(t, err)

	notifications := pgConn.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, uint32(123), notifications[0].PID)
	assert.Equal(t, "jobs", notifications[0].Channel)
	assert.Equal(t, "wake", notifications[0].Payload)
	requireScriptDone(t, errCh)
}

func TestWaitForNotification(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.SendMessage(&pgproto.NotificationResponse{PID: 9, Channel: "events", Payload: ""}),
	}}

	pgConn, errCh := scriptedConn(t, script)

	notification, err := pgConn.WaitForNotification(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "events", notification.Channel)
	requireScriptDone(t, errCh)
}

func TestPrepareDescribesStatement(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Parse{Name: "s1", Query: "select a from t where b = $1", ParameterOIDs: []uint32{23}}),
		pgmock.ExpectMessage(&pgproto.Describe{ObjectType: pgproto.ObjectTypePreparedStatement, Name: "s1"}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.ParseComplete{}),
		pgmock.SendMessage(&pgproto.ParameterDescription{ParameterOIDs: []uint32{23}}),
		pgmock.SendMessage(&pgproto.RowDescription{Fields: []pgproto.FieldDescription{
			{Name: "a", DataTypeOID: 25, DataTypeSize: -1, TypeModifier: -1},
		}}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}}

	pgConn, errCh := scriptedConn(t, script)

	psd, err := pgConn.Prepare(context.Background(), "s1", "select a from t where b = $1", []uint32{23})
	require.NoError(t, err)
	assert.Equal(t, []uint32{23}, psd.ParamOIDs)
	require.Len(t, psd.Fields, 1)
	assert.Equal(t, "a", psd.Fields[0].Name)
	requireScriptDone(t, errCh)
}

func TestPrepareSyntaxError(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Parse{Name: "bad", Query: "not sql"}),
		pgmock.ExpectMessage(&pgproto.Describe{ObjectType: pgproto.ObjectTypePreparedStatement, Name: "bad"}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.ErrorResponse{Severity: "ERROR", Code: "42601", Message: `syntax error at or near "not"`}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}}

	pgConn, errCh := scriptedConn(t, script)

	_, err := pgConn.Prepare(context.Background(), "bad", "not sql", nil)
	var pgErr *PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "42601", pgErr.SQLState())
	assert.False(t, pgConn.IsClosed())
	requireScriptDone(t, errCh)
}

func TestParallelPortalsInterleave(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		// open portal p1
		pgmock.ExpectMessage(&pgproto.Bind{DestinationPortal: "p1", PreparedStatement: "s1"}),
		pgmock.ExpectMessage(&pgproto.Describe{ObjectType: pgproto.ObjectTypePortal, Name: "p1"}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.BindComplete{}),
		pgmock.SendMessage(&pgproto.RowDescription{Fields: []pgproto.FieldDescription{
			{Name: "n", DataTypeOID: 23, DataTypeSize: 4, TypeModifier: -1},
		}}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'T'}),
		// open portal p2
		pgmock.ExpectMessage(&pgproto.Bind{DestinationPortal: "p2", PreparedStatement: "s1"}),
		pgmock.ExpectMessage(&pgproto.Describe{ObjectType: pgproto.ObjectTypePortal, Name: "p2"}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.BindComplete{}),
		pgmock.SendMessage(&pgproto.RowDescription{Fields: []pgproto.FieldDescription{
			{Name: "n", DataTypeOID: 23, DataTypeSize: 4, TypeModifier: -1},
		}}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'T'}),
		// p1 suspends at two rows
		pgmock.ExpectMessage(&pgproto.Execute{Portal: "p1", MaxRows: 2}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{[]byte("1")}}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{[]byte("2")}}),
		pgmock.SendMessage(&pgproto.PortalSuspended{}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'T'}),
		// p2 runs between p1's fetches
		pgmock.ExpectMessage(&pgproto.Execute{Portal: "p2", MaxRows: 2}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{[]byte("10")}}),
		pgmock.SendMessage(&pgproto.PortalSuspended{}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'T'}),
		// p1 drains
		pgmock.ExpectMessage(&pgproto.Execute{Portal: "p1", MaxRows: 2}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{[]byte("3")}}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: []byte("SELECT 3")}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'T'}),
	}}

	pgConn, errCh := scriptedConn(t, script)
	ctx := context.Background()

	fields, err := pgConn.OpenPortal(ctx, "p1", "s1", nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, fields, 1)

	_, err = pgConn.OpenPortal(ctx, "p2", "s1", nil, nil, nil)
	require.NoError(t, err)

	res1, err := pgConn.ExecutePortal(ctx, "p1", 2)
	require.NoError(t, err)
	assert.True(t, res1.Suspended)
	assert.Equal(t, [][][]byte{{[]byte("1")}, {[]byte("2")}}, res1.Rows)

	res2, err := pgConn.ExecutePortal(ctx, "p2", 2)
	require.NoError(t, err)
	assert.True(t, res2.Suspended)

	res3, err := pgConn.ExecutePortal(ctx, "p1", 2)
	require.NoError(t, err)
	assert.False(t, res3.Suspended)
	assert.Equal(t, CommandTag("SELECT 3"), res3.CommandTag)
	assert.Equal(t, [][][]byte{{[]byte("3")}}, res3.Rows)
	requireScriptDone(t, errCh)
}

func TestExecParamsSingleRoundTrip(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Parse{Query: "select $1::int8", ParameterOIDs: []uint32{20}}),
		pgmock.ExpectMessage(&pgproto.Bind{
			ParameterFormatCodes: []int16{pgproto.BinaryFormat},
			Parameters:           [][]byte{{0, 0, 0, 0, 0, 0, 0, 7}},
			ResultFormatCodes:    []int16{pgproto.BinaryFormat},
		}),
		pgmock.ExpectMessage(&pgproto.Describe{ObjectType: pgproto.ObjectTypePortal}),
		pgmock.ExpectMessage(&pgproto.Execute{}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.ParseComplete{}),
		pgmock.SendMessage(&pgproto.BindComplete{}),
		pgmock.SendMessage(&pgproto.RowDescription{Fields: []pgproto.FieldDescription{
			{Name: "int8", DataTypeOID: 20, DataTypeSize: 8, TypeModifier: -1, Format: pgproto.BinaryFormat},
		}}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{{0, 0, 0, 0, 0, 0, 0, 7}}}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: []byte("SELECT 1")}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}}

	pgConn, errCh := scriptedConn(t, script)

	result, err := pgConn.ExecParams(
		context.Background(),
		"select $1::int8",
		[][]byte{{0, 0, 0, 0, 0, 0, 0, 7}},
		[]uint32{20},
		[]int16{pgproto.BinaryFormat},
		[]int16{pgproto.BinaryFormat},
	)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 7}, result.Rows[0][0])
	requireScriptDone(t, errCh)
}

func TestCloseStatement(t *testing.T) {
	script := &pgmock.Script{Steps: []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Close{ObjectType: pgproto.ObjectTypePreparedStatement, Name: "s1"}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.CloseComplete{}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}}

	pgConn, errCh := scriptedConn(t, script)

	require.NoError(t, pgConn.CloseStatement(context.Background(), "s1"))
	requireScriptDone(t, errCh)
}

func TestCommandTagRowsAffected(t *testing.T) {
	tests := []struct {
		tag  CommandTag
		want int64
	}{
		{"INSERT 0 3", 3},
		{"UPDATE 10", 10},
		{"DELETE 0", 0},
		{"SELECT 25", 25},
		{"COPY 5", 5},
		{"CREATE TABLE", -1},
		{"COMMIT", -1},
		{"ROLLBACK", -1},
		{"LISTEN", -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tag.RowsAffected(), "tag %q", tt.tag)
	}
}
