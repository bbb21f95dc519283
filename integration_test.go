package pgsql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgsql-go/pgsql/pgconn"
	"github.com/pgsql-go/pgsql/pgtype"
)

func TestUpdateRowCount(t *testing.T) {
	conn := mustConnect(t)
	ctx := context.Background()
	cursor := conn.Cursor()

	require.NoError(t, cursor.Execute(ctx, "create temporary table t1 (f1 int primary key, f2 bigint not null, f3 varchar(50) null)"))
	assert.Equal(t, int64(-1), cursor.RowCount())

	for _, f2 := range []int64{1, 10, 100, 1000, 10000} {
		require.NoError(t, cursor.Execute(ctx, "insert into t1 (f1, f2) values (%s, %s)", f2, f2))
		assert.Equal(t, int64(1), cursor.RowCount())
	}

	require.NoError(t, cursor.Execute(ctx, "update t1 set f3 = %s where f2 > 101", "Hello!"))
	assert.Equal(t, int64(2), cursor.RowCount())
}

func TestInsertReturningRowCount(t *testing.T) {
	conn := mustConnect(t)
	ctx := context.Background()
	cursor := conn.Cursor()

	require.NoError(t, cursor.Execute(ctx, "create temporary table t2 (id serial primary key, data text)"))
	require.NoError(t, cursor.Execute(ctx, "insert into t2 (data) values ('test2'),('test3'),('test4') returning id"))

	rows, err := cursor.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, int64(3), cursor.RowCount())
}

func TestRollbackNoticeScenario(t *testing.T) {
	conn := mustConnect(t)
	ctx := context.Background()

	// A raw rollback with no transaction open draws a 25P01 warning.
	conn.SetAutocommit(true)
	cursor := conn.Cursor()
	require.NoError(t, cursor.Execute(ctx, "rollback"))

	notices := conn.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "25P01", notices[0].Code)

	// The managed rollback knows no transaction is open and sends nothing.
	conn.ClearNotices()
	require.NoError(t, conn.Rollback(ctx))
	assert.Empty(t, conn.Notices())
}

func TestExecuteManyAccumulatesRowCount(t *testing.T) {
	conn := mustConnect(t)
	ctx := context.Background()
	cursor := conn.Cursor()

	require.NoError(t, cursor.Execute(ctx, "create temporary table t3 (a int, b text)"))

	err := cursor.ExecuteMany(ctx, "insert into t3 (a, b) values (%s, %s)", [][]interface{}{
		{int64(1), "one"},
		{int64(2), "two"},
		{int64(3), "three"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), cursor.RowCount())
}

func TestParallelCursors(t *testing.T) {
	conn := mustConnect(t)
	ctx := context.Background()

	setup := conn.Cursor()
	require.NoError(t, setup.Execute(ctx, "create temporary table t4 (n int)"))
	require.NoError(t, setup.Execute(ctx, "insert into t4 select generate_series(1, 250)"))

	c1 := conn.Cursor()
	c2 := conn.Cursor()
	require.NoError(t, c1.Execute(ctx, "select n from t4 order by n"))
	require.NoError(t, c2.Execute(ctx, "select n from t4 order by n desc"))

	// Interleave fetches; each cursor's stream must be independent.
	for i := 0; i < 250; i++ {
		row1, err := c1.FetchOne(ctx)
		require.NoError(t, err)
		row2, err := c2.FetchOne(ctx)
		require.NoError(t, err)

		assert.Equal(t, int32(i+1), row1[0])
		assert.Equal(t, int32(250-i), row2[0])
	}

	row, err := c1.FetchOne(ctx)
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.Equal(t, int64(250), c1.RowCount())
}

func TestPreparedStatementCatalog(t *testing.T) {
	conn := mustConnect(t)
	ctx := context.Background()

	countStatements := func() int64 {
		rows, err := conn.Run(ctx, "select count(*) from pg_prepared_statements")
		require.NoError(t, err)
		return rows[0][0].(int64)
	}

	before := countStatements()

	ps, err := conn.Prepare(ctx, "select %s::int")
	require.NoError(t, err)
	assert.Equal(t, before+1, countStatements())

	rows, err := ps.Run(ctx, int32(42))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(42), rows[0][0])

	require.NoError(t, ps.Close(ctx))
	assert.Equal(t, before, countStatements())
}

func TestEmptyQueryFails(t *testing.T) {
	conn := mustConnect(t)
	cursor := conn.Cursor()

	err := cursor.Execute(context.Background(), "")
	assert.ErrorIs(t, err, pgconn.ErrEmptyQuery)
}

func TestSetInputSizes(t *testing.T) {
	conn := mustConnect(t)
	ctx := context.Background()
	cursor := conn.Cursor()

	cursor.SetInputSizes(pgtype.Int4OID)
	require.NoError(t, cursor.Execute(ctx, "select pg_typeof(%s)::text", int64(7)))

	row, err := cursor.FetchOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, "integer", row[0])

	// The forced OIDs apply to a single execution.
	require.NoError(t, cursor.Execute(ctx, "select pg_typeof(%s)::text", int64(7)))
	row, err = cursor.FetchOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bigint", row[0])
}

func TestNotifications(t *testing.T) {
	conn := mustConnect(t)
	ctx := context.Background()

	conn.SetAutocommit(true)
	cursor := conn.Cursor()
	require.NoError(t, cursor.Execute(ctx, "listen pgsql_test_channel"))
	require.NoError(t, cursor.Execute(ctx, "notify pgsql_test_channel, 'payload'"))

	// The notification arrives before the notify's ReadyForQuery, so it is
	// already buffered.
	notifications := conn.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "pgsql_test_channel", notifications[0].Channel)
	assert.Equal(t, "payload", notifications[0].Payload)
}

func TestTransactionVisibility(t *testing.T) {
	conn := mustConnect(t)
	ctx := context.Background()
	cursor := conn.Cursor()

	require.NoError(t, cursor.Execute(ctx, "create temporary table t5 (n int)"))
	require.NoError(t, cursor.Execute(ctx, "insert into t5 values (1)"))
	require.NoError(t, conn.Rollback(ctx))

	// The temporary table was rolled back with the transaction.
	err := cursor.Execute(ctx, "select n from t5")
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "42P01", pgErr.SQLState())

	// The failed statement aborted only itself.
	require.NoError(t, conn.Rollback(ctx))
	require.NoError(t, cursor.Execute(ctx, "select 1"))
}

func TestTPC(t *testing.T) {
	conn := mustConnect(t)
	ctx := context.Background()

	xid := "pgsql_test_xid"

	require.NoError(t, conn.TPCBegin(ctx, xid))

	// Prepared transactions may not touch temporary objects, so keep the
	// work trivial.
	cursor := conn.Cursor()
	require.NoError(t, cursor.Execute(ctx, "select txid_current()"))

	if err := conn.TPCPrepare(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "55000" {
			t.Skip("server has max_prepared_transactions = 0")
		}
		t.Fatal(err)
	}

	// The prepared transaction is globally visible.
	xids, err := conn.TPCRecover(ctx)
	require.NoError(t, err)
	assert.Contains(t, xids, xid)

	// TPCRecover never opens a transaction of its own.
	assert.Equal(t, byte(pgconn.TxStatusIdle), conn.PgConn().TxStatus())

	require.NoError(t, conn.TPCRollback(ctx, xid))

	xids, err = conn.TPCRecover(ctx)
	require.NoError(t, err)
	assert.NotContains(t, xids, xid)
}

func TestTPCOnePhase(t *testing.T) {
	conn := mustConnect(t)
	ctx := context.Background()

	require.NoError(t, conn.TPCBegin(ctx, "pgsql_one_phase"))

	cursor := conn.Cursor()
	require.NoError(t, cursor.Execute(ctx, "select 1"))

	// Commit without prepare takes the one-phase path.
	require.NoError(t, conn.TPCCommit(ctx, ""))
	assert.Equal(t, byte(pgconn.TxStatusIdle), conn.PgConn().TxStatus())
}

func TestRunDecodesValues(t *testing.T) {
	conn := mustConnect(t)
	ctx := context.Background()

	rows, err := conn.Run(ctx, "select %s::int8, %s::text, %s::bool, null::text", int64(9), "hi", true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(9), rows[0][0])
	assert.Equal(t, "hi", rows[0][1])
	assert.Equal(t, true, rows[0][2])
	assert.Nil(t, rows[0][3])
}
