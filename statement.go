package pgsql

import (
	"context"
	"fmt"

	"github.com/pgsql-go/pgsql/pgconn"
)

// PreparedStatement is a named server-side prepared statement. It is
// created by Conn.Prepare and lives until Close or the end of the
// connection.
type PreparedStatement struct {
	conn       *Conn
	name       string
	sql        string
	paramCount int
	desc       *pgconn.StatementDescription

	closed bool
}

// Prepare parses sql as a named prepared statement. Placeholders use the %s
// form. The statement may be run any number of times with different
// parameters.
func (c *Conn) Prepare(ctx context.Context, sql string) (*PreparedStatement, error) {
	if c.shouldLog(LogLevelDebug) {
		c.log(ctx, LogLevelDebug, "prepare", map[string]interface{}{"sql": sql})
	}

	rewritten, n := rewriteParams(sql)
	name := c.nextStatementName()

	desc, err := c.pgConn.Prepare(ctx, name, rewritten, nil)
	if err != nil {
		return nil, err
	}

	return &PreparedStatement{
		conn:       c,
		name:       name,
		sql:        sql,
		paramCount: n,
		desc:       desc,
	}, nil
}

// Name returns the server-side statement name.
func (ps *PreparedStatement) Name() string {
	return ps.name
}

// SQL returns the statement text as passed to Prepare.
func (ps *PreparedStatement) SQL() string {
	return ps.sql
}

// Fields returns the column metadata of the statement's result set, or nil
// for statements that return no rows.
func (ps *PreparedStatement) Fields() []FieldDescription {
	return ps.desc.Fields
}

// Run executes the prepared statement with args and returns the fully
// materialized, decoded rows.
func (ps *PreparedStatement) Run(ctx context.Context, args ...interface{}) ([][]interface{}, error) {
	c := ps.conn

	if ps.closed {
		return nil, fmt.Errorf("prepared statement %q is closed", ps.name)
	}
	if ps.paramCount != len(args) {
		return nil, fmt.Errorf("expected %d args, got %d", ps.paramCount, len(args))
	}

	if c.shouldLog(LogLevelDebug) {
		c.log(ctx, LogLevelDebug, "run prepared", map[string]interface{}{"name": ps.name, "args": logQueryArgs(args)})
	}

	if err := c.beginIfNeeded(ctx); err != nil {
		return nil, err
	}

	paramValues, paramFormats, err := c.encodeArgs(ps.desc.ParamOIDs, args)
	if err != nil {
		return nil, err
	}

	result, err := c.pgConn.ExecPrepared(ctx, ps.name, paramValues, paramFormats, c.resultFormats(ps.desc.Fields))
	if err != nil {
		return nil, err
	}

	return c.decodeRows(result.FieldDescriptions, result.Rows)
}

// Close releases the statement on the server. Closing an already closed
// statement is a no-op.
func (ps *PreparedStatement) Close(ctx context.Context) error {
	if ps.closed {
		return nil
	}
	ps.closed = true
	return ps.conn.pgConn.CloseStatement(ctx, ps.name)
}
