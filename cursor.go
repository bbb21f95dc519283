package pgsql

import (
	"context"
	"fmt"

	"github.com/pgsql-go/pgsql/pgconn"
)

// fetchBatchSize is the Execute max-rows limit used while iterating a
// result set inside a transaction. Any value preserves correctness as long
// as PortalSuspended resumes the portal.
const fetchBatchSize = 100

// Cursor executes statements and iterates their result sets. A cursor holds
// at most one open portal; opening several cursors on one connection lets
// their result sets be read in any interleaved order.
type Cursor struct {
	conn *Conn

	portalName string
	fields     []FieldDescription
	buffer     [][]interface{}
	suspended  bool
	rowCount   int64
	executed   bool

	// parameter OIDs forced by SetInputSizes for the next Execute
	inputOIDs []uint32
}

// Execute runs sql with args. Placeholders use the %s form and %% escapes a
// literal percent sign. Inside a transaction rows are pulled from the
// server in fixed-size batches as they are fetched; in autocommit mode the
// whole result set is materialized because the portal does not survive the
// end of the implicit transaction.
func (cr *Cursor) Execute(ctx context.Context, sql string, args ...interface{}) error {
	c := cr.conn

	if c.shouldLog(LogLevelDebug) {
		c.log(ctx, LogLevelDebug, "execute", map[string]interface{}{"sql": sql, "args": logQueryArgs(args)})
	}

	if err := cr.closePortal(ctx); err != nil {
		return err
	}

	rewritten, n := rewriteParams(sql)
	if n != len(args) {
		return fmt.Errorf("expected %d args, got %d", n, len(args))
	}

	if err := c.beginIfNeeded(ctx); err != nil {
		return err
	}

	forced := cr.inputOIDs
	cr.inputOIDs = nil

	psd, err := c.pgConn.Prepare(ctx, "", rewritten, c.inferParamOIDs(args, forced))
	if err != nil {
		return err
	}

	paramValues, paramFormats, err := c.encodeArgs(psd.ParamOIDs, args)
	if err != nil {
		return err
	}

	// A suspended portal only survives Sync inside a transaction block, so
	// batched fetching is restricted to that case.
	portalName := ""
	if c.pgConn.TxStatus() != pgconn.TxStatusIdle {
		portalName = c.nextPortalName()
	}

	fields, err := c.pgConn.OpenPortal(ctx, portalName, "", paramValues, paramFormats, c.resultFormats(psd.Fields))
	if err != nil {
		return err
	}

	cr.portalName = portalName
	cr.fields = fields
	cr.buffer = nil
	cr.suspended = false
	cr.rowCount = -1
	cr.executed = true

	return cr.fetchBatch(ctx)
}

func (cr *Cursor) fetchBatch(ctx context.Context) error {
	var maxRows int32
	if cr.portalName != "" {
		maxRows = fetchBatchSize
	}

	result, err := cr.conn.pgConn.ExecutePortal(ctx, cr.portalName, maxRows)
	if err != nil {
		cr.suspended = false
		return err
	}

	rows, err := cr.conn.decodeRows(cr.fields, result.Rows)
	if err != nil {
		return err
	}
	cr.buffer = append(cr.buffer, rows...)
	cr.suspended = result.Suspended

	if !result.Suspended {
		cr.rowCount = result.CommandTag.RowsAffected()
	}

	return nil
}

// ExecuteMany runs sql once per parameter tuple in argBatches, reusing a
// single Parse. RowCount accumulates across tuples for commands that report
// row counts.
func (cr *Cursor) ExecuteMany(ctx context.Context, sql string, argBatches [][]interface{}) error {
	c := cr.conn

	if c.shouldLog(LogLevelDebug) {
		c.log(ctx, LogLevelDebug, "executeMany", map[string]interface{}{"sql": sql, "batches": len(argBatches)})
	}

	if err := cr.closePortal(ctx); err != nil {
		return err
	}

	rewritten, n := rewriteParams(sql)

	if err := c.beginIfNeeded(ctx); err != nil {
		return err
	}

	forced := cr.inputOIDs
	cr.inputOIDs = nil

	var firstArgs []interface{}
	if len(argBatches) > 0 {
		firstArgs = argBatches[0]
	}

	psd, err := c.pgConn.Prepare(ctx, "", rewritten, c.inferParamOIDs(firstArgs, forced))
	if err != nil {
		return err
	}

	cr.portalName = ""
	cr.fields = nil
	cr.buffer = nil
	cr.suspended = false
	cr.rowCount = -1
	cr.executed = true

	total := int64(-1)
	for _, args := range argBatches {
		if n != len(args) {
			return fmt.Errorf("expected %d args, got %d", n, len(args))
		}

		paramValues, paramFormats, err := c.encodeArgs(psd.ParamOIDs, args)
		if err != nil {
			return err
		}

		result, err := c.pgConn.ExecPrepared(ctx, "", paramValues, paramFormats, c.resultFormats(psd.Fields))
		if err != nil {
			return err
		}

		cr.fields = result.FieldDescriptions
		if count := result.CommandTag.RowsAffected(); count != -1 {
			if total == -1 {
				total = 0
			}
			total += count
		}
	}

	cr.rowCount = total
	return nil
}

// SetInputSizes forces the given parameter OIDs on the next Execute or
// ExecuteMany, overriding inference from the Go values. A zero entry leaves
// that parameter to be inferred. The setting is consumed by the next
// execution.
func (cr *Cursor) SetInputSizes(oids ...uint32) {
	cr.inputOIDs = oids
}

// FetchOne returns the next row of the current result set, fetching another
// batch from the server when needed. It returns nil with no error when the
// result set is exhausted.
func (cr *Cursor) FetchOne(ctx context.Context) ([]interface{}, error) {
	if len(cr.buffer) == 0 && cr.suspended {
		if err := cr.fetchBatch(ctx); err != nil {
			return nil, err
		}
	}
	if len(cr.buffer) == 0 {
		return nil, nil
	}

	row := cr.buffer[0]
	cr.buffer = cr.buffer[1:]
	return row, nil
}

// FetchMany returns up to n rows of the current result set.
func (cr *Cursor) FetchMany(ctx context.Context, n int) ([][]interface{}, error) {
	var rows [][]interface{}
	for len(rows) < n {
		row, err := cr.FetchOne(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FetchAll returns all remaining rows of the current result set.
func (cr *Cursor) FetchAll(ctx context.Context) ([][]interface{}, error) {
	var rows [][]interface{}
	for {
		row, err := cr.FetchOne(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// RowCount returns the number of rows the last command reported affecting
// or returning. It is -1 before execution, while rows remain to be fetched,
// and for commands that report no row count.
func (cr *Cursor) RowCount() int64 {
	if !cr.executed {
		return -1
	}
	return cr.rowCount
}

// Description returns the column metadata of the current result set, or nil
// before the first execution and for statements that return no rows.
func (cr *Cursor) Description() []FieldDescription {
	return cr.fields
}

// Close closes the cursor's open portal, if any. The cursor may be reused
// after Close.
func (cr *Cursor) Close(ctx context.Context) error {
	return cr.closePortal(ctx)
}

func (cr *Cursor) closePortal(ctx context.Context) error {
	if cr.portalName == "" || !cr.suspended {
		cr.portalName = ""
		cr.suspended = false
		return nil
	}

	name := cr.portalName
	cr.portalName = ""
	cr.suspended = false
	return cr.conn.pgConn.ClosePortal(ctx, name)
}
