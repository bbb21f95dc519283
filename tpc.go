package pgsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgsql-go/pgsql/pgconn"
)

// Two-phase commit. PostgreSQL has no "begin for xid" wire message, so the
// xid given to TPCBegin is tracked client-side only until TPCPrepare issues
// PREPARE TRANSACTION. After the prepare the transaction is globally
// visible and may be finished from any connection by passing its xid to
// TPCCommit or TPCRollback.

// TPCBegin starts a transaction to be finished with the two-phase commit
// operations, tagging it with xid. The server must report no transaction in
// progress.
func (c *Conn) TPCBegin(ctx context.Context, xid string) error {
	if xid == "" {
		return fmt.Errorf("empty xid: %w", ErrTxStateMismatch)
	}
	if c.tpcXID != "" || c.pgConn.TxStatus() != pgconn.TxStatusIdle {
		return fmt.Errorf("transaction already in progress: %w", ErrTxStateMismatch)
	}

	if err := c.execSimple(ctx, "begin"); err != nil {
		return err
	}
	c.tpcXID = xid
	c.tpcPrepared = false
	return nil
}

// TPCPrepare performs the first phase: PREPARE TRANSACTION with the xid
// given to TPCBegin. Afterwards the local transaction is gone and the
// prepared transaction is visible to every connection.
func (c *Conn) TPCPrepare(ctx context.Context) error {
	if c.tpcXID == "" {
		return fmt.Errorf("no two-phase transaction begun: %w", ErrTxStateMismatch)
	}

	if err := c.execSimple(ctx, "prepare transaction "+quoteLiteral(c.tpcXID)); err != nil {
		return err
	}
	c.tpcPrepared = true
	return nil
}

// TPCCommit finishes a two-phase transaction. With an empty xid it commits
// the transaction begun by TPCBegin on this connection: COMMIT PREPARED
// after TPCPrepare, a plain commit otherwise (one-phase optimization). A
// non-empty xid commits a transaction prepared elsewhere and touches no
// local transaction state.
func (c *Conn) TPCCommit(ctx context.Context, xid string) error {
	return c.tpcFinish(ctx, xid, "commit")
}

// TPCRollback is the rollback counterpart of TPCCommit, including rolling
// back transactions prepared on other connections by xid.
func (c *Conn) TPCRollback(ctx context.Context, xid string) error {
	return c.tpcFinish(ctx, xid, "rollback")
}

func (c *Conn) tpcFinish(ctx context.Context, xid, verb string) error {
	if xid != "" && xid != c.tpcXID {
		return c.execSimple(ctx, verb+" prepared "+quoteLiteral(xid))
	}

	if c.tpcXID == "" {
		return fmt.Errorf("no two-phase transaction begun: %w", ErrTxStateMismatch)
	}

	var sql string
	if c.tpcPrepared {
		sql = verb + " prepared " + quoteLiteral(c.tpcXID)
	} else {
		sql = verb
	}

	if err := c.execSimple(ctx, sql); err != nil {
		return err
	}
	c.tpcXID = ""
	c.tpcPrepared = false
	return nil
}

// TPCRecover returns the xids of transactions prepared but not yet
// committed or rolled back, from any connection. It reads the server
// catalog via the simple protocol and never changes this connection's
// transaction state.
func (c *Conn) TPCRecover(ctx context.Context) ([]string, error) {
	results, err := c.pgConn.Exec(ctx, "select gid from pg_prepared_xacts")
	if err != nil {
		return nil, err
	}

	var xids []string
	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		for _, row := range r.Rows {
			if len(row) > 0 && row[0] != nil {
				xids = append(xids, string(row[0]))
			}
		}
	}
	return xids, nil
}

// quoteLiteral renders s as a SQL string literal. xids are interpolated
// into PREPARE TRANSACTION and COMMIT/ROLLBACK PREPARED statements because
// those do not accept protocol parameters.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
