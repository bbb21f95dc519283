package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pgsql-go/pgsql/pgconn"
	"github.com/pgsql-go/pgsql/pgtype"
)

// ErrTxStateMismatch is returned when a transaction operation does not fit
// the server-reported transaction state, e.g. TPCBegin while a transaction
// is already open.
var ErrTxStateMismatch = errors.New("transaction state mismatch")

// ConnConfig contains all the options used to establish a connection.
type ConnConfig struct {
	pgconn.Config

	Logger   Logger
	LogLevel LogLevel
}

// ParseConfig creates a ConnConfig from a connection string with the same
// behavior as pgconn.ParseConfig.
func ParseConfig(connString string) (*ConnConfig, error) {
	config, err := pgconn.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	return &ConnConfig{Config: *config, LogLevel: LogLevelInfo}, nil
}

// Conn is a database connection with a cursor-and-connection style query
// interface layered over pgconn.PgConn. SQL placeholders use the %s form
// and are rewritten to protocol parameters. Conn is not safe for concurrent
// use.
type Conn struct {
	pgConn  *pgconn.PgConn
	config  *ConnConfig
	typeMap *pgtype.Map

	logger   Logger
	logLevel LogLevel

	autocommit bool

	// next generated portal / statement name suffixes
	portalSeq int
	stmtSeq   int

	tpcXID      string
	tpcPrepared bool
}

// Connect establishes a connection using the settings parsed from
// connString. The connection starts with autocommit off: the first
// statement executed through a Cursor opens a transaction that lasts until
// Commit or Rollback.
func Connect(ctx context.Context, connString string) (*Conn, error) {
	config, err := ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	return ConnectConfig(ctx, config)
}

// ConnectConfig establishes a connection using config.
func ConnectConfig(ctx context.Context, config *ConnConfig) (*Conn, error) {
	c := &Conn{
		config:   config,
		typeMap:  pgtype.NewMap(),
		logger:   config.Logger,
		logLevel: config.LogLevel,
	}

	var err error
	c.pgConn, err = pgconn.ConnectConfig(ctx, &config.Config)
	if err != nil {
		if c.shouldLog(LogLevelError) {
			c.log(ctx, LogLevelError, "connect failed", map[string]interface{}{"err": err, "host": config.Host})
		}
		return nil, err
	}

	if c.shouldLog(LogLevelInfo) {
		c.log(ctx, LogLevelInfo, "connected", map[string]interface{}{"host": config.Host, "pid": c.pgConn.PID()})
	}

	return c, nil
}

func (c *Conn) shouldLog(lvl LogLevel) bool {
	return c.logger != nil && c.logLevel >= lvl
}

func (c *Conn) log(ctx context.Context, lvl LogLevel, msg string, data map[string]interface{}) {
	c.logger.Log(ctx, lvl, msg, data)
}

// Close sends the protocol Terminate message and closes the connection.
func (c *Conn) Close(ctx context.Context) error {
	return c.pgConn.Close()
}

// IsClosed reports whether the underlying connection has been closed or
// invalidated.
func (c *Conn) IsClosed() bool {
	return c.pgConn.IsClosed()
}

// PgConn returns the underlying low-level connection for direct protocol
// access.
func (c *Conn) PgConn() *pgconn.PgConn {
	return c.pgConn
}

// TypeMap returns the OID to codec registry used by this connection.
func (c *Conn) TypeMap() *pgtype.Map {
	return c.typeMap
}

// Autocommit reports whether statements run outside explicit transactions.
func (c *Conn) Autocommit() bool {
	return c.autocommit
}

// SetAutocommit changes the autocommit mode. With autocommit off (the
// default) the connection opens a transaction before the first statement
// and holds it until Commit or Rollback. With autocommit on statements are
// forwarded as-is and the server commits each one individually.
func (c *Conn) SetAutocommit(autocommit bool) {
	c.autocommit = autocommit
}

// beginIfNeeded opens a transaction when autocommit is off and the server
// reports no transaction in progress. The transaction state itself always
// comes from ReadyForQuery; this only decides whether to send "begin".
func (c *Conn) beginIfNeeded(ctx context.Context) error {
	if c.autocommit || c.pgConn.TxStatus() != pgconn.TxStatusIdle {
		return nil
	}
	return c.execSimple(ctx, "begin")
}

// Commit commits the open transaction. It is a no-op when the server
// reports no transaction in progress, so committing on a fresh connection
// never produces a "no transaction" warning.
func (c *Conn) Commit(ctx context.Context) error {
	if c.pgConn.TxStatus() == pgconn.TxStatusIdle {
		return nil
	}
	return c.execSimple(ctx, "commit")
}

// Rollback rolls back the open transaction. It is a no-op when the server
// reports no transaction in progress.
func (c *Conn) Rollback(ctx context.Context) error {
	if c.pgConn.TxStatus() == pgconn.TxStatusIdle {
		return nil
	}
	return c.execSimple(ctx, "rollback")
}

// execSimple runs sql via the simple protocol and surfaces the first
// statement error.
func (c *Conn) execSimple(ctx context.Context, sql string) error {
	results, err := c.pgConn.Exec(ctx, sql)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// Cursor returns a new cursor on this connection. Any number of cursors may
// be open at once; their result sets may be read in any interleaved order.
func (c *Conn) Cursor() *Cursor {
	return &Cursor{conn: c, rowCount: -1}
}

// Run executes sql once with args and returns the fully materialized,
// decoded rows. Placeholders use the %s form. It is a convenience for
// statements whose result set is small; use a Cursor to stream large
// results.
func (c *Conn) Run(ctx context.Context, sql string, args ...interface{}) ([][]interface{}, error) {
	if c.shouldLog(LogLevelDebug) {
		c.log(ctx, LogLevelDebug, "run", map[string]interface{}{"sql": sql, "args": logQueryArgs(args)})
	}

	rewritten, n := rewriteParams(sql)
	if n != len(args) {
		return nil, fmt.Errorf("expected %d args, got %d", n, len(args))
	}

	if err := c.beginIfNeeded(ctx); err != nil {
		return nil, err
	}

	psd, err := c.pgConn.Prepare(ctx, "", rewritten, c.inferParamOIDs(args, nil))
	if err != nil {
		return nil, err
	}

	paramValues, paramFormats, err := c.encodeArgs(psd.ParamOIDs, args)
	if err != nil {
		return nil, err
	}

	result, err := c.pgConn.ExecPrepared(ctx, "", paramValues, paramFormats, c.resultFormats(psd.Fields))
	if err != nil {
		return nil, err
	}

	return c.decodeRows(result.FieldDescriptions, result.Rows)
}

// Notices returns the notices accumulated on this connection, oldest first.
func (c *Conn) Notices() []*pgconn.Notice {
	return c.pgConn.Notices()
}

// ClearNotices empties the accumulated notice list.
func (c *Conn) ClearNotices() {
	c.pgConn.ClearNotices()
}

// Notifications returns the LISTEN/NOTIFY notifications accumulated on this
// connection, oldest first.
func (c *Conn) Notifications() []*pgconn.Notification {
	return c.pgConn.Notifications()
}

// ClearNotifications empties the accumulated notification list.
func (c *Conn) ClearNotifications() {
	c.pgConn.ClearNotifications()
}

// WaitForNotification blocks until a notification is received or ctx is
// done.
func (c *Conn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return c.pgConn.WaitForNotification(ctx)
}

// CancelRequest sends a cancel request for the query in flight on this
// connection over a second physical connection.
func (c *Conn) CancelRequest(ctx context.Context) error {
	return c.pgConn.CancelRequest(ctx)
}

// inferParamOIDs produces the parameter OIDs for Parse. forced overrides
// inference positionally; a zero entry (or running out of forced entries)
// falls back to inferring from the Go value, and a zero result lets the
// server infer.
func (c *Conn) inferParamOIDs(args []interface{}, forced []uint32) []uint32 {
	if len(args) == 0 {
		return nil
	}
	oids := make([]uint32, len(args))
	for i, arg := range args {
		if i < len(forced) && forced[i] != 0 {
			oids[i] = forced[i]
			continue
		}
		oids[i] = c.typeMap.OIDForValue(arg)
	}
	return oids
}

// encodeArgs encodes args for the parameter OIDs the server reported at
// Describe time. Each parameter uses its codec's preferred format.
func (c *Conn) encodeArgs(paramOIDs []uint32, args []interface{}) ([][]byte, []int16, error) {
	if len(args) == 0 {
		return nil, nil, nil
	}
	if len(paramOIDs) != len(args) {
		return nil, nil, fmt.Errorf("statement expects %d parameters, got %d", len(paramOIDs), len(args))
	}

	values := make([][]byte, len(args))
	formats := make([]int16, len(args))
	for i, arg := range args {
		oid := paramOIDs[i]
		format := c.typeMap.PreferredFormat(oid)
		buf, err := c.typeMap.Encode(oid, format, arg, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding parameter %d: %w", i+1, err)
		}
		values[i] = buf
		formats[i] = format
	}
	return values, formats, nil
}

// resultFormats chooses the wire format for each result column: the
// registered codec's preferred format, text for unknown types.
func (c *Conn) resultFormats(fields []FieldDescription) []int16 {
	if len(fields) == 0 {
		return nil
	}
	formats := make([]int16, len(fields))
	for i, fd := range fields {
		formats[i] = c.typeMap.PreferredFormat(fd.DataTypeOID)
	}
	return formats
}

// decodeRows decodes raw wire rows into Go values using the connection's
// type map.
func (c *Conn) decodeRows(fields []FieldDescription, rows [][][]byte) ([][]interface{}, error) {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		decoded := make([]interface{}, len(row))
		for j, src := range row {
			var format int16
			if j < len(fields) {
				format = fields[j].Format
			}
			var oid uint32
			if j < len(fields) {
				oid = fields[j].DataTypeOID
			}
			v, err := c.typeMap.DecodeValue(oid, format, src)
			if err != nil {
				return nil, fmt.Errorf("decoding row %d column %d: %w", i, j, err)
			}
			decoded[j] = v
		}
		out[i] = decoded
	}
	return out, nil
}

func (c *Conn) nextPortalName() string {
	c.portalSeq++
	return "pgsql_pt_" + strconv.Itoa(c.portalSeq)
}

func (c *Conn) nextStatementName() string {
	c.stmtSeq++
	return "pgsql_st_" + strconv.Itoa(c.stmtSeq)
}
