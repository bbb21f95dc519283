package pgconn

import (
	"context"
	"crypto/md5"
	"crypto/tls"
	"encoding/hex"
	"io"
	"net"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/pgsql-go/pgsql/pgproto"
)

// Notice represents a non-error message reported by the PostgreSQL server.
// It shares the field layout of PgError.
type Notice PgError

// Notification is a message received from the PostgreSQL LISTEN/NOTIFY
// system.
type Notification struct {
	PID     uint32 // backend pid that sent the notification
	Channel string
	Payload string
}

// Transaction status byte as reported by ReadyForQuery.
const (
	TxStatusIdle          = pgproto.TxStatusIdle
	TxStatusInTransaction = pgproto.TxStatusInTransaction
	TxStatusFailed        = pgproto.TxStatusFailed
)

// PgConn is a low-level PostgreSQL connection handle. It is not safe for
// concurrent usage.
type PgConn struct {
	conn     net.Conn
	frontend *pgproto.Frontend
	config   *Config

	pid               uint32
	secretKey         uint32
	parameterStatuses map[string]string
	txStatus          byte

	notices       []*Notice
	notifications []*Notification

	closed bool
}

// Connect establishes a connection to a PostgreSQL server using the
// settings parsed from connString. See ParseConfig for the accepted
// formats.
func Connect(ctx context.Context, connString string) (*PgConn, error) {
	config, err := ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	return ConnectConfig(ctx, config)
}

// ConnectConfig establishes a connection using config. config must have
// been created by ParseConfig or have its DialFunc set.
func ConnectConfig(ctx context.Context, config *Config) (*PgConn, error) {
	fallbacks := []*FallbackConfig{
		{Host: config.Host, Port: config.Port, TLSConfig: config.TLSConfig},
	}
	fallbacks = append(fallbacks, config.Fallbacks...)

	var err error
	for _, fc := range fallbacks {
		var pgConn *PgConn
		pgConn, err = connect(ctx, config, fc)
		if err == nil {
			return pgConn, nil
		}
		if pgErr, ok := err.(*PgError); ok {
			// Server was reached and rejected the connection. Trying more
			// network fallbacks will not help.
			return nil, &ConnectError{Config: config, msg: "server error", err: pgErr}
		}
	}

	return nil, &ConnectError{Config: config, msg: "dial error", err: err}
}

func connect(ctx context.Context, config *Config, fallbackConfig *FallbackConfig) (*PgConn, error) {
	pgConn := &PgConn{
		config:            config,
		parameterStatuses: make(map[string]string),
		txStatus:          TxStatusIdle,
	}

	network, address := NetworkAddress(fallbackConfig.Host, fallbackConfig.Port)
	var err error
	pgConn.conn, err = config.DialFunc(ctx, network, address)
	if err != nil {
		return nil, err
	}

	if fallbackConfig.TLSConfig != nil {
		if err := pgConn.startTLS(fallbackConfig.TLSConfig); err != nil {
			pgConn.conn.Close()
			return nil, err
		}
	}

	if restore := pgConn.applyDeadline(ctx); restore != nil {
		defer restore()
	}

	pgConn.frontend = pgproto.NewFrontend(pgConn.conn, pgConn.conn)

	startupMsg := pgproto.StartupMessage{
		ProtocolVersion: pgproto.ProtocolVersionNumber,
		Parameters:      make(map[string]string),
	}
	for k, v := range config.RuntimeParams {
		startupMsg.Parameters[k] = v
	}
	startupMsg.Parameters["user"] = config.User
	if config.Database != "" {
		startupMsg.Parameters["database"] = config.Database
	}

	if _, err := pgConn.conn.Write(startupMsg.Encode(nil)); err != nil {
		pgConn.conn.Close()
		return nil, err
	}

	for {
		msg, err := pgConn.receiveMessage()
		if err != nil {
			pgConn.conn.Close()
			return nil, err
		}

		switch msg := msg.(type) {
		case *pgproto.BackendKeyData:
			pgConn.pid = msg.ProcessID
			pgConn.secretKey = msg.SecretKey
		case *pgproto.Authentication:
			if err := pgConn.rxAuthentication(msg); err != nil {
				pgConn.conn.Close()
				return nil, err
			}
		case *pgproto.ReadyForQuery:
			return pgConn, nil
		case *pgproto.ParameterStatus, *pgproto.NoticeResponse:
			// handled by receiveMessage
		case *pgproto.ErrorResponse:
			pgConn.conn.Close()
			return nil, errorResponseToPgError(msg)
		default:
			pgConn.conn.Close()
			return nil, protocolErrorf("unexpected message during startup: %T", msg)
		}
	}
}

func (pgConn *PgConn) startTLS(tlsConfig *tls.Config) error {
	if _, err := pgConn.conn.Write((&pgproto.SSLRequest{}).Encode(nil)); err != nil {
		return err
	}

	response := make([]byte, 1)
	if _, err := io.ReadFull(pgConn.conn, response); err != nil {
		return err
	}

	if response[0] != 'S' {
		return ErrTLSRefused
	}

	pgConn.conn = tls.Client(pgConn.conn, tlsConfig)
	return nil
}

func (pgConn *PgConn) rxAuthentication(msg *pgproto.Authentication) error {
	switch msg.Type {
	case pgproto.AuthTypeOk:
		return nil
	case pgproto.AuthTypeCleartextPassword:
		return pgConn.txPasswordMessage(pgConn.config.Password)
	case pgproto.AuthTypeMD5Password:
		digestedPassword := "md5" + hexMD5(hexMD5(pgConn.config.Password+pgConn.config.User)+string(msg.Salt[:]))
		return pgConn.txPasswordMessage(digestedPassword)
	case pgproto.AuthTypeSASL:
		return pgConn.scramAuth(msg.SASLAuthMechanisms)
	default:
		return protocolErrorf("unknown authentication type: %d", msg.Type)
	}
}

func (pgConn *PgConn) txPasswordMessage(password string) error {
	msg := &pgproto.PasswordMessage{Password: password}
	_, err := pgConn.conn.Write(msg.Encode(nil))
	return err
}

func hexMD5(s string) string {
	hash := md5.New()
	io.WriteString(hash, s)
	return hex.EncodeToString(hash.Sum(nil))
}

// receiveMessage reads one message and applies its connection state side
// effects: transaction status, server parameters, notices and
// notifications. Any read error permanently invalidates the connection.
func (pgConn *PgConn) receiveMessage() (pgproto.BackendMessage, error) {
	msg, err := pgConn.frontend.Receive()
	if err != nil {
		pgConn.hardClose()
		return nil, err
	}

	switch msg := msg.(type) {
	case *pgproto.ReadyForQuery:
		pgConn.txStatus = msg.TxStatus
	case *pgproto.ParameterStatus:
		pgConn.parameterStatuses[msg.Name] = msg.Value
	case *pgproto.NoticeResponse:
		pgConn.notices = append(pgConn.notices, noticeResponseToNotice(msg))
	case *pgproto.NotificationResponse:
		pgConn.notifications = append(pgConn.notifications, &Notification{PID: msg.PID, Channel: msg.Channel, Payload: msg.Payload})
	case *pgproto.ErrorResponse:
		if msg.Severity == "FATAL" {
			err := errorResponseToPgError(msg)
			pgConn.hardClose()
			return nil, err
		}
	}

	return msg, nil
}

func noticeResponseToNotice(msg *pgproto.NoticeResponse) *Notice {
	pgerr := errorResponseToPgError((*pgproto.ErrorResponse)(msg))
	return (*Notice)(pgerr)
}

// ReceiveMessage reads one message from the server, blocking until one
// arrives. It is only needed when the caller wants raw protocol access;
// the query methods consume their own messages.
func (pgConn *PgConn) ReceiveMessage(ctx context.Context) (pgproto.BackendMessage, error) {
	if pgConn.closed {
		return nil, ErrConnClosed
	}
	if restore := pgConn.applyDeadline(ctx); restore != nil {
		defer restore()
	}
	return pgConn.receiveMessage()
}

// hardClose closes the underlying connection without the Terminate
// handshake. Used when the connection state is no longer trustworthy.
func (pgConn *PgConn) hardClose() {
	if pgConn.closed {
		return
	}
	pgConn.closed = true
	pgConn.conn.Close()
}

// Close sends the Terminate message and closes the connection. It is safe
// to call Close on an already closed connection.
func (pgConn *PgConn) Close() error {
	if pgConn.closed {
		return nil
	}
	pgConn.closed = true

	if _, err := pgConn.conn.Write((&pgproto.Terminate{}).Encode(nil)); err != nil {
		pgConn.conn.Close()
		return err
	}

	return pgConn.conn.Close()
}

// IsClosed reports whether the connection has been closed or invalidated
// by a fatal error.
func (pgConn *PgConn) IsClosed() bool {
	return pgConn.closed
}

// TxStatus returns the transaction status most recently reported by
// ReadyForQuery: 'I' idle, 'T' in transaction, 'E' failed transaction.
func (pgConn *PgConn) TxStatus() byte {
	return pgConn.txStatus
}

// PID returns the backend process id. It is the key for CancelRequest and
// for matching notifications.
func (pgConn *PgConn) PID() uint32 {
	return pgConn.pid
}

// SecretKey returns the backend cancellation key.
func (pgConn *PgConn) SecretKey() uint32 {
	return pgConn.secretKey
}

// ParameterStatus returns the value of a parameter reported by the server
// (e.g. server_version). Returns an empty string for unknown parameters.
func (pgConn *PgConn) ParameterStatus(key string) string {
	return pgConn.parameterStatuses[key]
}

// ServerVersion returns the server_version parameter parsed as a semantic
// version. Trailing vendor qualifiers such as "(Debian ...)" are ignored.
func (pgConn *PgConn) ServerVersion() (*semver.Version, error) {
	raw := pgConn.parameterStatuses["server_version"]
	if i := strings.IndexByte(raw, ' '); i != -1 {
		raw = raw[:i]
	}
	return semver.NewVersion(raw)
}

// Notices returns the notices accumulated on this connection, oldest
// first.
func (pgConn *PgConn) Notices() []*Notice {
	return pgConn.notices
}

// ClearNotices empties the accumulated notice list.
func (pgConn *PgConn) ClearNotices() {
	pgConn.notices = nil
}

// Notifications returns the LISTEN/NOTIFY notifications accumulated on
// this connection, oldest first.
func (pgConn *PgConn) Notifications() []*Notification {
	return pgConn.notifications
}

// ClearNotifications empties the accumulated notification list.
func (pgConn *PgConn) ClearNotifications() {
	pgConn.notifications = nil
}

// WaitForNotification blocks until a notification is received or ctx is
// done. The notification is also appended to the Notifications list.
func (pgConn *PgConn) WaitForNotification(ctx context.Context) (*Notification, error) {
	if pgConn.closed {
		return nil, ErrConnClosed
	}
	if restore := pgConn.applyDeadline(ctx); restore != nil {
		defer restore()
	}

	for {
		msg, err := pgConn.receiveMessage()
		if err != nil {
			return nil, err
		}
		if _, ok := msg.(*pgproto.NotificationResponse); ok {
			return pgConn.notifications[len(pgConn.notifications)-1], nil
		}
	}
}

// applyDeadline propagates a context deadline to the socket. It returns a
// function restoring the unlimited deadline, or nil when ctx has none.
func (pgConn *PgConn) applyDeadline(ctx context.Context) func() {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	pgConn.conn.SetDeadline(deadline)
	return func() { pgConn.conn.SetDeadline(time.Time{}) }
}

// CommandTag is the status tag of a completed command, e.g. "INSERT 0 1".
type CommandTag string

// RowsAffected returns the number of rows the command reported affecting,
// or -1 when the tag carries no row count (e.g. "CREATE TABLE").
func (ct CommandTag) RowsAffected() int64 {
	parts := strings.Split(string(ct), " ")
	if len(parts) < 2 {
		return -1
	}

	switch parts[0] {
	case "INSERT", "SELECT", "UPDATE", "DELETE", "MOVE", "FETCH", "COPY", "MERGE":
	default:
		return -1
	}

	var n int64
	for _, b := range []byte(parts[len(parts)-1]) {
		if b < '0' || b > '9' {
			return -1
		}
		n = n*10 + int64(b-'0')
	}
	return n
}

// Result is the complete result of one command.
type Result struct {
	FieldDescriptions []pgproto.FieldDescription
	Rows              [][][]byte
	CommandTag        CommandTag
	Err               error
}

// PortalResult is the result of one Execute round trip against an open
// portal.
type PortalResult struct {
	Rows       [][][]byte
	CommandTag CommandTag

	// Suspended is set when the server stopped at the max-rows limit with
	// the portal still open.
	Suspended bool
}

// StatementDescription is the server-reported shape of a prepared
// statement.
type StatementDescription struct {
	Name      string
	SQL       string
	ParamOIDs []uint32
	Fields    []pgproto.FieldDescription
}

// Exec executes sql via the PostgreSQL simple query protocol. sql may
// contain multiple statements separated by semicolons; one Result is
// returned per statement. An empty query yields a single Result with Err
// set to ErrEmptyQuery.
func (pgConn *PgConn) Exec(ctx context.Context, sql string) ([]*Result, error) {
	if pgConn.closed {
		return nil, ErrConnClosed
	}
	if restore := pgConn.applyDeadline(ctx); restore != nil {
		defer restore()
	}

	pgConn.frontend.Send(&pgproto.Query{String: sql})
	if err := pgConn.frontend.Flush(); err != nil {
		pgConn.hardClose()
		return nil, err
	}

	var results []*Result
	result := &Result{}

	for {
		msg, err := pgConn.receiveMessage()
		if err != nil {
			return nil, err
		}

		switch msg := msg.(type) {
		case *pgproto.RowDescription:
			result.FieldDescriptions = copyFieldDescriptions(msg.Fields)
		case *pgproto.DataRow:
			result.Rows = append(result.Rows, copyDataRow(msg.Values))
		case *pgproto.CommandComplete:
			result.CommandTag = CommandTag(msg.CommandTag)
			results = append(results, result)
			result = &Result{}
		case *pgproto.EmptyQueryResponse:
			result.Err = ErrEmptyQuery
			results = append(results, result)
			result = &Result{}
		case *pgproto.ErrorResponse:
			result.Err = errorResponseToPgError(msg)
			results = append(results, result)
			result = &Result{}
		case *pgproto.CopyInResponse:
			// Exec does not support COPY FROM STDIN; fail the copy so the
			// server aborts the statement.
			pgConn.frontend.Send(&pgproto.CopyFail{Message: "COPY is not supported by Exec"})
			if err := pgConn.frontend.Flush(); err != nil {
				pgConn.hardClose()
				return nil, err
			}
		case *pgproto.CopyOutResponse, *pgproto.CopyData, *pgproto.CopyDone:
			// COPY TO STDOUT data is discarded; use CopyTo instead.
		case *pgproto.ReadyForQuery:
			return results, nil
		}
	}
}

// Prepare creates a prepared statement via Parse/Describe/Sync and returns
// its server-reported description. The empty name is the unnamed
// statement, which the next Prepare or ExecParams overwrites.
func (pgConn *PgConn) Prepare(ctx context.Context, name, sql string, paramOIDs []uint32) (*StatementDescription, error) {
	if pgConn.closed {
		return nil, ErrConnClosed
	}
	if restore := pgConn.applyDeadline(ctx); restore != nil {
		defer restore()
	}

	pgConn.frontend.Send(&pgproto.Parse{Name: name, Query: sql, ParameterOIDs: paramOIDs})
	pgConn.frontend.Send(&pgproto.Describe{ObjectType: pgproto.ObjectTypePreparedStatement, Name: name})
	pgConn.frontend.Send(&pgproto.Sync{})
	if err := pgConn.frontend.Flush(); err != nil {
		pgConn.hardClose()
		return nil, err
	}

	psd := &StatementDescription{Name: name, SQL: sql}
	var resultErr error

	for {
		msg, err := pgConn.receiveMessage()
		if err != nil {
			return nil, err
		}

		switch msg := msg.(type) {
		case *pgproto.ParameterDescription:
			psd.ParamOIDs = make([]uint32, len(msg.ParameterOIDs))
			copy(psd.ParamOIDs, msg.ParameterOIDs)
		case *pgproto.RowDescription:
			psd.Fields = copyFieldDescriptions(msg.Fields)
		case *pgproto.ErrorResponse:
			resultErr = errorResponseToPgError(msg)
		case *pgproto.ReadyForQuery:
			if resultErr != nil {
				return nil, resultErr
			}
			return psd, nil
		}
	}
}

// OpenPortal binds a portal to a prepared statement. The portal stays open
// until it is closed, executed to completion, or the surrounding
// transaction ends. Several portals may be open at once on one connection.
// resultFormats applies per result column; a single element applies to all
// columns.
func (pgConn *PgConn) OpenPortal(ctx context.Context, portal, stmt string, paramValues [][]byte, paramFormats, resultFormats []int16) ([]pgproto.FieldDescription, error) {
	if pgConn.closed {
		return nil, ErrConnClosed
	}
	if restore := pgConn.applyDeadline(ctx); restore != nil {
		defer restore()
	}

	pgConn.frontend.Send(&pgproto.Bind{
		DestinationPortal:    portal,
		PreparedStatement:    stmt,
		ParameterFormatCodes: paramFormats,
		Parameters:           paramValues,
		ResultFormatCodes:    resultFormats,
	})
	pgConn.frontend.Send(&pgproto.Describe{ObjectType: pgproto.ObjectTypePortal, Name: portal})
	pgConn.frontend.Send(&pgproto.Sync{})
	if err := pgConn.frontend.Flush(); err != nil {
		pgConn.hardClose()
		return nil, err
	}

	var fields []pgproto.FieldDescription
	var resultErr error

	for {
		msg, err := pgConn.receiveMessage()
		if err != nil {
			return nil, err
		}

		switch msg := msg.(type) {
		case *pgproto.RowDescription:
			fields = copyFieldDescriptions(msg.Fields)
		case *pgproto.ErrorResponse:
			resultErr = errorResponseToPgError(msg)
		case *pgproto.ReadyForQuery:
			return fields, resultErr
		}
	}
}

// ExecutePortal runs one Execute round trip against an open portal.
// maxRows limits the number of rows returned; 0 means no limit. When the
// limit is hit with rows remaining the result is marked Suspended and a
// further ExecutePortal continues from where the server stopped.
func (pgConn *PgConn) ExecutePortal(ctx context.Context, portal string, maxRows int32) (*PortalResult, error) {
	if pgConn.closed {
		return nil, ErrConnClosed
	}
	if restore := pgConn.applyDeadline(ctx); restore != nil {
		defer restore()
	}

	pgConn.frontend.Send(&pgproto.Execute{Portal: portal, MaxRows: uint32(maxRows)})
	pgConn.frontend.Send(&pgproto.Sync{})
	if err := pgConn.frontend.Flush(); err != nil {
		pgConn.hardClose()
		return nil, err
	}

	result := &PortalResult{}
	var resultErr error

	for {
		msg, err := pgConn.receiveMessage()
		if err != nil {
			return nil, err
		}

		switch msg := msg.(type) {
		case *pgproto.DataRow:
			result.Rows = append(result.Rows, copyDataRow(msg.Values))
		case *pgproto.CommandComplete:
			result.CommandTag = CommandTag(msg.CommandTag)
		case *pgproto.PortalSuspended:
			result.Suspended = true
		case *pgproto.EmptyQueryResponse:
			resultErr = ErrEmptyQuery
		case *pgproto.ErrorResponse:
			resultErr = errorResponseToPgError(msg)
		case *pgproto.ReadyForQuery:
			if resultErr != nil {
				return nil, resultErr
			}
			return result, nil
		}
	}
}

// ExecParams executes sql once with parameters using the unnamed prepared
// statement and portal in a single round trip. paramOIDs may be nil to let
// the server infer types. resultFormats applies per result column; a
// single element applies to all columns.
func (pgConn *PgConn) ExecParams(ctx context.Context, sql string, paramValues [][]byte, paramOIDs []uint32, paramFormats, resultFormats []int16) (*Result, error) {
	if pgConn.closed {
		return nil, ErrConnClosed
	}
	if restore := pgConn.applyDeadline(ctx); restore != nil {
		defer restore()
	}

	pgConn.frontend.Send(&pgproto.Parse{Query: sql, ParameterOIDs: paramOIDs})
	pgConn.sendUnnamedBindExecute(paramValues, paramFormats, resultFormats)
	if err := pgConn.frontend.Flush(); err != nil {
		pgConn.hardClose()
		return nil, err
	}

	return pgConn.rxExtendedQueryResult()
}

// ExecPrepared executes the named prepared statement once through the
// unnamed portal in a single round trip.
func (pgConn *PgConn) ExecPrepared(ctx context.Context, stmt string, paramValues [][]byte, paramFormats, resultFormats []int16) (*Result, error) {
	if pgConn.closed {
		return nil, ErrConnClosed
	}
	if restore := pgConn.applyDeadline(ctx); restore != nil {
		defer restore()
	}

	pgConn.frontend.Send(&pgproto.Bind{
		PreparedStatement:    stmt,
		ParameterFormatCodes: paramFormats,
		Parameters:           paramValues,
		ResultFormatCodes:    resultFormats,
	})
	pgConn.frontend.Send(&pgproto.Describe{ObjectType: pgproto.ObjectTypePortal})
	pgConn.frontend.Send(&pgproto.Execute{})
	pgConn.frontend.Send(&pgproto.Sync{})
	if err := pgConn.frontend.Flush(); err != nil {
		pgConn.hardClose()
		return nil, err
	}

	return pgConn.rxExtendedQueryResult()
}

func (pgConn *PgConn) sendUnnamedBindExecute(paramValues [][]byte, paramFormats, resultFormats []int16) {
	pgConn.frontend.Send(&pgproto.Bind{
		ParameterFormatCodes: paramFormats,
		Parameters:           paramValues,
		ResultFormatCodes:    resultFormats,
	})
	pgConn.frontend.Send(&pgproto.Describe{ObjectType: pgproto.ObjectTypePortal})
	pgConn.frontend.Send(&pgproto.Execute{})
	pgConn.frontend.Send(&pgproto.Sync{})
}

func (pgConn *PgConn) rxExtendedQueryResult() (*Result, error) {
	result := &Result{}
	var resultErr error

	for {
		msg, err := pgConn.receiveMessage()
		if err != nil {
			return nil, err
		}

		switch msg := msg.(type) {
		case *pgproto.RowDescription:
			result.FieldDescriptions = copyFieldDescriptions(msg.Fields)
		case *pgproto.DataRow:
			result.Rows = append(result.Rows, copyDataRow(msg.Values))
		case *pgproto.CommandComplete:
			result.CommandTag = CommandTag(msg.CommandTag)
		case *pgproto.EmptyQueryResponse:
			resultErr = ErrEmptyQuery
		case *pgproto.ErrorResponse:
			resultErr = errorResponseToPgError(msg)
		case *pgproto.ReadyForQuery:
			if resultErr != nil {
				return nil, resultErr
			}
			return result, nil
		}
	}
}

// CloseStatement closes a named prepared statement, releasing it on the
// server.
func (pgConn *PgConn) CloseStatement(ctx context.Context, name string) error {
	return pgConn.closeObject(ctx, pgproto.ObjectTypePreparedStatement, name)
}

// ClosePortal closes an open portal. Closing a portal that does not exist
// is not an error.
func (pgConn *PgConn) ClosePortal(ctx context.Context, name string) error {
	return pgConn.closeObject(ctx, pgproto.ObjectTypePortal, name)
}

func (pgConn *PgConn) closeObject(ctx context.Context, objectType byte, name string) error {
	if pgConn.closed {
		return ErrConnClosed
	}
	if restore := pgConn.applyDeadline(ctx); restore != nil {
		defer restore()
	}

	pgConn.frontend.Send(&pgproto.Close{ObjectType: objectType, Name: name})
	pgConn.frontend.Send(&pgproto.Sync{})
	if err := pgConn.frontend.Flush(); err != nil {
		pgConn.hardClose()
		return err
	}

	var resultErr error
	for {
		msg, err := pgConn.receiveMessage()
		if err != nil {
			return err
		}

		switch msg := msg.(type) {
		case *pgproto.ErrorResponse:
			resultErr = errorResponseToPgError(msg)
		case *pgproto.ReadyForQuery:
			return resultErr
		}
	}
}

// CopyFrom streams r to the server as the data of a COPY ... FROM STDIN
// statement.
func (pgConn *PgConn) CopyFrom(ctx context.Context, r io.Reader, sql string) (CommandTag, error) {
	if pgConn.closed {
		return "", ErrConnClosed
	}
	if restore := pgConn.applyDeadline(ctx); restore != nil {
		defer restore()
	}

	pgConn.frontend.Send(&pgproto.Query{String: sql})
	if err := pgConn.frontend.Flush(); err != nil {
		pgConn.hardClose()
		return "", err
	}

	// Wait for the server to accept the copy.
copyInWait:
	for {
		msg, err := pgConn.receiveMessage()
		if err != nil {
			return "", err
		}

		switch msg := msg.(type) {
		case *pgproto.CopyInResponse:
			break copyInWait
		case *pgproto.ErrorResponse:
			resultErr := errorResponseToPgError(msg)
			return "", pgConn.drainUntilReady(resultErr)
		case *pgproto.ReadyForQuery:
			return "", protocolErrorf("server did not begin copy-in for %q", sql)
		}
	}

	buf := make([]byte, 65536)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			pgConn.frontend.Send(&pgproto.CopyData{Data: buf[:n]})
			if err := pgConn.frontend.Flush(); err != nil {
				pgConn.hardClose()
				return "", err
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			pgConn.frontend.Send(&pgproto.CopyFail{Message: err.Error()})
			pgConn.frontend.Flush()
			return "", pgConn.drainUntilReady(err)
		}
	}

	pgConn.frontend.Send(&pgproto.CopyDone{})
	if err := pgConn.frontend.Flush(); err != nil {
		pgConn.hardClose()
		return "", err
	}

	var commandTag CommandTag
	var resultErr error
	for {
		msg, err := pgConn.receiveMessage()
		if err != nil {
			return "", err
		}

		switch msg := msg.(type) {
		case *pgproto.CommandComplete:
			commandTag = CommandTag(msg.CommandTag)
		case *pgproto.ErrorResponse:
			resultErr = errorResponseToPgError(msg)
		case *pgproto.ReadyForQuery:
			return commandTag, resultErr
		}
	}
}

// CopyTo streams the data of a COPY ... TO STDOUT statement to w.
func (pgConn *PgConn) CopyTo(ctx context.Context, w io.Writer, sql string) (CommandTag, error) {
	if pgConn.closed {
		return "", ErrConnClosed
	}
	if restore := pgConn.applyDeadline(ctx); restore != nil {
		defer restore()
	}

	pgConn.frontend.Send(&pgproto.Query{String: sql})
	if err := pgConn.frontend.Flush(); err != nil {
		pgConn.hardClose()
		return "", err
	}

	var commandTag CommandTag
	var resultErr error
	for {
		msg, err := pgConn.receiveMessage()
		if err != nil {
			return "", err
		}

		switch msg := msg.(type) {
		case *pgproto.CopyData:
			if _, err := w.Write(msg.Data); err != nil {
				return "", pgConn.drainUntilReady(err)
			}
		case *pgproto.CommandComplete:
			commandTag = CommandTag(msg.CommandTag)
		case *pgproto.ErrorResponse:
			resultErr = errorResponseToPgError(msg)
		case *pgproto.ReadyForQuery:
			return commandTag, resultErr
		}
	}
}

// drainUntilReady consumes messages through the next ReadyForQuery and
// returns cause. It keeps the connection usable after a mid-round-trip
// failure that the server will recover from.
func (pgConn *PgConn) drainUntilReady(cause error) error {
	for {
		msg, err := pgConn.receiveMessage()
		if err != nil {
			return cause
		}
		if _, ok := msg.(*pgproto.ReadyForQuery); ok {
			return cause
		}
	}
}

// CancelRequest sends a cancel request to the server over a second
// connection using the backend key of this connection. A successful return
// does not guarantee the query is canceled.
func (pgConn *PgConn) CancelRequest(ctx context.Context) error {
	network, address := NetworkAddress(pgConn.config.Host, pgConn.config.Port)
	cancelConn, err := pgConn.config.DialFunc(ctx, network, address)
	if err != nil {
		return err
	}
	defer cancelConn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		cancelConn.SetDeadline(deadline)
	}

	msg := &pgproto.CancelRequest{ProcessID: pgConn.pid, SecretKey: pgConn.secretKey}
	if _, err := cancelConn.Write(msg.Encode(nil)); err != nil {
		return err
	}

	// The server closes the connection without replying.
	_, err = cancelConn.Read(make([]byte, 1))
	if err != io.EOF {
		return err
	}
	return nil
}

func copyDataRow(values [][]byte) [][]byte {
	row := make([][]byte, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		row[i] = make([]byte, len(v))
		copy(row[i], v)
	}
	return row
}

func copyFieldDescriptions(fields []pgproto.FieldDescription) []pgproto.FieldDescription {
	out := make([]pgproto.FieldDescription, len(fields))
	copy(out, fields)
	return out
}

// used by tests to fabricate connections over in-memory pipes
func newPgConnForTest(conn net.Conn, config *Config) *PgConn {
	return &PgConn{
		conn:              conn,
		frontend:          pgproto.NewFrontend(conn, conn),
		config:            config,
		parameterStatuses: make(map[string]string),
		txStatus:          TxStatusIdle,
	}
}
