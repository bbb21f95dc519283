package pgconn

import (
	"errors"
	"fmt"

	"github.com/pgsql-go/pgsql/pgproto"
)

// ErrTLSRefused occurs when the connection attempt requires TLS and the
// PostgreSQL server refuses to use TLS.
var ErrTLSRefused = errors.New("server refused TLS connection")

// ErrConnClosed occurs on any operation on a connection that has been
// closed or invalidated by a previous fatal error.
var ErrConnClosed = errors.New("conn closed")

// ErrEmptyQuery occurs when an empty query string is executed through the
// simple protocol.
var ErrEmptyQuery = errors.New("empty query")

// PgError represents an error reported by the PostgreSQL server. See
// https://www.postgresql.org/docs/current/protocol-error-fields.html for
// detailed field description.
type PgError struct {
	Severity         string
	Code             string
	Message          string
	Detail           string
	Hint             string
	Position         int32
	InternalPosition int32
	InternalQuery    string
	Where            string
	SchemaName       string
	TableName        string
	ColumnName       string
	DataTypeName     string
	ConstraintName   string
	File             string
	Line             int32
	Routine          string
}

func (pe *PgError) Error() string {
	return pe.Severity + ": " + pe.Message + " (SQLSTATE " + pe.Code + ")"
}

// SQLState returns the SQLSTATE error code. It can be used to
// programmatically distinguish server errors.
func (pe *PgError) SQLState() string {
	return pe.Code
}

func errorResponseToPgError(msg *pgproto.ErrorResponse) *PgError {
	return &PgError{
		Severity:         msg.Severity,
		Code:             msg.Code,
		Message:          msg.Message,
		Detail:           msg.Detail,
		Hint:             msg.Hint,
		Position:         msg.Position,
		InternalPosition: msg.InternalPosition,
		InternalQuery:    msg.InternalQuery,
		Where:            msg.Where,
		SchemaName:       msg.SchemaName,
		TableName:        msg.TableName,
		ColumnName:       msg.ColumnName,
		DataTypeName:     msg.DataTypeName,
		ConstraintName:   msg.ConstraintName,
		File:             msg.File,
		Line:             msg.Line,
		Routine:          msg.Routine,
	}
}

// ConnectError is the error returned when it is not possible to establish
// a connection.
type ConnectError struct {
	Config *Config
	msg    string
	err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to `host=%s user=%s database=%s`: %s (%v)", e.Config.Host, e.Config.User, e.Config.Database, e.msg, e.err)
}

func (e *ConnectError) Unwrap() error {
	return e.err
}

// ProtocolError occurs when the server sends a message the protocol state
// does not allow. The connection is no longer usable afterwards.
type ProtocolError string

func (e ProtocolError) Error() string {
	return string(e)
}

func protocolErrorf(format string, args ...interface{}) ProtocolError {
	return ProtocolError(fmt.Sprintf(format, args...))
}
