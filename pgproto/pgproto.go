// Package pgproto implements the PostgreSQL frontend/backend wire protocol,
// version 3.0.
//
// Messages know how to encode themselves onto a byte slice and decode
// themselves from one. Frontend and Backend own the stream framing: a one
// byte message tag (absent for startup-family messages) followed by a four
// byte big-endian length that includes itself.
package pgproto

import (
	"fmt"
)

// Message is the interface implemented by an object that can decode and
// encode a particular PostgreSQL message.
type Message interface {
	// Decode is allowed and expected to retain a reference to data after
	// returning (unlike encoding.BinaryUnmarshaler).
	Decode(data []byte) error

	// Encode appends itself to dst and returns the new buffer.
	Encode(dst []byte) []byte
}

// FrontendMessage is a message sent by the frontend (i.e. the client).
type FrontendMessage interface {
	Message
	Frontend() // no-op method to distinguish frontend from backend messages
}

// BackendMessage is a message sent by the backend (i.e. the server).
type BackendMessage interface {
	Message
	Backend() // no-op method to distinguish frontend from backend messages
}

// Format codes for parameter and result column values.
const (
	TextFormat   int16 = 0
	BinaryFormat int16 = 1
)

// FramingError reports a violation of the wire framing itself: a declared
// length that cannot be satisfied, an unknown message tag, or a body that
// does not match its message layout. A connection that produced a
// FramingError cannot be trusted and must be closed.
type FramingError struct {
	MessageType string
	Details     string
}

func (e *FramingError) Error() string {
	if e.MessageType == "" {
		return "wire framing error: " + e.Details
	}
	return fmt.Sprintf("wire framing error in %s: %s", e.MessageType, e.Details)
}

func newFramingError(messageType, format string, args ...interface{}) *FramingError {
	return &FramingError{MessageType: messageType, Details: fmt.Sprintf(format, args...)}
}

func wrongBodyLen(messageType string, expected, actual int) *FramingError {
	return newFramingError(messageType, "body must have length of %d, but it is %d", expected, actual)
}
