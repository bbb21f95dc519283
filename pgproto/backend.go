package pgproto

import (
	"encoding/binary"
	"io"

	"github.com/jackc/chunkreader/v2"
)

// Backend acts as a server for the PostgreSQL wire protocol version 3. It
// exists for test servers; the client side of this package is Frontend.
type Backend struct {
	cr *chunkreader.ChunkReader
	w  io.Writer

	// Frontend message flyweights
	bind            Bind
	close_          Close
	copyData        CopyData
	copyDone        CopyDone
	copyFail        CopyFail
	describe        Describe
	execute         Execute
	flush           Flush
	parse           Parse
	passwordMessage PasswordMessage
	query           Query
	sync            Sync
	terminate       Terminate

	inSASLAuth bool
}

// NewBackend creates a new Backend reading from r and writing to w.
func NewBackend(r io.Reader, w io.Writer) *Backend {
	return &Backend{cr: chunkreader.New(r), w: w}
}

// Send writes msg immediately.
func (b *Backend) Send(msg BackendMessage) error {
	_, err := b.w.Write(msg.Encode(nil))
	return err
}

// ReceiveStartupMessage reads the tag-less startup-family message that
// begins a connection. SSL requests are rejected with a framing error as
// this Backend never negotiates TLS.
func (b *Backend) ReceiveStartupMessage() (*StartupMessage, error) {
	buf, err := b.cr.Next(4)
	if err != nil {
		return nil, err
	}
	msgSize := int(binary.BigEndian.Uint32(buf) - 4)
	if msgSize < 4 {
		return nil, newFramingError("StartupMessage", "invalid message length")
	}

	buf, err = b.cr.Next(msgSize)
	if err != nil {
		return nil, err
	}

	var startupMessage StartupMessage
	if err := startupMessage.Decode(buf); err != nil {
		return nil, err
	}

	return &startupMessage, nil
}

// SetSASLAuthInProgress switches interpretation of 'p' messages between
// PasswordMessage and SASLResponse, which share a tag byte.
func (b *Backend) SetSASLAuthInProgress(inProgress bool) {
	b.inSASLAuth = inProgress
}

// Receive reads the next message from the frontend. The returned message
// is only valid until the next call to Receive.
func (b *Backend) Receive() (FrontendMessage, error) {
	header, err := b.cr.Next(5)
	if err != nil {
		return nil, translateEOFtoErrUnexpectedEOF(err)
	}

	msgType := header[0]
	bodyLen := int(binary.BigEndian.Uint32(header[1:])) - 4
	if bodyLen < 0 {
		return nil, newFramingError("", "invalid message length")
	}

	var msg FrontendMessage
	switch msgType {
	case 'B':
		msg = &b.bind
	case 'C':
		msg = &b.close_
	case 'c':
		msg = &b.copyDone
	case 'd':
		msg = &b.copyData
	case 'D':
		msg = &b.describe
	case 'E':
		msg = &b.execute
	case 'f':
		msg = &b.copyFail
	case 'H':
		msg = &b.flush
	case 'P':
		msg = &b.parse
	case 'p':
		if b.inSASLAuth {
			msg = &SASLResponse{}
		} else {
			msg = &b.passwordMessage
		}
	case 'Q':
		msg = &b.query
	case 'S':
		msg = &b.sync
	case 'X':
		msg = &b.terminate
	default:
		return nil, newFramingError("", "unknown message type: %c", msgType)
	}

	msgBody, err := b.cr.Next(bodyLen)
	if err != nil {
		return nil, translateEOFtoErrUnexpectedEOF(err)
	}

	err = msg.Decode(msgBody)
	return msg, err
}
