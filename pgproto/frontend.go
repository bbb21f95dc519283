package pgproto

import (
	"encoding/binary"
	"io"

	"github.com/jackc/chunkreader/v2"
)

// Frontend acts as a client for the PostgreSQL wire protocol version 3.
//
// Messages returned by Receive are flyweights that are reused on the next
// call; callers that retain a message must copy what they need first.
type Frontend struct {
	cr *chunkreader.ChunkReader
	w  io.Writer

	wbuf []byte

	// Backend message flyweights
	authentication       Authentication
	backendKeyData       BackendKeyData
	bindComplete         BindComplete
	closeComplete        CloseComplete
	commandComplete      CommandComplete
	copyData             CopyData
	copyDone             CopyDone
	copyInResponse       CopyInResponse
	copyOutResponse      CopyOutResponse
	dataRow              DataRow
	emptyQueryResponse   EmptyQueryResponse
	errorResponse        ErrorResponse
	noData               NoData
	noticeResponse       NoticeResponse
	notificationResponse NotificationResponse
	parameterDescription ParameterDescription
	parameterStatus      ParameterStatus
	parseComplete        ParseComplete
	portalSuspended      PortalSuspended
	readyForQuery        ReadyForQuery
	rowDescription       RowDescription

	bodyLen    int
	msgType    byte
	partialMsg bool
}

// NewFrontend creates a new Frontend reading from r and writing to w.
func NewFrontend(r io.Reader, w io.Writer) *Frontend {
	return &Frontend{cr: chunkreader.New(r), w: w}
}

// Send buffers msg. It is not written until Flush is called.
func (f *Frontend) Send(msg FrontendMessage) {
	f.wbuf = msg.Encode(f.wbuf)
}

// Flush writes all buffered messages to the backend.
func (f *Frontend) Flush() error {
	if len(f.wbuf) == 0 {
		return nil
	}

	_, err := f.w.Write(f.wbuf)

	const maxRetainedBufLen = 1024
	if cap(f.wbuf) > maxRetainedBufLen {
		f.wbuf = make([]byte, 0, maxRetainedBufLen)
	} else {
		f.wbuf = f.wbuf[:0]
	}

	return err
}

func translateEOFtoErrUnexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Receive reads the next message from the backend. The returned message is
// only valid until the next call to Receive.
func (f *Frontend) Receive() (BackendMessage, error) {
	if !f.partialMsg {
		header, err := f.cr.Next(5)
		if err != nil {
			return nil, translateEOFtoErrUnexpectedEOF(err)
		}

		f.msgType = header[0]

		msgLength := int(binary.BigEndian.Uint32(header[1:]))
		if msgLength < 4 {
			return nil, newFramingError("", "invalid message length: %d", msgLength)
		}

		f.bodyLen = msgLength - 4
		f.partialMsg = true
	}

	msgBody, err := f.cr.Next(f.bodyLen)
	if err != nil {
		return nil, translateEOFtoErrUnexpectedEOF(err)
	}

	f.partialMsg = false

	var msg BackendMessage
	switch f.msgType {
	case '1':
		msg = &f.parseComplete
	case '2':
		msg = &f.bindComplete
	case '3':
		msg = &f.closeComplete
	case 'A':
		msg = &f.notificationResponse
	case 'c':
		msg = &f.copyDone
	case 'C':
		msg = &f.commandComplete
	case 'd':
		msg = &f.copyData
	case 'D':
		msg = &f.dataRow
	case 'E':
		msg = &f.errorResponse
	case 'G':
		msg = &f.copyInResponse
	case 'H':
		msg = &f.copyOutResponse
	case 'I':
		msg = &f.emptyQueryResponse
	case 'K':
		msg = &f.backendKeyData
	case 'n':
		msg = &f.noData
	case 'N':
		msg = &f.noticeResponse
	case 'R':
		msg = &f.authentication
	case 's':
		msg = &f.portalSuspended
	case 'S':
		msg = &f.parameterStatus
	case 't':
		msg = &f.parameterDescription
	case 'T':
		msg = &f.rowDescription
	case 'Z':
		msg = &f.readyForQuery
	default:
		return nil, newFramingError("", "unknown message type: %c", f.msgType)
	}

	err = msg.Decode(msgBody)
	if err != nil {
		return nil, err
	}

	return msg, nil
}
