package pgproto

import (
	"encoding/binary"

	"github.com/jackc/pgio"
)

const cancelRequestCode = 80877102

// CancelRequest aborts the query in flight on another connection. It is
// sent on its own dedicated connection, identified by the backend key
// obtained at startup, and the server closes the stream without replying.
type CancelRequest struct {
	ProcessID uint32
	SecretKey uint32
}

func (*CancelRequest) Frontend() {}

func (dst *CancelRequest) Decode(src []byte) error {
	if len(src) != 12 {
		return wrongBodyLen("CancelRequest", 12, len(src))
	}

	requestCode := binary.BigEndian.Uint32(src)
	if requestCode != cancelRequestCode {
		return newFramingError("CancelRequest", "bad cancel request code: %d", requestCode)
	}

	dst.ProcessID = binary.BigEndian.Uint32(src[4:])
	dst.SecretKey = binary.BigEndian.Uint32(src[8:])

	return nil
}

func (src *CancelRequest) Encode(dst []byte) []byte {
	dst = pgio.AppendInt32(dst, 16)
	dst = pgio.AppendInt32(dst, cancelRequestCode)
	dst = pgio.AppendUint32(dst, src.ProcessID)
	dst = pgio.AppendUint32(dst, src.SecretKey)
	return dst
}
