package pgproto

import (
	"bytes"

	"github.com/jackc/pgio"
)

// CopyFail aborts a COPY FROM STDIN in progress; the server responds with
// an ErrorResponse carrying Message.
type CopyFail struct {
	Message string
}

func (*CopyFail) Frontend() {}

func (dst *CopyFail) Decode(src []byte) error {
	idx := bytes.IndexByte(src, 0)
	if idx != len(src)-1 {
		return newFramingError("CopyFail", "unterminated message")
	}
	dst.Message = string(src[:idx])
	return nil
}

func (src *CopyFail) Encode(dst []byte) []byte {
	dst = append(dst, 'f')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = append(dst, src.Message...)
	dst = append(dst, 0)

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
