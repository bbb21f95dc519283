package pgproto

import (
	"bytes"
	"encoding/binary"

	"github.com/jackc/pgio"
)

// SASLInitialResponse selects a SASL mechanism and optionally carries the
// first client message of the exchange.
type SASLInitialResponse struct {
	AuthMechanism string
	Data          []byte
}

func (*SASLInitialResponse) Frontend() {}

func (dst *SASLInitialResponse) Decode(src []byte) error {
	*dst = SASLInitialResponse{}

	rp := 0
	idx := bytes.IndexByte(src, 0)
	if idx < 0 {
		return newFramingError("SASLInitialResponse", "unterminated mechanism name")
	}
	dst.AuthMechanism = string(src[:idx])
	rp = idx + 1

	if len(src[rp:]) < 4 {
		return newFramingError("SASLInitialResponse", "missing data length")
	}
	dataLen := int(int32(binary.BigEndian.Uint32(src[rp:])))
	rp += 4

	if dataLen == -1 {
		return nil
	}
	if len(src[rp:]) != dataLen {
		return newFramingError("SASLInitialResponse", "truncated data")
	}
	dst.Data = src[rp:]

	return nil
}

func (src *SASLInitialResponse) Encode(dst []byte) []byte {
	dst = append(dst, 'p')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = append(dst, src.AuthMechanism...)
	dst = append(dst, 0)

	dst = pgio.AppendInt32(dst, int32(len(src.Data)))
	dst = append(dst, src.Data...)

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
