package pgproto

import (
	"bytes"
	"encoding/binary"

	"github.com/jackc/pgio"
)

// Execute runs a portal. MaxRows limits the rows returned; 0 means no
// limit. A portal stopped by the limit answers with PortalSuspended and
// can be executed again.
type Execute struct {
	Portal  string
	MaxRows uint32
}

func (*Execute) Frontend() {}

func (dst *Execute) Decode(src []byte) error {
	idx := bytes.IndexByte(src, 0)
	if idx < 0 {
		return newFramingError("Execute", "unterminated portal name")
	}
	dst.Portal = string(src[:idx])
	rp := idx + 1

	if len(src[rp:]) < 4 {
		return newFramingError("Execute", "missing max rows")
	}
	dst.MaxRows = binary.BigEndian.Uint32(src[rp:])

	return nil
}

func (src *Execute) Encode(dst []byte) []byte {
	dst = append(dst, 'E')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = append(dst, src.Portal...)
	dst = append(dst, 0)
	dst = pgio.AppendUint32(dst, src.MaxRows)

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
