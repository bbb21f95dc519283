package pgproto

import (
	"bytes"
	"encoding/binary"

	"github.com/jackc/pgio"
)

// Parse creates a prepared statement from Query. An empty Name parses into
// the unnamed statement, destroying any previous unnamed statement.
type Parse struct {
	Name          string
	Query         string
	ParameterOIDs []uint32
}

func (*Parse) Frontend() {}

func (dst *Parse) Decode(src []byte) error {
	*dst = Parse{}

	idx := bytes.IndexByte(src, 0)
	if idx < 0 {
		return newFramingError("Parse", "unterminated statement name")
	}
	dst.Name = string(src[:idx])
	rp := idx + 1

	idx = bytes.IndexByte(src[rp:], 0)
	if idx < 0 {
		return newFramingError("Parse", "unterminated query")
	}
	dst.Query = string(src[rp : rp+idx])
	rp += idx + 1

	if len(src[rp:]) < 2 {
		return newFramingError("Parse", "missing parameter OID count")
	}
	parameterOIDCount := int(binary.BigEndian.Uint16(src[rp:]))
	rp += 2

	if len(src[rp:]) < parameterOIDCount*4 {
		return newFramingError("Parse", "truncated parameter OIDs")
	}
	for i := 0; i < parameterOIDCount; i++ {
		dst.ParameterOIDs = append(dst.ParameterOIDs, binary.BigEndian.Uint32(src[rp:]))
		rp += 4
	}

	return nil
}

func (src *Parse) Encode(dst []byte) []byte {
	dst = append(dst, 'P')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = append(dst, src.Name...)
	dst = append(dst, 0)
	dst = append(dst, src.Query...)
	dst = append(dst, 0)

	dst = pgio.AppendUint16(dst, uint16(len(src.ParameterOIDs)))
	for _, oid := range src.ParameterOIDs {
		dst = pgio.AppendUint32(dst, oid)
	}

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
