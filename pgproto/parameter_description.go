package pgproto

import (
	"encoding/binary"

	"github.com/jackc/pgio"
)

// ParameterDescription reports the inferred type OIDs of a prepared
// statement's parameters.
type ParameterDescription struct {
	ParameterOIDs []uint32
}

func (*ParameterDescription) Backend() {}

func (dst *ParameterDescription) Decode(src []byte) error {
	if len(src) < 2 {
		return newFramingError("ParameterDescription", "too short")
	}
	parameterCount := int(binary.BigEndian.Uint16(src))
	rp := 2

	if len(src[rp:]) != parameterCount*4 {
		return newFramingError("ParameterDescription", "parameter OIDs do not match parameter count")
	}

	dst.ParameterOIDs = make([]uint32, parameterCount)
	for i := 0; i < parameterCount; i++ {
		dst.ParameterOIDs[i] = binary.BigEndian.Uint32(src[rp:])
		rp += 4
	}

	return nil
}

func (src *ParameterDescription) Encode(dst []byte) []byte {
	dst = append(dst, 't')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = pgio.AppendUint16(dst, uint16(len(src.ParameterOIDs)))
	for _, oid := range src.ParameterOIDs {
		dst = pgio.AppendUint32(dst, oid)
	}

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
