package pgproto

import (
	"bytes"
	"encoding/binary"

	"github.com/jackc/pgio"
)

// Bind creates a portal from a prepared statement and a set of parameter
// values. A nil element of Parameters is the SQL NULL.
type Bind struct {
	DestinationPortal    string
	PreparedStatement    string
	ParameterFormatCodes []int16
	Parameters           [][]byte
	ResultFormatCodes    []int16
}

func (*Bind) Frontend() {}

func (dst *Bind) Decode(src []byte) error {
	*dst = Bind{}

	idx := bytes.IndexByte(src, 0)
	if idx < 0 {
		return newFramingError("Bind", "unterminated portal name")
	}
	dst.DestinationPortal = string(src[:idx])
	rp := idx + 1

	idx = bytes.IndexByte(src[rp:], 0)
	if idx < 0 {
		return newFramingError("Bind", "unterminated statement name")
	}
	dst.PreparedStatement = string(src[rp : rp+idx])
	rp += idx + 1

	if len(src[rp:]) < 2 {
		return newFramingError("Bind", "missing parameter format count")
	}
	parameterFormatCodeCount := int(binary.BigEndian.Uint16(src[rp:]))
	rp += 2

	if parameterFormatCodeCount > 0 {
		if len(src[rp:]) < parameterFormatCodeCount*2 {
			return newFramingError("Bind", "truncated parameter format codes")
		}
		dst.ParameterFormatCodes = make([]int16, parameterFormatCodeCount)
		for i := 0; i < parameterFormatCodeCount; i++ {
			dst.ParameterFormatCodes[i] = int16(binary.BigEndian.Uint16(src[rp:]))
			rp += 2
		}
	}

	if len(src[rp:]) < 2 {
		return newFramingError("Bind", "missing parameter count")
	}
	parameterCount := int(binary.BigEndian.Uint16(src[rp:]))
	rp += 2

	if parameterCount > 0 {
		dst.Parameters = make([][]byte, parameterCount)
		for i := 0; i < parameterCount; i++ {
			if len(src[rp:]) < 4 {
				return newFramingError("Bind", "truncated parameter length")
			}
			valueLen := int(int32(binary.BigEndian.Uint32(src[rp:])))
			rp += 4

			// null
			if valueLen == -1 {
				continue
			}

			if len(src[rp:]) < valueLen {
				return newFramingError("Bind", "truncated parameter value")
			}
			dst.Parameters[i] = src[rp : rp+valueLen]
			rp += valueLen
		}
	}

	if len(src[rp:]) < 2 {
		return newFramingError("Bind", "missing result format count")
	}
	resultFormatCodeCount := int(binary.BigEndian.Uint16(src[rp:]))
	rp += 2

	if resultFormatCodeCount > 0 {
		if len(src[rp:]) < resultFormatCodeCount*2 {
			return newFramingError("Bind", "truncated result format codes")
		}
		dst.ResultFormatCodes = make([]int16, resultFormatCodeCount)
		for i := 0; i < resultFormatCodeCount; i++ {
			dst.ResultFormatCodes[i] = int16(binary.BigEndian.Uint16(src[rp:]))
			rp += 2
		}
	}

	return nil
}

func (src *Bind) Encode(dst []byte) []byte {
	dst = append(dst, 'B')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = append(dst, src.DestinationPortal...)
	dst = append(dst, 0)
	dst = append(dst, src.PreparedStatement...)
	dst = append(dst, 0)

	dst = pgio.AppendUint16(dst, uint16(len(src.ParameterFormatCodes)))
	for _, fc := range src.ParameterFormatCodes {
		dst = pgio.AppendInt16(dst, fc)
	}

	dst = pgio.AppendUint16(dst, uint16(len(src.Parameters)))
	for _, p := range src.Parameters {
		if p == nil {
			dst = pgio.AppendInt32(dst, -1)
			continue
		}
		dst = pgio.AppendInt32(dst, int32(len(p)))
		dst = append(dst, p...)
	}

	dst = pgio.AppendUint16(dst, uint16(len(src.ResultFormatCodes)))
	for _, fc := range src.ResultFormatCodes {
		dst = pgio.AppendInt16(dst, fc)
	}

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
