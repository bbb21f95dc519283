package pgproto

import (
	"bytes"

	"github.com/jackc/pgio"
)

// ParameterStatus reports a server run-time parameter value, either at
// startup or asynchronously when a SET changes it.
type ParameterStatus struct {
	Name  string
	Value string
}

func (*ParameterStatus) Backend() {}

func (dst *ParameterStatus) Decode(src []byte) error {
	idx := bytes.IndexByte(src, 0)
	if idx < 0 {
		return newFramingError("ParameterStatus", "unterminated name")
	}
	name := string(src[:idx])
	rp := idx + 1

	idx = bytes.IndexByte(src[rp:], 0)
	if idx != len(src[rp:])-1 {
		return newFramingError("ParameterStatus", "unterminated value")
	}
	value := string(src[rp : len(src)-1])

	*dst = ParameterStatus{Name: name, Value: value}
	return nil
}

func (src *ParameterStatus) Encode(dst []byte) []byte {
	dst = append(dst, 'S')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = append(dst, src.Name...)
	dst = append(dst, 0)
	dst = append(dst, src.Value...)
	dst = append(dst, 0)

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
