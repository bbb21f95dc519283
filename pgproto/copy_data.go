package pgproto

import (
	"github.com/jackc/pgio"
)

// CopyData carries a chunk of COPY payload. It flows in both directions,
// so it implements both message interfaces.
type CopyData struct {
	Data []byte
}

func (*CopyData) Frontend() {}
func (*CopyData) Backend()  {}

func (dst *CopyData) Decode(src []byte) error {
	dst.Data = src
	return nil
}

func (src *CopyData) Encode(dst []byte) []byte {
	dst = append(dst, 'd')
	dst = pgio.AppendInt32(dst, int32(4+len(src.Data)))
	dst = append(dst, src.Data...)
	return dst
}
