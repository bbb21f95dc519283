package pgproto

import (
	"bytes"

	"github.com/jackc/pgio"
)

// CommandComplete ends one statement's result cycle. CommandTag is the
// server's textual tag, e.g. "INSERT 0 3" or "SELECT 5".
type CommandComplete struct {
	CommandTag []byte
}

func (*CommandComplete) Backend() {}

func (dst *CommandComplete) Decode(src []byte) error {
	idx := bytes.IndexByte(src, 0)
	if idx != len(src)-1 {
		return newFramingError("CommandComplete", "unterminated command tag")
	}
	dst.CommandTag = src[:idx]
	return nil
}

func (src *CommandComplete) Encode(dst []byte) []byte {
	dst = append(dst, 'C')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = append(dst, src.CommandTag...)
	dst = append(dst, 0)

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
