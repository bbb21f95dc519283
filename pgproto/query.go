package pgproto

import (
	"bytes"

	"github.com/jackc/pgio"
)

// Query executes sql via the simple query protocol. The string may contain
// multiple statements; each produces its own result cycle before the
// single terminating ReadyForQuery.
type Query struct {
	String string
}

func (*Query) Frontend() {}

func (dst *Query) Decode(src []byte) error {
	i := bytes.IndexByte(src, 0)
	if i != len(src)-1 {
		return newFramingError("Query", "query not terminated")
	}
	dst.String = string(src[:i])
	return nil
}

func (src *Query) Encode(dst []byte) []byte {
	dst = append(dst, 'Q')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = append(dst, src.String...)
	dst = append(dst, 0)

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
