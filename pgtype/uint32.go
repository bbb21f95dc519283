package pgtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/jackc/pgio"
)

// Uint32Codec handles oid, xid and cid, which are unsigned 32-bit values
// on the wire.
type Uint32Codec struct{}

func (Uint32Codec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (Uint32Codec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (Uint32Codec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	var n uint32
	switch value := value.(type) {
	case uint32:
		n = value
	default:
		i, err := int64FromValue(value)
		if err != nil {
			return nil, err
		}
		if i < 0 || i > math.MaxUint32 {
			return nil, fmt.Errorf("%d is out of range for uint32", i)
		}
		n = uint32(i)
	}

	switch format {
	case BinaryFormatCode:
		return pgio.AppendUint32(buf, n), nil
	case TextFormatCode:
		return append(buf, strconv.FormatUint(uint64(n), 10)...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (Uint32Codec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) != 4 {
			return nil, fmt.Errorf("invalid length for uint32: %d", len(src))
		}
		return binary.BigEndian.Uint32(src), nil
	case TextFormatCode:
		n, err := strconv.ParseUint(string(src), 10, 32)
		if err != nil {
			return nil, err
		}
		return uint32(n), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}
