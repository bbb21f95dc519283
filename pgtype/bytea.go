package pgtype

import (
	"encoding/hex"
	"fmt"
)

type ByteaCodec struct{}

func (ByteaCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (ByteaCodec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (ByteaCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	var b []byte
	switch value := value.(type) {
	case []byte:
		b = value
	case string:
		b = []byte(value)
	default:
		return nil, fmt.Errorf("cannot encode %T as bytea", value)
	}

	switch format {
	case BinaryFormatCode:
		return append(buf, b...), nil
	case TextFormatCode:
		buf = append(buf, `\x`...)
		return append(buf, hex.EncodeToString(b)...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (ByteaCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		b := make([]byte, len(src))
		copy(b, src)
		return b, nil
	case TextFormatCode:
		if len(src) < 2 || src[0] != '\\' || src[1] != 'x' {
			return nil, fmt.Errorf("invalid hex format for bytea: %q", src)
		}
		b := make([]byte, hex.DecodedLen(len(src)-2))
		if _, err := hex.Decode(b, src[2:]); err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}
