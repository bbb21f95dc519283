package pgtype

import (
	"fmt"
	"strconv"
)

type BoolCodec struct{}

func (BoolCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (BoolCodec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (BoolCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("cannot encode %T as bool", value)
	}

	switch format {
	case BinaryFormatCode:
		if b {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case TextFormatCode:
		if b {
			return append(buf, 't'), nil
		}
		return append(buf, 'f'), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (BoolCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) != 1 {
			return nil, fmt.Errorf("invalid length for bool: %d", len(src))
		}
		return src[0] == 1, nil
	case TextFormatCode:
		if len(src) == 1 {
			switch src[0] {
			case 't':
				return true, nil
			case 'f':
				return false, nil
			}
		}
		b, err := strconv.ParseBool(string(src))
		if err != nil {
			return nil, fmt.Errorf("invalid bool: %q", src)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}
