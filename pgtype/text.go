package pgtype

import "fmt"

// TextCodec handles the string-shaped types: text, varchar, bpchar, name
// and the unknown pseudo-type. Text and binary formats share the same
// representation.
type TextCodec struct{}

func (TextCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (TextCodec) PreferredFormat() int16 {
	return TextFormatCode
}

func (TextCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	switch value := value.(type) {
	case string:
		return append(buf, value...), nil
	case []byte:
		return append(buf, value...), nil
	case fmt.Stringer:
		return append(buf, value.String()...), nil
	}
	return nil, fmt.Errorf("cannot encode %T as text", value)
}

func (TextCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	return string(src), nil
}

// QCharCodec handles the single-byte internal "char" type.
type QCharCodec struct{}

func (QCharCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (QCharCodec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (QCharCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	switch value := value.(type) {
	case byte:
		return append(buf, value), nil
	case rune:
		if value > 0xff {
			return nil, fmt.Errorf("%q is not representable as a single byte", value)
		}
		return append(buf, byte(value)), nil
	case string:
		if len(value) != 1 {
			return nil, fmt.Errorf("%q is not a single byte", value)
		}
		return append(buf, value[0]), nil
	}
	return nil, fmt.Errorf(`cannot encode %T as "char"`, value)
}

func (QCharCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	if len(src) > 1 {
		return nil, fmt.Errorf(`invalid length for "char": %d`, len(src))
	}
	if len(src) == 0 {
		return byte(0), nil
	}
	return src[0], nil
}
