package pgtype

import (
	"encoding/json"
	"fmt"
)

type JSONCodec struct{}

func (JSONCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (JSONCodec) PreferredFormat() int16 {
	return TextFormatCode
}

func (JSONCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	return encodeJSON(value, buf)
}

func (JSONCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	return decodeJSON(src)
}

// JSONBCodec is JSONCodec plus the jsonb binary version prefix byte.
type JSONBCodec struct{}

func (JSONBCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (JSONBCodec) PreferredFormat() int16 {
	return TextFormatCode
}

func (JSONBCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	if format == BinaryFormatCode {
		buf = append(buf, 1)
	}
	return encodeJSON(value, buf)
}

func (JSONBCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	if format == BinaryFormatCode {
		if len(src) == 0 {
			return nil, fmt.Errorf("jsonb too short")
		}
		if src[0] != 1 {
			return nil, fmt.Errorf("unknown jsonb version number %d", src[0])
		}
		src = src[1:]
	}
	return decodeJSON(src)
}

func encodeJSON(value interface{}, buf []byte) ([]byte, error) {
	switch value := value.(type) {
	case string:
		return append(buf, value...), nil
	case []byte:
		return append(buf, value...), nil
	case json.RawMessage:
		return append(buf, value...), nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return append(buf, b...), nil
}

func decodeJSON(src []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(src, &v); err != nil {
		return nil, err
	}
	return v, nil
}
