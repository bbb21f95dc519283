package pgtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/jackc/pgio"
)

type Float4Codec struct{}

func (Float4Codec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (Float4Codec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (Float4Codec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	var f float64
	switch value := value.(type) {
	case float32:
		f = float64(value)
	case float64:
		f = value
	default:
		n, err := int64FromValue(value)
		if err != nil {
			return nil, fmt.Errorf("cannot encode %T as float4", value)
		}
		f = float64(n)
	}

	switch format {
	case BinaryFormatCode:
		return pgio.AppendUint32(buf, math.Float32bits(float32(f))), nil
	case TextFormatCode:
		return append(buf, strconv.FormatFloat(f, 'f', -1, 32)...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (Float4Codec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) != 4 {
			return nil, fmt.Errorf("invalid length for float4: %d", len(src))
		}
		return math.Float32frombits(binary.BigEndian.Uint32(src)), nil
	case TextFormatCode:
		f, err := strconv.ParseFloat(string(src), 32)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

type Float8Codec struct{}

func (Float8Codec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (Float8Codec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (Float8Codec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	var f float64
	switch value := value.(type) {
	case float32:
		f = float64(value)
	case float64:
		f = value
	default:
		n, err := int64FromValue(value)
		if err != nil {
			return nil, fmt.Errorf("cannot encode %T as float8", value)
		}
		f = float64(n)
	}

	switch format {
	case BinaryFormatCode:
		return pgio.AppendUint64(buf, math.Float64bits(f)), nil
	case TextFormatCode:
		return append(buf, strconv.FormatFloat(f, 'f', -1, 64)...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (Float8Codec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) != 8 {
			return nil, fmt.Errorf("invalid length for float8: %d", len(src))
		}
		return math.Float64frombits(binary.BigEndian.Uint64(src)), nil
	case TextFormatCode:
		return strconv.ParseFloat(string(src), 64)
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}
