package pgtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/jackc/pgio"
)

type Int2Codec struct{}

func (Int2Codec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (Int2Codec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (Int2Codec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	n, err := int64FromValue(value)
	if err != nil {
		return nil, err
	}
	if n < math.MinInt16 || n > math.MaxInt16 {
		return nil, fmt.Errorf("%d is out of range for int2", n)
	}

	switch format {
	case BinaryFormatCode:
		return pgio.AppendInt16(buf, int16(n)), nil
	case TextFormatCode:
		return append(buf, strconv.FormatInt(n, 10)...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (Int2Codec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) != 2 {
			return nil, fmt.Errorf("invalid length for int2: %d", len(src))
		}
		return int16(binary.BigEndian.Uint16(src)), nil
	case TextFormatCode:
		n, err := strconv.ParseInt(string(src), 10, 16)
		if err != nil {
			return nil, err
		}
		return int16(n), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

type Int4Codec struct{}

func (Int4Codec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (Int4Codec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (Int4Codec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	n, err := int64FromValue(value)
	if err != nil {
		return nil, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, fmt.Errorf("%d is out of range for int4", n)
	}

	switch format {
	case BinaryFormatCode:
		return pgio.AppendInt32(buf, int32(n)), nil
	case TextFormatCode:
		return append(buf, strconv.FormatInt(n, 10)...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (Int4Codec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) != 4 {
			return nil, fmt.Errorf("invalid length for int4: %d", len(src))
		}
		return int32(binary.BigEndian.Uint32(src)), nil
	case TextFormatCode:
		n, err := strconv.ParseInt(string(src), 10, 32)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

type Int8Codec struct{}

func (Int8Codec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (Int8Codec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (Int8Codec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	n, err := int64FromValue(value)
	if err != nil {
		return nil, err
	}

	switch format {
	case BinaryFormatCode:
		return pgio.AppendInt64(buf, n), nil
	case TextFormatCode:
		return append(buf, strconv.FormatInt(n, 10)...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (Int8Codec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) != 8 {
			return nil, fmt.Errorf("invalid length for int8: %d", len(src))
		}
		return int64(binary.BigEndian.Uint64(src)), nil
	case TextFormatCode:
		return strconv.ParseInt(string(src), 10, 64)
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}
