package pgtype

import (
	"fmt"

	"github.com/gofrs/uuid"
)

type UUIDCodec struct{}

func (UUIDCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (UUIDCodec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (UUIDCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	var u uuid.UUID
	switch value := value.(type) {
	case uuid.UUID:
		u = value
	case [16]byte:
		u = uuid.UUID(value)
	case []byte:
		var err error
		u, err = uuid.FromBytes(value)
		if err != nil {
			return nil, err
		}
	case string:
		var err error
		u, err = uuid.FromString(value)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("cannot encode %T as uuid", value)
	}

	switch format {
	case BinaryFormatCode:
		return append(buf, u.Bytes()...), nil
	case TextFormatCode:
		return append(buf, u.String()...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (UUIDCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		return uuid.FromBytes(src)
	case TextFormatCode:
		return uuid.FromString(string(src))
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}
