package pgtype

import (
	"fmt"
	"math"
	"net"
	"reflect"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// PostgreSQL oids for the types registered by default.
const (
	BoolOID             = 16
	ByteaOID            = 17
	QCharOID            = 18
	NameOID             = 19
	Int8OID             = 20
	Int2OID             = 21
	Int4OID             = 23
	TextOID             = 25
	OIDOID              = 26
	TIDOID              = 27
	XIDOID              = 28
	CIDOID              = 29
	JSONOID             = 114
	JSONArrayOID        = 199
	CIDROID             = 650
	CIDRArrayOID        = 651
	Float4OID           = 700
	Float8OID           = 701
	UnknownOID          = 705
	MacaddrOID          = 829
	InetOID             = 869
	BoolArrayOID        = 1000
	ByteaArrayOID       = 1001
	QCharArrayOID       = 1002
	NameArrayOID        = 1003
	Int2ArrayOID        = 1005
	Int4ArrayOID        = 1007
	TextArrayOID        = 1009
	XIDArrayOID         = 1011
	CIDArrayOID         = 1012
	BPCharArrayOID      = 1014
	VarcharArrayOID     = 1015
	Int8ArrayOID        = 1016
	Float4ArrayOID      = 1021
	Float8ArrayOID      = 1022
	OIDArrayOID         = 1028
	MacaddrArrayOID     = 1040
	InetArrayOID        = 1041
	BPCharOID           = 1042
	VarcharOID          = 1043
	DateOID             = 1082
	TimestampOID        = 1114
	TimestampArrayOID   = 1115
	DateArrayOID        = 1182
	TimestamptzOID      = 1184
	TimestamptzArrayOID = 1185
	IntervalOID         = 1186
	IntervalArrayOID    = 1187
	NumericArrayOID     = 1231
	NumericOID          = 1700
	UUIDOID             = 2950
	UUIDArrayOID        = 2951
	JSONBOID            = 3802
	JSONBArrayOID       = 3807
)

const (
	TextFormatCode   = 0
	BinaryFormatCode = 1
)

// Codec converts between PostgreSQL wire representations of a type and Go
// values. Encode appends the value's wire representation to buf and returns
// the extended buffer; it returns (nil, nil) when the value represents SQL
// NULL. DecodeValue converts a non-NULL wire value into the canonical Go
// value for the type.
type Codec interface {
	// FormatSupported returns true if the format is supported.
	FormatSupported(int16) bool

	// PreferredFormat returns the format the codec would rather work in.
	PreferredFormat() int16

	Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error)
	DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error)
}

// Type represents a PostgreSQL data type bound to a Codec.
type Type struct {
	OID   uint32
	Name  string
	Codec Codec
}

// CodecError is returned when a value cannot be encoded for, or decoded
// from, a PostgreSQL type. The connection remains usable after a
// CodecError.
type CodecError struct {
	OID    uint32
	Format int16
	Err    error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec error for oid %d (format %d): %v", e.OID, e.Format, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// Map is a registry of PostgreSQL types keyed by oid and by name.
type Map struct {
	oidToType            map[uint32]*Type
	nameToType           map[string]*Type
	elementOIDToArrayOID map[uint32]uint32
}

// NewMap creates a Map with all default types registered.
func NewMap() *Map {
	m := &Map{
		oidToType:            make(map[uint32]*Type),
		nameToType:           make(map[string]*Type),
		elementOIDToArrayOID: make(map[uint32]uint32),
	}

	m.RegisterType(&Type{OID: BoolOID, Name: "bool", Codec: BoolCodec{}})
	m.RegisterType(&Type{OID: ByteaOID, Name: "bytea", Codec: ByteaCodec{}})
	m.RegisterType(&Type{OID: QCharOID, Name: "char", Codec: QCharCodec{}})
	m.RegisterType(&Type{OID: NameOID, Name: "name", Codec: TextCodec{}})
	m.RegisterType(&Type{OID: Int8OID, Name: "int8", Codec: Int8Codec{}})
	m.RegisterType(&Type{OID: Int2OID, Name: "int2", Codec: Int2Codec{}})
	m.RegisterType(&Type{OID: Int4OID, Name: "int4", Codec: Int4Codec{}})
	m.RegisterType(&Type{OID: TextOID, Name: "text", Codec: TextCodec{}})
	m.RegisterType(&Type{OID: OIDOID, Name: "oid", Codec: Uint32Codec{}})
	m.RegisterType(&Type{OID: XIDOID, Name: "xid", Codec: Uint32Codec{}})
	m.RegisterType(&Type{OID: CIDOID, Name: "cid", Codec: Uint32Codec{}})
	m.RegisterType(&Type{OID: JSONOID, Name: "json", Codec: JSONCodec{}})
	m.RegisterType(&Type{OID: CIDROID, Name: "cidr", Codec: InetCodec{}})
	m.RegisterType(&Type{OID: Float4OID, Name: "float4", Codec: Float4Codec{}})
	m.RegisterType(&Type{OID: Float8OID, Name: "float8", Codec: Float8Codec{}})
	m.RegisterType(&Type{OID: UnknownOID, Name: "unknown", Codec: TextCodec{}})
	m.RegisterType(&Type{OID: MacaddrOID, Name: "macaddr", Codec: MacaddrCodec{}})
	m.RegisterType(&Type{OID: InetOID, Name: "inet", Codec: InetCodec{}})
	m.RegisterType(&Type{OID: BPCharOID, Name: "bpchar", Codec: TextCodec{}})
	m.RegisterType(&Type{OID: VarcharOID, Name: "varchar", Codec: TextCodec{}})
	m.RegisterType(&Type{OID: DateOID, Name: "date", Codec: DateCodec{}})
	m.RegisterType(&Type{OID: TimestampOID, Name: "timestamp", Codec: TimestampCodec{}})
	m.RegisterType(&Type{OID: TimestamptzOID, Name: "timestamptz", Codec: TimestamptzCodec{}})
	m.RegisterType(&Type{OID: IntervalOID, Name: "interval", Codec: IntervalCodec{}})
	m.RegisterType(&Type{OID: NumericOID, Name: "numeric", Codec: NumericCodec{}})
	m.RegisterType(&Type{OID: UUIDOID, Name: "uuid", Codec: UUIDCodec{}})
	m.RegisterType(&Type{OID: JSONBOID, Name: "jsonb", Codec: JSONBCodec{}})

	registerArrayType := func(arrayOID uint32, name string, elementOID uint32) {
		elementType, ok := m.TypeForOID(elementOID)
		if !ok {
			panic(fmt.Sprintf("array type %s registered before element oid %d", name, elementOID))
		}
		m.RegisterType(&Type{OID: arrayOID, Name: name, Codec: &ArrayCodec{ElementType: elementType}})
		m.elementOIDToArrayOID[elementOID] = arrayOID
	}

	registerArrayType(BoolArrayOID, "_bool", BoolOID)
	registerArrayType(ByteaArrayOID, "_bytea", ByteaOID)
	registerArrayType(QCharArrayOID, "_char", QCharOID)
	registerArrayType(NameArrayOID, "_name", NameOID)
	registerArrayType(Int2ArrayOID, "_int2", Int2OID)
	registerArrayType(Int4ArrayOID, "_int4", Int4OID)
	registerArrayType(TextArrayOID, "_text", TextOID)
	registerArrayType(XIDArrayOID, "_xid", XIDOID)
	registerArrayType(CIDArrayOID, "_cid", CIDOID)
	registerArrayType(BPCharArrayOID, "_bpchar", BPCharOID)
	registerArrayType(VarcharArrayOID, "_varchar", VarcharOID)
	registerArrayType(Int8ArrayOID, "_int8", Int8OID)
	registerArrayType(Float4ArrayOID, "_float4", Float4OID)
	registerArrayType(Float8ArrayOID, "_float8", Float8OID)
	registerArrayType(OIDArrayOID, "_oid", OIDOID)
	registerArrayType(MacaddrArrayOID, "_macaddr", MacaddrOID)
	registerArrayType(InetArrayOID, "_inet", InetOID)
	registerArrayType(CIDRArrayOID, "_cidr", CIDROID)
	registerArrayType(DateArrayOID, "_date", DateOID)
	registerArrayType(TimestampArrayOID, "_timestamp", TimestampOID)
	registerArrayType(TimestamptzArrayOID, "_timestamptz", TimestamptzOID)
	registerArrayType(IntervalArrayOID, "_interval", IntervalOID)
	registerArrayType(NumericArrayOID, "_numeric", NumericOID)
	registerArrayType(UUIDArrayOID, "_uuid", UUIDOID)
	registerArrayType(JSONArrayOID, "_json", JSONOID)
	registerArrayType(JSONBArrayOID, "_jsonb", JSONBOID)

	return m
}

// RegisterType registers or replaces a type by oid and name.
func (m *Map) RegisterType(t *Type) {
	m.oidToType[t.OID] = t
	m.nameToType[t.Name] = t
}

// TypeForOID returns the registered Type for oid.
func (m *Map) TypeForOID(oid uint32) (*Type, bool) {
	t, ok := m.oidToType[oid]
	return t, ok
}

// TypeForName returns the registered Type named name.
func (m *Map) TypeForName(name string) (*Type, bool) {
	t, ok := m.nameToType[name]
	return t, ok
}

// ArrayOIDForElement returns the oid of the array type whose elements have
// oid elementOID.
func (m *Map) ArrayOIDForElement(elementOID uint32) (uint32, bool) {
	oid, ok := m.elementOIDToArrayOID[elementOID]
	return oid, ok
}

// PreferredFormat returns the format code result columns of type oid should
// be requested in. Unregistered oids fall back to text.
func (m *Map) PreferredFormat(oid uint32) int16 {
	if t, ok := m.oidToType[oid]; ok {
		return t.Codec.PreferredFormat()
	}
	return TextFormatCode
}

// Encode appends the wire representation of value as type oid in the given
// format to buf. A nil value yields (nil, nil), which callers transmit as
// SQL NULL.
func (m *Map) Encode(oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	if value == nil {
		return nil, nil
	}

	t, ok := m.oidToType[oid]
	if !ok {
		// Unregistered type: a string can still be sent as text and the
		// server will coerce it.
		if format == TextFormatCode {
			switch value := value.(type) {
			case string:
				return append(buf, value...), nil
			case []byte:
				return append(buf, value...), nil
			}
		}
		return nil, &CodecError{OID: oid, Format: format, Err: fmt.Errorf("cannot encode %T: oid is not registered", value)}
	}

	if !t.Codec.FormatSupported(format) {
		return nil, &CodecError{OID: oid, Format: format, Err: fmt.Errorf("format is not supported for %s", t.Name)}
	}

	newBuf, err := t.Codec.Encode(m, oid, format, value, buf)
	if err != nil {
		return nil, &CodecError{OID: oid, Format: format, Err: err}
	}
	return newBuf, nil
}

// DecodeValue converts the wire value src of type oid in the given format
// to the canonical Go value for the type. A nil src is SQL NULL and decodes
// to nil. Values of unregistered oids are returned as the raw text string.
func (m *Map) DecodeValue(oid uint32, format int16, src []byte) (interface{}, error) {
	if src == nil {
		return nil, nil
	}

	t, ok := m.oidToType[oid]
	if !ok {
		return string(src), nil
	}

	if !t.Codec.FormatSupported(format) {
		return nil, &CodecError{OID: oid, Format: format, Err: fmt.Errorf("format is not supported for %s", t.Name)}
	}

	v, err := t.Codec.DecodeValue(m, oid, format, src)
	if err != nil {
		return nil, &CodecError{OID: oid, Format: format, Err: err}
	}
	return v, nil
}

// OIDForValue infers the parameter oid to declare for a Go value when the
// caller did not force one. The zero return means "let the server infer";
// such parameters are sent as text of the unknown pseudo-type.
func (m *Map) OIDForValue(value interface{}) uint32 {
	switch value := value.(type) {
	case nil:
		return 0
	case bool:
		return BoolOID
	case int8, int16:
		return Int2OID
	case int32:
		return Int4OID
	case int, int64:
		return Int8OID
	case uint16:
		return Int4OID
	case uint32, uint, uint64:
		return Int8OID
	case float32:
		return Float4OID
	case float64:
		return Float8OID
	case string:
		return 0
	case []byte:
		return ByteaOID
	case time.Time:
		return TimestamptzOID
	case time.Duration, Interval:
		return IntervalOID
	case decimal.Decimal:
		return NumericOID
	case uuid.UUID:
		return UUIDOID
	case net.IP, *net.IPNet:
		return InetOID
	case net.HardwareAddr:
		return MacaddrOID
	default:
		if elementOID, ok := m.elementOIDForSlice(value); ok {
			if arrayOID, ok := m.ArrayOIDForElement(elementOID); ok {
				return arrayOID
			}
		}
		return 0
	}
}

func (m *Map) elementOIDForSlice(value interface{}) (uint32, bool) {
	switch value.(type) {
	case []bool:
		return BoolOID, true
	case [][]byte:
		return ByteaOID, true
	case []int16:
		return Int2OID, true
	case []int32:
		return Int4OID, true
	case []int64, []int:
		return Int8OID, true
	case []float32:
		return Float4OID, true
	case []float64:
		return Float8OID, true
	case []string:
		return TextOID, true
	case []time.Time:
		return TimestamptzOID, true
	case []decimal.Decimal:
		return NumericOID, true
	case []uuid.UUID:
		return UUIDOID, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return 0, false
	}

	// []interface{} and nested slices: infer from the first element that
	// has an inferable type.
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if elem == nil {
			continue
		}
		if _, ok := elem.(string); ok {
			return TextOID, true
		}
		if oid := m.OIDForValue(elem); oid != 0 {
			return oid, true
		}
	}
	return 0, false
}

func int64FromValue(value interface{}) (int64, error) {
	switch value := value.(type) {
	case int8:
		return int64(value), nil
	case int16:
		return int64(value), nil
	case int32:
		return int64(value), nil
	case int64:
		return value, nil
	case int:
		return int64(value), nil
	case uint8:
		return int64(value), nil
	case uint16:
		return int64(value), nil
	case uint32:
		return int64(value), nil
	case uint64:
		if value > math.MaxInt64 {
			return 0, fmt.Errorf("%d is greater than maximum value for int64", value)
		}
		return int64(value), nil
	case uint:
		if uint64(value) > math.MaxInt64 {
			return 0, fmt.Errorf("%d is greater than maximum value for int64", value)
		}
		return int64(value), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", value)
	}
}
