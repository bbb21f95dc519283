// Package apddecimal registers a numeric codec backed by
// github.com/cockroachdb/apd, for callers that need NaN or more exponent
// range than shopspring/decimal offers.
package apddecimal

import (
	"fmt"

	"github.com/cockroachdb/apd"

	"github.com/pgsql-go/pgsql/pgtype"
)

// Register replaces the numeric codec in m so numeric values decode to
// *apd.Decimal.
func Register(m *pgtype.Map) {
	m.RegisterType(&pgtype.Type{OID: pgtype.NumericOID, Name: "numeric", Codec: Codec{}})
}

// Codec converts between PostgreSQL numeric and *apd.Decimal. Only the
// text format is implemented; apd parses and renders the same decimal
// strings the server does, NaN included.
type Codec struct{}

func (Codec) FormatSupported(format int16) bool {
	return format == pgtype.TextFormatCode
}

func (Codec) PreferredFormat() int16 {
	return pgtype.TextFormatCode
}

func (Codec) Encode(m *pgtype.Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	if format != pgtype.TextFormatCode {
		return nil, fmt.Errorf("unknown format code %d", format)
	}

	var d *apd.Decimal
	switch value := value.(type) {
	case *apd.Decimal:
		d = value
	case apd.Decimal:
		d = &value
	case string:
		var err error
		d, _, err = apd.NewFromString(value)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("cannot encode %T as numeric", value)
	}

	return append(buf, d.Text('f')...), nil
}

func (Codec) DecodeValue(m *pgtype.Map, oid uint32, format int16, src []byte) (interface{}, error) {
	if format != pgtype.TextFormatCode {
		return nil, fmt.Errorf("unknown format code %d", format)
	}

	d, _, err := apd.NewFromString(string(src))
	if err != nil {
		return nil, err
	}
	return d, nil
}
