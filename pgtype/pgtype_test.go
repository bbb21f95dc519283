package pgtype_test

import (
	"net"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgsql-go/pgsql/pgtype"
)

func roundTrip(t *testing.T, m *pgtype.Map, oid uint32, format int16, value interface{}) interface{} {
	t.Helper()

	buf, err := m.Encode(oid, format, value, nil)
	require.NoError(t, err)

	decoded, err := m.DecodeValue(oid, format, buf)
	require.NoError(t, err)
	return decoded
}

func TestScalarRoundTrips(t *testing.T) {
	m := pgtype.NewMap()

	for _, format := range []int16{pgtype.TextFormatCode, pgtype.BinaryFormatCode} {
		assert.Equal(t, true, roundTrip(t, m, pgtype.BoolOID, format, true))
		assert.Equal(t, int16(-42), roundTrip(t, m, pgtype.Int2OID, format, int16(-42)))
		assert.Equal(t, int32(1<<30), roundTrip(t, m, pgtype.Int4OID, format, int32(1<<30)))
		assert.Equal(t, int64(-1<<60), roundTrip(t, m, pgtype.Int8OID, format, int64(-1<<60)))
		assert.Equal(t, float64(1.25), roundTrip(t, m, pgtype.Float8OID, format, 1.25))
		assert.Equal(t, "héllo", roundTrip(t, m, pgtype.TextOID, format, "héllo"))
		assert.Equal(t, []byte{0x00, 0xff, 0x10}, roundTrip(t, m, pgtype.ByteaOID, format, []byte{0x00, 0xff, 0x10}))
		assert.Equal(t, uint32(99999), roundTrip(t, m, pgtype.OIDOID, format, uint32(99999)))
	}
}

func TestIntegerValuesWidenOnEncode(t *testing.T) {
	m := pgtype.NewMap()

	v := roundTrip(t, m, pgtype.Int8OID, pgtype.BinaryFormatCode, 7)
	assert.Equal(t, int64(7), v)

	_, err := m.Encode(pgtype.Int2OID, pgtype.BinaryFormatCode, 1<<20, nil)
	require.Error(t, err)
	var codecErr *pgtype.CodecError
	require.ErrorAs(t, err, &codecErr)
	assert.Equal(t, uint32(pgtype.Int2OID), codecErr.OID)
}

func TestNullEncodesToNilBuffer(t *testing.T) {
	m := pgtype.NewMap()

	buf, err := m.Encode(pgtype.Int4OID, pgtype.BinaryFormatCode, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, buf)

	v, err := m.DecodeValue(pgtype.Int4OID, pgtype.BinaryFormatCode, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestTimeRoundTrips(t *testing.T) {
	m := pgtype.NewMap()

	date := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, date, roundTrip(t, m, pgtype.DateOID, pgtype.BinaryFormatCode, date))
	assert.Equal(t, date, roundTrip(t, m, pgtype.DateOID, pgtype.TextFormatCode, date))

	ts := time.Date(2026, 8, 25, 13, 14, 15, 123456000, time.UTC)
	assert.Equal(t, ts, roundTrip(t, m, pgtype.TimestampOID, pgtype.BinaryFormatCode, ts))
	assert.Equal(t, ts, roundTrip(t, m, pgtype.TimestamptzOID, pgtype.BinaryFormatCode, ts))

	// timestamptz binary is an absolute instant, so zoned input comes back
	// as the same instant in UTC.
	zoned := ts.In(time.FixedZone("x", 3600))
	assert.Equal(t, ts, roundTrip(t, m, pgtype.TimestamptzOID, pgtype.BinaryFormatCode, zoned))
}

func TestIntervalRoundTrip(t *testing.T) {
	m := pgtype.NewMap()

	interval := pgtype.Interval{Months: 14, Days: -3, Microseconds: 4*3600*1000000 + 5*60*1000000 + 6789000}
	assert.Equal(t, interval, roundTrip(t, m, pgtype.IntervalOID, pgtype.BinaryFormatCode, interval))

	v, err := m.DecodeValue(pgtype.IntervalOID, pgtype.TextFormatCode, []byte("1 year 2 mons -3 days 04:05:06.789"))
	require.NoError(t, err)
	assert.Equal(t, interval, v)
}

func TestNumericRoundTrip(t *testing.T) {
	m := pgtype.NewMap()

	for _, s := range []string{"0", "1", "-1", "12345.6789", "-0.00000001", "99999999999999999999.123", "1e10"} {
		d := decimal.RequireFromString(s)

		v := roundTrip(t, m, pgtype.NumericOID, pgtype.BinaryFormatCode, d)
		require.IsType(t, decimal.Decimal{}, v)
		assert.True(t, d.Equal(v.(decimal.Decimal)), "binary %s != %s", s, v)

		v = roundTrip(t, m, pgtype.NumericOID, pgtype.TextFormatCode, d)
		assert.True(t, d.Equal(v.(decimal.Decimal)), "text %s != %s", s, v)
	}

	_, err := m.DecodeValue(pgtype.NumericOID, pgtype.TextFormatCode, []byte("NaN"))
	require.Error(t, err)
}

func TestUUIDRoundTrip(t *testing.T) {
	m := pgtype.NewMap()

	u := uuid.Must(uuid.FromString("0097b403-41a1-4aa5-bc78-2b16e4e32dcc"))
	assert.Equal(t, u, roundTrip(t, m, pgtype.UUIDOID, pgtype.BinaryFormatCode, u))
	assert.Equal(t, u, roundTrip(t, m, pgtype.UUIDOID, pgtype.TextFormatCode, u))

	v := roundTrip(t, m, pgtype.UUIDOID, pgtype.BinaryFormatCode, u.String())
	assert.Equal(t, u, v)
}

func TestInetRoundTrip(t *testing.T) {
	m := pgtype.NewMap()

	_, ipnet, err := net.ParseCIDR("192.168.0.0/24")
	require.NoError(t, err)
	assert.Equal(t, ipnet, roundTrip(t, m, pgtype.InetOID, pgtype.BinaryFormatCode, ipnet))
	assert.Equal(t, ipnet, roundTrip(t, m, pgtype.CIDROID, pgtype.BinaryFormatCode, ipnet))

	v := roundTrip(t, m, pgtype.InetOID, pgtype.TextFormatCode, "::1")
	require.IsType(t, &net.IPNet{}, v)
	ones, bits := v.(*net.IPNet).Mask.Size()
	assert.Equal(t, 128, ones)
	assert.Equal(t, 128, bits)
}

func TestMacaddrRoundTrip(t *testing.T) {
	m := pgtype.NewMap()

	addr, err := net.ParseMAC("01:23:45:67:89:ab")
	require.NoError(t, err)
	assert.Equal(t, addr, roundTrip(t, m, pgtype.MacaddrOID, pgtype.BinaryFormatCode, addr))
	assert.Equal(t, addr, roundTrip(t, m, pgtype.MacaddrOID, pgtype.TextFormatCode, addr))
}

func TestJSONRoundTrip(t *testing.T) {
	m := pgtype.NewMap()

	v := roundTrip(t, m, pgtype.JSONBOID, pgtype.BinaryFormatCode, map[string]interface{}{"a": float64(1)})
	assert.Equal(t, map[string]interface{}{"a": float64(1)}, v)

	v = roundTrip(t, m, pgtype.JSONOID, pgtype.TextFormatCode, `[1,2,3]`)
	assert.Equal(t, []interface{}{float64(1), float64(2), float64(3)}, v)
}

func TestArrayRoundTrips(t *testing.T) {
	m := pgtype.NewMap()

	for _, format := range []int16{pgtype.TextFormatCode, pgtype.BinaryFormatCode} {
		v := roundTrip(t, m, pgtype.Int4ArrayOID, format, []int32{1, -2, 3})
		assert.Equal(t, []interface{}{int32(1), int32(-2), int32(3)}, v)

		v = roundTrip(t, m, pgtype.TextArrayOID, format, []interface{}{"plain", `quote"inside`, nil, "NULL", ""})
		assert.Equal(t, []interface{}{"plain", `quote"inside`, nil, "NULL", ""}, v)

		v = roundTrip(t, m, pgtype.Int8ArrayOID, format, []interface{}{})
		assert.Equal(t, []interface{}{}, v)
	}
}

func TestMultiDimensionalArrayRoundTrip(t *testing.T) {
	m := pgtype.NewMap()

	src := []interface{}{
		[]interface{}{int64(1), int64(2), int64(3)},
		[]interface{}{int64(4), int64(5), int64(6)},
	}

	for _, format := range []int16{pgtype.TextFormatCode, pgtype.BinaryFormatCode} {
		v := roundTrip(t, m, pgtype.Int8ArrayOID, format, src)
		assert.Equal(t, src, v)
	}
}

func TestTextArrayDecodesQuotedNullString(t *testing.T) {
	m := pgtype.NewMap()

	// "NULL" quoted is the string, bare NULL is SQL NULL.
	v, err := m.DecodeValue(pgtype.TextArrayOID, pgtype.TextFormatCode, []byte(`{"NULL",NULL}`))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"NULL", nil}, v)
}

func TestRaggedArrayFailsToEncode(t *testing.T) {
	m := pgtype.NewMap()

	src := []interface{}{
		[]interface{}{int64(1), int64(2)},
		[]interface{}{int64(3)},
	}
	_, err := m.Encode(pgtype.Int8ArrayOID, pgtype.BinaryFormatCode, src, nil)
	require.Error(t, err)
}

func TestUnknownOIDDecodesToRawText(t *testing.T) {
	m := pgtype.NewMap()

	v, err := m.DecodeValue(999999, pgtype.TextFormatCode, []byte("anything"))
	require.NoError(t, err)
	assert.Equal(t, "anything", v)
}

func TestOIDForValue(t *testing.T) {
	m := pgtype.NewMap()

	assert.Equal(t, uint32(pgtype.BoolOID), m.OIDForValue(true))
	assert.Equal(t, uint32(pgtype.Int8OID), m.OIDForValue(7))
	assert.Equal(t, uint32(pgtype.Float8OID), m.OIDForValue(1.5))
	assert.Equal(t, uint32(pgtype.ByteaOID), m.OIDForValue([]byte{1}))
	assert.Equal(t, uint32(pgtype.TimestamptzOID), m.OIDForValue(time.Now()))
	assert.Equal(t, uint32(pgtype.NumericOID), m.OIDForValue(decimal.New(1, 0)))
	assert.Equal(t, uint32(pgtype.Int8ArrayOID), m.OIDForValue([]int64{1, 2}))
	assert.Equal(t, uint32(pgtype.TextArrayOID), m.OIDForValue([]interface{}{nil, "x"}))

	// Strings stay untyped so the server can infer their type.
	assert.Equal(t, uint32(0), m.OIDForValue("untyped"))
}

func TestArrayOIDForElement(t *testing.T) {
	m := pgtype.NewMap()

	oid, ok := m.ArrayOIDForElement(pgtype.UUIDOID)
	require.True(t, ok)
	assert.Equal(t, uint32(pgtype.UUIDArrayOID), oid)
}
