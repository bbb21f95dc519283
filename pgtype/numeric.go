package pgtype

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/jackc/pgio"
	"github.com/shopspring/decimal"
)

// PostgreSQL internal numeric storage uses 16-bit "digits" with a base of
// 10,000.
const nbase = 10000

const (
	pgNumericNaNSign    = 0xc000
	pgNumericPosInfSign = 0xd000
	pgNumericNegInfSign = 0xf000
)

var big0 = big.NewInt(0)
var big1 = big.NewInt(1)
var big10 = big.NewInt(10)
var big100 = big.NewInt(100)
var big1000 = big.NewInt(1000)

var bigNBase = big.NewInt(nbase)
var bigNBaseX2 = big.NewInt(nbase * nbase)
var bigNBaseX3 = big.NewInt(nbase * nbase * nbase)
var bigNBaseX4 = big.NewInt(nbase * nbase * nbase * nbase)

// NumericCodec converts between PostgreSQL numeric and decimal.Decimal.
// NaN and the infinities have no decimal.Decimal representation and fail
// to decode.
type NumericCodec struct{}

func (NumericCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (NumericCodec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (NumericCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	var d decimal.Decimal
	switch value := value.(type) {
	case decimal.Decimal:
		d = value
	case string:
		var err error
		d, err = decimal.NewFromString(value)
		if err != nil {
			return nil, err
		}
	case int64:
		d = decimal.NewFromInt(value)
	case int:
		d = decimal.NewFromInt(int64(value))
	case float64:
		d = decimal.NewFromFloat(value)
	default:
		return nil, fmt.Errorf("cannot encode %T as numeric", value)
	}

	switch format {
	case BinaryFormatCode:
		return encodeNumericBinary(d, buf), nil
	case TextFormatCode:
		return append(buf, d.String()...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (NumericCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		return decodeNumericBinary(src)
	case TextFormatCode:
		s := string(src)
		switch s {
		case "NaN", "Infinity", "-Infinity":
			return nil, fmt.Errorf("cannot decode %s into decimal.Decimal", s)
		}
		return decimal.NewFromString(s)
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func decodeNumericBinary(src []byte) (decimal.Decimal, error) {
	if len(src) < 8 {
		return decimal.Decimal{}, fmt.Errorf("numeric incomplete %v", src)
	}

	rp := 0
	ndigits := binary.BigEndian.Uint16(src[rp:])
	rp += 2
	weight := int16(binary.BigEndian.Uint16(src[rp:]))
	rp += 2
	sign := binary.BigEndian.Uint16(src[rp:])
	rp += 2
	dscale := int16(binary.BigEndian.Uint16(src[rp:]))
	rp += 2

	switch sign {
	case pgNumericNaNSign:
		return decimal.Decimal{}, fmt.Errorf("cannot decode NaN into decimal.Decimal")
	case pgNumericPosInfSign:
		return decimal.Decimal{}, fmt.Errorf("cannot decode Infinity into decimal.Decimal")
	case pgNumericNegInfSign:
		return decimal.Decimal{}, fmt.Errorf("cannot decode -Infinity into decimal.Decimal")
	}

	if ndigits == 0 {
		return decimal.New(0, -int32(dscale)), nil
	}

	if len(src[rp:]) < int(ndigits)*2 {
		return decimal.Decimal{}, fmt.Errorf("numeric incomplete %v", src)
	}

	accum := &big.Int{}
	for i := 0; i < int(ndigits+3)/4; i++ {
		int64accum, bytesRead, digitsRead := nbaseDigitsToInt64(src[rp:])
		rp += bytesRead

		if i > 0 {
			var mul *big.Int
			switch digitsRead {
			case 1:
				mul = bigNBase
			case 2:
				mul = bigNBaseX2
			case 3:
				mul = bigNBaseX3
			case 4:
				mul = bigNBaseX4
			default:
				return decimal.Decimal{}, fmt.Errorf("invalid digitsRead: %d", digitsRead)
			}
			accum.Mul(accum, mul)
		}

		accum.Add(accum, big.NewInt(int64accum))
	}

	exp := (int32(weight) - int32(ndigits) + 1) * 4

	if dscale > 0 {
		fracNBaseDigits := int32(ndigits) - int32(weight) - 1
		fracDecimalDigits := fracNBaseDigits * 4

		if int32(dscale) > fracDecimalDigits {
			for i := int32(0); i < int32(dscale)-fracDecimalDigits; i++ {
				accum.Mul(accum, big10)
				exp--
			}
		} else if int32(dscale) < fracDecimalDigits {
			for i := int32(0); i < fracDecimalDigits-int32(dscale); i++ {
				accum.Div(accum, big10)
				exp++
			}
		}
	}

	if sign != 0 {
		accum.Neg(accum)
	}

	return decimal.NewFromBigInt(accum, exp), nil
}

func nbaseDigitsToInt64(src []byte) (accum int64, bytesRead, digitsRead int) {
	digits := len(src) / 2
	if digits > 4 {
		digits = 4
	}

	rp := 0
	for i := 0; i < digits; i++ {
		if i > 0 {
			accum *= nbase
		}
		accum += int64(binary.BigEndian.Uint16(src[rp:]))
		rp += 2
	}

	return accum, rp, digits
}

func encodeNumericBinary(d decimal.Decimal, buf []byte) []byte {
	var sign int16
	if d.Sign() < 0 {
		sign = 0x4000
	}

	absInt := &big.Int{}
	wholePart := &big.Int{}
	fracPart := &big.Int{}
	remainder := &big.Int{}
	absInt.Abs(d.Coefficient())

	// Normalize absInt and exp so exp is a multiple of 4, which maps
	// directly onto base-10,000 digits.
	srcExp := d.Exponent()
	var exp int32
	switch srcExp % 4 {
	case 1, -3:
		exp = srcExp - 1
		absInt.Mul(absInt, big10)
	case 2, -2:
		exp = srcExp - 2
		absInt.Mul(absInt, big100)
	case 3, -1:
		exp = srcExp - 3
		absInt.Mul(absInt, big1000)
	default:
		exp = srcExp
	}

	if exp < 0 {
		divisor := &big.Int{}
		divisor.Exp(big10, big.NewInt(int64(-exp)), nil)
		wholePart.DivMod(absInt, divisor, fracPart)
		fracPart.Add(fracPart, divisor)
	} else {
		wholePart = absInt
	}

	var wholeDigits, fracDigits []int16

	for wholePart.Cmp(big0) != 0 {
		wholePart.DivMod(wholePart, bigNBase, remainder)
		wholeDigits = append(wholeDigits, int16(remainder.Int64()))
	}

	if fracPart.Cmp(big0) != 0 {
		for fracPart.Cmp(big1) != 0 {
			fracPart.DivMod(fracPart, bigNBase, remainder)
			fracDigits = append(fracDigits, int16(remainder.Int64()))
		}
	}

	buf = pgio.AppendInt16(buf, int16(len(wholeDigits)+len(fracDigits)))

	var weight int16
	if len(wholeDigits) > 0 {
		weight = int16(len(wholeDigits) - 1)
		if exp > 0 {
			weight += int16(exp / 4)
		}
	} else {
		weight = int16(exp/4) - 1 + int16(len(fracDigits))
	}
	buf = pgio.AppendInt16(buf, weight)

	buf = pgio.AppendInt16(buf, sign)

	var dscale int16
	if srcExp < 0 {
		dscale = int16(-srcExp)
	}
	buf = pgio.AppendInt16(buf, dscale)

	for i := len(wholeDigits) - 1; i >= 0; i-- {
		buf = pgio.AppendInt16(buf, wholeDigits[i])
	}
	for i := len(fracDigits) - 1; i >= 0; i-- {
		buf = pgio.AppendInt16(buf, fracDigits[i])
	}

	return buf
}
