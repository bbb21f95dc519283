package pgtype

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/jackc/pgio"
)

// Information on the internals of PostgreSQL arrays can be found in
// src/include/utils/array.h and src/backend/utils/adt/arrayfuncs.c. Of
// particular interest is the array_send function.

type arrayHeader struct {
	ContainsNull bool
	ElementOID   uint32
	Dimensions   []arrayDimension
}

type arrayDimension struct {
	Length     int32
	LowerBound int32
}

// ArrayCodec handles arrays of a registered element type. One-dimensional
// arrays decode to []interface{} of element values; multidimensional
// arrays decode to nested []interface{}.
type ArrayCodec struct {
	ElementType *Type
}

func (c *ArrayCodec) FormatSupported(format int16) bool {
	return c.ElementType.Codec.FormatSupported(format)
}

func (c *ArrayCodec) PreferredFormat() int16 {
	return c.ElementType.Codec.PreferredFormat()
}

func (c *ArrayCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	elements, dims, err := flattenArrayValue(value)
	if err != nil {
		return nil, err
	}

	switch format {
	case BinaryFormatCode:
		return c.encodeBinary(m, format, elements, dims, buf)
	case TextFormatCode:
		return c.encodeText(m, format, elements, dims, buf)
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (c *ArrayCodec) encodeBinary(m *Map, format int16, elements []interface{}, dims []arrayDimension, buf []byte) ([]byte, error) {
	containsNull := false
	for _, e := range elements {
		if e == nil {
			containsNull = true
			break
		}
	}

	buf = pgio.AppendInt32(buf, int32(len(dims)))
	var containsNullWord int32
	if containsNull {
		containsNullWord = 1
	}
	buf = pgio.AppendInt32(buf, containsNullWord)
	buf = pgio.AppendUint32(buf, c.ElementType.OID)
	for _, dim := range dims {
		buf = pgio.AppendInt32(buf, dim.Length)
		buf = pgio.AppendInt32(buf, dim.LowerBound)
	}

	for _, e := range elements {
		if e == nil {
			buf = pgio.AppendInt32(buf, -1)
			continue
		}

		sp := len(buf)
		buf = pgio.AppendInt32(buf, -1)
		elemBuf, err := c.ElementType.Codec.Encode(m, c.ElementType.OID, format, e, buf)
		if err != nil {
			return nil, err
		}
		if elemBuf == nil {
			continue
		}
		buf = elemBuf
		pgio.SetInt32(buf[sp:], int32(len(buf[sp:])-4))
	}

	return buf, nil
}

func (c *ArrayCodec) encodeText(m *Map, format int16, elements []interface{}, dims []arrayDimension, buf []byte) ([]byte, error) {
	if len(dims) == 0 {
		return append(buf, "{}"...), nil
	}

	var write func(elements []interface{}, dims []arrayDimension) ([]interface{}, error)
	write = func(elements []interface{}, dims []arrayDimension) ([]interface{}, error) {
		buf = append(buf, '{')
		if len(dims) == 1 {
			for i := int32(0); i < dims[0].Length; i++ {
				if i > 0 {
					buf = append(buf, ',')
				}
				e := elements[0]
				elements = elements[1:]

				if e == nil {
					buf = append(buf, "NULL"...)
					continue
				}

				elemBuf, err := c.ElementType.Codec.Encode(m, c.ElementType.OID, format, e, nil)
				if err != nil {
					return nil, err
				}
				buf = append(buf, quoteArrayElementIfNeeded(string(elemBuf))...)
			}
		} else {
			for i := int32(0); i < dims[0].Length; i++ {
				if i > 0 {
					buf = append(buf, ',')
				}
				var err error
				elements, err = write(elements, dims[1:])
				if err != nil {
					return nil, err
				}
			}
		}
		buf = append(buf, '}')
		return elements, nil
	}

	if _, err := write(elements, dims); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *ArrayCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		return c.decodeBinary(m, src)
	case TextFormatCode:
		return c.decodeText(m, src)
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (c *ArrayCodec) decodeBinary(m *Map, src []byte) (interface{}, error) {
	var header arrayHeader
	rp, err := header.decodeBinary(src)
	if err != nil {
		return nil, err
	}

	elementCount := 0
	if len(header.Dimensions) > 0 {
		elementCount = 1
		for _, dim := range header.Dimensions {
			elementCount *= int(dim.Length)
		}
	}

	elements := make([]interface{}, 0, elementCount)
	for i := 0; i < elementCount; i++ {
		if len(src[rp:]) < 4 {
			return nil, fmt.Errorf("array incomplete: expected %d elements", elementCount)
		}
		elemLen := int(int32(binary.BigEndian.Uint32(src[rp:])))
		rp += 4

		if elemLen == -1 {
			elements = append(elements, nil)
			continue
		}

		if len(src[rp:]) < elemLen {
			return nil, fmt.Errorf("array incomplete: expected %d elements", elementCount)
		}
		v, err := c.ElementType.Codec.DecodeValue(m, c.ElementType.OID, BinaryFormatCode, src[rp:rp+elemLen])
		if err != nil {
			return nil, err
		}
		rp += elemLen
		elements = append(elements, v)
	}

	return nestElements(elements, header.Dimensions), nil
}

func (c *ArrayCodec) decodeText(m *Map, src []byte) (interface{}, error) {
	uta, err := parseUntypedTextArray(string(src))
	if err != nil {
		return nil, err
	}

	elements := make([]interface{}, 0, len(uta.Elements))
	for i, s := range uta.Elements {
		if s == "NULL" && !uta.Quoted[i] {
			elements = append(elements, nil)
			continue
		}
		v, err := c.ElementType.Codec.DecodeValue(m, c.ElementType.OID, TextFormatCode, []byte(s))
		if err != nil {
			return nil, err
		}
		elements = append(elements, v)
	}

	return nestElements(elements, uta.Dimensions), nil
}

func (h *arrayHeader) decodeBinary(src []byte) (int, error) {
	if len(src) < 12 {
		return 0, fmt.Errorf("array header too short: %d", len(src))
	}

	rp := 0
	numDims := int(binary.BigEndian.Uint32(src[rp:]))
	rp += 4
	h.ContainsNull = binary.BigEndian.Uint32(src[rp:]) == 1
	rp += 4
	h.ElementOID = binary.BigEndian.Uint32(src[rp:])
	rp += 4

	if len(src[rp:]) < numDims*8 {
		return 0, fmt.Errorf("array header too short: %d", len(src))
	}
	h.Dimensions = make([]arrayDimension, numDims)
	for i := range h.Dimensions {
		h.Dimensions[i].Length = int32(binary.BigEndian.Uint32(src[rp:]))
		rp += 4
		h.Dimensions[i].LowerBound = int32(binary.BigEndian.Uint32(src[rp:]))
		rp += 4
	}

	return rp, nil
}

// nestElements shapes a flat element list into nested []interface{}
// following dims. One dimension returns the flat list.
func nestElements(elements []interface{}, dims []arrayDimension) []interface{} {
	if len(dims) <= 1 {
		return elements
	}

	var nest func(flat []interface{}, dims []arrayDimension) ([]interface{}, []interface{})
	nest = func(flat []interface{}, dims []arrayDimension) ([]interface{}, []interface{}) {
		out := make([]interface{}, 0, dims[0].Length)
		if len(dims) == 1 {
			for i := int32(0); i < dims[0].Length; i++ {
				out = append(out, flat[0])
				flat = flat[1:]
			}
			return out, flat
		}
		for i := int32(0); i < dims[0].Length; i++ {
			var sub []interface{}
			sub, flat = nest(flat, dims[1:])
			out = append(out, interface{}(sub))
		}
		return out, flat
	}

	nested, _ := nest(elements, dims)
	return nested
}

// flattenArrayValue converts a Go slice, possibly nested, to a flat element
// list plus dimensions. Rectangularity of nested slices is required.
func flattenArrayValue(value interface{}) ([]interface{}, []arrayDimension, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return nil, nil, fmt.Errorf("cannot encode %T as array", value)
	}

	var elements []interface{}
	var dims []arrayDimension

	var walk func(rv reflect.Value, depth int) error
	walk = func(rv reflect.Value, depth int) error {
		length := int32(rv.Len())
		if depth == len(dims) {
			dims = append(dims, arrayDimension{Length: length, LowerBound: 1})
		} else if dims[depth].Length != length {
			return fmt.Errorf("multidimensional arrays must have elements with matching dimensions")
		}

		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			for elem.Kind() == reflect.Interface {
				elem = elem.Elem()
			}

			// A nested slice is a further dimension, except []byte which is
			// a bytea element.
			if elem.Kind() == reflect.Slice && elem.Type().Elem().Kind() != reflect.Uint8 {
				if err := walk(elem, depth+1); err != nil {
					return err
				}
				continue
			}

			if !elem.IsValid() {
				elements = append(elements, nil)
			} else {
				elements = append(elements, elem.Interface())
			}
		}
		return nil
	}

	if err := walk(rv, 0); err != nil {
		return nil, nil, err
	}

	if len(dims) == 1 && dims[0].Length == 0 {
		dims = nil
	}
	return elements, dims, nil
}

type untypedTextArray struct {
	Elements   []string
	Quoted     []bool
	Dimensions []arrayDimension
}

func parseUntypedTextArray(src string) (*untypedTextArray, error) {
	uta := &untypedTextArray{}

	buf := bytes.NewBufferString(src)

	skipWhitespace(buf)

	r, _, err := buf.ReadRune()
	if err != nil {
		return nil, fmt.Errorf("invalid array: %v", err)
	}

	var explicitDimensions []arrayDimension

	// Array has explicit dimensions
	if r == '[' {
		buf.UnreadRune()

		for {
			r, _, err = buf.ReadRune()
			if err != nil {
				return nil, fmt.Errorf("invalid array: %v", err)
			}

			if r == '=' {
				break
			} else if r != '[' {
				return nil, fmt.Errorf("invalid array, expected '[' or '=' got %v", r)
			}

			lower, err := arrayParseInteger(buf)
			if err != nil {
				return nil, fmt.Errorf("invalid array: %v", err)
			}

			r, _, err = buf.ReadRune()
			if err != nil {
				return nil, fmt.Errorf("invalid array: %v", err)
			}

			if r != ':' {
				return nil, fmt.Errorf("invalid array, expected ':' got %v", r)
			}

			upper, err := arrayParseInteger(buf)
			if err != nil {
				return nil, fmt.Errorf("invalid array: %v", err)
			}

			r, _, err = buf.ReadRune()
			if err != nil {
				return nil, fmt.Errorf("invalid array: %v", err)
			}

			if r != ']' {
				return nil, fmt.Errorf("invalid array, expected ']' got %v", r)
			}

			explicitDimensions = append(explicitDimensions, arrayDimension{LowerBound: lower, Length: upper - lower + 1})
		}

		r, _, err = buf.ReadRune()
		if err != nil {
			return nil, fmt.Errorf("invalid array: %v", err)
		}
	}

	if r != '{' {
		return nil, fmt.Errorf("invalid array, expected '{' got %v", r)
	}

	implicitDimensions := []arrayDimension{{LowerBound: 1, Length: 0}}

	// Consume all initial opening brackets. This provides the number of
	// dimensions.
	for {
		r, _, err = buf.ReadRune()
		if err != nil {
			return nil, fmt.Errorf("invalid array: %v", err)
		}

		if r == '{' {
			implicitDimensions[len(implicitDimensions)-1].Length = 1
			implicitDimensions = append(implicitDimensions, arrayDimension{LowerBound: 1})
		} else {
			buf.UnreadRune()
			break
		}
	}
	currentDim := len(implicitDimensions) - 1
	counterDim := currentDim

	for {
		r, _, err = buf.ReadRune()
		if err != nil {
			return nil, fmt.Errorf("invalid array: %v", err)
		}

		switch r {
		case '{':
			if currentDim == counterDim {
				implicitDimensions[currentDim].Length++
			}
			currentDim++
		case ',':
		case '}':
			currentDim--
			if currentDim < counterDim {
				counterDim = currentDim
			}
		default:
			buf.UnreadRune()
			value, quoted, err := arrayParseValue(buf)
			if err != nil {
				return nil, fmt.Errorf("invalid array value: %v", err)
			}
			if currentDim == counterDim {
				implicitDimensions[currentDim].Length++
			}
			uta.Elements = append(uta.Elements, value)
			uta.Quoted = append(uta.Quoted, quoted)
		}

		if currentDim < 0 {
			break
		}
	}

	skipWhitespace(buf)

	if buf.Len() > 0 {
		return nil, fmt.Errorf("unexpected trailing data: %v", buf.String())
	}

	if len(explicitDimensions) > 0 {
		uta.Dimensions = explicitDimensions
	} else {
		uta.Dimensions = implicitDimensions
		if len(uta.Dimensions) == 1 && uta.Dimensions[0].Length == 0 {
			uta.Dimensions = nil
		}
	}

	return uta, nil
}

func skipWhitespace(buf *bytes.Buffer) {
	var r rune
	var err error
	for r, _, _ = buf.ReadRune(); unicode.IsSpace(r); r, _, _ = buf.ReadRune() {
	}

	if err != io.EOF {
		buf.UnreadRune()
	}
}

func arrayParseValue(buf *bytes.Buffer) (string, bool, error) {
	r, _, err := buf.ReadRune()
	if err != nil {
		return "", false, err
	}
	if r == '"' {
		s, err := arrayParseQuotedValue(buf)
		return s, true, err
	}
	buf.UnreadRune()

	s := &bytes.Buffer{}

	for {
		r, _, err := buf.ReadRune()
		if err != nil {
			return "", false, err
		}

		switch r {
		case ',', '}':
			buf.UnreadRune()
			return s.String(), false, nil
		}

		s.WriteRune(r)
	}
}

func arrayParseQuotedValue(buf *bytes.Buffer) (string, error) {
	s := &bytes.Buffer{}

	for {
		r, _, err := buf.ReadRune()
		if err != nil {
			return "", err
		}

		switch r {
		case '\\':
			r, _, err = buf.ReadRune()
			if err != nil {
				return "", err
			}
		case '"':
			r, _, err = buf.ReadRune()
			if err != nil {
				return "", err
			}
			buf.UnreadRune()
			return s.String(), nil
		}
		s.WriteRune(r)
	}
}

func arrayParseInteger(buf *bytes.Buffer) (int32, error) {
	s := &bytes.Buffer{}

	for {
		r, _, err := buf.ReadRune()
		if err != nil {
			return 0, err
		}

		if '0' <= r && r <= '9' {
			s.WriteRune(r)
		} else {
			buf.UnreadRune()
			n, err := strconv.ParseInt(s.String(), 10, 32)
			if err != nil {
				return 0, err
			}
			return int32(n), nil
		}
	}
}

func quoteArrayElementIfNeeded(src string) string {
	if src == "" || src == "NULL" || strings.ContainsAny(src, `{},"\ `) {
		return `"` + strings.ReplaceAll(strings.ReplaceAll(src, `\`, `\\`), `"`, `\"`) + `"`
	}
	return src
}
