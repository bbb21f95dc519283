package pgproto

import (
	"bytes"
	"strconv"

	"github.com/jackc/pgio"
)

// ErrorResponse reports an error for the current query cycle. Fields are
// keyed by the single-byte field codes of the protocol; well-known codes
// are broken out into named fields and the rest land in UnknownFields.
type ErrorResponse struct {
	Severity            string
	SeverityUnlocalized string
	Code                string
	Message             string
	Detail              string
	Hint                string
	Position            int32
	InternalPosition    int32
	InternalQuery       string
	Where               string
	SchemaName          string
	TableName           string
	ColumnName          string
	DataTypeName        string
	ConstraintName      string
	File                string
	Line                int32
	Routine             string

	UnknownFields map[byte]string
}

func (*ErrorResponse) Backend() {}

func (dst *ErrorResponse) Decode(src []byte) error {
	*dst = ErrorResponse{}
	return dst.decodeFields(src)
}

func (dst *ErrorResponse) decodeFields(src []byte) error {
	buf := bytes.NewBuffer(src)

	for {
		k, err := buf.ReadByte()
		if err != nil {
			return newFramingError("ErrorResponse", "missing terminator")
		}
		if k == 0 {
			return nil
		}

		vb, err := buf.ReadBytes(0)
		if err != nil {
			return newFramingError("ErrorResponse", "unterminated field value")
		}
		v := string(vb[:len(vb)-1])

		switch k {
		case 'S':
			dst.Severity = v
		case 'V':
			dst.SeverityUnlocalized = v
		case 'C':
			dst.Code = v
		case 'M':
			dst.Message = v
		case 'D':
			dst.Detail = v
		case 'H':
			dst.Hint = v
		case 'P':
			n, _ := strconv.ParseInt(v, 10, 32)
			dst.Position = int32(n)
		case 'p':
			n, _ := strconv.ParseInt(v, 10, 32)
			dst.InternalPosition = int32(n)
		case 'q':
			dst.InternalQuery = v
		case 'W':
			dst.Where = v
		case 's':
			dst.SchemaName = v
		case 't':
			dst.TableName = v
		case 'c':
			dst.ColumnName = v
		case 'd':
			dst.DataTypeName = v
		case 'n':
			dst.ConstraintName = v
		case 'F':
			dst.File = v
		case 'L':
			n, _ := strconv.ParseInt(v, 10, 32)
			dst.Line = int32(n)
		case 'R':
			dst.Routine = v
		default:
			if dst.UnknownFields == nil {
				dst.UnknownFields = make(map[byte]string)
			}
			dst.UnknownFields[k] = v
		}
	}
}

func (src *ErrorResponse) Encode(dst []byte) []byte {
	return src.encodeWithTag(dst, 'E')
}

func (src *ErrorResponse) encodeWithTag(dst []byte, tag byte) []byte {
	dst = append(dst, tag)
	sp := len(dst)
	dst = append(dst, 0, 0, 0, 0)

	appendField := func(k byte, v string) {
		if v != "" {
			dst = append(dst, k)
			dst = append(dst, v...)
			dst = append(dst, 0)
		}
	}

	appendField('S', src.Severity)
	appendField('V', src.SeverityUnlocalized)
	appendField('C', src.Code)
	appendField('M', src.Message)
	appendField('D', src.Detail)
	appendField('H', src.Hint)
	if src.Position != 0 {
		appendField('P', strconv.FormatInt(int64(src.Position), 10))
	}
	if src.InternalPosition != 0 {
		appendField('p', strconv.FormatInt(int64(src.InternalPosition), 10))
	}
	appendField('q', src.InternalQuery)
	appendField('W', src.Where)
	appendField('s', src.SchemaName)
	appendField('t', src.TableName)
	appendField('c', src.ColumnName)
	appendField('d', src.DataTypeName)
	appendField('n', src.ConstraintName)
	appendField('F', src.File)
	if src.Line != 0 {
		appendField('L', strconv.FormatInt(int64(src.Line), 10))
	}
	appendField('R', src.Routine)

	for k, v := range src.UnknownFields {
		appendField(k, v)
	}

	dst = append(dst, 0)

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
