package pgproto

import (
	"encoding/binary"

	"github.com/jackc/pgio"
)

// CopyInResponse announces the server is ready to receive COPY data.
type CopyInResponse struct {
	OverallFormat     byte
	ColumnFormatCodes []uint16
}

func (*CopyInResponse) Backend() {}

func (dst *CopyInResponse) Decode(src []byte) error {
	format, codes, err := decodeCopyResponseBody("CopyInResponse", src)
	if err != nil {
		return err
	}
	*dst = CopyInResponse{OverallFormat: format, ColumnFormatCodes: codes}
	return nil
}

func (src *CopyInResponse) Encode(dst []byte) []byte {
	return encodeCopyResponseBody(dst, 'G', src.OverallFormat, src.ColumnFormatCodes)
}

// CopyOutResponse announces the server is about to send COPY data.
type CopyOutResponse struct {
	OverallFormat     byte
	ColumnFormatCodes []uint16
}

func (*CopyOutResponse) Backend() {}

func (dst *CopyOutResponse) Decode(src []byte) error {
	format, codes, err := decodeCopyResponseBody("CopyOutResponse", src)
	if err != nil {
		return err
	}
	*dst = CopyOutResponse{OverallFormat: format, ColumnFormatCodes: codes}
	return nil
}

func (src *CopyOutResponse) Encode(dst []byte) []byte {
	return encodeCopyResponseBody(dst, 'H', src.OverallFormat, src.ColumnFormatCodes)
}

func decodeCopyResponseBody(messageType string, src []byte) (byte, []uint16, error) {
	if len(src) < 3 {
		return 0, nil, newFramingError(messageType, "too short")
	}

	overallFormat := src[0]

	columnCount := int(binary.BigEndian.Uint16(src[1:]))
	if len(src) != 3+columnCount*2 {
		return 0, nil, newFramingError(messageType, "column format codes do not match column count")
	}

	columnFormatCodes := make([]uint16, columnCount)
	for i := 0; i < columnCount; i++ {
		columnFormatCodes[i] = binary.BigEndian.Uint16(src[3+i*2:])
	}

	return overallFormat, columnFormatCodes, nil
}

func encodeCopyResponseBody(dst []byte, tag byte, overallFormat byte, columnFormatCodes []uint16) []byte {
	dst = append(dst, tag)
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = append(dst, overallFormat)
	dst = pgio.AppendUint16(dst, uint16(len(columnFormatCodes)))
	for _, fc := range columnFormatCodes {
		dst = pgio.AppendUint16(dst, fc)
	}

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
