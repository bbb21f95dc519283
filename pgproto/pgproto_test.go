package pgproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartupMessageEncodeDecode(t *testing.T) {
	original := &StartupMessage{
		ProtocolVersion: ProtocolVersionNumber,
		Parameters: map[string]string{
			"user":     "alice",
			"database": "app",
		},
	}

	buf := original.Encode(nil)

	// Strip the length word; Decode receives the body only.
	var decoded StartupMessage
	require.NoError(t, decoded.Decode(buf[4:]))
	assert.Equal(t, original.ProtocolVersion, decoded.ProtocolVersion)
	assert.Equal(t, original.Parameters, decoded.Parameters)
}

func TestParseEncodeDecode(t *testing.T) {
	original := &Parse{
		Name:          "stmt_1",
		Query:         "select $1::int4, $2::text",
		ParameterOIDs: []uint32{23, 25},
	}

	buf := original.Encode(nil)
	require.Equal(t, byte('P'), buf[0])

	var decoded Parse
	require.NoError(t, decoded.Decode(buf[5:]))
	assert.Equal(t, *original, decoded)
}

func TestBindEncodeDecode(t *testing.T) {
	original := &Bind{
		DestinationPortal:    "p1",
		PreparedStatement:    "stmt_1",
		ParameterFormatCodes: []int16{BinaryFormat, TextFormat, BinaryFormat},
		Parameters:           [][]byte{{0, 0, 0, 7}, nil, []byte("hello")},
		ResultFormatCodes:    []int16{BinaryFormat},
	}

	buf := original.Encode(nil)
	require.Equal(t, byte('B'), buf[0])

	var decoded Bind
	require.NoError(t, decoded.Decode(buf[5:]))
	assert.Equal(t, *original, decoded)
}

func TestBindDecodeTruncatedParameter(t *testing.T) {
	original := &Bind{Parameters: [][]byte{[]byte("payload")}}
	buf := original.Encode(nil)

	var decoded Bind
	err := decoded.Decode(buf[5 : len(buf)-4])
	require.Error(t, err)
	var framingErr *FramingError
	require.ErrorAs(t, err, &framingErr)
}

func TestDescribeEncodeDecode(t *testing.T) {
	for _, objectType := range []byte{ObjectTypePreparedStatement, ObjectTypePortal} {
		original := &Describe{ObjectType: objectType, Name: "x"}
		buf := original.Encode(nil)

		var decoded Describe
		require.NoError(t, decoded.Decode(buf[5:]))
		assert.Equal(t, *original, decoded)
	}
}

func TestExecuteEncodeDecode(t *testing.T) {
	original := &Execute{Portal: "p2", MaxRows: 100}
	buf := original.Encode(nil)

	var decoded Execute
	require.NoError(t, decoded.Decode(buf[5:]))
	assert.Equal(t, *original, decoded)
}

func TestDataRowEncodeDecodeWithNulls(t *testing.T) {
	original := &DataRow{Values: [][]byte{[]byte("a"), nil, {0x00, 0x01}}}
	buf := original.Encode(nil)

	var decoded DataRow
	require.NoError(t, decoded.Decode(buf[5:]))
	assert.Equal(t, original.Values, decoded.Values)
	assert.Nil(t, decoded.Values[1])
}

func TestRowDescriptionEncodeDecode(t *testing.T) {
	original := &RowDescription{Fields: []FieldDescription{
		{
			Name:                 "id",
			TableOID:             16385,
			TableAttributeNumber: 1,
			DataTypeOID:          23,
			DataTypeSize:         4,
			TypeModifier:         -1,
			Format:               BinaryFormat,
		},
		{
			Name:         "note",
			DataTypeOID:  25,
			DataTypeSize: -1,
			TypeModifier: -1,
			Format:       TextFormat,
		},
	}}

	buf := original.Encode(nil)

	var decoded RowDescription
	require.NoError(t, decoded.Decode(buf[5:]))
	assert.Equal(t, original.Fields, decoded.Fields)
}

func TestErrorResponseEncodeDecode(t *testing.T) {
	original := &ErrorResponse{
		Severity: "ERROR",
		Code:     "42P01",
		Message:  `relation "t99" does not exist`,
		Position: 13,
	}

	buf := original.Encode(nil)
	require.Equal(t, byte('E'), buf[0])

	var decoded ErrorResponse
	require.NoError(t, decoded.Decode(buf[5:]))
	assert.Equal(t, "ERROR", decoded.Severity)
	assert.Equal(t, "42P01", decoded.Code)
	assert.Equal(t, original.Message, decoded.Message)
	assert.Equal(t, int32(13), decoded.Position)
}

func TestNoticeResponseDecode(t *testing.T) {
	notice := &NoticeResponse{
		Severity: "WARNING",
		Code:     "25P01",
		Message:  "there is no transaction in progress",
	}

	buf := notice.Encode(nil)
	require.Equal(t, byte('N'), buf[0])

	var decoded NoticeResponse
	require.NoError(t, decoded.Decode(buf[5:]))
	assert.Equal(t, "25P01", decoded.Code)
}

func TestNotificationResponseEncodeDecode(t *testing.T) {
	original := &NotificationResponse{PID: 4242, Channel: "jobs", Payload: "wake"}
	buf := original.Encode(nil)

	var decoded NotificationResponse
	require.NoError(t, decoded.Decode(buf[5:]))
	assert.Equal(t, *original, decoded)
}

func TestAuthenticationDecodeVariants(t *testing.T) {
	md5 := &Authentication{Type: AuthTypeMD5Password, Salt: [4]byte{1, 2, 3, 4}}
	buf := md5.Encode(nil)
	var decoded Authentication
	require.NoError(t, decoded.Decode(buf[5:]))
	assert.Equal(t, uint32(AuthTypeMD5Password), decoded.Type)
	assert.Equal(t, md5.Salt, decoded.Salt)

	sasl := &Authentication{Type: AuthTypeSASL, SASLAuthMechanisms: []string{"SCRAM-SHA-256"}}
	buf = sasl.Encode(nil)
	require.NoError(t, decoded.Decode(buf[5:]))
	assert.Equal(t, []string{"SCRAM-SHA-256"}, decoded.SASLAuthMechanisms)
}

func TestCancelRequestEncodeDecode(t *testing.T) {
	original := &CancelRequest{ProcessID: 31337, SecretKey: 271828}
	buf := original.Encode(nil)
	require.Len(t, buf, 16)

	var decoded CancelRequest
	require.NoError(t, decoded.Decode(buf[4:]))
	assert.Equal(t, *original, decoded)
}

func TestReadyForQueryDecodeStatuses(t *testing.T) {
	for _, status := range []byte{TxStatusIdle, TxStatusInTransaction, TxStatusFailed} {
		msg := &ReadyForQuery{TxStatus: status}
		buf := msg.Encode(nil)

		var decoded ReadyForQuery
		require.NoError(t, decoded.Decode(buf[5:]))
		assert.Equal(t, status, decoded.TxStatus)
	}
}

func TestCopyResponsesEncodeDecode(t *testing.T) {
	in := &CopyInResponse{OverallFormat: 0, ColumnFormatCodes: []uint16{0, 0, 1}}
	buf := in.Encode(nil)
	var decodedIn CopyInResponse
	require.NoError(t, decodedIn.Decode(buf[5:]))
	assert.Equal(t, *in, decodedIn)

	out := &CopyOutResponse{OverallFormat: 1, ColumnFormatCodes: []uint16{1}}
	buf = out.Encode(nil)
	var decodedOut CopyOutResponse
	require.NoError(t, decodedOut.Decode(buf[5:]))
	assert.Equal(t, *out, decodedOut)
}
