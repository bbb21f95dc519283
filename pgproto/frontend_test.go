package pgproto

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontendReceiveInterleavedMessages(t *testing.T) {
	var wire []byte
	wire = (&RowDescription{Fields: []FieldDescription{{Name: "n", DataTypeOID: 23, DataTypeSize: 4, TypeModifier: -1, Format: BinaryFormat}}}).Encode(wire)
	wire = (&NoticeResponse{Severity: "NOTICE", Code: "00000", Message: "fyi"}).Encode(wire)
	wire = (&DataRow{Values: [][]byte{{0, 0, 0, 1}}}).Encode(wire)
	wire = (&CommandComplete{CommandTag: []byte("SELECT 1")}).Encode(wire)
	wire = (&ReadyForQuery{TxStatus: TxStatusIdle}).Encode(wire)

	frontend := NewFrontend(bytes.NewReader(wire), io.Discard)

	msg, err := frontend.Receive()
	require.NoError(t, err)
	require.IsType(t, &RowDescription{}, msg)

	msg, err = frontend.Receive()
	require.NoError(t, err)
	notice, ok := msg.(*NoticeResponse)
	require.True(t, ok)
	assert.Equal(t, "fyi", notice.Message)

	msg, err = frontend.Receive()
	require.NoError(t, err)
	dataRow, ok := msg.(*DataRow)
	require.True(t, ok)
	assert.Equal(t, [][]byte{{0, 0, 0, 1}}, dataRow.Values)

	msg, err = frontend.Receive()
	require.NoError(t, err)
	commandComplete, ok := msg.(*CommandComplete)
	require.True(t, ok)
	assert.Equal(t, "SELECT 1", string(commandComplete.CommandTag))

	msg, err = frontend.Receive()
	require.NoError(t, err)
	readyForQuery, ok := msg.(*ReadyForQuery)
	require.True(t, ok)
	assert.Equal(t, TxStatusIdle, readyForQuery.TxStatus)

	_, err = frontend.Receive()
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestFrontendReceiveInvalidLengthIsFramingError(t *testing.T) {
	wire := []byte{'Z', 0, 0, 0, 2} // declared length smaller than the length field itself

	frontend := NewFrontend(bytes.NewReader(wire), io.Discard)

	_, err := frontend.Receive()
	require.Error(t, err)
	var framingErr *FramingError
	require.ErrorAs(t, err, &framingErr)
}

func TestFrontendReceiveUnknownTagIsFramingError(t *testing.T) {
	wire := []byte{'@', 0, 0, 0, 4}

	frontend := NewFrontend(bytes.NewReader(wire), io.Discard)

	_, err := frontend.Receive()
	require.Error(t, err)
	var framingErr *FramingError
	require.ErrorAs(t, err, &framingErr)
}

func TestFrontendSendBuffersUntilFlush(t *testing.T) {
	var sink bytes.Buffer
	frontend := NewFrontend(bytes.NewReader(nil), &sink)

	frontend.Send(&Query{String: "select 1"})
	assert.Zero(t, sink.Len())

	require.NoError(t, frontend.Flush())
	assert.Equal(t, (&Query{String: "select 1"}).Encode(nil), sink.Bytes())
}
