package pgproto

// Transaction status bytes reported by ReadyForQuery.
const (
	TxStatusIdle          byte = 'I'
	TxStatusInTransaction byte = 'T'
	TxStatusFailed        byte = 'E'
)

// ReadyForQuery ends a query cycle and reports the connection's current
// transaction status. It is the sole source of truth for that status.
type ReadyForQuery struct {
	TxStatus byte
}

func (*ReadyForQuery) Backend() {}

func (dst *ReadyForQuery) Decode(src []byte) error {
	if len(src) != 1 {
		return wrongBodyLen("ReadyForQuery", 1, len(src))
	}

	dst.TxStatus = src[0]

	return nil
}

func (src *ReadyForQuery) Encode(dst []byte) []byte {
	return append(dst, 'Z', 0, 0, 0, 5, src.TxStatus)
}
