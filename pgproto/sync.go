package pgproto

// Sync closes the current extended-protocol pipeline. The server answers
// with ReadyForQuery after processing everything queued before it.
type Sync struct{}

func (*Sync) Frontend() {}

func (dst *Sync) Decode(src []byte) error {
	if len(src) != 0 {
		return wrongBodyLen("Sync", 0, len(src))
	}
	return nil
}

func (src *Sync) Encode(dst []byte) []byte {
	return append(dst, 'S', 0, 0, 0, 4)
}
