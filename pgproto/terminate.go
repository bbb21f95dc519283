package pgproto

// Terminate announces an orderly connection shutdown. The server closes
// the stream without replying.
type Terminate struct{}

func (*Terminate) Frontend() {}

func (dst *Terminate) Decode(src []byte) error {
	if len(src) != 0 {
		return wrongBodyLen("Terminate", 0, len(src))
	}
	return nil
}

func (src *Terminate) Encode(dst []byte) []byte {
	return append(dst, 'X', 0, 0, 0, 4)
}
