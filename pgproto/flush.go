package pgproto

// Flush asks the server to deliver any pending responses without ending
// the current extended-protocol pipeline.
type Flush struct{}

func (*Flush) Frontend() {}

func (dst *Flush) Decode(src []byte) error {
	if len(src) != 0 {
		return wrongBodyLen("Flush", 0, len(src))
	}
	return nil
}

func (src *Flush) Encode(dst []byte) []byte {
	return append(dst, 'H', 0, 0, 0, 4)
}
