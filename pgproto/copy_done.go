package pgproto

// CopyDone marks the end of a COPY data stream in either direction.
type CopyDone struct{}

func (*CopyDone) Frontend() {}
func (*CopyDone) Backend()  {}

func (dst *CopyDone) Decode(src []byte) error {
	if len(src) != 0 {
		return wrongBodyLen("CopyDone", 0, len(src))
	}
	return nil
}

func (src *CopyDone) Encode(dst []byte) []byte {
	return append(dst, 'c', 0, 0, 0, 4)
}
