package pgproto

// NoticeResponse is a warning or informational message. It shares the
// field layout of ErrorResponse and never terminates a query cycle.
type NoticeResponse ErrorResponse

func (*NoticeResponse) Backend() {}

func (dst *NoticeResponse) Decode(src []byte) error {
	*dst = NoticeResponse{}
	return (*ErrorResponse)(dst).decodeFields(src)
}

func (src *NoticeResponse) Encode(dst []byte) []byte {
	return (*ErrorResponse)(src).encodeWithTag(dst, 'N')
}
