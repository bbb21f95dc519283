package pgproto

// The body-less backend replies of the extended protocol.

// ParseComplete acknowledges a Parse message.
type ParseComplete struct{}

func (*ParseComplete) Backend() {}

func (dst *ParseComplete) Decode(src []byte) error {
	if len(src) != 0 {
		return wrongBodyLen("ParseComplete", 0, len(src))
	}
	return nil
}

func (src *ParseComplete) Encode(dst []byte) []byte {
	return append(dst, '1', 0, 0, 0, 4)
}

// BindComplete acknowledges a Bind message.
type BindComplete struct{}

func (*BindComplete) Backend() {}

func (dst *BindComplete) Decode(src []byte) error {
	if len(src) != 0 {
		return wrongBodyLen("BindComplete", 0, len(src))
	}
	return nil
}

func (src *BindComplete) Encode(dst []byte) []byte {
	return append(dst, '2', 0, 0, 0, 4)
}

// CloseComplete acknowledges a Close message.
type CloseComplete struct{}

func (*CloseComplete) Backend() {}

func (dst *CloseComplete) Decode(src []byte) error {
	if len(src) != 0 {
		return wrongBodyLen("CloseComplete", 0, len(src))
	}
	return nil
}

func (src *CloseComplete) Encode(dst []byte) []byte {
	return append(dst, '3', 0, 0, 0, 4)
}

// NoData replaces RowDescription when the described statement or portal
// returns no rows.
type NoData struct{}

func (*NoData) Backend() {}

func (dst *NoData) Decode(src []byte) error {
	if len(src) != 0 {
		return wrongBodyLen("NoData", 0, len(src))
	}
	return nil
}

func (src *NoData) Encode(dst []byte) []byte {
	return append(dst, 'n', 0, 0, 0, 4)
}

// EmptyQueryResponse replaces CommandComplete when the query string was
// empty.
type EmptyQueryResponse struct{}

func (*EmptyQueryResponse) Backend() {}

func (dst *EmptyQueryResponse) Decode(src []byte) error {
	if len(src) != 0 {
		return wrongBodyLen("EmptyQueryResponse", 0, len(src))
	}
	return nil
}

func (src *EmptyQueryResponse) Encode(dst []byte) []byte {
	return append(dst, 'I', 0, 0, 0, 4)
}

// PortalSuspended replaces CommandComplete when an Execute hit its
// max-rows limit with rows still pending; the portal remains open.
type PortalSuspended struct{}

func (*PortalSuspended) Backend() {}

func (dst *PortalSuspended) Decode(src []byte) error {
	if len(src) != 0 {
		return wrongBodyLen("PortalSuspended", 0, len(src))
	}
	return nil
}

func (src *PortalSuspended) Encode(dst []byte) []byte {
	return append(dst, 's', 0, 0, 0, 4)
}
