package pgproto

import (
	"bytes"

	"github.com/jackc/pgio"
)

// PasswordMessage answers a cleartext or MD5 authentication request. For
// MD5 the password is already digested with the server-provided salt.
type PasswordMessage struct {
	Password string
}

func (*PasswordMessage) Frontend() {}

func (dst *PasswordMessage) Decode(src []byte) error {
	i := bytes.IndexByte(src, 0)
	if i != len(src)-1 {
		return newFramingError("PasswordMessage", "password not terminated")
	}
	dst.Password = string(src[:i])
	return nil
}

func (src *PasswordMessage) Encode(dst []byte) []byte {
	dst = append(dst, 'p')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = append(dst, src.Password...)
	dst = append(dst, 0)

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
