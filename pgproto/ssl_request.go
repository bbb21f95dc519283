package pgproto

import (
	"encoding/binary"

	"github.com/jackc/pgio"
)

// SSLRequest asks the server to switch the stream to TLS before the
// startup message. The server answers with a single 'S' or 'N' byte.
type SSLRequest struct{}

func (*SSLRequest) Frontend() {}

func (dst *SSLRequest) Decode(src []byte) error {
	if len(src) != 4 {
		return wrongBodyLen("SSLRequest", 4, len(src))
	}

	requestCode := binary.BigEndian.Uint32(src)
	if requestCode != sslRequestNumber {
		return newFramingError("SSLRequest", "bad ssl request code: %d", requestCode)
	}

	return nil
}

func (src *SSLRequest) Encode(dst []byte) []byte {
	dst = pgio.AppendInt32(dst, 8)
	dst = pgio.AppendInt32(dst, sslRequestNumber)
	return dst
}
