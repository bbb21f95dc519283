package pgproto

import (
	"bytes"
	"encoding/binary"

	"github.com/jackc/pgio"
)

// ProtocolVersionNumber is protocol major version 3, minor version 0.
const ProtocolVersionNumber = 196608

const sslRequestNumber = 80877103

// StartupMessage is the first message sent on a connection. It has no tag
// byte; the server recognizes it by its protocol version field.
type StartupMessage struct {
	ProtocolVersion uint32
	Parameters      map[string]string
}

func (*StartupMessage) Frontend() {}

func (dst *StartupMessage) Decode(src []byte) error {
	if len(src) < 4 {
		return newFramingError("StartupMessage", "too short")
	}

	dst.ProtocolVersion = binary.BigEndian.Uint32(src)
	rp := 4

	if dst.ProtocolVersion == sslRequestNumber {
		return newFramingError("StartupMessage", "can't handle ssl connection request")
	}

	if dst.ProtocolVersion != ProtocolVersionNumber {
		return newFramingError("StartupMessage", "bad protocol version: %d", dst.ProtocolVersion)
	}

	dst.Parameters = make(map[string]string)
	for {
		idx := bytes.IndexByte(src[rp:], 0)
		if idx < 0 {
			return newFramingError("StartupMessage", "unterminated parameter key")
		}
		key := string(src[rp : rp+idx])
		rp += idx + 1

		idx = bytes.IndexByte(src[rp:], 0)
		if idx < 0 {
			return newFramingError("StartupMessage", "unterminated parameter value")
		}
		value := string(src[rp : rp+idx])
		rp += idx + 1

		dst.Parameters[key] = value

		if len(src[rp:]) == 1 {
			if src[rp] != 0 {
				return newFramingError("StartupMessage", "bad terminator byte: %d", src[rp])
			}
			break
		}
	}

	return nil
}

func (src *StartupMessage) Encode(dst []byte) []byte {
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = pgio.AppendUint32(dst, src.ProtocolVersion)
	for k, v := range src.Parameters {
		dst = append(dst, k...)
		dst = append(dst, 0)
		dst = append(dst, v...)
		dst = append(dst, 0)
	}
	dst = append(dst, 0)

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
