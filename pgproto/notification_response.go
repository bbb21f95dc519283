package pgproto

import (
	"bytes"
	"encoding/binary"

	"github.com/jackc/pgio"
)

// NotificationResponse delivers a LISTEN/NOTIFY event. It can arrive
// interleaved with any other server traffic.
type NotificationResponse struct {
	PID     uint32
	Channel string
	Payload string
}

func (*NotificationResponse) Backend() {}

func (dst *NotificationResponse) Decode(src []byte) error {
	if len(src) < 4 {
		return newFramingError("NotificationResponse", "too short")
	}
	pid := binary.BigEndian.Uint32(src)
	rp := 4

	idx := bytes.IndexByte(src[rp:], 0)
	if idx < 0 {
		return newFramingError("NotificationResponse", "unterminated channel")
	}
	channel := string(src[rp : rp+idx])
	rp += idx + 1

	idx = bytes.IndexByte(src[rp:], 0)
	if idx != len(src[rp:])-1 {
		return newFramingError("NotificationResponse", "unterminated payload")
	}
	payload := string(src[rp : len(src)-1])

	*dst = NotificationResponse{PID: pid, Channel: channel, Payload: payload}
	return nil
}

func (src *NotificationResponse) Encode(dst []byte) []byte {
	dst = append(dst, 'A')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)

	dst = pgio.AppendUint32(dst, src.PID)
	dst = append(dst, src.Channel...)
	dst = append(dst, 0)
	dst = append(dst, src.Payload...)
	dst = append(dst, 0)

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}
