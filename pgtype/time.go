package pgtype

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgio"
)

// PostgreSQL stores timestamps as microseconds since 2000-01-01 00:00:00.
const microsecFromUnixEpochToY2K = 946684800 * 1000000

const (
	pgTimestampFormat   = "2006-01-02 15:04:05.999999"
	pgTimestamptzFormat = "2006-01-02 15:04:05.999999Z07:00:00"
)

// Text timestamptz values arrive with a varying amount of zone detail.
var timestamptzTextFormats = []string{
	"2006-01-02 15:04:05.999999Z07:00:00",
	"2006-01-02 15:04:05.999999Z07:00",
	"2006-01-02 15:04:05.999999Z07",
}

type DateCodec struct{}

func (DateCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (DateCodec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (DateCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("cannot encode %T as date", value)
	}

	switch format {
	case BinaryFormatCode:
		tUnix := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
		dateEpoch := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
		return pgio.AppendInt32(buf, int32((tUnix-dateEpoch)/86400)), nil
	case TextFormatCode:
		return append(buf, t.Format("2006-01-02")...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (DateCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) != 4 {
			return nil, fmt.Errorf("invalid length for date: %d", len(src))
		}
		dayOffset := int32(binary.BigEndian.Uint32(src))
		return time.Date(2000, 1, int(1+dayOffset), 0, 0, 0, 0, time.UTC), nil
	case TextFormatCode:
		return time.ParseInLocation("2006-01-02", string(src), time.UTC)
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

// TimestampCodec handles timestamp without time zone. Decoded values are in
// time.UTC; the zone on encoded values is discarded.
type TimestampCodec struct{}

func (TimestampCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (TimestampCodec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (TimestampCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("cannot encode %T as timestamp", value)
	}

	// Discard the zone without shifting the clock reading.
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)

	switch format {
	case BinaryFormatCode:
		microsecSinceUnixEpoch := t.Unix()*1000000 + int64(t.Nanosecond())/1000
		return pgio.AppendInt64(buf, microsecSinceUnixEpoch-microsecFromUnixEpochToY2K), nil
	case TextFormatCode:
		return append(buf, t.Format(pgTimestampFormat)...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (TimestampCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) != 8 {
			return nil, fmt.Errorf("invalid length for timestamp: %d", len(src))
		}
		microsecSinceY2K := int64(binary.BigEndian.Uint64(src))
		microsecSinceUnixEpoch := microsecFromUnixEpochToY2K + microsecSinceY2K
		return time.Unix(microsecSinceUnixEpoch/1000000, (microsecSinceUnixEpoch%1000000)*1000).UTC(), nil
	case TextFormatCode:
		return time.ParseInLocation(pgTimestampFormat, string(src), time.UTC)
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

// TimestamptzCodec handles timestamp with time zone. Decoded values are in
// time.UTC.
type TimestamptzCodec struct{}

func (TimestamptzCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (TimestamptzCodec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (TimestamptzCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("cannot encode %T as timestamptz", value)
	}

	switch format {
	case BinaryFormatCode:
		microsecSinceUnixEpoch := t.Unix()*1000000 + int64(t.Nanosecond())/1000
		return pgio.AppendInt64(buf, microsecSinceUnixEpoch-microsecFromUnixEpochToY2K), nil
	case TextFormatCode:
		return append(buf, t.Format(pgTimestamptzFormat)...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (TimestamptzCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) != 8 {
			return nil, fmt.Errorf("invalid length for timestamptz: %d", len(src))
		}
		microsecSinceY2K := int64(binary.BigEndian.Uint64(src))
		microsecSinceUnixEpoch := microsecFromUnixEpochToY2K + microsecSinceY2K
		return time.Unix(microsecSinceUnixEpoch/1000000, (microsecSinceUnixEpoch%1000000)*1000).UTC(), nil
	case TextFormatCode:
		s := string(src)
		var lastErr error
		for _, layout := range timestamptzTextFormats {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			} else {
				lastErr = err
			}
		}
		return nil, lastErr
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

const (
	microsecondsPerSecond = 1000000
	microsecondsPerMinute = 60 * microsecondsPerSecond
	microsecondsPerHour   = 60 * microsecondsPerMinute
)

// Interval mirrors the three-field PostgreSQL interval representation.
// Months and days are kept separate from microseconds because their
// duration depends on the calendar.
type Interval struct {
	Microseconds int64
	Days         int32
	Months       int32
}

type IntervalCodec struct{}

func (IntervalCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (IntervalCodec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (IntervalCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	var interval Interval
	switch value := value.(type) {
	case Interval:
		interval = value
	case time.Duration:
		interval = Interval{Microseconds: int64(value) / 1000}
	default:
		return nil, fmt.Errorf("cannot encode %T as interval", value)
	}

	switch format {
	case BinaryFormatCode:
		buf = pgio.AppendInt64(buf, interval.Microseconds)
		buf = pgio.AppendInt32(buf, interval.Days)
		return pgio.AppendInt32(buf, interval.Months), nil
	case TextFormatCode:
		if interval.Months != 0 {
			buf = append(buf, fmt.Sprintf("%d mon ", interval.Months)...)
		}
		if interval.Days != 0 {
			buf = append(buf, fmt.Sprintf("%d day ", interval.Days)...)
		}

		absMicroseconds := interval.Microseconds
		if absMicroseconds < 0 {
			absMicroseconds = -absMicroseconds
			buf = append(buf, '-')
		}
		hours := absMicroseconds / microsecondsPerHour
		minutes := (absMicroseconds % microsecondsPerHour) / microsecondsPerMinute
		seconds := (absMicroseconds % microsecondsPerMinute) / microsecondsPerSecond
		microseconds := absMicroseconds % microsecondsPerSecond
		return append(buf, fmt.Sprintf("%02d:%02d:%02d.%06d", hours, minutes, seconds, microseconds)...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (IntervalCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) != 16 {
			return nil, fmt.Errorf("invalid length for interval: %d", len(src))
		}
		return Interval{
			Microseconds: int64(binary.BigEndian.Uint64(src)),
			Days:         int32(binary.BigEndian.Uint32(src[8:])),
			Months:       int32(binary.BigEndian.Uint32(src[12:])),
		}, nil
	case TextFormatCode:
		return parseTextInterval(string(src))
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

// parseTextInterval handles the postgres output style, e.g.
// "1 year 2 mons -3 days 04:05:06.789".
func parseTextInterval(s string) (Interval, error) {
	var interval Interval

	parts := strings.Fields(s)
	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.Contains(part, ":") {
			negative := false
			if strings.HasPrefix(part, "-") {
				negative = true
				part = part[1:]
			}

			var hours, minutes int64
			var seconds float64
			if _, err := fmt.Sscanf(part, "%d:%d:%f", &hours, &minutes, &seconds); err != nil {
				return Interval{}, fmt.Errorf("invalid interval time %q: %v", part, err)
			}
			us := hours*microsecondsPerHour + minutes*microsecondsPerMinute + int64(seconds*microsecondsPerSecond+0.5)
			if negative {
				us = -us
			}
			interval.Microseconds = us
			continue
		}

		if i+1 >= len(parts) {
			return Interval{}, fmt.Errorf("invalid interval %q", s)
		}

		var n int64
		if _, err := fmt.Sscanf(part, "%d", &n); err != nil {
			return Interval{}, fmt.Errorf("invalid interval quantity %q: %v", part, err)
		}

		unit := parts[i+1]
		i++
		switch {
		case strings.HasPrefix(unit, "year"):
			interval.Months += int32(n) * 12
		case strings.HasPrefix(unit, "mon"):
			interval.Months += int32(n)
		case strings.HasPrefix(unit, "day"):
			interval.Days += int32(n)
		default:
			return Interval{}, fmt.Errorf("unknown interval unit %q", unit)
		}
	}

	return interval, nil
}
