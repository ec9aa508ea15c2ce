package shoppinglist

import (
	"fmt"
	"time"
)

// Clock supplies the current instant. The repository never reads wall-clock
// time any other way.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to a Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the system time.
var SystemClock Clock = systemClock{}

// TimeLayout is the wire format of record timestamps: ISO 8601, UTC,
// millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// normalizeTime converts t to UTC at millisecond precision.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// FormatTime formats t in TimeLayout.
func FormatTime(t time.Time) string {
	return normalizeTime(t).Format(TimeLayout)
}

// ParseTime parses a timestamp written by FormatTime.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return normalizeTime(t), nil
}
