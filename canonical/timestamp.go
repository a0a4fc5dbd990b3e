package canonical

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the canonical timestamp form: UTC, millisecond
// precision, literal Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// parseLayouts are tried in order. Inputs without a zone are taken as UTC.
var parseLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FormatTimestamp renders t in UTC as YYYY-MM-DDTHH:MM:SS.sssZ. Sub-millisecond
// precision is truncated, never rounded.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts ISO-8601 date-times (with or without seconds,
// fractional seconds and zone offset) and plain dates.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp %q", s)
}

// IsCanonicalTimestamp reports whether s is exactly in TimestampLayout form.
func IsCanonicalTimestamp(s string) bool {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return false
	}
	return FormatTimestamp(t) == s
}
