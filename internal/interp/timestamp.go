package interp

import (
	"math"
	"strings"
	"time"

	"github.com/five82/contrail/internal/entry"
)

var localLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05,000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
}

// parseTime understands RFC 3339 and the common local layouts written by
// application loggers.
func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// epochTime interprets a numeric timestamp as seconds, or milliseconds when
// it is too large to be a plausible second count.
func epochTime(v float64) (time.Time, bool) {
	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return time.Time{}, false
	}
	if v > 1e11 {
		ms := int64(v)
		return time.UnixMilli(ms), true
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)), true
}

// displayTime renders a parsed timestamp in the entry layout and keeps
// unparseable values verbatim.
func displayTime(value string) string {
	if t, ok := parseTime(value); ok {
		return t.Local().Format(entry.TimeLayout)
	}
	return strings.TrimSpace(value)
}
