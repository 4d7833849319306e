package interp

import (
	"regexp"
	"strings"

	"github.com/five82/contrail/internal/entry"
)

const (
	metaTag = "tag"
	metaPID = "pid"
	metaTID = "tid"
)

// LogcatRecordStart matches the first line of a "logcat -v long" record. It
// is the default record_start for logcat sources.
const LogcatRecordStart = `^\[ \d{2}-\d{2} `

// threadtimeRe matches the single-line "logcat -v threadtime" layout.
var threadtimeRe = regexp.MustCompile(`^(\d{2}-\d{2})\s+(\d{2}:\d{2}:\d{2}\.\d{3})\s+(\d+)\s+(\d+)\s+([VDIWEFA])\s+([^:]*?)\s*: ?(.*)$`)

// Logcat parses Android logcat output. The "-v long" layout spreads a
// record over a bracketed header line and one or more message lines:
//
//	[ 05-01 12:00:00.123  1234: 5678 I/ActivityManager ]
//	Start proc 4321:com.example/u0a12 for activity
//
// Single-line "-v threadtime" records are understood as well. Anything else
// is kept verbatim. Export copies the raw record.
func Logcat() *Interpreter {
	return &Interpreter{
		name:   "logcat",
		parse:  parseLogcat,
		layout: layout{fields: []string{fieldTime, metaTag, fieldLevel}},
		export: func(e entry.Entry) string { return e.Raw },
	}
}

func parseLogcat(raw string) (entry.Entry, bool) {
	text, ok := trimRecord(raw)
	if !ok {
		return entry.Entry{}, false
	}

	first, message, _ := strings.Cut(text, "\n")
	first = strings.TrimRight(first, "\r ")
	if strings.HasPrefix(first, "[") && strings.HasSuffix(first, "]") {
		return parseLongHeader(first[1:len(first)-1], message, text), true
	}
	if m := threadtimeRe.FindStringSubmatch(first); m != nil {
		content := m[7]
		if message != "" {
			content += "\n" + message
		}
		e := entry.New(content, text)
		e.Time = m[2]
		e.Level = logcatLevel(m[5])
		e.Metadata = map[string]string{metaPID: m[3], metaTID: m[4], metaTag: strings.TrimSpace(m[6])}
		return e, true
	}
	return entry.New(text, text), true
}

func parseLongHeader(header, message, raw string) entry.Entry {
	tokens := strings.Fields(header)
	if len(tokens) < 4 {
		return entry.New(raw, raw)
	}

	e := entry.New(message, raw)
	e.Time = tokens[1]
	meta := map[string]string{
		metaPID: strings.TrimSuffix(tokens[2], ":"),
		metaTID: tokens[3],
	}
	if len(tokens) > 4 {
		levelTag := strings.Join(tokens[4:], " ")
		level, tag, found := strings.Cut(levelTag, "/")
		if found {
			meta[metaTag] = strings.TrimSpace(tag)
		}
		e.Level = logcatLevel(level)
	}
	e.Metadata = meta
	return e
}

func logcatLevel(letter string) string {
	switch strings.TrimSpace(letter) {
	case "V":
		return "VERBOSE"
	case "D":
		return "DEBUG"
	case "I":
		return "INFO"
	case "W":
		return "WARN"
	case "E":
		return "ERROR"
	case "F", "A":
		return "FATAL"
	default:
		return strings.TrimSpace(letter)
	}
}
