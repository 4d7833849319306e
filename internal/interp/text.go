package interp

import (
	"regexp"
	"strings"

	"github.com/five82/contrail/internal/entry"
)

const metaComponent = "component"

var (
	timestampRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}(?:[.,]\d{1,9})?(?:Z|[+-]\d{2}:?\d{2})?)\s*`)
	levelRe     = regexp.MustCompile(`^(?i)(TRACE|DEBUG|INFO|NOTICE|WARN|WARNING|ERROR|ERR|FATAL|CRITICAL|PANIC)\b:?\s*`)
	componentRe = regexp.MustCompile(`^\[([^\]]+)\]\s*`)
	separatorRe = regexp.MustCompile(`^(?:–|-|:)\s+`)
)

// Text parses conventional application log lines:
//
//	2024-05-01 12:00:00.123 INFO [http] – request served
//
// The timestamp is required; the level, component and separator are
// optional. Records that do not start with a timestamp are kept as plain
// content.
func Text() *Interpreter {
	return &Interpreter{
		name:   "text",
		parse:  parseText,
		layout: layout{fields: []string{fieldTime, fieldLevel, metaComponent}},
	}
}

func parseText(raw string) (entry.Entry, bool) {
	text, ok := trimRecord(raw)
	if !ok {
		return entry.Entry{}, false
	}

	head, rest, _ := strings.Cut(text, "\n")
	m := timestampRe.FindStringSubmatch(head)
	if m == nil {
		return entry.New(text, text), true
	}
	head = head[len(m[0]):]

	var level, component string
	if lm := levelRe.FindStringSubmatch(head); lm != nil {
		level = normalizeLevel(lm[1])
		head = head[len(lm[0]):]
	}
	if cm := componentRe.FindStringSubmatch(head); cm != nil {
		component = strings.TrimSpace(cm[1])
		head = head[len(cm[0]):]
	}
	head = separatorRe.ReplaceAllString(head, "")

	content := head
	if rest != "" {
		content += "\n" + rest
	}
	e := entry.New(content, text)
	e.Time = displayTime(m[1])
	e.Level = level
	if component != "" {
		e = e.WithMeta(metaComponent, component)
	}
	return e, true
}

// normalizeLevel maps level spellings onto a small upper-case vocabulary.
func normalizeLevel(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case "WARNING":
		return "WARN"
	case "ERR":
		return "ERROR"
	case "CRITICAL", "PANIC":
		return "FATAL"
	default:
		return l
	}
}
