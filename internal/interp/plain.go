package interp

import "github.com/five82/contrail/internal/entry"

// Plain treats every non-blank record as content, stamped with its arrival
// time.
func Plain() *Interpreter {
	return &Interpreter{
		name:   "plain",
		parse:  parsePlain,
		layout: layout{fields: []string{fieldTime}},
	}
}

func parsePlain(raw string) (entry.Entry, bool) {
	text, ok := trimRecord(raw)
	if !ok {
		return entry.Entry{}, false
	}
	return entry.New(text, text), true
}

// Auto tries JSON, then the text layout, then falls back to plain content.
func Auto() *Interpreter {
	return &Interpreter{
		name: "auto",
		parse: func(raw string) (entry.Entry, bool) {
			if e, ok := parseJSON(raw); ok {
				return e, true
			}
			return parseText(raw)
		},
		layout: layout{fields: []string{fieldTime, fieldLevel, metaComponent}, extras: true},
	}
}
