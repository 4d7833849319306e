package interp

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/five82/contrail/internal/entry"
)

var (
	timeKeys      = []string{"time", "ts", "timestamp", "@timestamp"}
	levelKeys     = []string{"level", "lvl", "severity"}
	messageKeys   = []string{"msg", "message"}
	componentKeys = []string{"component", "logger", "caller"}
)

// detailField is one label/value pair of a "details" array.
type detailField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// JSON parses one JSON object per record, as written by structured loggers
// such as zap, logrus or slog. Well-known keys become the entry's time,
// level, message and component; everything else is kept as metadata. A
// "fields" object is flattened into metadata and a "details" array of
// {label, value} pairs is added by label.
func JSON() *Interpreter {
	return &Interpreter{
		name: "json",
		parse: func(raw string) (entry.Entry, bool) {
			if e, ok := parseJSON(raw); ok {
				return e, true
			}
			return parsePlain(raw)
		},
		layout: layout{fields: []string{fieldTime, fieldLevel, metaComponent}, extras: true},
	}
}

// parseJSON reports false for anything that is not a single JSON object.
func parseJSON(raw string) (entry.Entry, bool) {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return entry.Entry{}, false
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return entry.Entry{}, false
	}

	e := entry.New(takeString(obj, messageKeys), text)
	if e.Content == "" {
		e.Content = text
	}
	if t, ok := takeTime(obj); ok {
		e.Time = t
	}
	e.Level = normalizeLevel(takeString(obj, levelKeys))

	meta := make(map[string]string, len(obj))
	if c := takeString(obj, componentKeys); c != "" {
		meta[metaComponent] = c
	}
	if fields, ok := obj["fields"].(map[string]any); ok {
		delete(obj, "fields")
		for k, v := range fields {
			meta[k] = stringify(v)
		}
	}
	if details, ok := obj["details"]; ok {
		if pairs, ok := decodeDetails(details); ok {
			delete(obj, "details")
			for _, d := range pairs {
				if d.Label != "" {
					meta[d.Label] = d.Value
				}
			}
		}
	}
	for k, v := range obj {
		meta[k] = stringify(v)
	}
	if len(meta) > 0 {
		e.Metadata = meta
	}
	return e, true
}

// takeString removes the first present key from obj and returns its value.
func takeString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		delete(obj, k)
		return stringify(v)
	}
	return ""
}

func takeTime(obj map[string]any) (string, bool) {
	for _, k := range timeKeys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		delete(obj, k)
		switch tv := v.(type) {
		case json.Number:
			f, err := tv.Float64()
			if err != nil {
				return tv.String(), true
			}
			if t, ok := epochTime(f); ok {
				return t.Local().Format(entry.TimeLayout), true
			}
			return tv.String(), true
		case string:
			return displayTime(tv), true
		default:
			return stringify(v), true
		}
	}
	return "", false
}

func decodeDetails(v any) ([]detailField, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var pairs []detailField
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, false
	}
	return pairs, true
}

// stringify renders a decoded JSON value for display. Strings are kept
// verbatim; everything else is re-encoded compactly.
func stringify(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case json.Number:
		return tv.String()
	case bool:
		return strconv.FormatBool(tv)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(tv); err != nil {
			return ""
		}
		return strings.TrimRight(buf.String(), "\n")
	}
}
