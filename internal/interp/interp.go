// Package interp provides the record interpreters: parsers that turn raw
// source records into entries and format entries for preview, search and
// export.
//
// Previews reveal fields progressively. Detail level 0 shows only the
// content; each level after that prefixes one more bracketed field in the
// interpreter's field order. Interpreters with extras show the remaining
// metadata as sorted key=value pairs at their highest level.
package interp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/five82/contrail/internal/entry"
)

// Names lists the interpreters ByName accepts.
var Names = []string{"auto", "plain", "text", "json", "logcat"}

// Interpreter is a record interpreter assembled from a parse function and a
// preview layout. It is stateless and safe for concurrent use.
type Interpreter struct {
	name   string
	parse  func(raw string) (entry.Entry, bool)
	layout layout
	export func(entry.Entry) string
}

var _ entry.Interpreter = (*Interpreter)(nil)

// ByName returns the interpreter registered under name.
func ByName(name string) (*Interpreter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Auto(), nil
	case "plain":
		return Plain(), nil
	case "text":
		return Text(), nil
	case "json":
		return JSON(), nil
	case "logcat":
		return Logcat(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want one of %s)", name, strings.Join(Names, ", "))
	}
}

// Name returns the registered name.
func (i *Interpreter) Name() string { return i.name }

// Parse implements entry.Interpreter.
func (i *Interpreter) Parse(raw string) (entry.Entry, bool) { return i.parse(raw) }

// Preview implements entry.Interpreter.
func (i *Interpreter) Preview(e entry.Entry, level entry.DetailLevel) string {
	return i.layout.render(e, level, firstLine(e.Content))
}

// Searchable implements entry.Interpreter. The filter matches exactly what
// the preview shows.
func (i *Interpreter) Searchable(e entry.Entry, level entry.DetailLevel) string {
	return i.Preview(e, level)
}

// Export implements entry.Interpreter.
func (i *Interpreter) Export(e entry.Entry) string {
	if i.export != nil {
		return i.export(e)
	}
	return entry.DefaultExport(e)
}

// MaxDetail implements entry.Interpreter.
func (i *Interpreter) MaxDetail() entry.DetailLevel { return i.layout.max() }

// Field names with special meaning in a layout; anything else is a metadata
// key.
const (
	fieldTime  = "time"
	fieldLevel = "level"
)

// layout describes the preview field order of an interpreter.
type layout struct {
	fields []string
	extras bool
}

func (l layout) max() entry.DetailLevel {
	n := len(l.fields)
	if l.extras {
		n++
	}
	return entry.DetailLevel(n)
}

func (l layout) render(e entry.Entry, level entry.DetailLevel, content string) string {
	var b strings.Builder
	for i := 0; i < int(level) && i < len(l.fields); i++ {
		v := fieldValue(e, l.fields[i])
		if v == "" {
			continue
		}
		b.WriteByte('[')
		b.WriteString(v)
		b.WriteString("] ")
	}
	b.WriteString(content)

	if l.extras && int(level) > len(l.fields) {
		for _, kv := range l.extraPairs(e) {
			b.WriteByte(' ')
			b.WriteString(kv)
		}
	}
	return b.String()
}

func (l layout) extraPairs(e entry.Entry) []string {
	if len(e.Metadata) == 0 {
		return nil
	}
	shown := make(map[string]bool, len(l.fields))
	for _, f := range l.fields {
		shown[f] = true
	}
	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		if !shown[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+e.Metadata[k])
	}
	return pairs
}

func fieldValue(e entry.Entry, field string) string {
	switch field {
	case fieldTime:
		return e.Time
	case fieldLevel:
		return e.Level
	default:
		return e.Meta(field)
	}
}

// firstLine returns the first non-blank line of s, trimmed.
func firstLine(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return strings.TrimSpace(s)
}

// trimRecord strips trailing line endings and reports whether anything but
// whitespace remains.
func trimRecord(raw string) (string, bool) {
	text := strings.TrimRight(raw, "\r\n")
	return text, strings.TrimSpace(text) != ""
}
