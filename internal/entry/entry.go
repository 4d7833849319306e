// Package entry defines the structured log record shared by every stage of
// the viewer, and the Interpreter contract that turns raw source records into
// entries and entries back into display, search and export text.
package entry

import (
	"time"

	"github.com/google/uuid"
)

// TimeLayout is the display layout for entry timestamps.
const TimeLayout = "15:04:05.000"

// Entry is one structured log record. Entries are treated as immutable once
// an Interpreter has produced them; the store only stamps Seq on insertion.
type Entry struct {
	ID       uuid.UUID
	Seq      uint64
	Time     string
	Level    string
	Source   string
	Content  string
	Raw      string
	Metadata map[string]string
}

// New builds an entry with a fresh identifier and the current time.
func New(content, raw string) Entry {
	return Entry{
		ID:      uuid.New(),
		Time:    time.Now().Format(TimeLayout),
		Content: content,
		Raw:     raw,
	}
}

// WithMeta returns a copy of e with key set to value. The receiver's metadata
// map is never written.
func (e Entry) WithMeta(key, value string) Entry {
	meta := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	e.Metadata = meta
	return e
}

// Meta returns the metadata value for key, or "" when absent.
func (e Entry) Meta(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
