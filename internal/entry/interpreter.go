package entry

// DetailLevel selects how many fields a preview reveals. Zero is content only.
type DetailLevel int

// Interpreter turns raw source records into entries and formats them back.
// Implementations must be safe for concurrent use: Parse runs on ingestion
// workers while Searchable may run on several goroutines during a parallel
// filter recompute.
type Interpreter interface {
	// Parse returns the entry for raw, or false to drop the record.
	Parse(raw string) (Entry, bool)
	// Preview returns the single-line display text at the given level.
	Preview(e Entry, level DetailLevel) string
	// Searchable returns the text the filter matches against at the given level.
	Searchable(e Entry, level DetailLevel) string
	// Export returns the clipboard text for e.
	Export(e Entry) string
	// MaxDetail reports the highest supported detail level.
	MaxDetail() DetailLevel
}

// IncrementDetail raises level by one, clamped to max.
func IncrementDetail(level, max DetailLevel) DetailLevel {
	return ClampDetail(level+1, max)
}

// DecrementDetail lowers level by one, clamped to zero.
func DecrementDetail(level, max DetailLevel) DetailLevel {
	return ClampDetail(level-1, max)
}

// ClampDetail bounds level to [0, max].
func ClampDetail(level, max DetailLevel) DetailLevel {
	if max < 0 {
		max = 0
	}
	if level < 0 {
		return 0
	}
	if level > max {
		return max
	}
	return level
}

// DefaultExport is the "<time> <raw>" export layout.
func DefaultExport(e Entry) string {
	if e.Time == "" {
		return e.Raw
	}
	return e.Time + " " + e.Raw
}
