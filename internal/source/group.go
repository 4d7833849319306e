package source

import (
	"fmt"
	"regexp"
	"strings"
)

// Grouper folds continuation lines into the record started by the most
// recent line matching the start pattern. A nil Grouper, or one built from an
// empty pattern, passes lines through unchanged.
type Grouper struct {
	start   *regexp.Regexp
	pending []string
}

// NewGrouper compiles pattern. An empty pattern disables grouping.
func NewGrouper(pattern string) (*Grouper, error) {
	if pattern == "" {
		return &Grouper{}, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile record_start: %w", err)
	}
	return &Grouper{start: re}, nil
}

// Feed returns the records completed by lines. The last record stays pending
// until a later start line or Flush.
func (g *Grouper) Feed(lines []string) []string {
	if g == nil || g.start == nil {
		return lines
	}
	var out []string
	for _, line := range lines {
		if g.start.MatchString(line) && len(g.pending) > 0 {
			out = append(out, g.take())
		}
		g.pending = append(g.pending, line)
	}
	return out
}

// Flush returns the pending record, if any.
func (g *Grouper) Flush() []string {
	if g == nil || len(g.pending) == 0 {
		return nil
	}
	return []string{g.take()}
}

// Pending reports whether a record is waiting for Flush.
func (g *Grouper) Pending() bool { return g != nil && len(g.pending) > 0 }

func (g *Grouper) take() string {
	rec := strings.Join(g.pending, "\n")
	g.pending = g.pending[:0]
	return rec
}

// collect runs a poll's lines through g. A poll that produced nothing is
// idle and flushes the pending record.
func collect(g *Grouper, lines []string) []string {
	if len(lines) == 0 {
		return g.Flush()
	}
	return g.Feed(lines)
}
