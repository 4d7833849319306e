package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// sanitize makes a record safe to place on one terminal row: tabs become
// spaces and other control characters are dropped.
func sanitize(value string) string {
	if !strings.ContainsFunc(value, isControl) {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r == '\t':
			b.WriteString("    ")
		case isControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

// columns returns the cells of value from offset up to offset+width.
func columns(value string, offset, width int) string {
	if width <= 0 {
		return ""
	}
	if offset <= 0 {
		return ansi.Truncate(value, width, "")
	}
	return ansi.Cut(value, offset, offset+width)
}

// wrapLines breaks value into rows no wider than width. An empty value is
// one empty row.
func wrapLines(value string, width int) []string {
	if width <= 0 || ansi.StringWidth(value) <= width {
		return []string{value}
	}
	return strings.Split(ansi.Hardwrap(value, width, true), "\n")
}

// padRight pads a string with spaces to the given display width.
func padRight(s string, width int) string {
	if n := ansi.StringWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// plural formats a count with a singular or plural noun.
func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
