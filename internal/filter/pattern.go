package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternError reports a filter pattern that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Pattern is a compiled, case-insensitive filter predicate. Text is matched
// as a literal substring unless it is wrapped in slashes, as in /^warn/, in
// which case the text between them is a regular expression.
type Pattern struct {
	text    string
	literal string
	re      *regexp.Regexp
}

// Compile parses text into a Pattern.
func Compile(text string) (*Pattern, error) {
	expr, ok := regexBody(text)
	if !ok {
		return &Pattern{text: text, literal: strings.ToLower(text)}, nil
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, &PatternError{Pattern: text, Err: err}
	}
	return &Pattern{text: text, re: re}, nil
}

// regexBody returns the expression inside /.../. A lone "/" or "//" is
// literal text.
func regexBody(text string) (string, bool) {
	if len(text) < 3 || !strings.HasPrefix(text, "/") || !strings.HasSuffix(text, "/") {
		return "", false
	}
	return text[1 : len(text)-1], true
}

// String returns the text the pattern was compiled from.
func (p *Pattern) String() string { return p.text }

// IsRegex reports whether the pattern compiled to a regular expression.
func (p *Pattern) IsRegex() bool { return p.re != nil }

// Match reports whether s satisfies the pattern.
func (p *Pattern) Match(s string) bool {
	return p.matchLower(strings.ToLower(s))
}

// matchLower matches text that has already been lowercased.
func (p *Pattern) matchLower(lower string) bool {
	if p.re != nil {
		return p.re.MatchString(lower)
	}
	return strings.Contains(lower, p.literal)
}

// narrows reports whether every match of next is also a match of p, which
// lets a recompute consider only p's current matches.
func (p *Pattern) narrows(next *Pattern) bool {
	if p == nil || next == nil || p.re != nil || next.re != nil {
		return false
	}
	return strings.Contains(next.literal, p.literal)
}
