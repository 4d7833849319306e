package logging

import (
	"strings"
	"sync"
)

// DefaultSinkLines is the number of lines a Sink keeps by default.
const DefaultSinkLines = 512

// Sink is a bounded, concurrency-safe ring of formatted log lines. It
// implements io.Writer so zap can write to it directly.
type Sink struct {
	mu      sync.Mutex
	lines   []string
	next    int
	full    bool
	version uint64
}

// NewSink creates a sink holding at most size lines.
func NewSink(size int) *Sink {
	if size <= 0 {
		size = DefaultSinkLines
	}
	return &Sink{lines: make([]string, size)}
}

// Write stores each newline-terminated line in p.
func (s *Sink) Write(p []byte) (int, error) {
	text := strings.TrimRight(string(p), "\n")
	if text == "" {
		return len(p), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range strings.Split(text, "\n") {
		s.lines[s.next] = line
		s.next = (s.next + 1) % len(s.lines)
		if s.next == 0 {
			s.full = true
		}
	}
	s.version++
	return len(p), nil
}

// Lines returns a copy of the stored lines, oldest first.
func (s *Sink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.full {
		return append([]string(nil), s.lines[:s.next]...)
	}
	out := make([]string, 0, len(s.lines))
	out = append(out, s.lines[s.next:]...)
	return append(out, s.lines[:s.next]...)
}

// Version changes whenever lines are written, so renderers can skip work.
func (s *Sink) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}
