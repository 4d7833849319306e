package source

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/five82/contrail/internal/ingest"
)

// Reader reads lines from an io.Reader, typically stdin when it is a pipe.
// Once the reader hits EOF and every line has been handed out, Poll returns
// ingest.ErrSourceDone.
type Reader struct {
	name   string
	r      io.Reader
	group  *Grouper
	pump   *pump
	cancel context.CancelFunc
}

// NewReader wraps r. Grouping applies when recordStart is non-empty.
func NewReader(name string, r io.Reader, recordStart string) (*Reader, error) {
	group, err := NewGrouper(recordStart)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "stdin"
	}
	return &Reader{name: name, r: r, group: group, pump: newPump()}, nil
}

func (s *Reader) Name() string { return s.name }

func (s *Reader) Start(stop *ingest.Stop) error {
	if s.r == nil {
		return fmt.Errorf("start %s: no reader", s.name)
	}
	ctx, cancel := context.WithCancel(stop.Context())
	s.cancel = cancel
	go s.read(ctx)
	return nil
}

func (s *Reader) read(ctx context.Context) {
	defer s.pump.finish()
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if !s.pump.push(ctx, scanner.Text()) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.pump.fail(fmt.Errorf("read %s: %w", s.name, err))
	}
}

func (s *Reader) Poll() ([]string, error) {
	lines, exhausted, err := s.pump.drain()
	records := collect(s.group, lines)
	if err != nil {
		return records, err
	}
	if exhausted && !s.group.Pending() {
		return records, ingest.ErrSourceDone
	}
	return records, nil
}

// Stop cancels the read loop and closes the reader when it is closable.
func (s *Reader) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
