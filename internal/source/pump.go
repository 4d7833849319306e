package source

import (
	"context"
	"sync/atomic"
)

const (
	// maxBatch bounds the records a single Poll returns.
	maxBatch = 4096
	// pumpBuffer is the line backlog a producer goroutine may build up
	// before it blocks.
	pumpBuffer = 8192
	// maxLineBytes bounds one scanned line.
	maxLineBytes = 1024 * 1024
)

// pump hands lines from a producer goroutine to Poll without blocking Poll.
type pump struct {
	lines    chan string
	errs     chan error
	finished atomic.Bool
}

func newPump() *pump {
	return &pump{
		lines: make(chan string, pumpBuffer),
		errs:  make(chan error, 1),
	}
}

// push blocks while the backlog is full and gives up once ctx is done.
func (p *pump) push(ctx context.Context, line string) bool {
	select {
	case p.lines <- line:
		return true
	case <-ctx.Done():
		return false
	}
}

// fail records err for the next drain. Only the oldest unreported error is
// kept.
func (p *pump) fail(err error) {
	select {
	case p.errs <- err:
	default:
	}
}

// finish marks the producer as permanently done. Lines pushed before finish
// are still drained.
func (p *pump) finish() { p.finished.Store(true) }

// drain returns the buffered lines and any reported error. exhausted is true
// once the producer finished and nothing is left.
func (p *pump) drain() (lines []string, exhausted bool, err error) {
	finished := p.finished.Load()
loop:
	for len(lines) < maxBatch {
		select {
		case line := <-p.lines:
			lines = append(lines, line)
		default:
			break loop
		}
	}
	select {
	case err = <-p.errs:
	default:
	}
	return lines, finished && len(lines) == 0 && len(p.lines) == 0, err
}
