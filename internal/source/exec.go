package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/contrail/internal/ingest"
)

const (
	// restartBase is the first delay before restarting an exited command.
	restartBase = time.Second
	// healthyRun resets the restart backoff when a command stayed up at
	// least this long.
	healthyRun = 30 * time.Second
	// waitDelay bounds how long Wait lingers on output pipes after the
	// command is killed.
	waitDelay = 100 * time.Millisecond
)

// errWriterClosed ends output copying once the source is stopping.
var errWriterClosed = errors.New("output closed")

// ExecOptions configures an Exec source.
type ExecOptions struct {
	Name        string
	Command     string
	Args        []string
	RecordStart string
	Retry       bool
	Logger      *zap.Logger
}

// Exec runs a command and follows its standard output, one record per line
// or per record_start group. Standard error goes to the debug log. With
// Retry set, an exited command is restarted after an exponential backoff.
type Exec struct {
	opts   ExecOptions
	path   string
	group  *Grouper
	pump   *pump
	logger *zap.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewExec validates opts. The executable is resolved by Start.
func NewExec(opts ExecOptions) (*Exec, error) {
	if strings.TrimSpace(opts.Command) == "" {
		return nil, errors.New("exec source: command is required")
	}
	group, err := NewGrouper(opts.RecordStart)
	if err != nil {
		return nil, err
	}
	if opts.Name == "" {
		opts.Name = strings.Join(append([]string{opts.Command}, opts.Args...), " ")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{
		opts:   opts,
		group:  group,
		pump:   newPump(),
		logger: logger.With(zap.String("source", opts.Name)),
	}, nil
}

func (s *Exec) Name() string { return s.opts.Name }

// Start resolves the executable and launches the supervisor. An executable
// that cannot be found is fatal to the source.
func (s *Exec) Start(stop *ingest.Stop) error {
	path, err := exec.LookPath(s.opts.Command)
	if err != nil {
		return fmt.Errorf("resolve command: %w", err)
	}
	s.path = path

	ctx, cancel := context.WithCancel(stop.Context())
	s.cancel = cancel
	s.wg.Add(1)
	go s.supervise(ctx, stop)
	return nil
}

func (s *Exec) supervise(ctx context.Context, stop *ingest.Stop) {
	defer s.wg.Done()
	defer s.pump.finish()

	failures := 0
	for {
		started := time.Now()
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.pump.fail(fmt.Errorf("command exited: %w", err))
		}
		if !s.opts.Retry {
			s.logger.Info("command exited", zap.Error(err))
			return
		}

		if time.Since(started) >= healthyRun {
			failures = 0
		}
		delay := ingest.Backoff(failures, restartBase)
		failures++
		s.logger.Warn("command exited; restarting",
			zap.Error(err),
			zap.Duration("backoff", delay),
			zap.Int("consecutive", failures))
		if !sleep(ctx, stop, delay) {
			return
		}
	}
}

// sleep waits through stop.Sleep one check interval at a time so that a
// cancelled ctx also cuts the wait short.
func sleep(ctx context.Context, stop *ingest.Stop, d time.Duration) bool {
	for d > 0 {
		slice := min(d, stop.CheckInterval())
		if !stop.Sleep(slice) || ctx.Err() != nil {
			return false
		}
		d -= slice
	}
	return true
}

func (s *Exec) runOnce(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.path, s.opts.Args...)
	cmd.WaitDelay = waitDelay

	stdout := &lineWriter{emit: func(line string) error {
		if !s.pump.push(ctx, line) {
			return errWriterClosed
		}
		return nil
	}}
	stderr := &lineWriter{emit: func(line string) error {
		s.logger.Debug("stderr", zap.String("line", line))
		return nil
	}}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}
	s.logger.Debug("command started", zap.Int("pid", cmd.Process.Pid))
	err := cmd.Wait()
	_ = stdout.Close()
	_ = stderr.Close()
	return err
}

// Poll returns the output collected since the last call. A failed exit is
// reported before the source ends so the reason reaches the caller.
func (s *Exec) Poll() ([]string, error) {
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

// Stop kills the command and waits for the supervisor to exit.
func (s *Exec) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	return nil
}

// lineWriter splits written bytes into lines and passes each complete line,
// without its line ending, to emit.
type lineWriter struct {
	mu   sync.Mutex
	buf  []byte
	emit func(line string) error
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(w.buf[:i], "\r"))
		w.buf = w.buf[i+1:]
		if err := w.emit(line); err != nil {
			return len(p), err
		}
	}
	if len(w.buf) >= maxLineBytes {
		line := string(w.buf)
		w.buf = w.buf[:0]
		if err := w.emit(line); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

// Close emits a trailing line that had no newline.
func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) == 0 {
		return nil
	}
	line := string(bytes.TrimRight(w.buf, "\r"))
	w.buf = nil
	return w.emit(line)
}
