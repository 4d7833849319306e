package ingest

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/contrail/internal/entry"
)

const (
	defaultPollInterval  = 100 * time.Millisecond
	defaultBuffer        = 64
	defaultShutdownGrace = 250 * time.Millisecond
)

// Options configures a Bridge. Zero values select defaults.
type Options struct {
	PollEvery     time.Duration
	CheckInterval time.Duration
	ShutdownGrace time.Duration
	Buffer        int
	Logger        *zap.Logger
}

// Bridge owns one worker per source and the handoff channel they share.
type Bridge struct {
	interp entry.Interpreter
	opts   Options
	logger *zap.Logger

	stop    *Stop
	out     chan Message
	done    chan struct{}
	workers []*worker
	started atomic.Bool
}

// WorkerStatus is a point-in-time view of one worker.
type WorkerStatus struct {
	Name  string
	State State
}

// NewBridge creates a bridge that parses records with interp.
func NewBridge(interp entry.Interpreter, opts Options) *Bridge {
	if opts.PollEvery <= 0 {
		opts.PollEvery = defaultPollInterval
	}
	opts.CheckInterval = ClampCheckInterval(opts.CheckInterval)
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = defaultShutdownGrace
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		interp: interp,
		opts:   opts,
		logger: logger,
		stop:   NewStop(opts.CheckInterval),
		out:    make(chan Message, opts.Buffer),
		done:   make(chan struct{}),
	}
}

// Add registers a source. Sources must be added before Start.
func (b *Bridge) Add(src Source) error {
	if b.started.Load() {
		return errors.New("add source: bridge already started")
	}
	b.workers = append(b.workers, &worker{src: src, bridge: b})
	return nil
}

// Start launches one goroutine per source. The handoff channel is closed once
// every worker has stopped.
func (b *Bridge) Start() {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	var g errgroup.Group
	for _, w := range b.workers {
		g.Go(func() error {
			w.run()
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(b.out)
		close(b.done)
	}()
}

// Messages is the handoff channel. The event loop drains it without blocking.
func (b *Bridge) Messages() <-chan Message { return b.out }

// Done is closed when every worker has stopped.
func (b *Bridge) Done() <-chan struct{} { return b.done }

// Stopping reports whether shutdown has been requested.
func (b *Bridge) Stopping() bool { return b.stop.Requested() }

// Bound is the longest Shutdown waits for workers to exit.
func (b *Bridge) Bound() time.Duration {
	return b.opts.CheckInterval + b.opts.ShutdownGrace
}

// Statuses returns each worker's current state in registration order.
func (b *Bridge) Statuses() []WorkerStatus {
	out := make([]WorkerStatus, len(b.workers))
	for i, w := range b.workers {
		out[i] = WorkerStatus{Name: w.src.Name(), State: State(w.state.Load())}
	}
	return out
}

// Shutdown sets the stop signal and waits up to Bound for every worker to
// release its source.
func (b *Bridge) Shutdown() error {
	b.stop.Request()
	if !b.started.Load() {
		return nil
	}
	timer := time.NewTimer(b.Bound())
	defer timer.Stop()
	select {
	case <-b.done:
		return nil
	case <-timer.C:
		var pending []string
		for _, s := range b.Statuses() {
			if s.State != StateStopped {
				pending = append(pending, s.Name)
			}
		}
		return fmt.Errorf("%w after %v: %v", ErrShutdownTimeout, b.Bound(), pending)
	}
}

// send delivers msg unless shutdown is requested first.
func (b *Bridge) send(msg Message) bool {
	select {
	case b.out <- msg:
		return true
	case <-b.stop.Done():
		return false
	}
}

// worker drives one source through its lifecycle.
type worker struct {
	src      Source
	bridge   *Bridge
	state    atomic.Int32
	stopOnce sync.Once
}

func (w *worker) setState(s State) { w.state.Store(int32(s)) }

func (w *worker) run() {
	b := w.bridge
	name := w.src.Name()
	log := b.logger.With(zap.String("source", name))

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("source panicked: %v", r)
			log.Error("source failed", zap.Error(err))
			b.send(Message{Source: name, Kind: KindStartError, Err: err})
		}
		w.release(log)
		w.setState(StateStopped)
	}()

	w.setState(StateStarting)
	if err := w.src.Start(b.stop); err != nil {
		log.Error("source start failed", zap.Error(err))
		b.send(Message{Source: name, Kind: KindStartError, Err: err})
		return
	}
	w.setState(StateRunning)
	log.Debug("source running", zap.Duration("poll", b.opts.PollEvery))

	failures := 0
	for !b.stop.Requested() {
		lines, err := w.src.Poll()
		if len(lines) > 0 {
			w.forward(log, name, lines)
		}
		if err != nil {
			if errors.Is(err, ErrSourceDone) {
				log.Info("source exhausted")
				b.send(Message{Source: name, Kind: KindDone})
				return
			}
			failures++
			log.Warn("source poll failed", zap.Error(err), zap.Int("consecutive", failures))
			b.send(Message{Source: name, Kind: KindPollError, Err: err})
		} else if failures > 0 {
			log.Info("source recovered", zap.Int("after", failures))
			failures = 0
			b.send(Message{Source: name, Kind: KindRecovered})
		}
		if !b.stop.Sleep(b.opts.PollEvery) {
			break
		}
	}
	w.setState(StateStopRequested)
}

func (w *worker) forward(log *zap.Logger, name string, lines []string) {
	entries := make([]entry.Entry, 0, len(lines))
	declined := 0
	for _, raw := range lines {
		e, ok := w.bridge.interp.Parse(raw)
		if !ok {
			declined++
			continue
		}
		e.Source = name
		entries = append(entries, e)
	}
	if declined > 0 {
		log.Debug("records declined", zap.Int("count", declined))
	}
	if len(entries) == 0 {
		return
	}
	w.bridge.send(Message{Source: name, Kind: KindRecords, Entries: entries, Declined: declined})
}

// release calls the source's Stop hook exactly once.
func (w *worker) release(log *zap.Logger) {
	w.stopOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("source stop panicked", zap.Any("panic", r))
			}
		}()
		if err := w.src.Stop(); err != nil {
			log.Warn("source stop failed", zap.Error(err))
			return
		}
		log.Debug("source stopped")
	})
}
