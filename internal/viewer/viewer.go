// Package viewer is the single-threaded core of the log viewer. A Viewer owns
// the store, the filter engine and the navigation state, and is the only
// place they are mutated. The event loop calls Drain on every ingestion tick
// and the operator commands in between; nothing here blocks.
package viewer

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/contrail/internal/entry"
	"github.com/five82/contrail/internal/filter"
	"github.com/five82/contrail/internal/ingest"
	"github.com/five82/contrail/internal/nav"
	"github.com/five82/contrail/internal/store"
)

// maxDrain bounds the messages one Drain consumes so a flood cannot starve
// input handling.
const maxDrain = 1024

// Options configures a Viewer.
type Options struct {
	Capacity          int
	Detail            entry.DetailLevel
	Filter            string
	Wrap              bool
	ParallelThreshold int
	Logger            *zap.Logger
}

// Stats are counters for the status bar and the debug panel.
type Stats struct {
	Resident int
	Capacity int
	Visible  int
	Received uint64
	Declined uint64
	Evicted  uint64
	Cleared  uint64
}

// DrainResult summarizes one Drain call.
type DrainResult struct {
	Messages int
	Arrived  int
	Evicted  int
	Closed   bool
}

// Viewer coordinates the store, the filter and the navigation state.
type Viewer struct {
	interp entry.Interpreter
	store  *store.Store
	filter *filter.Engine
	nav    *nav.State
	logger *zap.Logger

	msgs     <-chan ingest.Message
	stopping func() bool
	closed   bool

	health   map[string]*Health
	order    []string
	warnings []string
	stats    Stats
}

// New creates a viewer. A capacity of zero or less is rejected. An invalid
// initial filter is logged and recorded as a warning rather than failing.
func New(interp entry.Interpreter, opts Options) (*Viewer, error) {
	st, err := store.New(opts.Capacity)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxDetail := interp.MaxDetail()
	n := nav.New(opts.Detail, maxDetail)
	n.SetWrap(opts.Wrap)

	f := filter.New(st, interp, n.Detail())
	if opts.ParallelThreshold != 0 {
		f.SetParallelThreshold(opts.ParallelThreshold)
	}

	v := &Viewer{
		interp: interp,
		store:  st,
		filter: f,
		nav:    n,
		logger: logger,
		health: make(map[string]*Health),
	}
	if opts.Filter != "" {
		if err := v.SetFilter(opts.Filter); err != nil {
			logger.Warn("ignoring initial filter", zap.Error(err))
			v.warnings = append(v.warnings, err.Error())
		}
	}
	return v, nil
}

// Attach connects the handoff channel. stopping reports whether shutdown was
// requested; a channel that closes while not stopping raises a warning.
func (v *Viewer) Attach(msgs <-chan ingest.Message, stopping func() bool) {
	v.msgs = msgs
	v.stopping = stopping
	v.closed = false
}

// Track registers source names so their health is listed in order before
// their first message.
func (v *Viewer) Track(names ...string) {
	for _, name := range names {
		v.healthOf(name)
	}
}

// Drain consumes every message already waiting on the handoff channel,
// without blocking, and applies them in order.
func (v *Viewer) Drain() DrainResult {
	var res DrainResult
	if v.msgs == nil {
		res.Closed = v.closed
		return res
	}

	arrivals := false
loop:
	for res.Messages < maxDrain {
		select {
		case msg, ok := <-v.msgs:
			if !ok {
				v.onClosed()
				res.Closed = true
				break loop
			}
			res.Messages++
			arrived, evicted := v.apply(msg)
			res.Arrived += arrived
			res.Evicted += evicted
			arrivals = arrivals || arrived > 0
		default:
			break loop
		}
	}

	if arrivals {
		v.nav.Follow(v.filter)
	} else if res.Evicted > 0 {
		v.nav.Reconcile(v.filter)
	}
	return res
}

func (v *Viewer) onClosed() {
	v.msgs = nil
	v.closed = true
	if v.stopping != nil && v.stopping() {
		return
	}
	if v.allEnded() {
		v.logger.Info("every source has ended")
		return
	}
	const warning = "ingestion stopped: no further entries will arrive"
	v.logger.Warn(warning)
	v.warnings = append(v.warnings, warning)
}

// allEnded reports whether every tracked source finished or failed on its
// own, which accounts for the channel closing.
func (v *Viewer) allEnded() bool {
	if len(v.order) == 0 {
		return false
	}
	for _, name := range v.order {
		if h := v.health[name]; !h.Done && !h.Failed {
			return false
		}
	}
	return true
}

func (v *Viewer) apply(msg ingest.Message) (arrived, evicted int) {
	h := v.healthOf(msg.Source)
	h.update(msg)

	switch msg.Kind {
	case ingest.KindRecords:
		for _, e := range msg.Entries {
			seq, old, didEvict := v.store.Push(e)
			if didEvict {
				v.filter.OnEvict(old)
				evicted++
			}
			e.Seq = seq
			v.filter.OnNewEntry(e)
		}
		arrived = len(msg.Entries)
		v.stats.Received += uint64(arrived)
		v.stats.Declined += uint64(msg.Declined)
		v.stats.Evicted += uint64(evicted)
	case ingest.KindStartError:
		v.warnings = append(v.warnings, fmt.Sprintf("%s: %v", msg.Source, msg.Err))
	}
	return arrived, evicted
}

func (v *Viewer) healthOf(name string) *Health {
	h, ok := v.health[name]
	if !ok {
		h = &Health{Name: name}
		v.health[name] = h
		v.order = append(v.order, name)
	}
	return h
}

// Closed reports whether the handoff channel has closed.
func (v *Viewer) Closed() bool { return v.closed }

// Health returns every known source's health in registration order.
func (v *Viewer) Health() []Health {
	out := make([]Health, 0, len(v.order))
	for _, name := range v.order {
		out = append(out, *v.health[name])
	}
	return out
}

// Warnings returns the persistent warnings, oldest first.
func (v *Viewer) Warnings() []string {
	return append([]string(nil), v.warnings...)
}

// Stats returns the current counters.
func (v *Viewer) Stats() Stats {
	s := v.stats
	s.Resident = v.store.Len()
	s.Capacity = v.store.Cap()
	s.Visible = v.filter.Len()
	return s
}

// Interpreter returns the interpreter entries are formatted with.
func (v *Viewer) Interpreter() entry.Interpreter { return v.interp }

// Nav exposes focus, wrap and scroll state to the presentation layer.
// Selection and detail changes go through the Viewer so the filter stays in
// step.
func (v *Viewer) Nav() *nav.State { return v.nav }

// Len returns the number of visible entries.
func (v *Viewer) Len() int { return v.filter.Len() }

// At returns the i-th visible entry, oldest first.
func (v *Viewer) At(i int) entry.Entry {
	idx, ok := v.store.Index(v.filter.SeqAt(i))
	if !ok {
		panic("viewer: visible entry not resident")
	}
	return v.store.At(idx)
}

// Selected returns the selected entry and its visible position.
func (v *Viewer) Selected() (entry.Entry, int, bool) {
	i, ok := v.nav.Resolve(v.filter)
	if !ok {
		return entry.Entry{}, 0, false
	}
	return v.At(i), i, true
}

// Preview formats e at the current detail level.
func (v *Viewer) Preview(e entry.Entry) string {
	return v.interp.Preview(e, v.nav.Detail())
}

// SetFilter makes text the active pattern; empty text clears it. On a compile
// error the previous filter stays in effect.
func (v *Viewer) SetFilter(text string) error {
	if err := v.filter.SetPattern(text); err != nil {
		return err
	}
	v.nav.Reconcile(v.filter)
	return nil
}

// ClearFilter removes the active pattern.
func (v *Viewer) ClearFilter() {
	v.filter.Clear()
	v.nav.Reconcile(v.filter)
}

// FilterText returns the active pattern text, or "".
func (v *Viewer) FilterText() string { return v.filter.Pattern() }

// FilterActive reports whether a pattern is active.
func (v *Viewer) FilterActive() bool { return v.filter.Active() }

// Clear empties the store and returns how many entries were dropped. The
// filter pattern stays active and sequence numbers keep increasing.
func (v *Viewer) Clear() int {
	n := v.store.Clear()
	v.filter.Reset()
	v.nav.Reset()
	v.stats.Cleared += uint64(n)
	return n
}

// IncreaseDetail raises the detail level and reports whether it changed.
func (v *Viewer) IncreaseDetail() bool {
	if !v.nav.IncreaseDetail() {
		return false
	}
	v.syncDetail()
	return true
}

// DecreaseDetail lowers the detail level and reports whether it changed.
func (v *Viewer) DecreaseDetail() bool {
	if !v.nav.DecreaseDetail() {
		return false
	}
	v.syncDetail()
	return true
}

// Detail returns the current detail level.
func (v *Viewer) Detail() entry.DetailLevel { return v.nav.Detail() }

func (v *Viewer) syncDetail() {
	if v.filter.SetDetail(v.nav.Detail()) {
		v.nav.Reconcile(v.filter)
	}
}

// Up moves the selection n entries towards older entries.
func (v *Viewer) Up(n int) { v.nav.Up(v.filter, n) }

// Down moves the selection n entries towards newer entries.
func (v *Viewer) Down(n int) { v.nav.Down(v.filter, n) }

// First selects the oldest visible entry.
func (v *Viewer) First() { v.nav.First(v.filter) }

// Last selects the newest visible entry and resumes autoscroll.
func (v *Viewer) Last() { v.nav.Last(v.filter) }

// Autoscroll reports whether the selection follows new arrivals.
func (v *Viewer) Autoscroll() bool { return v.nav.Autoscroll() }

// ToggleAutoscroll flips autoscroll and returns the new value.
func (v *Viewer) ToggleAutoscroll() bool {
	v.nav.SetAutoscroll(!v.nav.Autoscroll(), v.filter)
	return v.nav.Autoscroll()
}

// EnsureVisible returns the first visible row of a logs panel of the given
// height, keeping the selection on screen.
func (v *Viewer) EnsureVisible(height int) int {
	return v.nav.EnsureVisible(v.filter, height)
}

// ExportSelected returns the export text of the selected entry.
func (v *Viewer) ExportSelected() (string, bool) {
	e, _, ok := v.Selected()
	if !ok {
		return "", false
	}
	return v.interp.Export(e), true
}

// ExportVisible returns the export text of every visible entry, one per
// line, and how many entries it covers.
func (v *Viewer) ExportVisible() (string, int) {
	n := v.Len()
	if n == 0 {
		return "", 0
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(v.interp.Export(v.At(i)))
	}
	return b.String(), n
}
