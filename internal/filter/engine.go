// Package filter maintains the visible set: the ordered sequence numbers of
// resident entries whose searchable text matches the active pattern.
//
// With no pattern the visible set is every resident entry and nothing is
// materialized. With a pattern, the set is kept exact by three paths:
// OnNewEntry tests each arrival, OnEvict drops entries leaving the store, and
// RecomputeAll re-tests the whole store when the pattern or detail level
// changes. Large recomputes fan out across goroutines and are stitched back
// together in sequence order before they are published.
package filter

import (
	"math"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/five82/contrail/internal/entry"
)

// DefaultParallelThreshold is the candidate count above which a recompute
// runs in parallel.
const DefaultParallelThreshold = 1000

// Source is the read side of the store the engine filters.
type Source interface {
	Len() int
	At(i int) entry.Entry
	Index(seq uint64) (int, bool)
}

// Engine derives the visible set from a Source. It is not safe for
// concurrent use; it belongs to the event loop that owns the store.
type Engine struct {
	src     Source
	interp  entry.Interpreter
	detail  entry.DetailLevel
	pattern *Pattern
	visible []uint64

	// lowercased searchable text by sequence number, valid for detail
	texts map[uint64]string

	parallelThreshold int
}

// New creates an engine with no active pattern.
func New(src Source, interp entry.Interpreter, detail entry.DetailLevel) *Engine {
	return &Engine{
		src:               src,
		interp:            interp,
		detail:            entry.ClampDetail(detail, interp.MaxDetail()),
		texts:             make(map[uint64]string),
		parallelThreshold: DefaultParallelThreshold,
	}
}

// SetParallelThreshold overrides the candidate count above which recomputes
// run in parallel. Values below one disable parallel matching.
func (e *Engine) SetParallelThreshold(n int) {
	if n < 1 {
		n = math.MaxInt
	}
	e.parallelThreshold = n
}

// Active reports whether a pattern is set.
func (e *Engine) Active() bool { return e.pattern != nil }

// Pattern returns the active pattern text, or "".
func (e *Engine) Pattern() string {
	if e.pattern == nil {
		return ""
	}
	return e.pattern.String()
}

// Detail returns the detail level searchable text is evaluated at.
func (e *Engine) Detail() entry.DetailLevel { return e.detail }

// SetPattern compiles text and makes it the active predicate. An empty text
// clears the filter. On a compile error the previous pattern and visible set
// stay in effect and a *PatternError is returned.
func (e *Engine) SetPattern(text string) error {
	if text == "" {
		e.Clear()
		return nil
	}
	next, err := Compile(text)
	if err != nil {
		return err
	}

	if e.pattern.narrows(next) {
		prev := e.visible
		e.pattern = next
		e.visible = e.evaluate(len(prev), func(i int) entry.Entry {
			idx, _ := e.src.Index(prev[i])
			return e.src.At(idx)
		})
		return nil
	}

	e.pattern = next
	e.RecomputeAll()
	return nil
}

// Clear removes the active pattern.
func (e *Engine) Clear() {
	e.pattern = nil
	e.visible = nil
}

// SetDetail changes the detail level searchable text is evaluated at. A
// change drops cached text and recomputes the visible set. It reports whether
// the level changed.
func (e *Engine) SetDetail(level entry.DetailLevel) bool {
	level = entry.ClampDetail(level, e.interp.MaxDetail())
	if level == e.detail {
		return false
	}
	e.detail = level
	clear(e.texts)
	e.RecomputeAll()
	return true
}

// OnNewEntry tests one arrival. It must be called for every entry pushed into
// the store, in push order.
func (e *Engine) OnNewEntry(en entry.Entry) {
	if e.pattern == nil {
		return
	}
	if e.pattern.matchLower(e.text(en)) {
		e.visible = append(e.visible, en.Seq)
	}
}

// OnEvict forgets an entry the store evicted. Evictions are always the oldest
// resident entry, so only the head of the visible set can be affected.
func (e *Engine) OnEvict(en entry.Entry) {
	delete(e.texts, en.Seq)
	if len(e.visible) > 0 && e.visible[0] == en.Seq {
		e.visible = e.visible[1:]
	}
}

// Reset forgets all entries after the store was cleared. The pattern stays
// active.
func (e *Engine) Reset() {
	clear(e.texts)
	if e.pattern != nil {
		e.visible = nil
	}
}

// RecomputeAll re-tests every resident entry against the active pattern.
func (e *Engine) RecomputeAll() {
	if e.pattern == nil {
		e.visible = nil
		return
	}
	e.visible = e.evaluate(e.src.Len(), e.src.At)
}

// Len returns the size of the visible set.
func (e *Engine) Len() int {
	if e.pattern == nil {
		return e.src.Len()
	}
	return len(e.visible)
}

// SeqAt returns the sequence number at position i of the visible set.
func (e *Engine) SeqAt(i int) uint64 {
	if e.pattern == nil {
		return e.src.At(i).Seq
	}
	return e.visible[i]
}

// Search returns the position of the first visible entry whose sequence
// number is at least seq, and whether that entry is seq itself.
func (e *Engine) Search(seq uint64) (int, bool) {
	if e.pattern == nil {
		n := e.src.Len()
		if n == 0 {
			return 0, false
		}
		oldest := e.src.At(0).Seq
		if seq < oldest {
			return 0, false
		}
		if idx, ok := e.src.Index(seq); ok {
			return idx, true
		}
		return n, false
	}
	i := sort.Search(len(e.visible), func(i int) bool { return e.visible[i] >= seq })
	return i, i < len(e.visible) && e.visible[i] == seq
}

// Visible returns a copy of the visible sequence numbers.
func (e *Engine) Visible() []uint64 {
	out := make([]uint64, e.Len())
	for i := range out {
		out[i] = e.SeqAt(i)
	}
	return out
}

func (e *Engine) text(en entry.Entry) string {
	if t, ok := e.texts[en.Seq]; ok {
		return t
	}
	t := strings.ToLower(e.interp.Searchable(en, e.detail))
	e.texts[en.Seq] = t
	return t
}

// evaluate returns the sequence numbers of the n candidates produced by at
// that match the active pattern, in candidate order.
func (e *Engine) evaluate(n int, at func(int) entry.Entry) []uint64 {
	if n <= e.parallelThreshold {
		out := make([]uint64, 0, n/4)
		for i := 0; i < n; i++ {
			en := at(i)
			if e.pattern.matchLower(e.text(en)) {
				out = append(out, en.Seq)
			}
		}
		return out
	}
	return e.evaluateParallel(n, at)
}

func (e *Engine) evaluateParallel(n int, at func(int) entry.Entry) []uint64 {
	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers
	hits := make([][]uint64, workers)
	fresh := make([]string, n) // texts missing from the cache, filled per index
	pattern := e.pattern

	// The cache is only read while workers run.
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			var out []uint64
			for i := lo; i < hi; i++ {
				en := at(i)
				t, ok := e.texts[en.Seq]
				if !ok {
					t = strings.ToLower(e.interp.Searchable(en, e.detail))
					fresh[i] = t
				}
				if pattern.matchLower(t) {
					out = append(out, en.Seq)
				}
			}
			hits[w] = out
			return nil
		})
	}
	_ = g.Wait()

	for i, t := range fresh {
		if t != "" {
			e.texts[at(i).Seq] = t
		}
	}

	total := 0
	for _, h := range hits {
		total += len(h)
	}
	out := make([]uint64, 0, total)
	for _, h := range hits {
		out = append(out, h...)
	}
	return out
}
