package filter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/contrail/internal/entry"
	"github.com/five82/contrail/internal/store"
)

// levelInterp exposes the level only from detail 1 upwards.
type levelInterp struct{}

func (levelInterp) Parse(raw string) (entry.Entry, bool) { return entry.New(raw, raw), true }
func (levelInterp) Preview(e entry.Entry, l entry.DetailLevel) string {
	if l >= 1 && e.Level != "" {
		return "[" + e.Level + "] " + e.Content
	}
	return e.Content
}
func (i levelInterp) Searchable(e entry.Entry, l entry.DetailLevel) string { return i.Preview(e, l) }
func (levelInterp) Export(e entry.Entry) string                           { return e.Raw }
func (levelInterp) MaxDetail() entry.DetailLevel                          { return 2 }

type fixture struct {
	store  *store.Store
	engine *Engine
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	s, err := store.New(capacity)
	require.NoError(t, err)
	return &fixture{store: s, engine: New(s, levelInterp{}, 0)}
}

func (f *fixture) push(content, level string) uint64 {
	e := entry.New(content, content)
	e.Level = level
	seq, ev, evicted := f.store.Push(e)
	if evicted {
		f.engine.OnEvict(ev)
	}
	e.Seq = seq
	f.engine.OnNewEntry(e)
	return seq
}

func (f *fixture) visibleContent() []string {
	var out []string
	for _, seq := range f.engine.Visible() {
		e, ok := f.store.Get(seq)
		if !ok {
			out = append(out, fmt.Sprintf("<evicted %d>", seq))
			continue
		}
		out = append(out, e.Content)
	}
	return out
}

func TestLiteralPatternScenario(t *testing.T) {
	f := newFixture(t, 16)
	require.NoError(t, f.engine.SetPattern("ERR"))
	f.push("ERR1", "")
	f.push("ok", "")
	f.push("ERR2", "")

	assert.Equal(t, []string{"ERR1", "ERR2"}, f.visibleContent())
}

func TestMatchingIsCaseInsensitive(t *testing.T) {
	f := newFixture(t, 16)
	f.push("Connection REFUSED", "")
	f.push("all good", "")

	require.NoError(t, f.engine.SetPattern("refused"))
	assert.Equal(t, []string{"Connection REFUSED"}, f.visibleContent())

	require.NoError(t, f.engine.SetPattern("/^conn.*used$/"))
	assert.Equal(t, []string{"Connection REFUSED"}, f.visibleContent())
}

func TestRecomputeMatchesIncremental(t *testing.T) {
	lines := []string{"alpha", "beta error", "gamma", "ERROR delta", "epsilon", "zeta err", "eta"}
	for _, pattern := range []string{"err", "a", "/^e/", "/z|g/", "nothing"} {
		t.Run(pattern, func(t *testing.T) {
			incremental := newFixture(t, 5)
			require.NoError(t, incremental.engine.SetPattern(pattern))
			for _, l := range lines {
				incremental.push(l, "")
			}

			full := newFixture(t, 5)
			for _, l := range lines {
				full.push(l, "")
			}
			require.NoError(t, full.engine.SetPattern(pattern))

			assert.Equal(t, full.visibleContent(), incremental.visibleContent())
		})
	}
}

func TestParallelRecomputeKeepsSequenceOrder(t *testing.T) {
	sequential := newFixture(t, 5000)
	parallel := newFixture(t, 5000)
	sequential.engine.SetParallelThreshold(0)
	parallel.engine.SetParallelThreshold(10)

	for i := 0; i < 4500; i++ {
		content := fmt.Sprintf("line %d", i)
		if i%7 == 0 {
			content += " match"
		}
		sequential.push(content, "")
		parallel.push(content, "")
	}

	require.NoError(t, sequential.engine.SetPattern("match"))
	require.NoError(t, parallel.engine.SetPattern("match"))

	got := parallel.engine.Visible()
	assert.Equal(t, sequential.engine.Visible(), got)
	for i := 1; i < len(got); i++ {
		require.Less(t, got[i-1], got[i])
	}
}

func TestInvalidPatternKeepsPreviousFilter(t *testing.T) {
	f := newFixture(t, 16)
	f.push("ERR1", "")
	f.push("ok", "")
	require.NoError(t, f.engine.SetPattern("err"))
	before := f.engine.Visible()

	err := f.engine.SetPattern("/err(/")
	require.Error(t, err)
	var perr *PatternError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "/err(/", perr.Pattern)

	assert.Equal(t, "err", f.engine.Pattern())
	assert.Equal(t, before, f.engine.Visible())
}

func TestEvictionDropsVisibleHead(t *testing.T) {
	f := newFixture(t, 3)
	require.NoError(t, f.engine.SetPattern("x"))
	f.push("x1", "")
	f.push("y", "")
	f.push("x2", "")
	f.push("x3", "") // evicts x1

	assert.Equal(t, []string{"x2", "x3"}, f.visibleContent())
}

func TestDetailChangeRecomputes(t *testing.T) {
	f := newFixture(t, 16)
	f.push("disk full", "ERROR")
	f.push("started", "INFO")

	require.NoError(t, f.engine.SetPattern("error"))
	assert.Empty(t, f.visibleContent(), "level is not searchable at detail 0")

	require.True(t, f.engine.SetDetail(1))
	assert.Equal(t, []string{"disk full"}, f.visibleContent())

	assert.False(t, f.engine.SetDetail(1), "unchanged level")
	assert.True(t, f.engine.SetDetail(9))
	assert.Equal(t, entry.DetailLevel(2), f.engine.Detail(), "clamped to the interpreter maximum")
}

func TestNarrowingOnlyRetestsVisible(t *testing.T) {
	f := newFixture(t, 16)
	f.push("timeout talking to db", "")
	f.push("timeout", "")
	f.push("db ok", "")

	require.NoError(t, f.engine.SetPattern("time"))
	assert.Equal(t, []string{"timeout talking to db", "timeout"}, f.visibleContent())

	require.NoError(t, f.engine.SetPattern("timeout talking"))
	assert.Equal(t, []string{"timeout talking to db"}, f.visibleContent())

	// Widening must fall back to a full recompute.
	require.NoError(t, f.engine.SetPattern("db"))
	assert.Equal(t, []string{"timeout talking to db", "db ok"}, f.visibleContent())
}

func TestClearAndSearchWithoutPattern(t *testing.T) {
	f := newFixture(t, 3)
	a := f.push("a", "")
	f.push("b", "")
	f.push("c", "")
	f.push("d", "") // evicts a

	require.NoError(t, f.engine.SetPattern("b"))
	f.engine.Clear()
	assert.False(t, f.engine.Active())
	assert.Equal(t, 3, f.engine.Len())

	i, found := f.engine.Search(a)
	assert.Equal(t, 0, i)
	assert.False(t, found)

	i, found = f.engine.Search(a + 2)
	assert.Equal(t, 1, i)
	assert.True(t, found)

	i, found = f.engine.Search(a + 10)
	assert.Equal(t, 3, i)
	assert.False(t, found)
}

func TestEmptyPatternClears(t *testing.T) {
	f := newFixture(t, 4)
	f.push("a", "")
	require.NoError(t, f.engine.SetPattern("zzz"))
	assert.Equal(t, 0, f.engine.Len())

	require.NoError(t, f.engine.SetPattern(""))
	assert.False(t, f.engine.Active())
	assert.Equal(t, 1, f.engine.Len())
}

func TestResetAfterStoreClear(t *testing.T) {
	f := newFixture(t, 4)
	require.NoError(t, f.engine.SetPattern("a"))
	f.push("a1", "")
	f.store.Clear()
	f.engine.Reset()

	assert.True(t, f.engine.Active())
	assert.Equal(t, 0, f.engine.Len())
	f.push("a2", "")
	assert.Equal(t, []string{"a2"}, f.visibleContent())
}

func TestBracketedLevelIsLiteral(t *testing.T) {
	f := newFixture(t, 16)
	require.True(t, f.engine.SetDetail(1))
	f.push("connection lost", "ERROR")
	f.push("request served", "INFO")
	f.push("slow", "WARN")

	require.NoError(t, f.engine.SetPattern("[ERROR]"))
	assert.Equal(t, []string{"connection lost"}, f.visibleContent())

	require.NoError(t, f.engine.SetPattern("/\\[(error|warn)\\]/"))
	assert.Equal(t, []string{"connection lost", "slow"}, f.visibleContent())
}
