// Package nav holds the operator's position in the visible set: the selected
// entry, autoscroll, detail level, focus, wrap and per-panel scroll offsets.
//
// Selection is held as a sequence number, not an index, so it survives
// arrivals, evictions and filter changes. When the selected entry leaves the
// visible set the selection falls back to the nearest visible entry, older
// first, then newer.
package nav

import "github.com/five82/contrail/internal/entry"

// ScrollPad is the number of rows kept between the selection and the edge of
// the logs panel when the panel is taller than two rows.
const ScrollPad = 1

// HorizontalStep is the column distance of one horizontal scroll.
const HorizontalStep = 5

// Visible is the ordered set of sequence numbers the operator navigates.
type Visible interface {
	Len() int
	SeqAt(i int) uint64
	// Search returns the position of the first visible sequence number
	// greater than or equal to seq, and whether it equals seq.
	Search(seq uint64) (int, bool)
}

// Focus names the panel that receives scroll input.
type Focus int

const (
	FocusLogs Focus = iota
	FocusDetails
	FocusDebug
	FocusNone
)

func (f Focus) String() string {
	switch f {
	case FocusLogs:
		return "Logs"
	case FocusDetails:
		return "Details"
	case FocusDebug:
		return "Debug"
	default:
		return "None"
	}
}

// Panel identifies a scrollable panel.
type Panel int

const (
	PanelLogs Panel = iota
	PanelDetails
	PanelDebug
	panelCount
)

// Panel returns the panel a focus target scrolls, or false for FocusNone.
func (f Focus) Panel() (Panel, bool) {
	switch f {
	case FocusLogs:
		return PanelLogs, true
	case FocusDetails:
		return PanelDetails, true
	case FocusDebug:
		return PanelDebug, true
	default:
		return 0, false
	}
}

// State is the navigation state machine. It is owned by the event loop.
type State struct {
	selected   uint64
	hasSel     bool
	autoscroll bool

	detail    entry.DetailLevel
	maxDetail entry.DetailLevel

	focus Focus
	wrap  bool

	offsets  [panelCount]int
	hoffsets [panelCount]int
}

// New returns a state following the newest entry with the logs panel focused.
func New(detail, maxDetail entry.DetailLevel) *State {
	return &State{
		autoscroll: true,
		detail:     entry.ClampDetail(detail, maxDetail),
		maxDetail:  maxDetail,
		focus:      FocusLogs,
	}
}

// Selected returns the selected sequence number. The entry may no longer be
// visible until Reconcile runs.
func (s *State) Selected() (uint64, bool) { return s.selected, s.hasSel }

// Autoscroll reports whether arrivals move the selection to the newest entry.
func (s *State) Autoscroll() bool { return s.autoscroll }

// Resolve returns the visible position the selection maps to, applying the
// fallback policy without changing the state.
func (s *State) Resolve(v Visible) (int, bool) {
	if !s.hasSel || v.Len() == 0 {
		return 0, false
	}
	i, found := v.Search(s.selected)
	switch {
	case found:
		return i, true
	case i > 0:
		return i - 1, true
	case i < v.Len():
		return i, true
	default:
		return 0, false
	}
}

// Reconcile re-validates the selection against v. A selection that left the
// visible set moves to its nearest visible neighbour; an empty set clears it.
func (s *State) Reconcile(v Visible) {
	if !s.hasSel {
		return
	}
	i, ok := s.Resolve(v)
	if !ok {
		s.hasSel = false
		s.selected = 0
		return
	}
	s.selected = v.SeqAt(i)
}

// Follow advances the selection to the newest visible entry when autoscroll
// is on. It is called after every batch of arrivals.
func (s *State) Follow(v Visible) {
	if !s.autoscroll {
		s.Reconcile(v)
		return
	}
	if n := v.Len(); n > 0 {
		s.selected = v.SeqAt(n - 1)
		s.hasSel = true
		return
	}
	s.Reconcile(v)
}

// SetAutoscroll turns autoscroll on or off. Turning it on jumps to the newest
// visible entry.
func (s *State) SetAutoscroll(on bool, v Visible) {
	s.autoscroll = on
	if on {
		s.Follow(v)
	}
}

// Reset drops the selection and resumes following, as after a store clear.
func (s *State) Reset() {
	s.hasSel = false
	s.selected = 0
	s.autoscroll = true
	s.offsets[PanelLogs] = 0
	s.offsets[PanelDetails] = 0
}

// Up moves the selection n entries towards older entries.
func (s *State) Up(v Visible, n int) { s.move(v, -n) }

// Down moves the selection n entries towards newer entries.
func (s *State) Down(v Visible, n int) { s.move(v, n) }

// First selects the oldest visible entry.
func (s *State) First(v Visible) {
	if v.Len() == 0 {
		return
	}
	s.selectIndex(v, 0)
}

// Last selects the newest visible entry, which resumes autoscroll.
func (s *State) Last(v Visible) {
	if n := v.Len(); n > 0 {
		s.selectIndex(v, n-1)
	}
}

func (s *State) move(v Visible, delta int) {
	n := v.Len()
	if n == 0 {
		return
	}
	i, ok := s.Resolve(v)
	if !ok {
		s.selectIndex(v, n-1)
		return
	}
	i += delta
	if i < 0 {
		i = 0
	}
	if i > n-1 {
		i = n - 1
	}
	s.selectIndex(v, i)
}

func (s *State) selectIndex(v Visible, i int) {
	s.selected = v.SeqAt(i)
	s.hasSel = true
	s.autoscroll = i == v.Len()-1
}

// Detail returns the current detail level.
func (s *State) Detail() entry.DetailLevel { return s.detail }

// MaxDetail returns the highest detail level.
func (s *State) MaxDetail() entry.DetailLevel { return s.maxDetail }

// IncreaseDetail raises the detail level and reports whether it changed.
func (s *State) IncreaseDetail() bool {
	return s.setDetail(entry.IncrementDetail(s.detail, s.maxDetail))
}

// DecreaseDetail lowers the detail level and reports whether it changed.
func (s *State) DecreaseDetail() bool {
	return s.setDetail(entry.DecrementDetail(s.detail, s.maxDetail))
}

func (s *State) setDetail(level entry.DetailLevel) bool {
	if level == s.detail {
		return false
	}
	s.detail = level
	return true
}

// Focus returns the focused panel.
func (s *State) Focus() Focus { return s.focus }

// SetFocus changes focus. The selection is unaffected.
func (s *State) SetFocus(f Focus) {
	if f < FocusLogs || f > FocusNone {
		f = FocusNone
	}
	s.focus = f
}

// CycleFocus moves focus to the next panel, wrapping through None.
func (s *State) CycleFocus() {
	s.focus = (s.focus + 1) % (FocusNone + 1)
}

// Wrap reports whether long lines reflow to the panel width.
func (s *State) Wrap() bool { return s.wrap }

// SetWrap sets the wrap flag.
func (s *State) SetWrap(on bool) { s.wrap = on }

// ToggleWrap flips the wrap flag and returns the new value.
func (s *State) ToggleWrap() bool {
	s.wrap = !s.wrap
	return s.wrap
}

// Offset returns the vertical scroll offset of p.
func (s *State) Offset(p Panel) int { return s.offsets[p] }

// Scroll moves the vertical offset of p by delta, clamped to [0, max].
func (s *State) Scroll(p Panel, delta, max int) {
	s.offsets[p] = clamp(s.offsets[p]+delta, 0, max)
}

// ClampOffset bounds the vertical offset of p to [0, max].
func (s *State) ClampOffset(p Panel, max int) {
	s.offsets[p] = clamp(s.offsets[p], 0, max)
}

// HOffset returns the horizontal offset of p. It is always zero while
// wrapping.
func (s *State) HOffset(p Panel) int {
	if s.wrap {
		return 0
	}
	return s.hoffsets[p]
}

// ScrollHorizontal moves the horizontal offset of p by delta columns, clamped
// to [0, max]. It does nothing while wrapping.
func (s *State) ScrollHorizontal(p Panel, delta, max int) {
	if s.wrap {
		return
	}
	s.hoffsets[p] = clamp(s.hoffsets[p]+delta, 0, max)
}

// EnsureVisible adjusts the logs panel offset so the selection is on screen
// with ScrollPad rows of margin, for a panel of the given height. While
// following with nothing selected the newest rows are shown.
func (s *State) EnsureVisible(v Visible, height int) int {
	total := v.Len()
	if height <= 0 || total == 0 {
		s.offsets[PanelLogs] = 0
		return 0
	}
	maxOffset := max(total-height, 0)

	i, ok := s.Resolve(v)
	if !ok {
		if s.autoscroll {
			s.offsets[PanelLogs] = maxOffset
		}
		s.offsets[PanelLogs] = clamp(s.offsets[PanelLogs], 0, maxOffset)
		return s.offsets[PanelLogs]
	}

	pad := 0
	if height > 2 {
		pad = ScrollPad
	}
	offset := s.offsets[PanelLogs]
	switch {
	case i < offset+pad:
		offset = i - pad
	case i > offset+height-1-pad:
		offset = i + pad + 1 - height
	}
	s.offsets[PanelLogs] = clamp(offset, 0, maxOffset)
	return s.offsets[PanelLogs]
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
