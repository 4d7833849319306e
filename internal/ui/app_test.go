package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/contrail/internal/entry"
	"github.com/five82/contrail/internal/ingest"
	"github.com/five82/contrail/internal/interp"
	"github.com/five82/contrail/internal/logging"
	"github.com/five82/contrail/internal/nav"
	"github.com/five82/contrail/internal/prefs"
	"github.com/five82/contrail/internal/viewer"
)

type testHarness struct {
	m         Model
	ch        chan ingest.Message
	prefsPath string
	sink      *logging.Sink
}

func newTestHarness(t *testing.T, lines ...string) *testHarness {
	t.Helper()
	v, err := viewer.New(interp.Text(), viewer.Options{Capacity: 100})
	if err != nil {
		t.Fatalf("viewer.New: %v", err)
	}
	h := &testHarness{
		ch:        make(chan ingest.Message, 16),
		prefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		sink:      logging.NewSink(64),
	}
	v.Attach(h.ch, func() bool { return false })
	h.send(lines...)
	v.Drain()

	h.m = New(Options{
		Viewer:    v,
		Sink:      h.sink,
		PrefsPath: h.prefsPath,
		Prefs:     prefs.Prefs{Theme: "Nightfox"},
	})
	h.update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

func (h *testHarness) send(lines ...string) {
	if len(lines) == 0 {
		return
	}
	entries := make([]entry.Entry, 0, len(lines))
	for _, l := range lines {
		e, ok := interp.Text().Parse(l)
		if ok {
			e.Source = "app"
			entries = append(entries, e)
		}
	}
	h.ch <- ingest.Message{Source: "app", Kind: ingest.KindRecords, Entries: entries}
}

func (h *testHarness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *testHarness) press(keys ...string) {
	for _, k := range keys {
		h.update(keyMsg(k))
	}
}

func (h *testHarness) typeText(s string) {
	for _, r := range s {
		h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *testHarness) selected(t *testing.T) string {
	t.Helper()
	e, _, ok := h.m.viewer.Selected()
	if !ok {
		t.Fatalf("no selection")
	}
	return e.Content
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func stubClipboard(t *testing.T, err error) *string {
	t.Helper()
	var got string
	prev := writeClipboard
	writeClipboard = func(text string) error {
		got = text
		return err
	}
	t.Cleanup(func() { writeClipboard = prev })
	return &got
}

func TestFilterPromptAppliesLiveAndEscRestores(t *testing.T) {
	h := newTestHarness(t, "connect ok", "retry", "connect failed")

	h.press("/")
	if !h.m.filtering {
		t.Fatalf("filtering = false after /")
	}
	h.typeText("co")
	if got := h.m.viewer.Len(); got != 2 {
		t.Fatalf("Len = %d while typing, want 2", got)
	}

	h.press("esc")
	if h.m.filtering {
		t.Fatalf("filtering = true after esc")
	}
	if h.m.viewer.FilterActive() || h.m.viewer.Len() != 3 {
		t.Fatalf("filter %q with %d visible, want none and 3", h.m.viewer.FilterText(), h.m.viewer.Len())
	}
}

func TestFilterPromptEnterKeepsAndEscClears(t *testing.T) {
	h := newTestHarness(t, "connect ok", "retry", "connect failed")

	h.press("/")
	h.typeText("retry")
	h.press("enter")
	if h.m.filtering {
		t.Fatalf("filtering = true after enter")
	}
	if got := h.m.viewer.FilterText(); got != "retry" {
		t.Fatalf("FilterText = %q, want retry", got)
	}

	// Reopening and escaping restores the kept pattern.
	h.press("/")
	h.typeText("x")
	h.press("esc")
	if got := h.m.viewer.FilterText(); got != "retry" {
		t.Fatalf("FilterText after esc = %q, want retry", got)
	}

	// Outside the prompt esc clears the filter.
	h.press("esc")
	if h.m.viewer.FilterActive() {
		t.Fatalf("filter still active after esc")
	}
}

func TestFilterErrorKeepsPreviousPattern(t *testing.T) {
	h := newTestHarness(t, "a(1", "b")

	h.press("/")
	h.typeText("/a(/")
	if got := h.m.viewer.FilterText(); got != "/a(" {
		t.Fatalf("FilterText = %q, want the last valid pattern /a(", got)
	}
	ev, ok := h.m.activeEvent()
	if !ok || !ev.isError || !strings.HasPrefix(ev.text, "Filter error: ") {
		t.Fatalf("event = %+v, want a filter error", ev)
	}
}

func TestClearShowsEvent(t *testing.T) {
	h := newTestHarness(t, "a", "b", "c")

	cmd := h.update(keyMsg("c"))
	if cmd == nil {
		t.Fatalf("clear returned nil cmd, want expiry tick")
	}
	if got := h.m.viewer.Len(); got != 0 {
		t.Fatalf("Len = %d after clear, want 0", got)
	}
	ev, ok := h.m.activeEvent()
	if !ok || ev.text != "Cleared 3 entries" {
		t.Fatalf("event = %+v, want Cleared 3 entries", ev)
	}
}

func TestCopySelectedAndVisible(t *testing.T) {
	got := stubClipboard(t, nil)
	h := newTestHarness(t, "one", "two")

	h.press("y")
	want, _ := h.m.viewer.ExportSelected()
	if *got != want {
		t.Fatalf("clipboard = %q, want %q", *got, want)
	}
	if ev, _ := h.m.activeEvent(); ev.text != "Copied 1 entry" {
		t.Fatalf("event = %q, want Copied 1 entry", ev.text)
	}

	h.press("Y")
	if lines := strings.Split(*got, "\n"); len(lines) != 2 {
		t.Fatalf("clipboard has %d lines, want 2", len(lines))
	}
	if ev, _ := h.m.activeEvent(); ev.text != "Copied 2 entries" {
		t.Fatalf("event = %q, want Copied 2 entries", ev.text)
	}
}

func TestCopyFailureIsReported(t *testing.T) {
	stubClipboard(t, errors.New("no clipboard"))
	h := newTestHarness(t, "one")

	h.press("y")
	ev, ok := h.m.activeEvent()
	if !ok || !ev.isError || !strings.Contains(ev.text, "no clipboard") {
		t.Fatalf("event = %+v, want copy failure", ev)
	}
}

func TestCopyWithNothingVisible(t *testing.T) {
	got := stubClipboard(t, nil)
	h := newTestHarness(t)

	h.press("y")
	if *got != "" {
		t.Fatalf("clipboard written with %q, want nothing", *got)
	}
	if ev, _ := h.m.activeEvent(); ev.text != "Nothing to copy" {
		t.Fatalf("event = %q, want Nothing to copy", ev.text)
	}
}

func TestEventExpires(t *testing.T) {
	stubClipboard(t, nil)
	h := newTestHarness(t, "one")
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	h.m.now = func() time.Time { return now }

	h.press("y")
	if _, ok := h.m.activeEvent(); !ok {
		t.Fatalf("event not active right after copy")
	}

	now = now.Add(StatusEventTTL + time.Millisecond)
	if _, ok := h.m.activeEvent(); ok {
		t.Fatalf("event still active after %v", StatusEventTTL)
	}

	// A stale expiry does not clear a newer event.
	h.press("y")
	h.update(eventExpiredMsg{id: h.m.event.id - 1})
	if h.m.event.text == "" {
		t.Fatalf("stale expiry cleared the current event")
	}
	h.update(eventExpiredMsg{id: h.m.event.id})
	if h.m.event.text != "" {
		t.Fatalf("event = %q after expiry, want empty", h.m.event.text)
	}
}

func TestMovementAndAutoscroll(t *testing.T) {
	h := newTestHarness(t, "1", "2", "3", "4")

	if !h.m.viewer.Autoscroll() || h.selected(t) != "4" {
		t.Fatalf("want autoscroll on the newest entry")
	}
	h.press("k")
	if h.selected(t) != "3" || h.m.viewer.Autoscroll() {
		t.Fatalf("after k: selected %q autoscroll %v", h.selected(t), h.m.viewer.Autoscroll())
	}

	h.send("5")
	h.update(drainMsg(time.Now()))
	if h.selected(t) != "3" {
		t.Fatalf("selection moved to %q while autoscroll was suspended", h.selected(t))
	}

	h.press("g")
	if h.selected(t) != "1" {
		t.Fatalf("after g: selected %q, want 1", h.selected(t))
	}
	h.press("G")
	if h.selected(t) != "5" || !h.m.viewer.Autoscroll() {
		t.Fatalf("after G: selected %q autoscroll %v", h.selected(t), h.m.viewer.Autoscroll())
	}

	h.press("space")
	if h.m.viewer.Autoscroll() {
		t.Fatalf("space did not pause autoscroll")
	}
	h.press("d")
	if !h.m.viewer.Autoscroll() {
		t.Fatalf("d did not resume autoscroll")
	}
}

func TestDrainTickIngestsAndReschedules(t *testing.T) {
	h := newTestHarness(t, "a")
	h.send("b", "c")

	cmd := h.update(drainMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("drain returned nil cmd, want next tick")
	}
	if got := h.m.viewer.Len(); got != 3 {
		t.Fatalf("Len = %d after drain, want 3", got)
	}
	if h.selected(t) != "c" {
		t.Fatalf("selected %q, want c", h.selected(t))
	}
}

func TestDetailKeysPersistPrefs(t *testing.T) {
	h := newTestHarness(t, "2024-05-01 10:00:00 WARN disk low")

	h.press("]")
	if got := h.m.viewer.Detail(); got != 1 {
		t.Fatalf("Detail = %d, want 1", got)
	}
	p, err := prefs.Load(h.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if p.Detail == nil || *p.Detail != 1 {
		t.Fatalf("saved Detail = %v, want 1", p.Detail)
	}

	h.press("[", "[")
	if got := h.m.viewer.Detail(); got != 0 {
		t.Fatalf("Detail = %d, want 0", got)
	}
}

func TestWrapDisablesHorizontalScroll(t *testing.T) {
	h := newTestHarness(t, strings.Repeat("x", 300))
	n := h.m.viewer.Nav()

	h.press("l", "l")
	if got := n.HOffset(nav.PanelLogs); got != 2*nav.HorizontalStep {
		t.Fatalf("HOffset = %d, want %d", got, 2*nav.HorizontalStep)
	}
	h.press("h")
	if got := n.HOffset(nav.PanelLogs); got != nav.HorizontalStep {
		t.Fatalf("HOffset = %d, want %d", got, nav.HorizontalStep)
	}

	h.press("w")
	if !n.Wrap() {
		t.Fatalf("wrap not enabled")
	}
	if got := n.HOffset(nav.PanelLogs); got != 0 {
		t.Fatalf("HOffset = %d while wrapping, want 0", got)
	}
	h.press("l")
	if got := n.HOffset(nav.PanelLogs); got != 0 {
		t.Fatalf("HOffset = %d after l while wrapping, want 0", got)
	}

	p, _ := prefs.Load(h.prefsPath)
	if p.Wrap == nil || !*p.Wrap {
		t.Fatalf("saved Wrap = %v, want true", p.Wrap)
	}
}

func TestHorizontalScrollStopsAtLongestLine(t *testing.T) {
	h := newTestHarness(t, "short")
	h.press("l")
	if got := h.m.viewer.Nav().HOffset(nav.PanelLogs); got != 0 {
		t.Fatalf("HOffset = %d for a short line, want 0", got)
	}
}

func TestFocusKeys(t *testing.T) {
	h := newTestHarness(t, "a", "b", "c")
	n := h.m.viewer.Nav()

	h.press("2")
	if n.Focus() != nav.FocusDetails {
		t.Fatalf("Focus = %v, want Details", n.Focus())
	}
	h.press("k")
	if h.selected(t) != "c" {
		t.Fatalf("k with Details focused moved the selection to %q", h.selected(t))
	}

	h.press("3")
	if n.Focus() != nav.FocusDebug || !h.m.showDebug {
		t.Fatalf("3 should show and focus the debug panel")
	}
	h.press("b")
	if h.m.showDebug || n.Focus() != nav.FocusLogs {
		t.Fatalf("b should hide debug and return focus to Logs, got %v", n.Focus())
	}

	// Tab skips the hidden debug panel.
	h.press("tab", "tab")
	if n.Focus() != nav.FocusNone {
		t.Fatalf("Focus = %v after two tabs, want None", n.Focus())
	}
	h.press("k")
	if h.selected(t) != "b" {
		t.Fatalf("k with no focus should move the selection, got %q", h.selected(t))
	}
	h.press("0", "1")
	if n.Focus() != nav.FocusLogs {
		t.Fatalf("Focus = %v, want Logs", n.Focus())
	}
}

func TestDebugPanelScrollsBackFromNewest(t *testing.T) {
	h := newTestHarness(t, "a")
	for i := 0; i < 30; i++ {
		_, _ = h.sink.Write([]byte("debug line\n"))
	}
	n := h.m.viewer.Nav()

	h.press("3", "k", "k")
	if got := n.Offset(nav.PanelDebug); got != 2 {
		t.Fatalf("debug offset = %d, want 2", got)
	}
	h.press("G")
	if got := n.Offset(nav.PanelDebug); got != 0 {
		t.Fatalf("debug offset = %d after G, want 0", got)
	}
}

func TestThemeCycleSaves(t *testing.T) {
	h := newTestHarness(t)

	h.press("T")
	if h.m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", h.m.theme.Name)
	}
	p, _ := prefs.Load(h.prefsPath)
	if p.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", p.Theme)
	}
}

func TestMouseClickSelectsRow(t *testing.T) {
	h := newTestHarness(t, "a", "b", "c")

	h.update(tea.MouseMsg{X: 10, Y: 3, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if h.selected(t) != "a" {
		t.Fatalf("selected %q after clicking the first row, want a", h.selected(t))
	}
	h.update(tea.MouseMsg{Button: tea.MouseButtonWheelDown})
	if h.selected(t) != "c" {
		t.Fatalf("selected %q after wheel down, want c", h.selected(t))
	}
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		h := newTestHarness(t)
		cmd := h.update(keyMsg(k))
		if cmd == nil {
			t.Fatalf("%s returned nil cmd", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s did not quit", k)
		}
	}
}

func TestTypingQInPromptDoesNotQuit(t *testing.T) {
	h := newTestHarness(t, "quit")
	h.press("/")
	h.typeText("q")
	if !h.m.filtering || h.m.viewer.FilterText() != "q" {
		t.Fatalf("q in the prompt should edit the filter, got %q", h.m.viewer.FilterText())
	}
}

func TestViewRendersPanels(t *testing.T) {
	h := newTestHarness(t, "hello world")
	out := h.m.View()
	for _, want := range []string{"contrail", "Logs 1", "hello world", "Details #1", "FOLLOW"} {
		if !strings.Contains(out, want) {
			t.Fatalf("View missing %q", want)
		}
	}
	if strings.Contains(out, "╭─ Debug") {
		t.Fatalf("debug panel drawn while hidden")
	}

	h.press("?")
	if !strings.Contains(h.m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	h.press("x")
	if h.m.showHelp {
		t.Fatalf("any key should close help")
	}
}

func TestViewBeforeResize(t *testing.T) {
	v, err := viewer.New(interp.Plain(), viewer.Options{Capacity: 10})
	if err != nil {
		t.Fatalf("viewer.New: %v", err)
	}
	m := New(Options{Viewer: v})
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View = %q, want Loading...", got)
	}
}

func TestComputeLayout(t *testing.T) {
	tests := []struct {
		name      string
		height    int
		showDebug bool
		want      layout
	}{
		{"tall", 40, false, layout{logs: 25, details: 12}},
		{"tall with debug", 40, true, layout{logs: 16, details: 12, debug: 9}},
		{"short drops details", 12, false, layout{logs: 9}},
		{"short with debug keeps debug", 13, true, layout{logs: 6, debug: 4}},
		{"tiny", 4, false, layout{logs: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeLayout(tt.height, tt.showDebug); got != tt.want {
				t.Fatalf("computeLayout(%d, %v) = %+v, want %+v", tt.height, tt.showDebug, got, tt.want)
			}
		})
	}
}

func TestFPS(t *testing.T) {
	if got := fps(16 * time.Millisecond); got != 62 {
		t.Fatalf("fps(16ms) = %d, want 62", got)
	}
	if got := fps(0); got != 62 {
		t.Fatalf("fps(0) = %d, want 62", got)
	}
	if got := fps(time.Millisecond); got != 120 {
		t.Fatalf("fps(1ms) = %d, want 120", got)
	}
}

func TestHeaderShowsWhySourceEnded(t *testing.T) {
	h := newTestHarness(t, "last words")
	h.ch <- ingest.Message{Source: "app", Kind: ingest.KindPollError, Err: errors.New("command exited: exit status 3")}
	h.ch <- ingest.Message{Source: "app", Kind: ingest.KindDone}
	h.update(drainMsg(time.Now()))

	header := h.m.renderHeader()
	for _, want := range []string{"app", "done", "exit status 3"} {
		if !strings.Contains(header, want) {
			t.Fatalf("header %q missing %q", header, want)
		}
	}
}
