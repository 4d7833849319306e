package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/five82/contrail/internal/entry"
	"github.com/five82/contrail/internal/nav"
)

// Rows scrolled by one mouse wheel notch.
const wheelStep = 3

// logRow is one rendered row of the logs panel.
type logRow struct {
	gutter   string
	text     string
	level    string
	selected bool
}

// renderLogs renders the logs panel of the given height, borders included.
func (m Model) renderLogs(height int, focused bool) string {
	rows := innerRows(height)
	lines := m.logLines(rows, focused)
	return m.renderBox(m.logsTitle(), lines, m.width, height, focused)
}

// logsTitle returns the plain text title for the logs panel.
func (m Model) logsTitle() string {
	stats := m.viewer.Stats()
	title := fmt.Sprintf("Logs %d", stats.Visible)
	if m.viewer.FilterActive() {
		title = fmt.Sprintf("Logs %d/%d (filtered)", stats.Visible, stats.Resident)
	}
	return title
}

// logLines renders the visible window of the logs panel.
func (m Model) logLines(rows int, focused bool) []string {
	bg := m.panelBg(focused)
	styles := m.theme.Styles()
	width := innerCols(m.width)

	if m.viewer.Len() == 0 {
		msg := "Waiting for entries..."
		if m.viewer.FilterActive() {
			msg = "No entries match /" + m.viewer.FilterText()
		}
		return []string{bg.FillLine(bg.Render(msg, styles.MutedText), width)}
	}

	out := make([]string, 0, rows)
	for _, row := range m.logWindow(rows, width) {
		if row.selected {
			out = append(out, styles.Selected.Width(width).Render(row.gutter+row.text))
			continue
		}
		line := bg.Render(row.gutter, styles.FaintText) + bg.Render(row.text, styles.LevelStyle(row.level))
		out = append(out, bg.FillLine(line, width))
	}
	return out
}

// logWindow lays out the entries from the settled offset. While wrapping an
// entry may take several rows; the window then starts late enough that the
// selected entry is fully shown.
func (m Model) logWindow(rows, width int) []logRow {
	if rows <= 0 {
		return nil
	}
	v := m.viewer
	n := v.Nav()
	total := v.Len()
	_, selIdx, hasSel := v.Selected()

	gw := gutterWidth(v.At(total - 1).Seq)
	textWidth := max(width-gw-3, 1)
	hoff := n.HOffset(nav.PanelLogs)

	build := func(i int) []logRow {
		e := v.At(i)
		text := sanitize(v.Preview(e))
		gutter := fmt.Sprintf("%*d │ ", gw, e.Seq)
		selected := hasSel && i == selIdx
		if !n.Wrap() {
			return []logRow{{gutter: gutter, text: padRight(columns(text, hoff, textWidth), textWidth), level: e.Level, selected: selected}}
		}
		parts := wrapLines(text, textWidth)
		out := make([]logRow, len(parts))
		blank := strings.Repeat(" ", gw) + " │ "
		for j, p := range parts {
			g := gutter
			if j > 0 {
				g = blank
			}
			out[j] = logRow{gutter: g, text: padRight(p, textWidth), level: e.Level, selected: selected}
		}
		return out
	}

	start := n.Offset(nav.PanelLogs)
	if n.Wrap() && hasSel && selIdx >= start {
		// Advance the start until the selected entry ends inside the window.
		used := 0
		for i := selIdx; i >= start; i-- {
			used += len(build(i))
			if used > rows {
				start = i + 1
				break
			}
		}
		start = min(start, selIdx)
	}

	out := make([]logRow, 0, rows)
	for i := start; i < total && len(out) < rows; i++ {
		out = append(out, build(i)...)
	}
	if len(out) > rows {
		out = out[:rows]
	}
	return out
}

// gutterWidth is the width of the sequence number column.
func gutterWidth(newest uint64) int {
	return max(len(strconv.FormatUint(newest, 10)), 4)
}

// handleMoveKey applies movement keys to the focused panel. With the logs
// panel or nothing focused, movement changes the selection.
func (m *Model) handleMoveKey(msg tea.KeyMsg) {
	l := computeLayout(m.height, m.showDebug)
	n := m.viewer.Nav()

	panel, ok := n.Focus().Panel()
	if !ok {
		panel = nav.PanelLogs
	}

	var page int
	switch panel {
	case nav.PanelDetails:
		page = innerRows(l.details)
	case nav.PanelDebug:
		page = innerRows(l.debug)
	default:
		page = innerRows(l.logs)
	}
	page = max(page, 1)
	half := max(page/2, 1)

	switch {
	case key.Matches(msg, m.keys.Up):
		m.scroll(panel, -1)
	case key.Matches(msg, m.keys.Down):
		m.scroll(panel, 1)
	case key.Matches(msg, m.keys.PageUp):
		m.scroll(panel, -page)
	case key.Matches(msg, m.keys.PageDown):
		m.scroll(panel, page)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.scroll(panel, -half)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.scroll(panel, half)
	case key.Matches(msg, m.keys.Top):
		if panel == nav.PanelLogs {
			m.viewer.First()
		} else {
			m.scroll(panel, -m.panelLen(panel))
		}
	case key.Matches(msg, m.keys.Bottom):
		if panel == nav.PanelLogs {
			m.viewer.Last()
		} else {
			m.scroll(panel, m.panelLen(panel))
		}
	case key.Matches(msg, m.keys.Left):
		n.ScrollHorizontal(panel, -nav.HorizontalStep, m.maxHOffset(panel))
	case key.Matches(msg, m.keys.Right):
		n.ScrollHorizontal(panel, nav.HorizontalStep, m.maxHOffset(panel))
	}
}

// scroll moves the selection, or the offset of a secondary panel, by delta
// rows. Positive deltas move towards newer entries and the end of a panel.
func (m *Model) scroll(panel nav.Panel, delta int) {
	n := m.viewer.Nav()
	switch panel {
	case nav.PanelLogs:
		if delta < 0 {
			m.viewer.Up(-delta)
		} else {
			m.viewer.Down(delta)
		}
	case nav.PanelDetails:
		n.Scroll(panel, delta, m.panelLen(panel))
	case nav.PanelDebug:
		// The debug offset counts rows back from the newest line.
		n.Scroll(panel, -delta, m.panelLen(panel))
	}
}

// panelLen returns the number of content rows of a secondary panel.
func (m Model) panelLen(panel nav.Panel) int {
	switch panel {
	case nav.PanelDetails:
		return len(m.detailLines())
	case nav.PanelDebug:
		return len(m.debugLines())
	default:
		return m.viewer.Len()
	}
}

// maxHOffset is the furthest horizontal offset that still shows text in
// the panel's current window.
func (m Model) maxHOffset(panel nav.Panel) int {
	width := innerCols(m.width)
	var lines []string
	switch panel {
	case nav.PanelDetails:
		lines = m.detailLines()
	case nav.PanelDebug:
		lines = m.debugLines()
	default:
		lines = m.windowPreviews(innerRows(computeLayout(m.height, m.showDebug).logs))
		if n := m.viewer.Len(); n > 0 {
			width -= gutterWidth(m.viewer.At(n-1).Seq) + 3
		}
	}
	longest := 0
	for _, line := range lines {
		longest = max(longest, ansi.StringWidth(line))
	}
	return max(longest-width, 0)
}

// windowPreviews returns the previews of the entries in the logs window.
func (m Model) windowPreviews(rows int) []string {
	v := m.viewer
	start := v.Nav().Offset(nav.PanelLogs)
	end := min(start+rows, v.Len())
	out := make([]string, 0, max(end-start, 0))
	for i := start; i < end; i++ {
		out = append(out, sanitize(v.Preview(v.At(i))))
	}
	return out
}

// handleMouse scrolls with the wheel and selects the clicked row of the
// logs panel.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.showHelp || m.filtering {
		return
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewer.Up(wheelStep)
	case tea.MouseButtonWheelDown:
		m.viewer.Down(wheelStep)
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress || m.viewer.Nav().Wrap() {
			return
		}
		l := computeLayout(m.height, m.showDebug)
		// Two header rows and the top border precede the first log row.
		row := msg.Y - 3
		if row < 0 || row >= innerRows(l.logs) {
			return
		}
		target := m.viewer.Nav().Offset(nav.PanelLogs) + row
		if target >= m.viewer.Len() {
			return
		}
		m.selectIndex(target)
		m.viewer.Nav().SetFocus(nav.FocusLogs)
	}
}

// selectIndex moves the selection to visible position i.
func (m *Model) selectIndex(i int) {
	_, cur, ok := m.viewer.Selected()
	if !ok {
		m.viewer.Last()
		_, cur, _ = m.viewer.Selected()
	}
	switch {
	case i < cur:
		m.viewer.Up(cur - i)
	case i > cur:
		m.viewer.Down(i - cur)
	}
}

// levelOf is the level label shown for e.
func levelOf(e entry.Entry) string {
	if e.Level == "" {
		return "-"
	}
	return e.Level
}
