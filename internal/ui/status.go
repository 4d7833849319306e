package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// statusEvent is a short-lived message shown at the right of the status bar.
type statusEvent struct {
	id      int
	text    string
	isError bool
	until   time.Time
}

type eventExpiredMsg struct{ id int }

// setEvent shows text for StatusEventTTL and returns the command that
// clears it. A newer event replaces an older one.
func (m *Model) setEvent(text string, isError bool) tea.Cmd {
	m.eventSeq++
	id := m.eventSeq
	m.event = statusEvent{id: id, text: text, isError: isError, until: m.now().Add(StatusEventTTL)}
	return tea.Tick(StatusEventTTL, func(time.Time) tea.Msg {
		return eventExpiredMsg{id: id}
	})
}

// activeEvent returns the current event, if it has not expired.
func (m Model) activeEvent() (statusEvent, bool) {
	if m.event.text == "" || !m.now().Before(m.event.until) {
		return statusEvent{}, false
	}
	return m.event, true
}

// renderStatus renders the bottom line: the filter prompt while it is open,
// otherwise the viewer state and any display event.
func (m Model) renderStatus() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)
	line := lineStyle(m.theme.Background, m.width)

	if m.filtering {
		return line.Render(m.filterInput.View())
	}

	v := m.viewer
	stats := v.Stats()
	compact := m.width < LayoutCompactWidth

	var parts []string
	if v.Autoscroll() {
		parts = append(parts, bg.Render("FOLLOW", styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("PAUSED", styles.WarningText))
	}

	if e, i, ok := v.Selected(); ok {
		parts = append(parts, bg.Render(fmt.Sprintf("#%d %d/%d", e.Seq, i+1, v.Len()), styles.Text))
	} else {
		parts = append(parts, bg.Render(fmt.Sprintf("%d visible", v.Len()), styles.Text))
	}

	if !compact {
		parts = append(parts, bg.Render(fmt.Sprintf("%d/%d buffered", stats.Resident, stats.Capacity), styles.MutedText))
		if stats.Evicted > 0 {
			parts = append(parts, bg.Render(fmt.Sprintf("%d evicted", stats.Evicted), styles.FaintText))
		}
	}

	if v.FilterActive() {
		parts = append(parts, bg.Render("filter /"+truncate(v.FilterText(), 24), styles.AccentText))
	}

	n := v.Nav()
	parts = append(parts, bg.Render(fmt.Sprintf("detail %d/%d", v.Detail(), n.MaxDetail()), styles.MutedText))
	if n.Wrap() {
		parts = append(parts, bg.Render("wrap", styles.MutedText))
	}
	if !compact {
		parts = append(parts, bg.Render("focus "+n.Focus().String(), styles.FaintText))
	}

	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	left := strings.Join(parts, sep)

	if ev, ok := m.activeEvent(); ok {
		style := styles.SuccessText
		if ev.isError {
			style = styles.DangerText
		}
		right := bg.Render(ev.text, style)
		gap := m.width - ansi.StringWidth(left) - ansi.StringWidth(right)
		if gap < 2 {
			// The event wins over the state summary on narrow screens.
			return line.Render(ansi.Truncate(right, m.width, "…"))
		}
		return line.Render(left + bg.Spaces(gap) + right)
	}

	return line.Render(ansi.Truncate(left, m.width, "…"))
}
