package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/five82/contrail/internal/viewer"
)

// renderHeader renders the top line: name, format, source health and the
// newest persistent warning.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth
	sep := bg.Spaces(2)

	parts := []string{bg.Render("contrail", styles.Logo)}
	if named, ok := m.viewer.Interpreter().(interface{ Name() string }); ok && !compact {
		parts = append(parts, bg.Render(named.Name(), styles.FaintText))
	}

	for _, h := range m.viewer.Health() {
		parts = append(parts, m.formatHealth(h, compact, styles, bg))
	}

	if warnings := m.viewer.Warnings(); len(warnings) > 0 {
		last := warnings[len(warnings)-1]
		if len(warnings) > 1 {
			last = fmt.Sprintf("%s (+%d)", last, len(warnings)-1)
		}
		parts = append(parts, bg.Render("! "+last, styles.DangerText))
	}

	content := ansi.Truncate(strings.Join(parts, sep), max(m.width-2, 0), "…")
	return styles.Header.Width(m.width).Render(content)
}

// formatHealth renders one source as "name status", adding the failure
// count and last error while it is failing, and the error it ended with.
func (m Model) formatHealth(h viewer.Health, compact bool, styles Styles, bg BgStyle) string {
	status := h.Status()
	badge := styles.StatusStyle(status).Render(status)
	name := bg.Render(truncate(h.Name, 24), styles.Text)

	out := name + bg.Space() + badge
	if compact {
		return out
	}
	switch {
	case (h.Failed || h.Done) && h.LastError != nil:
		out += bg.Space() + bg.Render(truncate(h.LastError.Error(), 40), styles.DangerText)
	case h.ConsecutiveFailures > 0 && h.LastError != nil:
		msg := fmt.Sprintf("%dx %s", h.ConsecutiveFailures, truncate(h.LastError.Error(), 32))
		out += bg.Space() + bg.Render(msg, styles.WarningText)
	}
	return out
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }

	followLabel := "Pause"
	if !m.viewer.Autoscroll() {
		followLabel = "Follow"
	}
	wrapLabel := "Wrap"
	if m.viewer.Nav().Wrap() {
		wrapLabel = "Unwrap"
	}
	debugLabel := "Debug"
	if m.showDebug {
		debugLabel = "Hide debug"
	}

	commands := []cmd{
		{"Space", followLabel},
		{"/", "Filter"},
		{"[ ]", "Detail"},
		{"w", wrapLabel},
		{"y/Y", "Copy"},
		{"c", "Clear"},
		{"b", debugLabel},
		{"Tab", "Focus"},
		{"?", "More"},
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	// Active filter pattern
	if m.viewer.FilterActive() {
		pattern := truncate(m.viewer.FilterText(), 18)
		segments = append(segments, bg.Render("/"+pattern, styles.AccentText))
	}

	// Theme indicator
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	content := ansi.Truncate(strings.Join(segments, sep), max(m.width-2, 0), "")
	return styles.Header.Width(m.width).Render(content)
}
