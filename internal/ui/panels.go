package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/five82/contrail/internal/nav"
)

// innerRows is the content height of a bordered panel.
func innerRows(height int) int {
	return max(height-2, 0)
}

// innerCols is the content width of a bordered panel.
func innerCols(width int) int {
	return max(width-2, 0)
}

// panelBg returns the background helper for a focused or unfocused panel.
func (m Model) panelBg(focused bool) BgStyle {
	if focused {
		return NewBgStyle(m.theme.FocusBg)
	}
	return NewBgStyle(m.theme.Surface)
}

// renderBox draws a rounded border with the title set into the top edge.
// Content lines are cut or padded to fit.
func (m Model) renderBox(title string, lines []string, width, height int, focused bool) string {
	if width < 2 || height < 2 {
		return ""
	}
	inner := innerCols(width)
	rows := innerRows(height)

	borderColor := m.theme.Border
	if focused {
		borderColor = m.theme.BorderFocus
	}
	border := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := m.theme.Styles().MutedText
	if focused {
		titleStyle = m.theme.Styles().AccentText.Bold(true)
	}
	bg := m.panelBg(focused)

	var b strings.Builder

	// Top edge: ╭─ Title ───╮
	title = truncate(title, max(inner-4, 0))
	if title == "" || inner < 5 {
		b.WriteString(border.Render("╭" + strings.Repeat("─", inner) + "╮"))
	} else {
		fill := inner - ansi.StringWidth(title) - 3
		b.WriteString(border.Render("╭─ "))
		b.WriteString(titleStyle.Render(title))
		b.WriteString(border.Render(" " + strings.Repeat("─", max(fill, 0)) + "╮"))
	}
	b.WriteString("\n")

	side := border.Render("│")
	for i := 0; i < rows; i++ {
		line := ""
		if i < len(lines) {
			line = ansi.Truncate(lines[i], inner, "")
		}
		b.WriteString(side)
		b.WriteString(bg.FillLine(line, inner))
		b.WriteString(side)
		b.WriteString("\n")
	}

	b.WriteString(border.Render("╰" + strings.Repeat("─", inner) + "╯"))
	return b.String()
}

// panelView places already styled lines in a viewport scrolled to offset
// and returns its visible rows.
func panelView(lines []string, width, height, offset int) []string {
	vp := viewport.New(width, height)
	vp.SetContent(strings.Join(lines, "\n"))
	vp.SetYOffset(offset)
	return strings.Split(vp.View(), "\n")
}

// detailLines returns the rows of the Details panel for the selected entry,
// wrapped to the panel width when wrapping is on.
func (m Model) detailLines() []string {
	e, _, ok := m.viewer.Selected()
	if !ok {
		return nil
	}

	lines := []string{
		fmt.Sprintf("%-8s %d", "seq", e.Seq),
		fmt.Sprintf("%-8s %s", "time", e.Time),
		fmt.Sprintf("%-8s %s", "level", levelOf(e)),
		fmt.Sprintf("%-8s %s", "source", e.Source),
		fmt.Sprintf("%-8s %s", "id", e.ID),
	}
	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%-8s %s", k, e.Metadata[k]))
		}
	}
	lines = append(lines, "")
	for _, l := range strings.Split(e.Content, "\n") {
		lines = append(lines, sanitize(l))
	}
	if e.Raw != "" && e.Raw != e.Content {
		lines = append(lines, "", "raw")
		for _, l := range strings.Split(e.Raw, "\n") {
			lines = append(lines, sanitize(l))
		}
	}
	return m.fitLines(lines)
}

// debugLines returns the rows of the Debug panel, oldest first.
func (m Model) debugLines() []string {
	if m.sink == nil {
		return nil
	}
	raw := m.sink.Lines()
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = sanitize(l)
	}
	return m.fitLines(lines)
}

// fitLines wraps lines to the panel width when wrapping is on.
func (m Model) fitLines(lines []string) []string {
	if !m.viewer.Nav().Wrap() {
		return lines
	}
	width := innerCols(m.width)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, wrapLines(l, width)...)
	}
	return out
}

// renderDetails renders the Details panel.
func (m Model) renderDetails(height int, focused bool) string {
	title := "Details"
	if e, _, ok := m.viewer.Selected(); ok {
		title = fmt.Sprintf("Details #%d", e.Seq)
	}
	empty := "No entry selected"
	return m.renderScrollPanel(title, m.detailLines(), empty, nav.PanelDetails, height, focused, false)
}

// renderDebug renders the Debug panel of internal log lines.
func (m Model) renderDebug(height int, focused bool) string {
	empty := "No debug output"
	if m.sink == nil {
		empty = "Debug log unavailable"
	}
	return m.renderScrollPanel("Debug", m.debugLines(), empty, nav.PanelDebug, height, focused, true)
}

// renderScrollPanel renders a secondary panel. fromBottom panels keep the
// newest line in view and count the offset back from the end.
func (m Model) renderScrollPanel(title string, lines []string, empty string, panel nav.Panel, height int, focused, fromBottom bool) string {
	bg := m.panelBg(focused)
	styles := m.theme.Styles()
	width := innerCols(m.width)
	rows := innerRows(height)

	if len(lines) == 0 {
		return m.renderBox(title, []string{bg.Render(empty, styles.MutedText)}, m.width, height, focused)
	}

	n := m.viewer.Nav()
	hoff := n.HOffset(panel)
	styled := make([]string, len(lines))
	for i, l := range lines {
		styled[i] = bg.FillLine(bg.Render(columns(l, hoff, width), styles.Text), width)
	}

	offset := n.Offset(panel)
	if fromBottom {
		offset = max(len(lines)-rows-offset, 0)
	}
	return m.renderBox(title, panelView(styled, width, rows, offset), m.width, height, focused)
}
