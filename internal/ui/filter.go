package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// openFilter opens the filter prompt seeded with the active pattern.
func (m *Model) openFilter() tea.Cmd {
	m.filtering = true
	m.filterBefore = m.viewer.FilterText()
	m.filterInput.SetValue(m.filterBefore)
	m.filterInput.CursorEnd()
	return tea.Batch(m.filterInput.Focus(), textinput.Blink)
}

// closeFilter hides the prompt without touching the active pattern.
func (m *Model) closeFilter() {
	m.filtering = false
	m.filterInput.Blur()
}

// handleFilterKey handles keyboard input while the prompt is open. Every
// edit is applied immediately; a pattern that does not compile leaves the
// previous one active and is reported in the status bar.
func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return tea.Quit

	case key.Matches(msg, m.keys.Confirm):
		m.closeFilter()
		return nil

	case key.Matches(msg, m.keys.Escape):
		m.closeFilter()
		if m.filterBefore == "" {
			m.viewer.ClearFilter()
			return nil
		}
		if err := m.viewer.SetFilter(m.filterBefore); err != nil {
			m.logger.Warn("restore filter failed", zap.String("pattern", m.filterBefore), zap.Error(err))
		}
		return nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)

	value := m.filterInput.Value()
	if value == m.viewer.FilterText() {
		return cmd
	}
	if err := m.viewer.SetFilter(value); err != nil {
		return tea.Batch(cmd, m.setEvent("Filter error: "+err.Error(), true))
	}
	return cmd
}
