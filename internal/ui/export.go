package ui

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// copySelected copies the export text of the selected entry.
func (m *Model) copySelected() tea.Cmd {
	text, ok := m.viewer.ExportSelected()
	if !ok {
		return m.setEvent("Nothing to copy", true)
	}
	return m.copyText(text, 1)
}

// copyVisible copies the export text of every visible entry.
func (m *Model) copyVisible() tea.Cmd {
	text, n := m.viewer.ExportVisible()
	if n == 0 {
		return m.setEvent("Nothing to copy", true)
	}
	return m.copyText(text, n)
}

func (m *Model) copyText(text string, n int) tea.Cmd {
	if err := writeClipboard(text); err != nil {
		m.logger.Warn("clipboard write failed", zap.Int("entries", n), zap.Error(err))
		return m.setEvent("Copy failed: "+err.Error(), true)
	}
	return m.setEvent("Copied "+plural(n, "entry", "entries"), false)
}
