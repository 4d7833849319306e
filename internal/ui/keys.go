package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// Focus
	Tab          key.Binding
	FocusLogs    key.Binding
	FocusDetails key.Binding
	FocusDebug   key.Binding
	FocusNone    key.Binding
	ToggleDebug  key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding
	Right        key.Binding
	Top          key.Binding
	Bottom       key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Logs actions
	ToggleFollow key.Binding
	Filter       key.Binding
	DetailLess   key.Binding
	DetailMore   key.Binding
	ToggleWrap   key.Binding
	Clear        key.Binding
	CopySelected key.Binding
	CopyVisible  key.Binding

	// Filter prompt
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Clear filter"),
		),

		// Focus
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle focus"),
		),
		FocusLogs: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Focus logs"),
		),
		FocusDetails: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Focus details"),
		),
		FocusDebug: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Focus debug"),
		),
		FocusNone: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "Unfocus"),
		),
		ToggleDebug: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Toggle debug panel"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Scroll left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Scroll right"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to first"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end", "d"),
			key.WithHelp("G/d", "Go to newest"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		// Logs actions
		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Toggle autoscroll"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Filter"),
		),
		DetailLess: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Less detail"),
		),
		DetailMore: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "More detail"),
		),
		ToggleWrap: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Toggle wrap"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Clear entries"),
		),
		CopySelected: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy entry"),
		),
		CopyVisible: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "Copy visible"),
		),

		// Filter prompt
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Keep filter"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown, k.HalfPageUp, k.HalfPageDown, k.Left, k.Right},
		{k.ToggleFollow, k.Filter, k.Escape, k.DetailLess, k.DetailMore, k.ToggleWrap},
		{k.Tab, k.FocusLogs, k.FocusDetails, k.FocusDebug, k.FocusNone, k.ToggleDebug},
		{k.Clear, k.CopySelected, k.CopyVisible},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
