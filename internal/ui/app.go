package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/contrail/internal/logging"
	"github.com/five82/contrail/internal/nav"
	"github.com/five82/contrail/internal/prefs"
	"github.com/five82/contrail/internal/viewer"
)

// Options configures the UI.
type Options struct {
	// Context ends the program when cancelled.
	Context context.Context
	Viewer  *viewer.Viewer
	// Sink feeds the Debug panel. It may be nil.
	Sink   *logging.Sink
	Logger *zap.Logger

	// DrainInterval is the ingestion tick.
	DrainInterval time.Duration
	// InputTick is the render interval.
	InputTick time.Duration
	ShowDebug bool

	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea. It is the only
// goroutine that touches the Viewer.
type Model struct {
	// Configuration
	ctx        context.Context
	viewer     *viewer.Viewer
	sink       *logging.Sink
	logger     *zap.Logger
	drainEvery time.Duration
	prefs      prefs.Prefs
	prefsPath  string
	keys       keyMap
	now        func() time.Time

	// UI state
	theme     Theme
	width     int
	height    int
	ready     bool
	showHelp  bool
	showDebug bool

	// Filter prompt
	filtering    bool
	filterInput  textinput.Model
	filterBefore string

	// Status bar event
	event    statusEvent
	eventSeq int

	// Selection the Details panel was last scrolled for
	detailsSeq uint64
	detailsSel bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	drainEvery := opts.DrainInterval
	if drainEvery <= 0 {
		drainEvery = DefaultDrainInterval
	}

	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter text, or /regex/"
	ti.CharLimit = 256

	return Model{
		ctx:         ctx,
		viewer:      opts.Viewer,
		sink:        opts.Sink,
		logger:      logger,
		drainEvery:  drainEvery,
		prefs:       opts.Prefs,
		prefsPath:   opts.PrefsPath,
		keys:        DefaultKeyMap(),
		now:         time.Now,
		theme:       GetTheme(opts.Prefs.Theme),
		showDebug:   opts.ShowDebug,
		filterInput: ti,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		drainCmd(m.drainEvery),
	}
	if done := m.ctx.Done(); done != nil {
		cmds = append(cmds, waitForDone(done))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case drainMsg:
		m.viewer.Drain()
		cmd = drainCmd(m.drainEvery)

	case eventExpiredMsg:
		if msg.id == m.event.id {
			m.event = statusEvent{}
		}

	case doneMsg:
		return m, tea.Quit
	}

	m.settle()
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return nil
	}

	if m.filtering {
		return m.handleFilterKey(msg)
	}

	n := m.viewer.Nav()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()

	case key.Matches(msg, m.keys.Filter):
		return m.openFilter()

	case key.Matches(msg, m.keys.Escape):
		if m.viewer.FilterActive() {
			m.viewer.ClearFilter()
		}

	case key.Matches(msg, m.keys.ToggleFollow):
		m.viewer.ToggleAutoscroll()

	case key.Matches(msg, m.keys.DetailMore):
		if m.viewer.IncreaseDetail() {
			m.prefs = m.prefs.WithDetail(int(m.viewer.Detail()))
			m.savePrefs()
		}

	case key.Matches(msg, m.keys.DetailLess):
		if m.viewer.DecreaseDetail() {
			m.prefs = m.prefs.WithDetail(int(m.viewer.Detail()))
			m.savePrefs()
		}

	case key.Matches(msg, m.keys.ToggleWrap):
		m.prefs = m.prefs.WithWrap(n.ToggleWrap())
		m.savePrefs()

	case key.Matches(msg, m.keys.Clear):
		cleared := m.viewer.Clear()
		return m.setEvent("Cleared "+plural(cleared, "entry", "entries"), false)

	case key.Matches(msg, m.keys.CopySelected):
		return m.copySelected()

	case key.Matches(msg, m.keys.CopyVisible):
		return m.copyVisible()

	case key.Matches(msg, m.keys.ToggleDebug):
		m.showDebug = !m.showDebug
		if !m.showDebug && n.Focus() == nav.FocusDebug {
			n.SetFocus(nav.FocusLogs)
		}

	case key.Matches(msg, m.keys.Tab):
		n.CycleFocus()
		if n.Focus() == nav.FocusDebug && !m.showDebug {
			n.CycleFocus()
		}

	case key.Matches(msg, m.keys.FocusLogs):
		n.SetFocus(nav.FocusLogs)

	case key.Matches(msg, m.keys.FocusDetails):
		n.SetFocus(nav.FocusDetails)

	case key.Matches(msg, m.keys.FocusDebug):
		m.showDebug = true
		n.SetFocus(nav.FocusDebug)

	case key.Matches(msg, m.keys.FocusNone):
		n.SetFocus(nav.FocusNone)

	default:
		m.handleMoveKey(msg)
	}

	return nil
}

// savePrefs persists theme, wrap and detail. Failures are logged only.
func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save preferences failed", zap.String("path", m.prefsPath), zap.Error(err))
	}
}

// settle brings scroll offsets in line with the current selection and
// panel sizes. It runs after every update so View only reads state.
func (m *Model) settle() {
	if !m.ready {
		return
	}
	l := computeLayout(m.height, m.showDebug)
	n := m.viewer.Nav()

	m.viewer.EnsureVisible(innerRows(l.logs))

	e, _, ok := m.viewer.Selected()
	if ok != m.detailsSel || e.Seq != m.detailsSeq {
		n.ClampOffset(nav.PanelDetails, 0)
		n.ScrollHorizontal(nav.PanelDetails, -n.HOffset(nav.PanelDetails), 0)
		m.detailsSeq, m.detailsSel = e.Seq, ok
	}
	n.ClampOffset(nav.PanelDetails, max(len(m.detailLines())-innerRows(l.details), 0))
	n.ClampOffset(nav.PanelDebug, max(len(m.debugLines())-innerRows(l.debug), 0))
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	l := computeLayout(m.height, m.showDebug)
	focus := m.viewer.Nav().Focus()

	var b strings.Builder

	// Header line 1: name, sources, warnings
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	b.WriteString(m.renderLogs(l.logs, focus == nav.FocusLogs))
	if l.details > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderDetails(l.details, focus == nav.FocusDetails))
	}
	if l.debug > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderDebug(l.debug, focus == nav.FocusDebug))
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	return b.String()
}

// Messages

type drainMsg time.Time

type doneMsg struct{}

// Commands

func drainCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return drainMsg(t)
	})
}

func waitForDone(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return doneMsg{}
	}
}

// Run starts the Bubble Tea program and blocks until the operator quits or
// the context ends. Extra program options are appended, so callers can
// redirect input when stdin carries log data.
func Run(opts Options, extra ...tea.ProgramOption) error {
	m := New(opts)
	programOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithFPS(fps(opts.InputTick)),
	}
	p := tea.NewProgram(m, append(programOpts, extra...)...)
	_, err := p.Run()
	return err
}

// fps converts the input tick to a frame rate within bubbletea's bounds.
func fps(tick time.Duration) int {
	if tick <= 0 {
		tick = DefaultInputTick
	}
	return clampInt(int(time.Second/tick), 1, 120)
}
