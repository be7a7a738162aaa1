package ui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ruo0o0/music-album/internal/music"
	"github.com/ruo0o0/music-album/internal/prefs"
	"github.com/ruo0o0/music-album/internal/session"
	"github.com/ruo0o0/music-album/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewTracks View = iota
	ViewComments
	ViewFeed
	ViewAlbums
	ViewLogs

	viewCount = int(ViewLogs) + 1
)

var viewNames = []string{"tracks", "comments", "feed", "albums", "logs"}

// String returns the lowercase view name stored in preferences.
func (v View) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return viewNames[0]
	}
	return viewNames[v]
}

// parseView maps a preference value back to a View.
func parseView(name string) View {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range viewNames {
		if n == name {
			return View(i)
		}
	}
	return ViewTracks
}

// inputMode is what the command line input is collecting.
type inputMode int

const (
	inputNone inputMode = iota
	inputFilter
	inputAddTrack
	inputAddAlbum
	inputComment
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Session   *session.Session
	LogPath   string
	Prefs     prefs.Prefs
	PrefsPath string
	// FeedOn enables feed paging keys. It is false when no search index is
	// configured.
	FeedOn   bool
	PollTick time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	session   *session.Session
	logPath   string
	prefs     prefs.Prefs
	prefsPath string
	feedOn    bool
	pollTick  time.Duration
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	// Selection per view, plus the side menu cursor
	cursors    [viewCount]int
	menuCursor int

	// Fuzzy filter over the tracks and comments lists
	filter string

	// Command line input
	input       textinput.Model
	mode        inputMode
	inputTarget string

	spinner spinner.Model

	status    string
	statusErr bool

	showHelp bool

	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	p := opts.Prefs
	if p.Theme == "" {
		p = prefs.Defaults()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	in := textinput.New()
	in.CharLimit = 280

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		store:       opts.Store,
		session:     opts.Session,
		logPath:     opts.LogPath,
		prefs:       p,
		prefsPath:   prefsPath,
		feedOn:      opts.FeedOn,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(p.Theme),
		currentView: parseView(p.LastView),
		input:       in,
		spinner:     sp,
		logState:    newLogState(p.LogLevel),
	}
	if m.currentView == ViewFeed && !m.feedOn {
		m.currentView = ViewTracks
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
		if m.feedOn {
			if _, started := m.store.Feed.Cursor(); !started {
				cmds = append(cmds, m.nextPageCmd())
			}
		}
	}
	if m.currentView == ViewLogs {
		cmds = append(cmds, m.refreshLogs())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.resizeLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.clampCursors()
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus(msg.verb)
		}
		if m.store == nil {
			return m, nil
		}
		return m, fetchSnapshotCmd(m.store)

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
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
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.mode != inputNone {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView(m.stepView(1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(m.stepView(-1))

	case key.Matches(msg, m.keys.ViewTracks):
		return m.switchView(ViewTracks)
	case key.Matches(msg, m.keys.ViewComments):
		return m.switchView(ViewComments)
	case key.Matches(msg, m.keys.ViewFeed):
		if !m.feedOn {
			m.setStatus("feed disabled: no search host configured")
			return m, nil
		}
		return m.switchView(ViewFeed)
	case key.Matches(msg, m.keys.ViewAlbums):
		return m.switchView(ViewAlbums)
	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)

	case key.Matches(msg, m.keys.SideMenu):
		if m.store != nil {
			m.store.UI.ToggleSideMenu()
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if m.currentView == ViewLogs {
			return m, m.refreshLogs()
		}
		if m.store == nil {
			return m, nil
		}
		return m, m.reloadCmd()

	case key.Matches(msg, m.keys.Escape):
		switch {
		case m.snapshot.UI.SideMenuOpen && m.store != nil:
			m.store.UI.ToggleSideMenu()
			return m, fetchSnapshotCmd(m.store)
		case m.filter != "":
			m.filter = ""
			m.clampCursors()
		case m.snapshot.Filter != "" && m.store != nil:
			m.store.SetFilter("")
			m.setStatus("album filter cleared")
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil
	}

	if m.currentView == ViewLogs {
		return m.handleLogsKey(msg)
	}
	if m.snapshot.UI.SideMenuOpen {
		return m.handleMenuKey(msg)
	}
	return m.handleListKey(msg)
}

// stepView returns the view delta steps from the current one, skipping the
// feed when it is disabled.
func (m Model) stepView(delta int) View {
	n := viewCount
	v := int(m.currentView)
	for range n {
		v = (v + delta + n) % n
		if View(v) != ViewFeed || m.feedOn {
			break
		}
	}
	return View(v)
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	if m.prefs.LastView != v.String() {
		m.prefs.LastView = v.String()
		m.savePrefs()
	}
	if v == ViewLogs {
		return m, m.refreshLogs()
	}
	return m, nil
}

// handleListKey handles navigation and actions on the list views.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.moveCursor(msg, &m.cursors[m.currentView], m.listLen()) {
		return m, nil
	}

	if m.store == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Filter):
		if m.currentView == ViewTracks || m.currentView == ViewComments {
			return m.beginInput(inputFilter, "", "filter: ", m.filter)
		}

	case key.Matches(msg, m.keys.AddTrack):
		return m.beginInput(inputAddTrack, "", "new track (Title - Artist): ", "")

	case key.Matches(msg, m.keys.AddAlbum):
		return m.beginInput(inputAddAlbum, "", "new album: ", "")

	case key.Matches(msg, m.keys.NextPage):
		if m.currentView == ViewFeed {
			if m.snapshot.FeedExhausted {
				m.setStatus("end of feed")
				return m, nil
			}
			return m, m.nextPageCmd()
		}

	case key.Matches(msg, m.keys.Play):
		switch m.currentView {
		case ViewAlbums:
			if a, ok := m.selectedAlbum(); ok {
				return m.applyAlbumFilter(a.ID, a.Title)
			}
		case ViewFeed:
			if e, ok := m.selectedEntry(); ok {
				return m.play(e.Track)
			}
		default:
			if t, ok := m.selectedTrack(); ok {
				return m.play(t)
			}
		}

	case key.Matches(msg, m.keys.Delete):
		if m.currentView == ViewAlbums {
			if a, ok := m.selectedAlbum(); ok {
				return m, m.deleteAlbumCmd(a)
			}
		} else if t, ok := m.selectedOwnTrack(); ok {
			return m, m.deleteTrackCmd(t)
		}

	case key.Matches(msg, m.keys.Comment):
		if t, ok := m.selectedOwnTrack(); ok {
			initial := ""
			if t.Comment != nil {
				initial = t.Comment.Text
			}
			return m.beginInput(inputComment, t.ID, "comment: ", initial)
		}

	case key.Matches(msg, m.keys.RemoveComment):
		if t, ok := m.selectedOwnTrack(); ok && t.HasComment() {
			return m, m.uncommentCmd(t.ID)
		}

	case key.Matches(msg, m.keys.TogglePublic):
		if t, ok := m.selectedOwnTrack(); ok {
			return m, m.togglePublicCmd(t)
		}
	}

	return m, nil
}

// handleMenuKey drives the album side menu. Row 0 is "All tracks".
func (m Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.moveCursor(msg, &m.menuCursor, len(m.snapshot.Albums)+1) {
		return m, nil
	}
	if key.Matches(msg, m.keys.Play) {
		if m.menuCursor == 0 {
			return m.applyAlbumFilter("", "")
		}
		a := m.snapshot.Albums[m.menuCursor-1]
		return m.applyAlbumFilter(a.ID, a.Title)
	}
	return m.handleListKey(msg)
}

// moveCursor applies a navigation key to cursor and reports whether msg was
// one.
func (m Model) moveCursor(msg tea.KeyMsg, cursor *int, n int) bool {
	switch {
	case key.Matches(msg, m.keys.Down):
		if *cursor < n-1 {
			*cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if *cursor > 0 {
			*cursor--
		}
	case key.Matches(msg, m.keys.Top):
		*cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		*cursor = max(n-1, 0)
	default:
		return false
	}
	return true
}

func (m Model) play(t music.Track) (tea.Model, tea.Cmd) {
	m.store.PlayTrack(t)
	m.setStatus("playing " + t.Label())
	return m, fetchSnapshotCmd(m.store)
}

func (m Model) applyAlbumFilter(id, title string) (tea.Model, tea.Cmd) {
	m.store.SetFilter(id)
	m.cursors[ViewTracks] = 0
	if id == "" {
		m.setStatus("showing all tracks")
	} else {
		m.setStatus("album: " + title)
		m.currentView = ViewTracks
	}
	return m, fetchSnapshotCmd(m.store)
}

// beginInput focuses the command line input.
func (m Model) beginInput(mode inputMode, target, prompt, initial string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.inputTarget = target
	m.input.Prompt = prompt
	m.input.SetValue(initial)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) endInput() Model {
	m.mode = inputNone
	m.inputTarget = ""
	m.input.Blur()
	m.input.SetValue("")
	return m
}

// handleInputKey routes keys to the command line while it is focused.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == inputFilter {
			m.filter = ""
			m.clampCursors()
		}
		return m.endInput(), nil

	case tea.KeyEnter:
		value := m.input.Value()
		mode, target := m.mode, m.inputTarget
		m = m.endInput()
		switch mode {
		case inputFilter:
			m.filter = strings.TrimSpace(value)
			m.clampCursors()
			return m, nil
		case inputAddTrack:
			return m, m.addTrackCmd(value)
		case inputAddAlbum:
			return m, m.addAlbumCmd(value)
		case inputComment:
			return m, m.commentCmd(target, value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == inputFilter {
		m.filter = strings.TrimSpace(m.input.Value())
		m.clampCursors()
	}
	return m, cmd
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = describeError(err)
	m.statusErr = true
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		slog.Warn("save preferences failed", "path", m.prefsPath, "error", err)
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
