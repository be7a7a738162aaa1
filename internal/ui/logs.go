package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ruo0o0/music-album/internal/logtail"
)

// logLevels is the cycle order of the level floor.
var logLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}

// logState holds log view state.
type logState struct {
	entries []logtail.Entry
	follow  bool
	level   slog.Level
	lastErr error
}

func newLogState(levelName string) logState {
	level := slog.LevelInfo
	if levelName != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.TrimSpace(levelName))); err == nil {
			level = l
		}
	}
	return logState{follow: true, level: level}
}

// nextLevel returns the floor after l in logLevels.
func nextLevel(l slog.Level) slog.Level {
	for i, lvl := range logLevels {
		if lvl == l {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return slog.LevelInfo
}

// logLinesMsg carries the tail of the log file.
type logLinesMsg struct {
	lines []string
	err   error
}

// refreshLogs reads the log file tail off the UI goroutine.
func (m Model) refreshLogs() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogBufferLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logState.lastErr = msg.err
	if msg.err != nil {
		return
	}
	m.logState.entries = logtail.ParseLines(msg.lines)
	m.updateLogViewport()
}

func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(max(m.width-4, 1), max(m.height-5, 1))
}

func (m *Model) resizeLogViewport() {
	m.logViewport.Width = max(m.width-4, 1)
	m.logViewport.Height = max(m.height-5, 1)
	m.updateLogViewport()
}

func (m *Model) updateLogViewport() {
	m.logViewport.SetContent(m.renderLogContent())
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogContent formats the entries at or above the level floor.
func (m Model) renderLogContent() string {
	styles := m.theme.Styles()
	visible := logtail.AtLeast(m.logState.entries, m.logState.level)
	if len(visible) == 0 {
		if m.logPath == "" {
			return styles.MutedText.Render("No log file configured.")
		}
		return styles.MutedText.Render("No log entries at " + m.logState.level.String() + " or above.")
	}

	var b strings.Builder
	for i, e := range visible {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.formatLogEntry(e, styles))
	}
	return b.String()
}

func (m Model) formatLogEntry(e logtail.Entry, styles Styles) string {
	if !e.Parsed {
		return styles.MutedText.Render(e.Raw)
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(styles.FaintText.Render(e.Time.Local().Format("15:04:05")))
		b.WriteString(" ")
	}
	b.WriteString(m.levelStyle(e.Level, styles).Render(fmt.Sprintf("%-5s", e.Level.String())))
	b.WriteString(" ")
	b.WriteString(styles.Text.Render(e.Message))
	for _, a := range e.Attrs {
		b.WriteString(" ")
		b.WriteString(styles.MutedText.Render(a.Key + "="))
		b.WriteString(styles.InfoText.Render(a.Value))
	}
	return b.String()
}

func (m Model) levelStyle(l slog.Level, styles Styles) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return styles.DangerText
	case l >= slog.LevelWarn:
		return styles.WarningText
	case l >= slog.LevelInfo:
		return styles.SuccessText
	default:
		return styles.MutedText
	}
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	contentHeight := m.height - 3

	title := fmt.Sprintf("Logs  >= %s", m.logState.level)
	box := m.renderBox(title, m.logViewport.View(), m.width, contentHeight, true)

	var parts []string
	if m.logState.follow {
		parts = append(parts, styles.SuccessText.Render("FOLLOW"))
	} else {
		parts = append(parts, styles.MutedText.Render("paused"))
	}
	parts = append(parts, styles.MutedText.Render(fmt.Sprintf("%d lines", len(m.logState.entries))))
	if m.logPath != "" {
		parts = append(parts, styles.FaintText.Render(truncateMiddle(m.logPath, 50)))
	}
	if m.logState.lastErr != nil {
		parts = append(parts, styles.DangerText.Render(m.logState.lastErr.Error()))
	}
	status := styles.Footer.Width(m.width).Render(strings.Join(parts, "  "))
	return box + "\n" + status
}

// handleLogsKey processes keyboard input for the logs view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleLevel):
		m.logState.level = nextLevel(m.logState.level)
		m.prefs.LogLevel = strings.ToLower(m.logState.level.String())
		m.savePrefs()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.logState.follow = false
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logState.follow = true
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
		m.logState.follow = false
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
		m.logState.follow = false
		return m, nil
	}

	return m, nil
}
