package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ruo0o0/music-album/internal/music"
)

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	if m.currentView == ViewLogs {
		b.WriteString(m.renderLogs())
		return b.String()
	}

	b.WriteString(m.renderContent())
	if m.snapshot.UI.PlayerBarVisible {
		b.WriteString("\n")
		b.WriteString(m.renderPlayerBar())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	return b.String()
}

// contentHeight is the height left for the list boxes.
func (m Model) contentHeight() int {
	h := m.height - 3
	if m.snapshot.UI.PlayerBarVisible {
		h--
	}
	return max(h, 3)
}

// renderHeader renders the logo, the user and the store counters.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render("album", styles.Logo)}

	switch {
	case m.snapshot.UserID == "":
		parts = append(parts, bg.Render("signed out", styles.WarningText))
	case !m.snapshot.Open:
		parts = append(parts, bg.Render(m.snapshot.UserID, styles.Text), bg.Render("loading", styles.MutedText))
	default:
		parts = append(parts, bg.Render(m.snapshot.UserID, styles.Text))
	}

	parts = append(parts,
		bg.Render(fmt.Sprintf("%d tracks", len(m.snapshot.Tracks)), styles.MutedText),
		bg.Render(fmt.Sprintf("%d albums", len(m.snapshot.Albums)), styles.MutedText),
	)

	if m.feedOn {
		feed := fmt.Sprintf("feed %d", len(m.snapshot.Feed))
		switch {
		case m.snapshot.FeedSync.IsOffline():
			parts = append(parts, bg.Render(feed, styles.MutedText), bg.Render("OFFLINE", styles.DangerText))
		case m.snapshot.FeedExhausted:
			parts = append(parts, bg.Render(feed+" (end)", styles.MutedText))
		default:
			parts = append(parts, bg.Render(feed, styles.MutedText))
		}
	}

	if m.snapshot.UI.LoadingNewTrack || m.snapshot.UI.LoadingNewAlbum {
		what := "saving track"
		if m.snapshot.UI.LoadingNewAlbum {
			what = "saving album"
		}
		parts = append(parts, bg.Render(m.spinner.View()+" "+what, styles.AccentText))
	}

	if !m.lastUpdated.IsZero() {
		parts = append(parts, bg.Render(m.lastUpdated.Format("15:04:05"), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
}

// renderCommandBar renders the view tabs.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	var tabs []string
	for v := range View(viewCount) {
		if v == ViewFeed && !m.feedOn {
			continue
		}
		label := fmt.Sprintf("%d %s", int(v)+1, v.String())
		if v == m.currentView {
			tabs = append(tabs, styles.BadgeStyle(m.theme.Accent).Render(label))
			continue
		}
		tabs = append(tabs, bg.Render(label, styles.MutedText))
	}
	hint := bg.Render("h help", styles.FaintText)
	return styles.Footer.Width(m.width).Render(bg.Join(tabs, bg.Spaces(1)) + bg.Spaces(3) + hint)
}

// renderContent renders the side menu and the current list.
func (m Model) renderContent() string {
	h := m.contentHeight()
	w := m.width
	menu := ""
	if m.snapshot.UI.SideMenuOpen && m.width >= LayoutCompactWidth {
		menu = m.renderSideMenu(h)
		w -= SideMenuWidth
	}

	var list string
	switch m.currentView {
	case ViewTracks:
		list = m.renderTrackList(m.tracksTitle(), w, h)
	case ViewComments:
		list = m.renderTrackList("Comments", w, h)
	case ViewFeed:
		list = m.renderFeed(w, h)
	case ViewAlbums:
		list = m.renderAlbums(w, h)
	}

	if menu == "" {
		return list
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, menu, list)
}

func (m Model) tracksTitle() string {
	title := "Tracks"
	if m.snapshot.Filter != "" {
		title += " in " + m.albumTitle(m.snapshot.Filter)
	}
	if m.filter != "" {
		title += fmt.Sprintf("  /%s", m.filter)
	}
	return title
}

func (m Model) albumTitle(id string) string {
	for _, a := range m.snapshot.Albums {
		if a.ID == id {
			return a.Title
		}
	}
	return id
}

func (m Model) renderTrackList(title string, w, h int) string {
	styles := m.theme.Styles()
	tracks := m.visibleTracks()
	if len(tracks) == 0 {
		empty := "No tracks yet. Press a to add one."
		if m.currentView == ViewComments {
			empty = "No comments yet. Select a track and press C."
		}
		return m.renderBox(title, styles.MutedText.Render(empty), w, h, !m.snapshot.UI.SideMenuOpen)
	}

	rows := make([]string, len(tracks))
	for i, t := range tracks {
		rows[i] = m.trackRow(t, w-6)
	}
	return m.renderBox(title, m.renderRows(rows, m.cursors[m.currentView], h-3, !m.snapshot.UI.SideMenuOpen), w, h, !m.snapshot.UI.SideMenuOpen)
}

func (m Model) trackRow(t music.Track, width int) string {
	marker := "○"
	if t.Public {
		marker = "●"
	}
	if m.snapshot.Active != nil && m.snapshot.Active.ID == t.ID {
		marker = "▶"
	}
	row := marker + " " + t.Label()
	if m.currentView == ViewComments && t.Comment != nil {
		row += "  " + t.Comment.Date.Local().Format("Jan 02") + "  " + t.Comment.Text
	} else if t.Comment != nil {
		row += "  ✎"
	}
	return truncate(row, width)
}

func (m Model) renderFeed(w, h int) string {
	styles := m.theme.Styles()
	title := "Feed"
	if m.snapshot.FeedQuery != "" {
		title += "  ?" + m.snapshot.FeedQuery
	}
	if len(m.snapshot.Feed) == 0 {
		empty := "Nothing in the feed yet. Press n to load a page."
		if m.snapshot.FeedExhausted {
			empty = "The feed is empty."
		}
		return m.renderBox(title, styles.MutedText.Render(empty), w, h, true)
	}

	rows := make([]string, len(m.snapshot.Feed))
	for i, e := range m.snapshot.Feed {
		author := e.Attribution.DisplayName
		if author == "" {
			author = e.OwnerID
		}
		if e.OwnerID == m.snapshot.UserID {
			author += " (you)"
		}
		row := padRight(truncate(author, 18), 18) + "  " + e.Label()
		if e.Comment != nil {
			row += "  " + e.Comment.Text
		}
		rows[i] = truncate(row, w-6)
	}
	body := m.renderRows(rows, m.cursors[ViewFeed], h-3, true)
	return m.renderBox(title, body, w, h, true)
}

func (m Model) renderAlbums(w, h int) string {
	styles := m.theme.Styles()
	if len(m.snapshot.Albums) == 0 {
		return m.renderBox("Albums", styles.MutedText.Render("No albums yet. Press A to create one."), w, h, true)
	}
	counts := make(map[string]int)
	for _, t := range m.snapshot.Tracks {
		if t.AlbumID != "" {
			counts[t.AlbumID]++
		}
	}
	rows := make([]string, len(m.snapshot.Albums))
	for i, a := range m.snapshot.Albums {
		row := fmt.Sprintf("%s  %d tracks", a.Title, counts[a.ID])
		if a.ID == m.snapshot.Filter {
			row += "  ◀"
		}
		rows[i] = truncate(row, w-6)
	}
	return m.renderBox("Albums", m.renderRows(rows, m.cursors[ViewAlbums], h-3, true), w, h, true)
}

// renderSideMenu lists "All tracks" followed by the albums.
func (m Model) renderSideMenu(h int) string {
	rows := make([]string, 0, len(m.snapshot.Albums)+1)
	rows = append(rows, "All tracks")
	for _, a := range m.snapshot.Albums {
		rows = append(rows, truncate(a.Title, SideMenuWidth-6))
	}
	return m.renderBox("Albums", m.renderRows(rows, m.menuCursor, h-3, true), SideMenuWidth, h, true)
}

// renderRows renders a scrolling window of rows keeping cursor in view.
func (m Model) renderRows(rows []string, cursor, height int, focused bool) string {
	styles := m.theme.Styles()
	height = max(height, 1)
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := min(start+height, len(rows))

	var b strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			b.WriteString("\n")
		}
		if i == cursor && focused {
			b.WriteString(styles.Selected.Render(rows[i]))
			continue
		}
		b.WriteString(styles.Text.Render(rows[i]))
	}
	return b.String()
}

// renderPlayerBar shows the active track.
func (m Model) renderPlayerBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	label := "nothing playing"
	if m.snapshot.Active != nil {
		label = m.snapshot.Active.Label()
	}
	parts := []string{
		bg.Render("▶", styles.AccentText),
		bg.Render(label, styles.Text),
		bg.Render(fmt.Sprintf("#%d", m.snapshot.UI.PlayerBarContentVersion), styles.FaintText),
	}
	return styles.Header.Width(m.width).Render(bg.Join(parts, bg.Spaces(2)))
}

// renderStatusLine shows the command line input or the last status.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	if m.mode != inputNone {
		return styles.Footer.Width(m.width).Render(m.input.View())
	}
	switch {
	case m.status == "":
		return styles.Footer.Width(m.width).Render("")
	case m.statusErr:
		return styles.Footer.Width(m.width).Render(styles.DangerText.Render(m.status))
	default:
		return styles.Footer.Width(m.width).Render(styles.MutedText.Render(m.status))
	}
}

// renderBox draws content inside a rounded border with a title line.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	styles := m.theme.Styles()
	border := m.theme.Border
	titleStyle := styles.MutedText.Bold(true)
	if focused {
		border = m.theme.BorderFocus
		titleStyle = styles.AccentText.Bold(true)
	}

	innerW := max(width-2, 1)
	innerH := max(height-2, 1)
	body := titleStyle.Render(truncate(title, innerW-2)) + "\n" + content

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1).
		Width(innerW).
		Height(innerH).
		MaxHeight(height).
		Render(body)
}
