package ui

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ruo0o0/music-album/internal/docstore"
	"github.com/ruo0o0/music-album/internal/music"
	"github.com/ruo0o0/music-album/internal/prefs"
	"github.com/ruo0o0/music-album/internal/session"
	"github.com/ruo0o0/music-album/internal/state"
)

func newTestModel(t *testing.T) (Model, *state.Store) {
	t.Helper()
	b, err := docstore.OpenBadger(docstore.BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	sess := session.New("u1", "tok", session.Profile{DisplayName: "Ruo"})
	store := state.New(state.Options{
		Session: sess,
		Tracks:  docstore.NewTrackRepository(b),
		Albums:  docstore.NewAlbumRepository(b),
	})
	if err := store.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}

	m := New(Options{
		Store:     store,
		Session:   sess,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return refresh(t, m, store), store
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func refresh(t *testing.T, m Model, store *state.Store) Model {
	t.Helper()
	return update(t, m, snapshotMsg(store.Snapshot()))
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes an action command and feeds its result back into the model.
func run(t *testing.T, m Model, store *state.Store, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command, got nil")
	}
	msg := cmd()
	if am, ok := msg.(actionMsg); ok && am.err != nil {
		t.Fatalf("%s failed: %v", am.verb, am.err)
	}
	m = update(t, m, msg)
	return refresh(t, m, store)
}

func addTrack(t *testing.T, m Model, store *state.Store, input string) Model {
	t.Helper()
	m, _ = press(t, m, "a")
	if m.mode != inputAddTrack {
		t.Fatalf("mode = %v, want inputAddTrack", m.mode)
	}
	m, _ = press(t, m, input)
	m, cmd := press(t, m, "enter")
	return run(t, m, store, cmd)
}

func TestParseTrackInput(t *testing.T) {
	tests := []struct {
		in, title, artist string
		ok                bool
	}{
		{"Heroes - David Bowie", "Heroes", "David Bowie", true},
		{"  Heroes  ", "Heroes", "", true},
		{"A - B - C", "A", "B - C", true},
		{"", "", "", false},
		{"   ", "", "", false},
	}
	for _, tt := range tests {
		title, artist, ok := parseTrackInput(tt.in)
		if ok != tt.ok || (ok && (title != tt.title || artist != tt.artist)) {
			t.Errorf("parseTrackInput(%q) = %q, %q, %v, want %q, %q, %v", tt.in, title, artist, ok, tt.title, tt.artist, tt.ok)
		}
	}
}

func TestParseView(t *testing.T) {
	for v := range View(viewCount) {
		if got := parseView(v.String()); got != v {
			t.Errorf("parseView(%q) = %v, want %v", v.String(), got, v)
		}
	}
	if got := parseView("nonsense"); got != ViewTracks {
		t.Fatalf("parseView(nonsense) = %v, want ViewTracks", got)
	}
	if got := parseView(" FEED "); got != ViewFeed {
		t.Fatalf("parseView(FEED) = %v, want ViewFeed", got)
	}
}

func TestFuzzyTracks(t *testing.T) {
	tracks := []music.Track{
		{ID: "1", Title: "Heroes", Artist: "David Bowie"},
		{ID: "2", Title: "Hurt", Artist: "Johnny Cash"},
		{ID: "3", Title: "Halo", Artist: "Beyonce", Comment: &music.Comment{Text: "bowie would approve"}},
	}
	if got := fuzzyTracks(tracks, ""); len(got) != 3 {
		t.Fatalf("empty query returned %d tracks, want 3", len(got))
	}
	got := fuzzyTracks(tracks, "bowie")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("fuzzyTracks(bowie) = %v, want tracks 1 and 3", got)
	}
	if got := fuzzyTracks(tracks, "zzz"); len(got) != 0 {
		t.Fatalf("fuzzyTracks(zzz) = %v, want none", got)
	}
}

func TestNextLevelCycles(t *testing.T) {
	l := slog.LevelDebug
	seen := []slog.Level{l}
	for range 4 {
		l = nextLevel(l)
		seen = append(seen, l)
	}
	if seen[4] != slog.LevelDebug || seen[1] != slog.LevelInfo || seen[3] != slog.LevelError {
		t.Fatalf("level cycle = %v", seen)
	}
	if got := newLogState("warn").level; got != slog.LevelWarn {
		t.Fatalf("newLogState(warn).level = %v, want WARN", got)
	}
	if got := newLogState("loud").level; got != slog.LevelInfo {
		t.Fatalf("newLogState(loud).level = %v, want INFO", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Heroes - David Bowie", 10); got != "Heroes ..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncateMiddle("/home/user/.local/share/album/album.log", 15); len([]rune(got)) != 15 || !strings.HasSuffix(got, "bum.log") {
		t.Fatalf("truncateMiddle = %q", got)
	}
}

func TestAddTrackFromInput(t *testing.T) {
	m, store := newTestModel(t)
	m = addTrack(t, m, store, "Heroes - David Bowie")

	tracks := store.Tracks.Tracks()
	if len(tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(tracks))
	}
	got := tracks[0]
	if got.Title != "Heroes" || got.Artist != "David Bowie" || !got.Public {
		t.Fatalf("track = %+v, want public Heroes by David Bowie", got)
	}
	if got.Attribution.DisplayName != "Ruo" {
		t.Fatalf("attribution = %+v, want the session profile", got.Attribution)
	}
	if _, ok := store.Tracks.Draft(); ok {
		t.Fatalf("draft still set after add")
	}
	if store.UI.LoadingNewTrack() {
		t.Fatalf("loading flag still set after add")
	}
	if m.statusErr || !strings.Contains(m.status, "Heroes") {
		t.Fatalf("status = %q (err=%v), want success", m.status, m.statusErr)
	}
	if !strings.Contains(m.View(), "Heroes - David Bowie") {
		t.Fatalf("view does not list the new track")
	}
}

func TestEscCancelsInput(t *testing.T) {
	m, store := newTestModel(t)
	m, _ = press(t, m, "a")
	m, _ = press(t, m, "Heroes")
	m, cmd := press(t, m, "esc")
	if cmd != nil || m.mode != inputNone {
		t.Fatalf("esc left mode %v cmd %v", m.mode, cmd)
	}
	if store.Tracks.Len() != 0 {
		t.Fatalf("tracks = %d, want 0", store.Tracks.Len())
	}
}

func TestCommentAndUncomment(t *testing.T) {
	m, store := newTestModel(t)
	m = addTrack(t, m, store, "Heroes - David Bowie")

	m, _ = press(t, m, "C")
	if m.mode != inputComment {
		t.Fatalf("mode = %v, want inputComment", m.mode)
	}
	m, _ = press(t, m, "still great")
	m, cmd := press(t, m, "enter")
	m = run(t, m, store, cmd)

	commented := store.Tracks.CommentedTracks()
	if len(commented) != 1 || commented[0].Comment.Text != "still great" {
		t.Fatalf("commented = %+v, want one track with the comment", commented)
	}
	if _, ok := store.Feed.Find(commented[0].ID); !ok {
		t.Fatalf("public commented track not injected into the feed")
	}

	m, cmd = press(t, m, "c")
	m = run(t, m, store, cmd)
	if n := len(store.Tracks.CommentedTracks()); n != 0 {
		t.Fatalf("commented = %d, want 0", n)
	}
	if store.Feed.Len() != 0 {
		t.Fatalf("feed = %d, want entry removed", store.Feed.Len())
	}
	_ = m
}

func TestTogglePublicAndDelete(t *testing.T) {
	m, store := newTestModel(t)
	m = addTrack(t, m, store, "Heroes")

	m, cmd := press(t, m, "p")
	m = run(t, m, store, cmd)
	if store.Tracks.Tracks()[0].Public {
		t.Fatalf("track still public after toggle")
	}

	m, cmd = press(t, m, "d")
	m = run(t, m, store, cmd)
	if store.Tracks.Len() != 0 {
		t.Fatalf("tracks = %d, want 0 after delete", store.Tracks.Len())
	}
	if len(m.snapshot.Tracks) != 0 {
		t.Fatalf("snapshot still lists deleted track")
	}
}

func TestPlayShowsPlayerBar(t *testing.T) {
	m, store := newTestModel(t)
	m = addTrack(t, m, store, "Heroes - David Bowie")

	m, cmd := press(t, m, "enter")
	if cmd == nil {
		t.Fatalf("play returned no command")
	}
	m = update(t, m, cmd())

	if !m.snapshot.UI.PlayerBarVisible || m.snapshot.UI.PlayerBarContentVersion != 1 {
		t.Fatalf("ui flags = %+v, want player bar visible at version 1", m.snapshot.UI)
	}
	if active, ok := store.Tracks.Active(); !ok || active.Title != "Heroes" {
		t.Fatalf("active = %+v, %v", active, ok)
	}
	if !strings.Contains(m.View(), "#1") {
		t.Fatalf("player bar not rendered")
	}
}

func TestAlbumSelectionFiltersTracks(t *testing.T) {
	m, store := newTestModel(t)
	m, _ = press(t, m, "A")
	m, _ = press(t, m, "Low")
	m, cmd := press(t, m, "enter")
	m = run(t, m, store, cmd)
	if store.Albums.Len() != 1 {
		t.Fatalf("albums = %d, want 1", store.Albums.Len())
	}
	albumID := store.Albums.Albums()[0].ID

	m = addTrack(t, m, store, "Outside")

	m, _ = press(t, m, "4")
	m, cmd = press(t, m, "enter")
	m = update(t, m, cmd())
	if store.Filter() != albumID {
		t.Fatalf("filter = %q, want %q", store.Filter(), albumID)
	}
	if m.currentView != ViewTracks {
		t.Fatalf("view = %v, want ViewTracks", m.currentView)
	}
	if n := len(m.visibleTracks()); n != 0 {
		t.Fatalf("visible = %d, want 0 tracks in the album", n)
	}

	// Tracks added while filtered land in the album.
	m = addTrack(t, m, store, "Sound and Vision")
	visible := m.visibleTracks()
	if len(visible) != 1 || visible[0].AlbumID != albumID {
		t.Fatalf("visible = %+v, want the new track in the album", visible)
	}

	m, cmd = press(t, m, "esc")
	m = update(t, m, cmd())
	if store.Filter() != "" || len(m.visibleTracks()) != 2 {
		t.Fatalf("esc did not clear the album filter")
	}
}

func TestSideMenuToggle(t *testing.T) {
	m, store := newTestModel(t)
	m, cmd := press(t, m, "m")
	m = update(t, m, cmd())
	if !store.UI.SideMenuOpen() || !m.snapshot.UI.SideMenuOpen {
		t.Fatalf("side menu not open")
	}
	if !strings.Contains(m.View(), "All tracks") {
		t.Fatalf("side menu not rendered")
	}
	m, cmd = press(t, m, "esc")
	update(t, m, cmd())
	if store.UI.SideMenuOpen() {
		t.Fatalf("esc did not close the side menu")
	}
}

func TestFuzzyFilterInput(t *testing.T) {
	m, store := newTestModel(t)
	m = addTrack(t, m, store, "Heroes")
	m = addTrack(t, m, store, "Hurt")

	m, _ = press(t, m, "/")
	m, _ = press(t, m, "hro")
	if m.filter != "hro" {
		t.Fatalf("filter = %q, want live update", m.filter)
	}
	m, _ = press(t, m, "enter")
	if got := m.visibleTracks(); len(got) != 1 || got[0].Title != "Heroes" {
		t.Fatalf("visible = %+v, want Heroes only", got)
	}
	m, _ = press(t, m, "esc")
	if m.filter != "" || len(m.visibleTracks()) != 2 {
		t.Fatalf("esc did not clear the fuzzy filter")
	}
}

func TestFeedDisabledWithoutIndex(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "3")
	if m.currentView == ViewFeed {
		t.Fatalf("switched to the feed with no index")
	}
	if m.stepView(1) != ViewComments || (Model{currentView: ViewComments}).stepView(1) != ViewAlbums {
		t.Fatalf("tab does not skip the feed")
	}
	if cmd := m.nextPageCmd(); cmd != nil {
		t.Fatalf("nextPageCmd returned a command with the feed off")
	}
}

func TestThemeCyclePersists(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "T")
	if m.theme.Name != "Dracula" {
		t.Fatalf("theme = %q, want Dracula", m.theme.Name)
	}
	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if p.Theme != "Dracula" {
		t.Fatalf("saved theme = %q, want Dracula", p.Theme)
	}
}

func TestDescribeError(t *testing.T) {
	if got := describeError(music.E(music.KindFeedExhausted, "next page", "", nil)); got != "end of feed" {
		t.Fatalf("describeError(exhausted) = %q", got)
	}
	if got := describeError(music.E(music.KindNotFound, "delete track", "t1", nil)); got != "already gone" {
		t.Fatalf("describeError(not found) = %q", got)
	}
}

func TestThemes(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 || names[0] != "Midnight" {
		t.Fatalf("ThemeNames() = %v", names)
	}
	if got := NextTheme("Slate"); got != "Midnight" {
		t.Fatalf("NextTheme(Slate) = %q, want Midnight", got)
	}
	if got := GetTheme("nope").Name; got != "Midnight" {
		t.Fatalf("GetTheme(nope) = %q, want Midnight", got)
	}
}
