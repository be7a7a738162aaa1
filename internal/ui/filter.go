package ui

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ruo0o0/music-album/internal/music"
)

// fuzzyTracks narrows tracks to those whose label or comment fuzzily matches
// query, best match first. Ties keep their original order.
func fuzzyTracks(tracks []music.Track, query string) []music.Track {
	if query == "" {
		return tracks
	}
	targets := make([]string, len(tracks))
	for i, t := range tracks {
		targets[i] = searchText(t)
	}
	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)
	out := make([]music.Track, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, tracks[r.OriginalIndex])
	}
	return out
}

func searchText(t music.Track) string {
	if t.Comment == nil {
		return t.Label()
	}
	return t.Label() + " " + t.Comment.Text
}

// visibleTracks returns the rows of the tracks or comments view.
func (m Model) visibleTracks() []music.Track {
	switch m.currentView {
	case ViewTracks:
		tracks := m.snapshot.Tracks
		if m.snapshot.Filter != "" {
			inAlbum := make([]music.Track, 0, len(tracks))
			for _, t := range tracks {
				if t.AlbumID == m.snapshot.Filter {
					inAlbum = append(inAlbum, t)
				}
			}
			tracks = inAlbum
		}
		return fuzzyTracks(tracks, m.filter)
	case ViewComments:
		return fuzzyTracks(m.snapshot.Commented, m.filter)
	}
	return nil
}

// listLen returns the row count of the current list view.
func (m Model) listLen() int {
	switch m.currentView {
	case ViewTracks, ViewComments:
		return len(m.visibleTracks())
	case ViewFeed:
		return len(m.snapshot.Feed)
	case ViewAlbums:
		return len(m.snapshot.Albums)
	}
	return 0
}

func (m Model) selectedTrack() (music.Track, bool) {
	tracks := m.visibleTracks()
	i := m.cursors[m.currentView]
	if i < 0 || i >= len(tracks) {
		return music.Track{}, false
	}
	return tracks[i], true
}

func (m Model) selectedEntry() (music.FeedEntry, bool) {
	i := m.cursors[ViewFeed]
	if i < 0 || i >= len(m.snapshot.Feed) {
		return music.FeedEntry{}, false
	}
	return m.snapshot.Feed[i], true
}

func (m Model) selectedAlbum() (music.Album, bool) {
	i := m.cursors[ViewAlbums]
	if i < 0 || i >= len(m.snapshot.Albums) {
		return music.Album{}, false
	}
	return m.snapshot.Albums[i], true
}

// selectedOwnTrack returns the selected row as one of the user's own tracks.
// In the feed that is only the case for entries the user authored.
func (m Model) selectedOwnTrack() (music.Track, bool) {
	switch m.currentView {
	case ViewTracks, ViewComments:
		return m.selectedTrack()
	case ViewFeed:
		e, ok := m.selectedEntry()
		if !ok || e.OwnerID != m.snapshot.UserID {
			return music.Track{}, false
		}
		for _, t := range m.snapshot.Tracks {
			if t.ID == e.ID {
				return t, true
			}
		}
	}
	return music.Track{}, false
}

// clampCursors keeps every cursor inside its list after the data changed.
func (m *Model) clampCursors() {
	current := m.currentView
	for v := range View(viewCount) {
		if v == ViewLogs {
			continue
		}
		m.currentView = v
		n := m.listLen()
		m.cursors[v] = min(m.cursors[v], max(n-1, 0))
	}
	m.currentView = current
	m.menuCursor = min(m.menuCursor, len(m.snapshot.Albums))
}
