package state

import (
	"time"

	"github.com/ruo0o0/music-album/internal/music"
)

// Snapshot is a point-in-time copy of everything the UI renders. It shares
// no memory with the store.
type Snapshot struct {
	UserID        string            `json:"user_id,omitempty"`
	Open          bool              `json:"open"`
	OpenedAt      time.Time         `json:"opened_at,omitzero"`
	Tracks        []music.Track     `json:"tracks"`
	Commented     []music.Track     `json:"commented"`
	Albums        []music.Album     `json:"albums"`
	Feed          []music.FeedEntry `json:"feed"`
	FeedCursor    int               `json:"feed_cursor"`
	FeedStarted   bool              `json:"feed_started"`
	FeedExhausted bool              `json:"feed_exhausted"`
	FeedQuery     string            `json:"feed_query,omitempty"`
	FeedSync      SyncStatus        `json:"feed_sync"`
	TrackDraft    *music.TrackDraft `json:"track_draft,omitempty"`
	AlbumDraft    *music.AlbumDraft `json:"album_draft,omitempty"`
	Active        *music.Track      `json:"active,omitempty"`
	Filter        string            `json:"filter,omitempty"`
	UI            UIFlags           `json:"ui"`
}

// Snapshot returns a copy of the current state of every sub-store.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Tracks:        s.Tracks.Tracks(),
		Commented:     s.Tracks.CommentedTracks(),
		Albums:        s.Albums.Albums(),
		Feed:          s.Feed.Entries(),
		FeedExhausted: s.Feed.Exhausted(),
		FeedQuery:     s.Feed.Query(),
		FeedSync:      s.Feed.SyncStatus(),
		UI:            s.UI.Flags(),
	}
	snap.FeedCursor, snap.FeedStarted = s.Feed.Cursor()
	if s.session != nil {
		snap.UserID, _ = s.session.UserID()
	}
	if d, ok := s.Tracks.Draft(); ok {
		snap.TrackDraft = &d
	}
	if d, ok := s.Albums.Draft(); ok {
		snap.AlbumDraft = &d
	}
	if a, ok := s.Tracks.Active(); ok {
		snap.Active = &a
	}

	s.mu.RLock()
	snap.Open = s.open
	snap.OpenedAt = s.openedAt
	snap.Filter = s.filter
	s.mu.RUnlock()
	return snap
}
