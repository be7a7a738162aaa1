package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ruo0o0/music-album/internal/music"
)

// Options configures a Store.
type Options struct {
	Session      music.SessionProvider
	Tracks       music.TrackRepository
	Albums       music.AlbumRepository
	Feed         music.FeedSearcher
	FeedPageSize int
	Logger       *slog.Logger
	// Now overrides the clock used to stamp drafts. Defaults to time.Now.
	Now func() time.Time
}

// Store ties the per-user stores, the feed and the UI flags to one session.
// Construct it with New, call Open once the user is signed in and Close on
// sign-out.
type Store struct {
	Tracks *TrackStore
	Albums *AlbumStore
	Feed   *FeedStore
	UI     *UIState

	session music.SessionProvider
	logger  *slog.Logger

	mu       sync.RWMutex
	open     bool
	openedAt time.Time
	filter   string
	now      func() time.Time
}

// New builds a Store around the given collaborators. It performs no I/O.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Store{
		Tracks:  newTrackStore(opts.Tracks, opts.Session, logger, now),
		Albums:  newAlbumStore(opts.Albums, opts.Session, logger, now),
		Feed:    newFeedStore(opts.Feed, opts.FeedPageSize, logger, now),
		UI:      &UIState{},
		session: opts.Session,
		logger:  logger,
		now:     now,
	}
	s.Tracks.onAdd = s.mirrorToFeed
	return s
}

// Open loads the signed-in user's tracks and albums. It fails with
// PreconditionNotMet when nobody is signed in.
func (s *Store) Open(ctx context.Context) error {
	uid, err := currentUser(s.session, "open store")
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Tracks.Load(gctx) })
	g.Go(func() error { return s.Albums.Load(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.open = true
	s.openedAt = s.now()
	s.mu.Unlock()

	s.logger.Info("store opened", "user", uid, "tracks", s.Tracks.Len(), "albums", s.Albums.Len())
	return nil
}

// Close drops every piece of per-session state. The Store can be opened
// again afterwards.
func (s *Store) Close() {
	s.Tracks.Reset()
	s.Albums.Reset()
	s.Feed.Reset()

	s.mu.Lock()
	s.open = false
	s.filter = ""
	s.mu.Unlock()

	s.logger.Info("store closed")
}

// IsOpen reports whether Open succeeded and Close has not been called since.
func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

// PlayTrack makes t the active track, latches the player bar and bumps its
// content version.
func (s *Store) PlayTrack(t music.Track) int {
	s.Tracks.SetActive(t)
	return s.UI.BumpPlayerBar()
}

// UpdateAttribution persists an attribution change on one of the user's
// tracks and applies it to that track's feed entry. Other feed entries by
// the same author are not touched.
func (s *Store) UpdateAttribution(ctx context.Context, id string, patch music.AttributionPatch) error {
	if _, err := s.Tracks.UpdateTrack(ctx, id, music.TrackPatch{Attribution: patch}); err != nil {
		return err
	}
	s.Feed.UpdateEntry(id, patch)
	return nil
}

// SyncAttribution brings every owned track and every loaded feed entry by
// the signed-in user in line with want. It returns the tracks it changed.
// On a remote failure the tracks changed so far are returned with the error.
func (s *Store) SyncAttribution(ctx context.Context, want music.Attribution) ([]music.Track, error) {
	uid, err := currentUser(s.session, "sync attribution")
	if err != nil {
		return nil, err
	}

	var changed []music.Track
	for _, t := range s.Tracks.Tracks() {
		patch := music.DiffAttribution(t.Attribution, want)
		if patch.IsZero() {
			continue
		}
		if err := s.UpdateAttribution(ctx, t.ID, patch); err != nil {
			return changed, err
		}
		t.Attribution = want
		changed = append(changed, t)
	}

	entries := s.Feed.UpdateAuthor(uid, music.AttributionPatch{
		DisplayName: music.Ptr(want.DisplayName),
		AvatarURL:   music.Ptr(want.AvatarURL),
	})
	s.logger.Info("attribution synced", "tracks", len(changed), "feed_entries", entries)
	return changed, nil
}

// CommentTrack sets or replaces the comment on one of the user's tracks. A
// public track is surfaced at the head of the feed right away.
func (s *Store) CommentTrack(ctx context.Context, id, text string) (music.Track, error) {
	c := &music.Comment{Text: text, Date: s.now()}
	t, err := s.Tracks.UpdateTrack(ctx, id, music.TrackPatch{Comment: c})
	if err != nil {
		return music.Track{}, err
	}
	if t.Public {
		s.Feed.InjectOwn(music.EntryFromTrack(t))
	}
	return t, nil
}

// UncommentTrack removes the comment from a track and, unlike RemoveComment
// on its own, also drops the matching feed entry.
func (s *Store) UncommentTrack(ctx context.Context, id string) error {
	if err := s.Tracks.RemoveComment(ctx, id); err != nil {
		return err
	}
	s.Feed.RemoveEntry(id)
	return nil
}

// SetFilter restricts Filtered to tracks in the given album. An empty id
// clears the filter.
func (s *Store) SetFilter(albumID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = albumID
}

// Filter returns the album id tracks are filtered by.
func (s *Store) Filter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Filtered returns the owned tracks, limited to the filter album when set.
func (s *Store) Filtered() []music.Track {
	albumID := s.Filter()
	if albumID == "" {
		return s.Tracks.Tracks()
	}
	return s.Tracks.InAlbum(albumID)
}

// DraftAlbumID returns the album the current track draft is filed under.
func (s *Store) DraftAlbumID() (string, bool) {
	d, ok := s.Tracks.Draft()
	if !ok || d.AlbumID == "" {
		return "", false
	}
	return d.AlbumID, true
}

// mirrorToFeed appends the user's own public, commented track to the feed
// tail so it shows up without waiting for the index.
func (s *Store) mirrorToFeed(t music.Track) {
	if !t.Public || !t.HasComment() {
		return
	}
	s.Feed.appendOwn(music.EntryFromTrack(t))
}
