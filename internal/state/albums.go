package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ruo0o0/music-album/internal/collection"
	"github.com/ruo0o0/music-album/internal/music"
)

// AlbumStore holds the signed-in user's albums, newest first. It follows the
// same remote-first rules as TrackStore.
type AlbumStore struct {
	repo    music.AlbumRepository
	session music.SessionProvider
	logger  *slog.Logger
	now     func() time.Time
	keys    keyLocker

	mu     sync.RWMutex
	albums *collection.Collection[music.Album]
	draft  *music.AlbumDraft
}

func newAlbumStore(repo music.AlbumRepository, session music.SessionProvider, logger *slog.Logger, now func() time.Time) *AlbumStore {
	return &AlbumStore{
		repo:    repo,
		session: session,
		logger:  logger.With("component", "albums"),
		now:     now,
		albums:  collection.New[music.Album](),
	}
}

// Load replaces the local albums with the repository's contents.
func (s *AlbumStore) Load(ctx context.Context) error {
	const op = "load albums"
	uid, err := currentUser(s.session, op)
	if err != nil {
		return err
	}
	rctx, done := startRemote(ctx, op, "")
	albums, err := s.repo.List(rctx, uid)
	done(err)
	if err != nil {
		return remoteErr(op, "", err)
	}

	s.mu.Lock()
	s.albums.Clear()
	for _, a := range albums {
		s.albums.Upsert(a, collection.Head)
	}
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Info("albums loaded", "count", len(albums))
	return nil
}

// AddAlbum persists draft and inserts the committed album at the head.
func (s *AlbumStore) AddAlbum(ctx context.Context, draft music.AlbumDraft) (music.Album, error) {
	const op = "add album"
	uid, err := currentUser(s.session, op)
	if err != nil {
		return music.Album{}, err
	}
	if draft.OwnerID == "" {
		draft.OwnerID = uid
	}
	if draft.CreatedDate.IsZero() {
		draft.CreatedDate = s.now()
	}

	rctx, done := startRemote(ctx, op, "")
	id, err := s.repo.Add(rctx, uid, draft)
	done(err)
	if err != nil {
		return music.Album{}, remoteErr(op, "", err)
	}
	if id == "" {
		return music.Album{}, music.E(music.KindLocalInvariant, op, "", errEmptyID)
	}

	album := draft.Commit(id)
	s.mu.Lock()
	s.albums.Upsert(album, collection.Head)
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Info("album added", "id", id)
	return album, nil
}

// UpdateAlbum persists patch and replaces the album in place.
func (s *AlbumStore) UpdateAlbum(ctx context.Context, id string, patch music.AlbumPatch) (music.Album, error) {
	const op = "update album"
	uid, err := currentUser(s.session, op)
	if err != nil {
		return music.Album{}, err
	}
	unlock := s.keys.Lock(id)
	defer unlock()

	if !s.has(id) {
		return music.Album{}, notFound(op, id)
	}

	rctx, done := startRemote(ctx, op, id)
	err = s.repo.Update(rctx, uid, id, patch)
	done(err)
	if err != nil {
		return music.Album{}, remoteErr(op, id, err)
	}

	s.mu.Lock()
	cur, ok := s.albums.Find(id)
	if !ok {
		s.mu.Unlock()
		return music.Album{}, notFound(op, id)
	}
	next := patch.Apply(cur)
	s.albums.Upsert(next, collection.Head)
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Debug("album updated", "id", id)
	return next, nil
}

// DeleteAlbum removes the album remotely, then locally. Tracks filed under
// it keep their album id.
func (s *AlbumStore) DeleteAlbum(ctx context.Context, id string) error {
	const op = "delete album"
	uid, err := currentUser(s.session, op)
	if err != nil {
		return err
	}
	unlock := s.keys.Lock(id)
	defer unlock()

	if !s.has(id) {
		return notFound(op, id)
	}

	rctx, done := startRemote(ctx, op, id)
	err = s.repo.Delete(rctx, uid, id)
	done(err)
	if err != nil {
		return remoteErr(op, id, err)
	}

	s.mu.Lock()
	removed := s.albums.Remove(id)
	s.publishLocked()
	s.mu.Unlock()

	if !removed {
		return notFound(op, id)
	}
	s.logger.Info("album deleted", "id", id)
	return nil
}

func (s *AlbumStore) has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.albums.Contains(id)
}

// Albums returns the albums, newest first.
func (s *AlbumStore) Albums() []music.Album {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.albums.Items()
}

// Find returns the album with the given id.
func (s *AlbumStore) Find(id string) (music.Album, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.albums.Find(id)
}

// Len returns the number of albums.
func (s *AlbumStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.albums.Len()
}

// SetDraft stores d as the album being edited.
func (s *AlbumStore) SetDraft(d music.AlbumDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = &d
}

// Draft returns the album being edited, if any.
func (s *AlbumStore) Draft() (music.AlbumDraft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.draft == nil {
		return music.AlbumDraft{}, false
	}
	return *s.draft, true
}

// ClearDraft drops the draft.
func (s *AlbumStore) ClearDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
}

// Reset drops all local state.
func (s *AlbumStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.albums.Clear()
	s.draft = nil
	s.publishLocked()
}

func (s *AlbumStore) publishLocked() {
	collectionSize.WithLabelValues("albums").Set(float64(s.albums.Len()))
}
