package state

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ruo0o0/music-album/internal/collection"
	"github.com/ruo0o0/music-album/internal/music"
)

// TrackStore holds the signed-in user's tracks, newest first, plus the
// derived view of commented tracks ordered by comment date.
//
// Every mutating intent is remote-first: the local collections change only
// after the repository accepts the write. The store lock is never held across
// a remote call; intents on the same id are serialized by a per-id lock
// instead.
type TrackStore struct {
	repo    music.TrackRepository
	session music.SessionProvider
	logger  *slog.Logger
	now     func() time.Time
	keys    keyLocker

	// onAdd runs after a committed add, outside the store lock.
	onAdd func(music.Track)

	mu        sync.RWMutex
	owned     *collection.Collection[music.Track]
	commented *collection.Collection[music.Track]
	draft     *music.TrackDraft
	active    *music.Track
}

func newTrackStore(repo music.TrackRepository, session music.SessionProvider, logger *slog.Logger, now func() time.Time) *TrackStore {
	return &TrackStore{
		repo:      repo,
		session:   session,
		logger:    logger.With("component", "tracks"),
		now:       now,
		owned:     collection.New[music.Track](),
		commented: collection.New[music.Track](),
	}
}

// Load replaces the local collections with the repository's contents.
func (s *TrackStore) Load(ctx context.Context) error {
	const op = "load tracks"
	uid, err := currentUser(s.session, op)
	if err != nil {
		return err
	}
	rctx, done := startRemote(ctx, op, "")
	tracks, err := s.repo.List(rctx, uid)
	done(err)
	if err != nil {
		return remoteErr(op, "", err)
	}

	s.mu.Lock()
	s.owned.Clear()
	s.commented.Clear()
	// Ascending input, head insertion: newest ends up first.
	for _, t := range tracks {
		t = t.Clone()
		s.owned.Upsert(t, collection.Head)
		if t.HasComment() {
			s.commented.InsertOrdered(t, music.CommentedBefore)
		}
	}
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Info("tracks loaded", "count", len(tracks))
	return nil
}

// AddTrack persists draft and inserts the committed track at the head. A
// commented track also enters the comment view at its ordered position.
func (s *TrackStore) AddTrack(ctx context.Context, draft music.TrackDraft) (music.Track, error) {
	const op = "add track"
	uid, err := currentUser(s.session, op)
	if err != nil {
		return music.Track{}, err
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
		return music.Track{}, remoteErr(op, "", err)
	}
	if id == "" {
		return music.Track{}, music.E(music.KindLocalInvariant, op, "", errEmptyID)
	}

	track := draft.Commit(id)
	s.mu.Lock()
	s.owned.Upsert(track, collection.Head)
	if track.HasComment() {
		s.commented.InsertOrdered(track.Clone(), music.CommentedBefore)
	}
	s.publishLocked()
	hook := s.onAdd
	s.mu.Unlock()

	s.logger.Info("track added", "id", id, "commented", track.HasComment())
	if hook != nil {
		hook(track.Clone())
	}
	return track.Clone(), nil
}

// UpdateTrack persists patch and replaces the track in place. The comment
// view follows: a track that gains a comment enters it, one whose comment
// date moves is re-placed, and one that loses its comment leaves it.
func (s *TrackStore) UpdateTrack(ctx context.Context, id string, patch music.TrackPatch) (music.Track, error) {
	const op = "update track"
	uid, err := currentUser(s.session, op)
	if err != nil {
		return music.Track{}, err
	}
	unlock := s.keys.Lock(id)
	defer unlock()

	if !s.has(id) {
		return music.Track{}, notFound(op, id)
	}

	rctx, done := startRemote(ctx, op, id)
	err = s.repo.Update(rctx, uid, id, patch)
	done(err)
	if err != nil {
		return music.Track{}, remoteErr(op, id, err)
	}

	s.mu.Lock()
	cur, ok := s.owned.Find(id)
	if !ok {
		s.mu.Unlock()
		return music.Track{}, notFound(op, id)
	}
	next := patch.Apply(cur)
	s.owned.Upsert(next, collection.Head)
	s.syncCommentLocked(next)
	if s.active != nil && s.active.ID == id {
		a := next.Clone()
		s.active = &a
	}
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Debug("track updated", "id", id)
	return next.Clone(), nil
}

// DeleteTrack removes the track remotely, then from both local collections.
func (s *TrackStore) DeleteTrack(ctx context.Context, id string) error {
	const op = "delete track"
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
	removed := s.owned.Remove(id)
	s.commented.Remove(id)
	if s.active != nil && s.active.ID == id {
		s.active = nil
	}
	s.publishLocked()
	s.mu.Unlock()

	if !removed {
		return notFound(op, id)
	}
	s.logger.Info("track deleted", "id", id)
	return nil
}

// RemoveComment clears the track's comment remotely and locally and drops
// it from the comment view. The track itself stays.
func (s *TrackStore) RemoveComment(ctx context.Context, id string) error {
	const op = "remove comment"
	uid, err := currentUser(s.session, op)
	if err != nil {
		return err
	}
	unlock := s.keys.Lock(id)
	defer unlock()

	if !s.has(id) {
		return notFound(op, id)
	}

	patch := music.TrackPatch{ClearComment: true}
	rctx, done := startRemote(ctx, op, id)
	err = s.repo.Update(rctx, uid, id, patch)
	done(err)
	if err != nil {
		return remoteErr(op, id, err)
	}

	s.mu.Lock()
	ok := s.owned.Update(id, patch.Apply)
	s.commented.Remove(id)
	if s.active != nil && s.active.ID == id {
		a := patch.Apply(*s.active)
		s.active = &a
	}
	s.publishLocked()
	s.mu.Unlock()

	if !ok {
		return notFound(op, id)
	}
	s.logger.Debug("comment removed", "id", id)
	return nil
}

// ReconcileCommentView applies track to the comment view without a remote
// call. A commented track whose date is unchanged is replaced in place;
// otherwise it is re-inserted at its ordered position. An uncommented track
// leaves the view. The owned copy, if any, is refreshed too.
func (s *TrackStore) ReconcileCommentView(id string, track music.Track) {
	track = track.Clone()
	track.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owned.Contains(id) {
		s.owned.Upsert(track, collection.Head)
	}
	s.syncCommentLocked(track)
	s.publishLocked()
}

// syncCommentLocked places t in the comment view according to its comment.
func (s *TrackStore) syncCommentLocked(t music.Track) {
	if !t.HasComment() {
		s.commented.Remove(t.ID)
		return
	}
	if prev, ok := s.commented.Find(t.ID); ok && prev.CommentDate().Equal(t.CommentDate()) {
		s.commented.Upsert(t.Clone(), collection.Head)
		return
	}
	s.commented.InsertOrdered(t.Clone(), music.CommentedBefore)
}

func (s *TrackStore) has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owned.Contains(id)
}

// Tracks returns the owned tracks, newest first.
func (s *TrackStore) Tracks() []music.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTracks(s.owned.Items())
}

// CommentedTracks returns the comment view, newest comment first.
func (s *TrackStore) CommentedTracks() []music.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTracks(s.commented.Items())
}

// Find returns the owned track with the given id.
func (s *TrackStore) Find(id string) (music.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.owned.Find(id)
	if !ok {
		return music.Track{}, false
	}
	return t.Clone(), true
}

// Len returns the number of owned tracks.
func (s *TrackStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owned.Len()
}

// InAlbum returns the owned tracks filed under albumID, newest first.
func (s *TrackStore) InAlbum(albumID string) []music.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []music.Track
	for _, t := range s.owned.Items() {
		if t.AlbumID == albumID {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Search returns owned tracks whose label fuzzily matches query, best match
// first. An empty query returns every track.
func (s *TrackStore) Search(query string) []music.Track {
	if query == "" {
		return s.Tracks()
	}
	type ranked struct {
		track music.Track
		rank  int
	}
	s.mu.RLock()
	var hits []ranked
	for _, t := range s.owned.Items() {
		if r := fuzzy.RankMatchFold(query, t.Label()); r >= 0 {
			hits = append(hits, ranked{track: t.Clone(), rank: r})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })
	out := make([]music.Track, len(hits))
	for i, h := range hits {
		out[i] = h.track
	}
	return out
}

// SetDraft stores d as the track being edited.
func (s *TrackStore) SetDraft(d music.TrackDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Comment != nil {
		c := *d.Comment
		d.Comment = &c
	}
	s.draft = &d
}

// Draft returns the track being edited, if any.
func (s *TrackStore) Draft() (music.TrackDraft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.draft == nil {
		return music.TrackDraft{}, false
	}
	d := *s.draft
	if d.Comment != nil {
		c := *d.Comment
		d.Comment = &c
	}
	return d, true
}

// ClearDraft drops the draft.
func (s *TrackStore) ClearDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
}

// SetActive marks t as the currently selected track.
func (s *TrackStore) SetActive(t music.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := t.Clone()
	s.active = &a
}

// Active returns the currently selected track.
func (s *TrackStore) Active() (music.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return music.Track{}, false
	}
	return s.active.Clone(), true
}

// Reset drops all local state. Used on sign-out.
func (s *TrackStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owned.Clear()
	s.commented.Clear()
	s.draft = nil
	s.active = nil
	s.publishLocked()
}

func (s *TrackStore) publishLocked() {
	collectionSize.WithLabelValues("tracks").Set(float64(s.owned.Len()))
	collectionSize.WithLabelValues("commented").Set(float64(s.commented.Len()))
}

func cloneTracks(in []music.Track) []music.Track {
	for i := range in {
		in[i] = in[i].Clone()
	}
	return in
}
