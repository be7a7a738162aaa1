package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ruo0o0/music-album/internal/collection"
	"github.com/ruo0o0/music-album/internal/music"
)

// DefaultFeedPageSize is used when no page size is configured.
const DefaultFeedPageSize = 20

// offlineAfter is the number of consecutive sync failures after which the
// feed is reported offline.
const offlineAfter = 2

// FeedStore holds the cross-user feed of public, commented tracks and its
// pagination cursor.
type FeedStore struct {
	searcher music.FeedSearcher
	pageSize int
	logger   *slog.Logger
	now      func() time.Time

	// paging serializes NextPage so overlapping calls never fetch the same
	// page twice.
	paging sync.Mutex

	mu        sync.RWMutex
	entries   *collection.Collection[music.FeedEntry]
	byAuthor  map[string]map[string]struct{}
	query     string
	cursor    int
	hasCursor bool
	exhausted bool
	status    SyncStatus
}

// SyncStatus describes the outcome of the most recent feed syncs.
type SyncStatus struct {
	LastSync            time.Time `json:"last_sync"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// IsOffline reports whether the feed has been unreachable for several syncs.
func (s SyncStatus) IsOffline() bool {
	return s.ConsecutiveFailures >= offlineAfter
}

func newFeedStore(searcher music.FeedSearcher, pageSize int, logger *slog.Logger, now func() time.Time) *FeedStore {
	if pageSize <= 0 {
		pageSize = DefaultFeedPageSize
	}
	return &FeedStore{
		searcher: searcher,
		pageSize: pageSize,
		logger:   logger.With("component", "feed"),
		now:      now,
		entries:  collection.New[music.FeedEntry](),
		byAuthor: make(map[string]map[string]struct{}),
	}
}

// FetchPage requests one page from the search index and appends every
// commented entry, in received order, at the tail. Entries already present
// are replaced in place. The first successful fetch sets the cursor to 1.
func (s *FeedStore) FetchPage(ctx context.Context, page int) ([]music.FeedEntry, error) {
	const op = "fetch feed page"
	if s.searcher == nil {
		return nil, music.E(music.KindPreconditionNotMet, op, "", errNoSearcher)
	}

	s.mu.RLock()
	q := music.FeedQuery{Query: s.query, Filter: music.CommentedPublic, Page: page, PageSize: s.pageSize}
	s.mu.RUnlock()

	rctx, done := startRemote(ctx, op, "")
	got, err := s.searcher.Search(rctx, q)
	done(err)
	if err != nil {
		return nil, remoteErr(op, "", err)
	}

	applied := make([]music.FeedEntry, 0, len(got))
	fresh := 0
	s.mu.Lock()
	for _, e := range got {
		if !e.HasComment() {
			s.logger.Debug("skipping uncommented feed entry", "id", e.ID)
			continue
		}
		if !s.entries.Contains(e.ID) {
			fresh++
		}
		e = e.Clone()
		s.upsertLocked(e, collection.Tail)
		applied = append(applied, e.Clone())
	}
	switch {
	case !s.hasCursor:
		s.cursor = 1
		s.hasCursor = true
	case page >= s.cursor:
		s.exhausted = len(got) == 0
	case page == 0 && fresh > 0 && s.exhausted:
		// New entries at the head push older ones onto later pages.
		s.exhausted = false
		s.logger.Debug("feed head changed, frontier reopened", "cursor", s.cursor, "fresh", fresh)
	}
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Debug("feed page fetched", "page", page, "received", len(got), "applied", len(applied))
	return applied, nil
}

// NextPage fetches the page after the ones already loaded. The first call
// fetches page 0. When the fetched page is non-empty the cursor advances.
// Concurrent calls run one after another, each on the page left by the
// previous one.
func (s *FeedStore) NextPage(ctx context.Context) ([]music.FeedEntry, error) {
	s.paging.Lock()
	defer s.paging.Unlock()

	s.mu.RLock()
	page, started, exhausted := s.cursor, s.hasCursor, s.exhausted
	s.mu.RUnlock()

	if !started {
		return s.FetchPage(ctx, 0)
	}
	if exhausted {
		return nil, music.E(music.KindFeedExhausted, "next feed page", "", nil)
	}
	entries, err := s.FetchPage(ctx, page)
	if err != nil {
		return nil, err
	}
	if s.Exhausted() {
		return entries, nil
	}
	if _, err := s.LoadMore(); err != nil {
		return entries, err
	}
	return entries, nil
}

// LoadMore advances the cursor by one and returns the new value. It fails
// before the first fetch and once the feed has run out of pages.
func (s *FeedStore) LoadMore() (int, error) {
	const op = "load more"
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCursor {
		return 0, music.E(music.KindPreconditionNotMet, op, "", errNoCursor)
	}
	if s.exhausted {
		return s.cursor, music.E(music.KindFeedExhausted, op, "", nil)
	}
	s.cursor++
	return s.cursor, nil
}

// InjectOwn surfaces the user's own freshly commented track at the head of
// the feed ahead of the next fetch. An entry with the same id is moved to the
// head. Entries without a comment are refused.
func (s *FeedStore) InjectOwn(e music.FeedEntry) bool {
	if !e.HasComment() {
		return false
	}
	e = e.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(e.ID)
	s.entries.Upsert(e, collection.Head)
	s.indexLocked(e)
	s.publishLocked()
	return true
}

// appendOwn mirrors a newly added own track to the tail of the feed.
func (s *FeedStore) appendOwn(e music.FeedEntry) bool {
	if !e.HasComment() {
		return false
	}
	e = e.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(e, collection.Tail)
	s.publishLocked()
	return true
}

// UpdateEntry applies patch to the single entry with the given track id.
// Other entries by the same author are left alone; see UpdateAuthor.
func (s *FeedStore) UpdateEntry(id string, patch music.AttributionPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Update(id, func(e music.FeedEntry) music.FeedEntry {
		e = e.Clone()
		e.Attribution = patch.Apply(e.Attribution)
		return e
	})
}

// UpdateAuthor applies patch to every entry owned by authorID and returns
// how many entries changed.
func (s *FeedStore) UpdateAuthor(authorID string, patch music.AttributionPatch) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.byAuthor[authorID] {
		ok := s.entries.Update(id, func(e music.FeedEntry) music.FeedEntry {
			e = e.Clone()
			e.Attribution = patch.Apply(e.Attribution)
			return e
		})
		if ok {
			n++
		}
	}
	return n
}

// RemoveEntry drops the entry with the given id. It reports false when absent.
func (s *FeedStore) RemoveEntry(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.removeLocked(id)
	s.publishLocked()
	return ok
}

// SetQuery switches the feed to a new search query. The loaded entries and
// the cursor are dropped since they belong to the old query.
func (s *FeedStore) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q == s.query {
		return
	}
	s.query = q
	s.resetLocked()
}

// Query returns the current search query.
func (s *FeedStore) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// RecordSync notes the result of a background sync.
func (s *FeedStore) RecordSync(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastSync = s.now()
	if err != nil {
		s.status.LastError = err.Error()
		s.status.ConsecutiveFailures++
		return
	}
	s.status.LastError = ""
	s.status.ConsecutiveFailures = 0
}

// SyncStatus returns the result of recent syncs.
func (s *FeedStore) SyncStatus() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Entries returns the feed in display order.
func (s *FeedStore) Entries() []music.FeedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.entries.Items()
	for i := range items {
		items[i] = items[i].Clone()
	}
	return items
}

// Find returns the entry with the given id.
func (s *FeedStore) Find(id string) (music.FeedEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries.Find(id)
	if !ok {
		return music.FeedEntry{}, false
	}
	return e.Clone(), true
}

// Len returns the number of entries.
func (s *FeedStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Len()
}

// Cursor returns the next page to request. ok is false before the first
// successful fetch.
func (s *FeedStore) Cursor() (page int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor, s.hasCursor
}

// Exhausted reports whether a fetch past the loaded pages came back empty.
func (s *FeedStore) Exhausted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exhausted
}

// Reset drops every entry and the cursor.
func (s *FeedStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.status = SyncStatus{}
}

func (s *FeedStore) resetLocked() {
	s.entries.Clear()
	s.byAuthor = make(map[string]map[string]struct{})
	s.cursor = 0
	s.hasCursor = false
	s.exhausted = false
	s.publishLocked()
}

func (s *FeedStore) upsertLocked(e music.FeedEntry, pos collection.Position) {
	if prev, ok := s.entries.Find(e.ID); ok && prev.OwnerID != e.OwnerID {
		s.unindexLocked(prev)
	}
	s.entries.Upsert(e, pos)
	s.indexLocked(e)
}

func (s *FeedStore) indexLocked(e music.FeedEntry) {
	if e.OwnerID == "" {
		return
	}
	ids, ok := s.byAuthor[e.OwnerID]
	if !ok {
		ids = make(map[string]struct{})
		s.byAuthor[e.OwnerID] = ids
	}
	ids[e.ID] = struct{}{}
}

func (s *FeedStore) removeLocked(id string) bool {
	prev, ok := s.entries.Find(id)
	if !ok {
		return false
	}
	s.entries.Remove(id)
	s.unindexLocked(prev)
	return true
}

func (s *FeedStore) unindexLocked(e music.FeedEntry) {
	if ids := s.byAuthor[e.OwnerID]; ids != nil {
		delete(ids, e.ID)
		if len(ids) == 0 {
			delete(s.byAuthor, e.OwnerID)
		}
	}
}

func (s *FeedStore) publishLocked() {
	collectionSize.WithLabelValues("feed").Set(float64(s.entries.Len()))
}
