package state

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ruo0o0/music-album/internal/music"
)

type fakeSession struct{ uid string }

func (f fakeSession) UserID() (string, bool) { return f.uid, f.uid != "" }
func (f fakeSession) Token() string          { return "token-" + f.uid }

// fakeRepo is an in-memory repository. ids, when set, are handed out in
// order before falling back to generated ones.
type fakeRepo[D music.Draft[E], P music.Patch[E], E music.Document] struct {
	mu    sync.Mutex
	docs  map[string]E
	ids   []string
	seq   int
	err   error // returned by every call while set
	calls []string

	delay    time.Duration
	inflight atomic.Int32
	maxSeen  atomic.Int32
}

func newFakeRepo[D music.Draft[E], P music.Patch[E], E music.Document](ids ...string) *fakeRepo[D, P, E] {
	return &fakeRepo[D, P, E]{docs: make(map[string]E), ids: ids}
}

func newTrackRepo(ids ...string) *fakeRepo[music.TrackDraft, music.TrackPatch, music.Track] {
	return newFakeRepo[music.TrackDraft, music.TrackPatch, music.Track](ids...)
}

func newAlbumRepo(ids ...string) *fakeRepo[music.AlbumDraft, music.AlbumPatch, music.Album] {
	return newFakeRepo[music.AlbumDraft, music.AlbumPatch, music.Album](ids...)
}

func (r *fakeRepo[D, P, E]) enter() func() {
	n := r.inflight.Add(1)
	for {
		m := r.maxSeen.Load()
		if n <= m || r.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return func() { r.inflight.Add(-1) }
}

func (r *fakeRepo[D, P, E]) Add(_ context.Context, uid string, d D) (string, error) {
	defer r.enter()()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "add")
	if r.err != nil {
		return "", r.err
	}
	var id string
	if len(r.ids) > 0 {
		id, r.ids = r.ids[0], r.ids[1:]
	} else {
		r.seq++
		id = fmt.Sprintf("%s-%d", uid, r.seq)
	}
	if id != "" {
		r.docs[id] = d.Commit(id)
	}
	return id, nil
}

func (r *fakeRepo[D, P, E]) Update(_ context.Context, _ string, id string, p P) error {
	defer r.enter()()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "update:"+id)
	if r.err != nil {
		return r.err
	}
	cur, ok := r.docs[id]
	if !ok {
		return music.E(music.KindNotFound, "fake update", id, nil)
	}
	r.docs[id] = p.Apply(cur)
	return nil
}

func (r *fakeRepo[D, P, E]) Delete(_ context.Context, _ string, id string) error {
	defer r.enter()()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "delete:"+id)
	if r.err != nil {
		return r.err
	}
	if _, ok := r.docs[id]; !ok {
		return music.E(music.KindNotFound, "fake delete", id, nil)
	}
	delete(r.docs, id)
	return nil
}

func (r *fakeRepo[D, P, E]) List(_ context.Context, _ string) ([]E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "list")
	if r.err != nil {
		return nil, r.err
	}
	out := make([]E, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created().Equal(out[j].Created()) {
			return out[i].EntityID() < out[j].EntityID()
		}
		return out[i].Created().Before(out[j].Created())
	})
	return out, nil
}

func (r *fakeRepo[D, P, E]) put(e E) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[e.EntityID()] = e
}

func (r *fakeRepo[D, P, E]) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *fakeRepo[D, P, E]) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

type fakeSearcher struct {
	mu      sync.Mutex
	pages   map[int][]music.FeedEntry
	err     error
	queries []music.FeedQuery
	// gates, when set for a page, hold that page's searches until closed.
	gates map[int]chan struct{}
}

func (f *fakeSearcher) Search(_ context.Context, q music.FeedQuery) ([]music.FeedEntry, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.gates[q.Page]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[q.Page], nil
}

func (f *fakeSearcher) gate(page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = make(map[int]chan struct{})
	}
	ch := make(chan struct{})
	f.gates[page] = ch
	return ch
}

func (f *fakeSearcher) pagesRequested() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.queries))
	for i, q := range f.queries {
		out[i] = q.Page
	}
	return out
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func commented(t *testing.T, date string) *music.Comment {
	return &music.Comment{Text: "note " + date, Date: day(t, date)}
}

func entry(t *testing.T, id, owner, date string) music.FeedEntry {
	e := music.FeedEntry{Track: music.Track{ID: id, OwnerID: owner, Title: id, Public: true}}
	if date != "" {
		e.Comment = commented(t, date)
	}
	return e
}

func trackIDs(ts []music.Track) []string {
	ids := make([]string, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	return ids
}

func entryIDs(es []music.FeedEntry) []string {
	ids := make([]string, len(es))
	for i, e := range es {
		ids[i] = e.ID
	}
	return ids
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

type fixture struct {
	store    *Store
	tracks   *fakeRepo[music.TrackDraft, music.TrackPatch, music.Track]
	albums   *fakeRepo[music.AlbumDraft, music.AlbumPatch, music.Album]
	searcher *fakeSearcher
}

func newFixture(t *testing.T, trackIDs ...string) *fixture {
	t.Helper()
	f := &fixture{
		tracks:   newTrackRepo(trackIDs...),
		albums:   newAlbumRepo(),
		searcher: &fakeSearcher{pages: map[int][]music.FeedEntry{}},
	}
	f.store = New(Options{
		Session: fakeSession{uid: "u1"},
		Tracks:  f.tracks,
		Albums:  f.albums,
		Feed:    f.searcher,
		Now:     fixedNow,
	})
	return f
}
