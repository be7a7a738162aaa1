package music

import (
	"context"
	"time"
)

// Document is an entity a repository can store and order.
type Document interface {
	EntityID() string
	Created() time.Time
}

// Draft is an uncommitted document that becomes E once the remote store
// assigns it an id.
type Draft[E any] interface {
	Commit(id string) E
}

// Patch is a partial update of E.
type Patch[E any] interface {
	Apply(E) E
}

// Repository is a per-user document collection in the authoritative store.
type Repository[D, P, E any] interface {
	// Add persists draft and returns the id the store assigned to it.
	Add(ctx context.Context, userID string, draft D) (string, error)
	// Update applies patch to the stored document.
	Update(ctx context.Context, userID, id string, patch P) error
	// Delete removes the stored document.
	Delete(ctx context.Context, userID, id string) error
	// List returns every document ordered by created date ascending.
	List(ctx context.Context, userID string) ([]E, error)
}

// TrackRepository stores a user's tracks.
type TrackRepository = Repository[TrackDraft, TrackPatch, Track]

// AlbumRepository stores a user's albums.
type AlbumRepository = Repository[AlbumDraft, AlbumPatch, Album]

// FeedFilter restricts which documents the search index returns.
type FeedFilter struct {
	PublicOnly    bool
	CommentedOnly bool
}

// CommentedPublic is the fixed filter of the global feed.
var CommentedPublic = FeedFilter{PublicOnly: true, CommentedOnly: true}

// String renders the filter in the index's filter syntax.
func (f FeedFilter) String() string {
	switch {
	case f.PublicOnly && f.CommentedOnly:
		return "public=1 AND NOT hasComment=false"
	case f.PublicOnly:
		return "public=1"
	case f.CommentedOnly:
		return "NOT hasComment=false"
	default:
		return ""
	}
}

// FeedQuery is one page request to the search index.
type FeedQuery struct {
	Query    string
	Filter   FeedFilter
	Page     int
	PageSize int
}

// FeedSearcher is the pull-only search index feed.
type FeedSearcher interface {
	Search(ctx context.Context, q FeedQuery) ([]FeedEntry, error)
}

// SessionProvider supplies the signed-in user.
type SessionProvider interface {
	// UserID returns the current user id, false when signed out.
	UserID() (string, bool)
	// Token returns the auth token for remote calls.
	Token() string
}
