package docstore

import (
	"context"
	"time"

	"github.com/ruo0o0/music-album/internal/music"
)

// Collection names used by the repositories.
const (
	CollectionTracks = "tracks"
	CollectionAlbums = "albums"
)

// Key addresses one document.
type Key struct {
	UserID     string
	Collection string
	ID         string
}

// Record is a stored document: its key, creation time and JSON body.
type Record struct {
	Key
	Created time.Time
	Body    []byte
}

// Backend persists raw documents. Implementations must be safe for
// concurrent use. Missing documents are reported as music.ErrNotFound.
type Backend interface {
	// Insert stores a new document, replacing any document with the same key.
	Insert(ctx context.Context, rec Record) error
	// Modify atomically rewrites the body of an existing document.
	Modify(ctx context.Context, key Key, fn func(body []byte) ([]byte, error)) error
	// Delete removes a document.
	Delete(ctx context.Context, key Key) error
	// List returns a user's documents in one collection, oldest first. Ties
	// on the creation time are broken by id.
	List(ctx context.Context, userID, collection string) ([]Record, error)
	// Close releases the backend's resources.
	Close() error
}

func notFound(op string, key Key) error {
	return music.E(music.KindNotFound, op, key.ID, nil)
}
