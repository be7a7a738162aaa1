package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ruo0o0/music-album/internal/music"
)

// Repository implements music.Repository on top of a Backend. Documents are
// stored as JSON and ids are time-ordered UUIDs.
type Repository[D music.Draft[E], P music.Patch[E], E music.Document] struct {
	backend    Backend
	collection string
	newID      func() (string, error)
}

var (
	_ music.TrackRepository = (*Repository[music.TrackDraft, music.TrackPatch, music.Track])(nil)
	_ music.AlbumRepository = (*Repository[music.AlbumDraft, music.AlbumPatch, music.Album])(nil)
)

// NewRepository returns a repository storing documents under collection.
func NewRepository[D music.Draft[E], P music.Patch[E], E music.Document](b Backend, collection string) *Repository[D, P, E] {
	return &Repository[D, P, E]{backend: b, collection: collection, newID: newUUID}
}

// NewTrackRepository returns the track repository for b.
func NewTrackRepository(b Backend) *Repository[music.TrackDraft, music.TrackPatch, music.Track] {
	return NewRepository[music.TrackDraft, music.TrackPatch, music.Track](b, CollectionTracks)
}

// NewAlbumRepository returns the album repository for b.
func NewAlbumRepository(b Backend) *Repository[music.AlbumDraft, music.AlbumPatch, music.Album] {
	return NewRepository[music.AlbumDraft, music.AlbumPatch, music.Album](b, CollectionAlbums)
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Add commits draft under a fresh id and stores it.
func (r *Repository[D, P, E]) Add(ctx context.Context, userID string, draft D) (string, error) {
	id, err := r.newID()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	doc := draft.Commit(id)
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", r.collection, err)
	}
	rec := Record{
		Key:     Key{UserID: userID, Collection: r.collection, ID: id},
		Created: doc.Created(),
		Body:    body,
	}
	if err := r.backend.Insert(ctx, rec); err != nil {
		return "", err
	}
	return id, nil
}

// Update applies patch to the stored document.
func (r *Repository[D, P, E]) Update(ctx context.Context, userID, id string, patch P) error {
	key := Key{UserID: userID, Collection: r.collection, ID: id}
	return r.backend.Modify(ctx, key, func(body []byte) ([]byte, error) {
		var doc E
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", r.collection, id, err)
		}
		return json.Marshal(patch.Apply(doc))
	})
}

// Delete removes the stored document.
func (r *Repository[D, P, E]) Delete(ctx context.Context, userID, id string) error {
	return r.backend.Delete(ctx, Key{UserID: userID, Collection: r.collection, ID: id})
}

// List returns every stored document, oldest first.
func (r *Repository[D, P, E]) List(ctx context.Context, userID string) ([]E, error) {
	recs, err := r.backend.List(ctx, userID, r.collection)
	if err != nil {
		return nil, err
	}
	out := make([]E, 0, len(recs))
	for _, rec := range recs {
		var doc E
		if err := json.Unmarshal(rec.Body, &doc); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", r.collection, rec.ID, err)
		}
		out = append(out, doc)
	}
	return out, nil
}
