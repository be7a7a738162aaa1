package docstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruo0o0/music-album/internal/music"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	bdb, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	sdb, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = bdb.Close()
		_ = sdb.Close()
	})
	return map[string]Backend{"badger": bdb, "sqlite": sdb}
}

func at(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
}

func TestRepository_RoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewTrackRepository(b)

			idNew, err := repo.Add(ctx, "u1", music.TrackDraft{Title: "new", CreatedDate: at(3)})
			require.NoError(t, err)
			idOld, err := repo.Add(ctx, "u1", music.TrackDraft{
				Title:       "old",
				CreatedDate: at(1),
				Comment:     &music.Comment{Text: "hi", Date: at(2)},
			})
			require.NoError(t, err)
			_, err = repo.Add(ctx, "u2", music.TrackDraft{Title: "someone else", CreatedDate: at(2)})
			require.NoError(t, err)
			assert.NotEqual(t, idNew, idOld)

			list, err := repo.List(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, idOld, list[0].ID, "oldest first")
			assert.Equal(t, idNew, list[1].ID)
			require.NotNil(t, list[0].Comment)
			assert.Equal(t, "hi", list[0].Comment.Text)
			assert.True(t, list[0].CreatedDate.Equal(at(1)))

			require.NoError(t, repo.Update(ctx, "u1", idOld, music.TrackPatch{ClearComment: true, Title: music.Ptr("renamed")}))
			list, err = repo.List(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, "renamed", list[0].Title)
			assert.Nil(t, list[0].Comment)

			require.NoError(t, repo.Delete(ctx, "u1", idNew))
			list, err = repo.List(ctx, "u1")
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestRepository_MissingDocuments(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewAlbumRepository(b)

			err := repo.Update(ctx, "u1", "nope", music.AlbumPatch{Title: music.Ptr("x")})
			assert.ErrorIs(t, err, music.ErrNotFound)
			assert.ErrorIs(t, repo.Delete(ctx, "u1", "nope"), music.ErrNotFound)

			id, err := repo.Add(ctx, "u1", music.AlbumDraft{Title: "mine"})
			require.NoError(t, err)
			assert.ErrorIs(t, repo.Delete(ctx, "u2", id), music.ErrNotFound, "other users cannot see it")

			list, err := repo.List(ctx, "u3")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestRepository_CollectionsAreSeparate(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := NewTrackRepository(b).Add(ctx, "u1", music.TrackDraft{Title: "t"})
			require.NoError(t, err)

			albums, err := NewAlbumRepository(b).List(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, albums)
		})
	}
}

func TestSQLite_MigratesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "album.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	v, err := db.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, v)

	id, err := NewTrackRepository(db).Add(context.Background(), "u1", music.TrackDraft{Title: "persisted"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	list, err := NewTrackRepository(db).List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
}

func TestBadger_PersistsToDisk(t *testing.T) {
	dir := t.TempDir()

	db, err := OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	id, err := NewAlbumRepository(db).Add(context.Background(), "u1", music.AlbumDraft{Title: "kept"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer db.Close()
	list, err := NewAlbumRepository(db).List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "kept", list[0].Title)
}

func TestOpenBadger_RequiresPath(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	assert.Error(t, err)
}
