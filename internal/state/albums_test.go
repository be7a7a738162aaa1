package state

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruo0o0/music-album/internal/music"
)

func TestAlbumStore_Lifecycle(t *testing.T) {
	repo := newAlbumRepo("a1", "a2")
	s := New(Options{Session: fakeSession{uid: "u1"}, Albums: repo, Now: fixedNow})
	ctx := context.Background()

	first, err := s.Albums.AddAlbum(ctx, music.AlbumDraft{Title: "one"})
	require.NoError(t, err)
	assert.Equal(t, "u1", first.OwnerID)
	assert.Equal(t, fixedNow(), first.CreatedDate)
	_, err = s.Albums.AddAlbum(ctx, music.AlbumDraft{Title: "two"})
	require.NoError(t, err)

	ids := func() []string {
		var out []string
		for _, a := range s.Albums.Albums() {
			out = append(out, a.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a2", "a1"}, ids())

	got, err := s.Albums.UpdateAlbum(ctx, "a1", music.AlbumPatch{Title: music.Ptr("uno")})
	require.NoError(t, err)
	assert.Equal(t, "uno", got.Title)
	assert.Equal(t, []string{"a2", "a1"}, ids(), "update keeps position")

	require.NoError(t, s.Albums.DeleteAlbum(ctx, "a2"))
	assert.Equal(t, []string{"a1"}, ids())

	calls := repo.callCount()
	assert.ErrorIs(t, s.Albums.DeleteAlbum(ctx, "a2"), music.ErrNotFound)
	_, err = s.Albums.UpdateAlbum(ctx, "a2", music.AlbumPatch{})
	assert.ErrorIs(t, err, music.ErrNotFound)
	assert.Equal(t, calls, repo.callCount())
}

func TestAlbumStore_RemoteFailure(t *testing.T) {
	repo := newAlbumRepo("a1")
	s := New(Options{Session: fakeSession{uid: "u1"}, Albums: repo})
	repo.setErr(errors.New("unreachable"))

	_, err := s.Albums.AddAlbum(context.Background(), music.AlbumDraft{})
	assert.ErrorIs(t, err, music.ErrRemoteUnavailable)
	assert.Equal(t, 0, s.Albums.Len())
}

func TestAlbumStore_Draft(t *testing.T) {
	s := New(Options{})
	s.Albums.SetDraft(music.AlbumDraft{Title: "wip"})
	d, ok := s.Albums.Draft()
	require.True(t, ok)
	assert.Equal(t, "wip", d.Title)
	s.Albums.ClearDraft()
	_, ok = s.Albums.Draft()
	assert.False(t, ok)
}

func TestAlbumStore_UpdatePublishesSize(t *testing.T) {
	repo := newAlbumRepo("a1")
	s := New(Options{Session: fakeSession{uid: "u1"}, Albums: repo, Now: fixedNow})
	ctx := context.Background()
	_, err := s.Albums.AddAlbum(ctx, music.AlbumDraft{Title: "one"})
	require.NoError(t, err)

	gauge := collectionSize.WithLabelValues("albums")
	gauge.Set(-1)
	_, err = s.Albums.UpdateAlbum(ctx, "a1", music.AlbumPatch{Public: music.Ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(gauge))
}
