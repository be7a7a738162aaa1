package cli

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ruo0o0/music-album/internal/music"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

var (
	day = time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	fixtureAlbums = []music.Album{
		{ID: "a1", Title: "Heroes", Public: true},
		{ID: "a2", Title: "Low"},
	}

	fixtureTracks = []music.Track{
		{
			ID: "t2", Title: "Heroes", Artist: "David Bowie", AlbumID: "a1", Public: true,
			CreatedDate: day.Add(-time.Hour),
			Comment:     &music.Comment{Text: "still great", Date: day},
		},
		{ID: "t1", Title: "Warszawa", AlbumID: "gone", CreatedDate: day.Add(-2 * time.Hour)},
	}

	fixtureFeed = []music.FeedEntry{
		{Track: music.Track{
			ID: "t9", OwnerID: "u2", Title: "Hyperballad", Artist: "Bjork",
			Attribution: music.Attribution{DisplayName: "Mo"},
			Comment:     &music.Comment{Text: "play it loud", Date: day},
		}},
		{Track: music.Track{
			ID: "t2", OwnerID: "u1", Title: "Heroes", Artist: "David Bowie",
			Comment: &music.Comment{Text: "still great", Date: day.Add(-time.Minute)},
		}},
	}
)

func render(t *testing.T, format string, data any, text func(w io.Writer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	f := &OutputFormatter{Format: format, Writer: &buf}
	require.NoError(t, f.Success(data, text))
	return buf.Bytes()
}

func TestTrackViews(t *testing.T) {
	views := trackViews(fixtureTracks, fixtureAlbums)
	require.Len(t, views, 2)
	assert.Equal(t, "Heroes", views[0].Album)
	assert.Equal(t, "2026-01-02T10:00:00Z", views[0].CommentDate)
	assert.Equal(t, "gone", views[1].Album, "unknown album falls back to its id")
	assert.Empty(t, views[1].Comment)
}

func TestTracksGolden(t *testing.T) {
	g := newGoldie(t)
	views := trackViews(fixtureTracks, fixtureAlbums)

	g.Assert(t, "tracks_text", render(t, FormatText, views, func(w io.Writer) error { return writeTracks(w, views) }))
	g.Assert(t, "tracks_json", render(t, FormatJSON, views, func(w io.Writer) error { return writeTracks(w, views) }))
}

func TestAlbumsGolden(t *testing.T) {
	g := newGoldie(t)
	views := albumViews(fixtureAlbums, fixtureTracks)

	g.Assert(t, "albums_text", render(t, FormatText, views, func(w io.Writer) error { return writeAlbums(w, views) }))
}

func TestFeedGolden(t *testing.T) {
	g := newGoldie(t)
	views := feedViews(fixtureFeed, "u1")

	g.Assert(t, "feed_text", render(t, FormatText, views, func(w io.Writer) error { return writeFeed(w, views) }))
}

func TestImportGolden(t *testing.T) {
	g := newGoldie(t)
	view := ImportView{
		Added:  trackViews(fixtureTracks[:1], fixtureAlbums),
		Failed: []FailureView{{Path: "/music/notes.txt", Error: "read tags of /music/notes.txt: no tags found"}},
	}

	g.Assert(t, "import_text", render(t, FormatText, view, func(w io.Writer) error { return writeImport(w, view) }))
}

func TestEmptyLists(t *testing.T) {
	assert.Equal(t, "No tracks.\n", string(render(t, FormatText, nil, func(w io.Writer) error { return writeTracks(w, nil) })))
	assert.Equal(t, "No albums.\n", string(render(t, FormatText, nil, func(w io.Writer) error { return writeAlbums(w, nil) })))
	assert.Equal(t, "The feed is empty.\n", string(render(t, FormatText, nil, func(w io.Writer) error { return writeFeed(w, nil) })))
}

func TestYAMLOutput(t *testing.T) {
	views := albumViews(fixtureAlbums, fixtureTracks)
	out := render(t, FormatYAML, views, nil)

	var got []AlbumView
	require.NoError(t, yaml.Unmarshal(out, &got))
	assert.Equal(t, views, got)
}

func TestWriteTablePadsColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, []string{"A", "B", "C"}, [][]string{
		{"long cell", "x", ""},
		{"y", "", "z"},
	}))
	assert.Equal(t, "A          B  C\nlong cell  x\ny             z\n", buf.String())
}
