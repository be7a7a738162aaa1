package searchindex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/ruo0o0/music-album/internal/music"
)

const feedJSON = `{
  "data": {
    "Get": {
      "CommentedTrack": [
        {
          "trackId": "t2", "ownerId": "u2", "title": "Heroes", "artist": "Bowie",
          "public": true, "hasComment": true, "commentText": "classic",
          "commentDate": "2024-05-02T10:00:00Z", "createdDate": "2024-05-01T10:00:00Z",
          "profileName": "Ziggy", "profileImage": "z.png"
        },
        {
          "trackId": "t1", "ownerId": "u1", "title": "Low",
          "public": true, "hasComment": false
        },
        {"title": "no id"}
      ]
    }
  }
}`

func decodeResponse(t *testing.T, body string) *models.GraphQLResponse {
	t.Helper()
	var resp models.GraphQLResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	return &resp
}

func TestParseEntries(t *testing.T) {
	entries, err := parseEntries(decodeResponse(t, feedJSON), DefaultClass)
	require.NoError(t, err)
	require.Len(t, entries, 2, "objects without a track id are dropped")

	first := entries[0]
	assert.Equal(t, "t2", first.ID)
	assert.Equal(t, "u2", first.OwnerID)
	assert.Equal(t, "Heroes - Bowie", first.Label())
	assert.Equal(t, "Ziggy", first.Attribution.DisplayName)
	assert.Equal(t, "z.png", first.Attribution.AvatarURL)
	require.NotNil(t, first.Comment)
	assert.Equal(t, "classic", first.Comment.Text)
	assert.True(t, first.Comment.Date.Equal(time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)))
	assert.True(t, first.CreatedDate.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))

	assert.Nil(t, entries[1].Comment)
}

func TestParseEntries_OtherClassAndEmpty(t *testing.T) {
	entries, err := parseEntries(decodeResponse(t, feedJSON), "Elsewhere")
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = parseEntries(nil, DefaultClass)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWhereFilter(t *testing.T) {
	assert.Nil(t, whereFilter(music.FeedQuery{}))

	single := whereFilter(music.FeedQuery{Filter: music.FeedFilter{PublicOnly: true}}).Build()
	assert.Equal(t, []string{propPublic}, single.Path)
	require.NotNil(t, single.ValueBoolean)
	assert.True(t, *single.ValueBoolean)

	both := whereFilter(music.FeedQuery{Filter: music.CommentedPublic}).Build()
	assert.Equal(t, "And", both.Operator)
	require.Len(t, both.Operands, 2)
	assert.Equal(t, []string{propPublic}, both.Operands[0].Path)
	assert.Equal(t, []string{propHasComment}, both.Operands[1].Path)

	withText := whereFilter(music.FeedQuery{Query: " bowie ", Filter: music.CommentedPublic}).Build()
	require.Len(t, withText.Operands, 3)
	text := withText.Operands[2]
	assert.Equal(t, "Or", text.Operator)
	require.Len(t, text.Operands, 3)
	require.NotNil(t, text.Operands[0].ValueText)
	assert.Equal(t, "*bowie*", *text.Operands[0].ValueText)
}

func TestTrackProperties(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	props := trackProperties(music.Track{
		ID:          "t1",
		OwnerID:     "u1",
		Title:       "Song",
		Public:      true,
		CreatedDate: created,
		Comment:     &music.Comment{Text: "nice", Date: created.Add(time.Hour)},
	})
	assert.Equal(t, "t1", props[propTrackID])
	assert.Equal(t, true, props[propHasComment])
	assert.Equal(t, "nice", props[propCommentText])
	assert.Equal(t, "2024-01-02T04:04:05Z", props[propCommentDate])
	assert.Equal(t, "2024-01-02T03:04:05Z", props[propCreatedDate])

	bare := trackProperties(music.Track{ID: "t2"})
	assert.Equal(t, false, bare[propHasComment])
	assert.NotContains(t, bare, propCommentDate)
	assert.NotContains(t, bare, propCreatedDate)
}

func TestObjectID_Deterministic(t *testing.T) {
	assert.Equal(t, ObjectID("t1"), ObjectID("t1"))
	assert.NotEqual(t, ObjectID("t1"), ObjectID("t2"))
	assert.Len(t, ObjectID("t1"), 36)
}

func TestFeedClass(t *testing.T) {
	class := feedClass("Feed")
	assert.Equal(t, "Feed", class.Class)
	assert.Equal(t, "none", class.Vectorizer)
	names := make([]string, 0, len(class.Properties))
	for _, p := range class.Properties {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, propCommentDate)
	assert.Contains(t, names, propHasComment)
	assert.Len(t, class.Properties, len(feedFields()))
}

func TestNew_RequiresHost(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	idx, err := New(Config{Host: "localhost:8080"})
	require.NoError(t, err)
	assert.Equal(t, DefaultClass, idx.Class())
	assert.Equal(t, defaultPageSize, idx.pageSize)
}

// fakeWeaviate answers the handful of endpoints the client touches.
func fakeWeaviate(t *testing.T, graphqlStatus int, graphqlBody string, queries *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/graphql"):
			body, _ := io.ReadAll(r.Body)
			if queries != nil {
				*queries = append(*queries, string(body))
			}
			w.WriteHeader(graphqlStatus)
			_, _ = w.Write([]byte(graphqlBody))
		case strings.HasSuffix(r.URL.Path, "/meta"):
			_, _ = w.Write([]byte(`{"version":"1.35.2"}`))
		case strings.Contains(r.URL.Path, "/.well-known/ready"):
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestIndex(t *testing.T, srv *httptest.Server) *Index {
	t.Helper()
	idx, err := New(Config{Host: strings.TrimPrefix(srv.URL, "http://"), PageSize: 5})
	require.NoError(t, err)
	return idx
}

func TestSearch_QueriesClassAndParses(t *testing.T) {
	var queries []string
	srv := fakeWeaviate(t, http.StatusOK, feedJSON, &queries)
	idx := newTestIndex(t, srv)

	entries, err := idx.Search(context.Background(), music.FeedQuery{Filter: music.CommentedPublic, Page: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "t2", entries[0].ID)

	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], DefaultClass)
	assert.Contains(t, queries[0], propHasComment)
	assert.Contains(t, queries[0], propCommentDate)
}

func TestSearch_GraphQLErrorsAreRemoteUnavailable(t *testing.T) {
	srv := fakeWeaviate(t, http.StatusOK, `{"errors":[{"message":"no such class"}]}`, nil)
	idx := newTestIndex(t, srv)

	_, err := idx.Search(context.Background(), music.FeedQuery{Filter: music.CommentedPublic})
	require.Error(t, err)
	assert.ErrorIs(t, err, music.ErrRemoteUnavailable)
	assert.Contains(t, err.Error(), "no such class")
}

func TestSearch_Unreachable(t *testing.T) {
	srv := fakeWeaviate(t, http.StatusOK, feedJSON, nil)
	idx := newTestIndex(t, srv)
	srv.Close()

	_, err := idx.Search(context.Background(), music.FeedQuery{})
	assert.ErrorIs(t, err, music.ErrRemoteUnavailable)
}
