package searchindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ruo0o0/music-album/internal/music"
)

const (
	// DefaultClass is the weaviate class holding feed entries.
	DefaultClass    = "CommentedTrack"
	defaultPageSize = 20
)

var tracer = otel.Tracer("album.searchindex")

// Property names of the feed class.
const (
	propTrackID      = "trackId"
	propOwnerID      = "ownerId"
	propTitle        = "title"
	propArtist       = "artist"
	propImageURL     = "imageUrl"
	propPreviewURL   = "previewUrl"
	propPublic       = "public"
	propHasComment   = "hasComment"
	propCommentText  = "commentText"
	propCommentDate  = "commentDate"
	propCreatedDate  = "createdDate"
	propProfileName  = "profileName"
	propProfileImage = "profileImage"
)

// Config locates the weaviate instance.
type Config struct {
	Host   string
	Scheme string
	// Class defaults to DefaultClass.
	Class string
	// PageSize is used when a query does not set one.
	PageSize int
	Logger   *slog.Logger
}

// Index is the global feed backed by a weaviate class. It satisfies
// music.FeedSearcher and can publish a user's own tracks into the class.
type Index struct {
	client   *weaviate.Client
	class    string
	pageSize int
	logger   *slog.Logger
}

var _ music.FeedSearcher = (*Index)(nil)

// New connects to weaviate. It does not contact the server.
func New(cfg Config) (*Index, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, errors.New("search index host is required")
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "http"
	}
	client, err := weaviate.NewClient(weaviate.Config{Host: host, Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	idx := &Index{
		client:   client,
		class:    cfg.Class,
		pageSize: cfg.PageSize,
		logger:   cfg.Logger,
	}
	if idx.class == "" {
		idx.class = DefaultClass
	}
	if idx.pageSize <= 0 {
		idx.pageSize = defaultPageSize
	}
	if idx.logger == nil {
		idx.logger = slog.New(slog.DiscardHandler)
	}
	return idx, nil
}

// Class returns the weaviate class name.
func (x *Index) Class() string { return x.class }

// Search returns one page of feed entries, newest comment first.
func (x *Index) Search(ctx context.Context, q music.FeedQuery) ([]music.FeedEntry, error) {
	ctx, span := tracer.Start(ctx, "searchindex.Search")
	defer span.End()

	size := q.PageSize
	if size <= 0 {
		size = x.pageSize
	}
	page := max(q.Page, 0)
	span.SetAttributes(
		attribute.Int("feed.page", page),
		attribute.Int("feed.page_size", size),
		attribute.String("feed.filter", q.Filter.String()),
	)

	get := x.client.GraphQL().Get().
		WithClassName(x.class).
		WithFields(feedFields()...).
		WithSort(graphql.Sort{Path: []string{propCommentDate}, Order: graphql.Desc}).
		WithLimit(size).
		WithOffset(page * size)
	if where := whereFilter(q); where != nil {
		get = get.WithWhere(where)
	}

	resp, err := get.Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, clientErr("search feed", err)
	}
	if len(resp.Errors) > 0 {
		err := fmt.Errorf("graphql: %s", resp.Errors[0].Message)
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, music.E(music.KindRemoteUnavailable, "search feed", "", err)
	}

	entries, err := parseEntries(resp, x.class)
	if err != nil {
		return nil, music.E(music.KindRemoteUnavailable, "search feed", "", err)
	}
	span.SetAttributes(attribute.Int("feed.results", len(entries)))
	x.logger.Debug("feed page", "page", page, "results", len(entries))
	return entries, nil
}

// EnsureSchema creates the feed class if it does not exist yet.
func (x *Index) EnsureSchema(ctx context.Context) error {
	exists, err := x.client.Schema().ClassExistenceChecker().WithClassName(x.class).Do(ctx)
	if err != nil {
		return clientErr("check schema", err)
	}
	if exists {
		return nil
	}
	if err := x.client.Schema().ClassCreator().WithClass(feedClass(x.class)).Do(ctx); err != nil {
		return clientErr("create schema", err)
	}
	x.logger.Info("created search class", "class", x.class)
	return nil
}

// Publish writes t into the index, replacing any earlier version. Tracks
// that are not public or carry no comment are removed instead.
func (x *Index) Publish(ctx context.Context, t music.Track) error {
	if !t.Public || !t.HasComment() {
		return x.Unpublish(ctx, t.ID)
	}
	id := ObjectID(t.ID)
	props := trackProperties(t)

	exists, err := x.client.Data().Checker().WithClassName(x.class).WithID(id).Do(ctx)
	if err != nil {
		return clientErr("publish track", err)
	}
	if exists {
		err = x.client.Data().Updater().WithClassName(x.class).WithID(id).WithProperties(props).Do(ctx)
	} else {
		_, err = x.client.Data().Creator().WithClassName(x.class).WithID(id).WithProperties(props).Do(ctx)
	}
	if err != nil {
		return clientErr("publish track", err)
	}
	return nil
}

// Unpublish removes the track from the index. Missing objects are ignored.
func (x *Index) Unpublish(ctx context.Context, trackID string) error {
	err := x.client.Data().Deleter().WithClassName(x.class).WithID(ObjectID(trackID)).Do(ctx)
	if err != nil && statusOf(err) != http.StatusNotFound {
		return clientErr("unpublish track", err)
	}
	return nil
}

// ObjectID maps a track id to the deterministic UUID weaviate stores it under.
func ObjectID(trackID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("album:track:"+trackID)).String()
}

func whereFilter(q music.FeedQuery) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder
	if q.Filter.PublicOnly {
		operands = append(operands, filters.Where().
			WithPath([]string{propPublic}).
			WithOperator(filters.Equal).
			WithValueBoolean(true))
	}
	if q.Filter.CommentedOnly {
		operands = append(operands, filters.Where().
			WithPath([]string{propHasComment}).
			WithOperator(filters.Equal).
			WithValueBoolean(true))
	}
	if text := strings.TrimSpace(q.Query); text != "" {
		pattern := "*" + text + "*"
		operands = append(operands, filters.Where().
			WithOperator(filters.Or).
			WithOperands([]*filters.WhereBuilder{
				filters.Where().WithPath([]string{propTitle}).WithOperator(filters.Like).WithValueText(pattern),
				filters.Where().WithPath([]string{propArtist}).WithOperator(filters.Like).WithValueText(pattern),
				filters.Where().WithPath([]string{propCommentText}).WithOperator(filters.Like).WithValueText(pattern),
			}))
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().WithOperator(filters.And).WithOperands(operands)
	}
}

func feedFields() []graphql.Field {
	names := []string{
		propTrackID, propOwnerID, propTitle, propArtist, propImageURL, propPreviewURL,
		propPublic, propHasComment, propCommentText, propCommentDate, propCreatedDate,
		propProfileName, propProfileImage,
	}
	fields := make([]graphql.Field, 0, len(names))
	for _, n := range names {
		fields = append(fields, graphql.Field{Name: n})
	}
	return fields
}

type feedObject struct {
	TrackID      string `json:"trackId"`
	OwnerID      string `json:"ownerId"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	ImageURL     string `json:"imageUrl"`
	PreviewURL   string `json:"previewUrl"`
	Public       bool   `json:"public"`
	HasComment   bool   `json:"hasComment"`
	CommentText  string `json:"commentText"`
	CommentDate  string `json:"commentDate"`
	CreatedDate  string `json:"createdDate"`
	ProfileName  string `json:"profileName"`
	ProfileImage string `json:"profileImage"`
}

// parseEntries decodes the Get.{class} array of a GraphQL response.
func parseEntries(resp *models.GraphQLResponse, class string) ([]music.FeedEntry, error) {
	if resp == nil || resp.Data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal graphql data: %w", err)
	}
	var payload struct {
		Get map[string][]feedObject `json:"Get"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode graphql data: %w", err)
	}

	objs := payload.Get[class]
	entries := make([]music.FeedEntry, 0, len(objs))
	for _, o := range objs {
		if o.TrackID == "" {
			continue
		}
		entries = append(entries, music.FeedEntry{Track: o.track()})
	}
	return entries, nil
}

func (o feedObject) track() music.Track {
	t := music.Track{
		ID:          o.TrackID,
		OwnerID:     o.OwnerID,
		Title:       o.Title,
		Artist:      o.Artist,
		ImageURL:    o.ImageURL,
		PreviewURL:  o.PreviewURL,
		CreatedDate: parseDate(o.CreatedDate),
		Public:      o.Public,
		Attribution: music.Attribution{
			DisplayName: o.ProfileName,
			AvatarURL:   o.ProfileImage,
		},
	}
	if o.HasComment {
		t.Comment = &music.Comment{Text: o.CommentText, Date: parseDate(o.CommentDate)}
	}
	return t
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func trackProperties(t music.Track) map[string]any {
	props := map[string]any{
		propTrackID:      t.ID,
		propOwnerID:      t.OwnerID,
		propTitle:        t.Title,
		propArtist:       t.Artist,
		propImageURL:     t.ImageURL,
		propPreviewURL:   t.PreviewURL,
		propPublic:       t.Public,
		propHasComment:   t.HasComment(),
		propProfileName:  t.Attribution.DisplayName,
		propProfileImage: t.Attribution.AvatarURL,
	}
	if !t.CreatedDate.IsZero() {
		props[propCreatedDate] = t.CreatedDate.UTC().Format(time.RFC3339Nano)
	}
	if t.Comment != nil {
		props[propCommentText] = t.Comment.Text
		props[propCommentDate] = t.Comment.Date.UTC().Format(time.RFC3339Nano)
	}
	return props
}

func feedClass(name string) *models.Class {
	text := func(n string) *models.Property {
		return &models.Property{Name: n, DataType: []string{"text"}}
	}
	keyword := func(n string) *models.Property {
		return &models.Property{Name: n, DataType: []string{"text"}, Tokenization: "field"}
	}
	return &models.Class{
		Class:               name,
		Description:         "A public, commented track shown in the global feed.",
		Vectorizer:          "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{IndexTimestamps: true},
		Properties: []*models.Property{
			keyword(propTrackID),
			keyword(propOwnerID),
			text(propTitle),
			text(propArtist),
			keyword(propImageURL),
			keyword(propPreviewURL),
			{Name: propPublic, DataType: []string{"boolean"}},
			{Name: propHasComment, DataType: []string{"boolean"}},
			text(propCommentText),
			{Name: propCommentDate, DataType: []string{"date"}},
			{Name: propCreatedDate, DataType: []string{"date"}},
			text(propProfileName),
			keyword(propProfileImage),
		},
	}
}

func statusOf(err error) int {
	var werr *fault.WeaviateClientError
	if errors.As(err, &werr) {
		return werr.StatusCode
	}
	return 0
}

func clientErr(op string, err error) error {
	switch statusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return music.E(music.KindUnauthorized, op, "", err)
	default:
		return music.E(music.KindRemoteUnavailable, op, "", err)
	}
}
