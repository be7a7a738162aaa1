package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruo0o0/music-album/internal/app"
	"github.com/ruo0o0/music-album/internal/music"
)

// TrackView is the printed form of a track.
type TrackView struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Artist      string `json:"artist,omitempty" yaml:"artist,omitempty"`
	Album       string `json:"album,omitempty" yaml:"album,omitempty"`
	Public      bool   `json:"public" yaml:"public"`
	Comment     string `json:"comment,omitempty" yaml:"comment,omitempty"`
	CommentDate string `json:"comment_date,omitempty" yaml:"comment_date,omitempty"`
	Created     string `json:"created" yaml:"created"`
}

// AlbumView is the printed form of an album.
type AlbumView struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Tracks int    `json:"tracks" yaml:"tracks"`
	Public bool   `json:"public" yaml:"public"`
}

// FeedView is the printed form of one feed entry.
type FeedView struct {
	ID      string `json:"id" yaml:"id"`
	Author  string `json:"author" yaml:"author"`
	Track   string `json:"track" yaml:"track"`
	Comment string `json:"comment" yaml:"comment"`
	Date    string `json:"date" yaml:"date"`
	Own     bool   `json:"own,omitempty" yaml:"own,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// trackViews converts tracks, naming albums by title where known.
func trackViews(tracks []music.Track, albums []music.Album) []TrackView {
	titles := make(map[string]string, len(albums))
	for _, a := range albums {
		titles[a.ID] = a.Title
	}
	out := make([]TrackView, 0, len(tracks))
	for _, t := range tracks {
		v := TrackView{
			ID:      t.ID,
			Title:   t.Title,
			Artist:  t.Artist,
			Public:  t.Public,
			Created: formatTime(t.CreatedDate),
		}
		if t.AlbumID != "" {
			v.Album = t.AlbumID
			if title, ok := titles[t.AlbumID]; ok {
				v.Album = title
			}
		}
		if t.Comment != nil {
			v.Comment = t.Comment.Text
			v.CommentDate = formatTime(t.Comment.Date)
		}
		out = append(out, v)
	}
	return out
}

func albumViews(albums []music.Album, tracks []music.Track) []AlbumView {
	counts := make(map[string]int)
	for _, t := range tracks {
		if t.AlbumID != "" {
			counts[t.AlbumID]++
		}
	}
	out := make([]AlbumView, 0, len(albums))
	for _, a := range albums {
		out = append(out, AlbumView{ID: a.ID, Title: a.Title, Tracks: counts[a.ID], Public: a.Public})
	}
	return out
}

func feedViews(entries []music.FeedEntry, userID string) []FeedView {
	out := make([]FeedView, 0, len(entries))
	for _, e := range entries {
		author := e.Attribution.DisplayName
		if author == "" {
			author = e.OwnerID
		}
		v := FeedView{
			ID:     e.ID,
			Author: author,
			Track:  e.Label(),
			Own:    userID != "" && e.OwnerID == userID,
		}
		if e.Comment != nil {
			v.Comment = e.Comment.Text
			v.Date = formatTime(e.Comment.Date)
		}
		out = append(out, v)
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func writeTracks(w io.Writer, tracks []TrackView) error {
	if len(tracks) == 0 {
		_, err := fmt.Fprintln(w, "No tracks.")
		return err
	}
	rows := make([][]string, len(tracks))
	for i, t := range tracks {
		rows[i] = []string{t.ID, t.Title, t.Artist, t.Album, yesNo(t.Public), t.Comment}
	}
	return writeTable(w, []string{"ID", "TITLE", "ARTIST", "ALBUM", "PUBLIC", "COMMENT"}, rows)
}

func writeAlbums(w io.Writer, albums []AlbumView) error {
	if len(albums) == 0 {
		_, err := fmt.Fprintln(w, "No albums.")
		return err
	}
	rows := make([][]string, len(albums))
	for i, a := range albums {
		rows[i] = []string{a.ID, a.Title, strconv.Itoa(a.Tracks), yesNo(a.Public)}
	}
	return writeTable(w, []string{"ID", "TITLE", "TRACKS", "PUBLIC"}, rows)
}

func writeFeed(w io.Writer, entries []FeedView) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "The feed is empty.")
		return err
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		author := e.Author
		if e.Own {
			author += " (you)"
		}
		rows[i] = []string{author, e.Track, e.Comment, e.Date}
	}
	return writeTable(w, []string{"AUTHOR", "TRACK", "COMMENT", "DATE"}, rows)
}

// TracksOptions holds flags for the tracks command.
type TracksOptions struct {
	*RootOptions
	Album     string
	Commented bool
	Query     string
}

// NewTracksCommand creates the tracks command.
func NewTracksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TracksOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "List your tracks",
		Long: `List the signed-in user's tracks, newest first.

--commented lists only commented tracks, newest comment first.
--album limits the list to one album (id or title).
--query ranks tracks by a fuzzy match on "title - artist".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts.RootOptions, func(ctx context.Context, rt *app.Runtime) error {
				return runTracks(cmd, opts, rt)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Album, "album", "a", "", "only tracks in this album (id or title)")
	cmd.Flags().BoolVar(&opts.Commented, "commented", false, "only commented tracks")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "fuzzy match on title and artist")

	return cmd
}

func runTracks(cmd *cobra.Command, opts *TracksOptions, rt *app.Runtime) error {
	albums := rt.Store.Albums.Albums()

	var tracks []music.Track
	switch {
	case opts.Commented:
		tracks = rt.Store.Tracks.CommentedTracks()
	case opts.Query != "":
		tracks = rt.Store.Tracks.Search(opts.Query)
	default:
		tracks = rt.Store.Tracks.Tracks()
	}

	if opts.Album != "" {
		id, ok := resolveAlbum(albums, opts.Album)
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("no album %q", opts.Album))
		}
		tracks = inAlbum(tracks, id)
	}

	views := trackViews(tracks, albums)
	return formatter(cmd, opts.RootOptions).Success(views, func(w io.Writer) error {
		return writeTracks(w, views)
	})
}

// resolveAlbum finds an album by id, then by case-insensitive title.
func resolveAlbum(albums []music.Album, ref string) (string, bool) {
	for _, a := range albums {
		if a.ID == ref {
			return a.ID, true
		}
	}
	for _, a := range albums {
		if strings.EqualFold(a.Title, ref) {
			return a.ID, true
		}
	}
	return "", false
}

func inAlbum(tracks []music.Track, albumID string) []music.Track {
	out := tracks[:0:0]
	for _, t := range tracks {
		if t.AlbumID == albumID {
			out = append(out, t)
		}
	}
	return out
}

// NewAlbumsCommand creates the albums command.
func NewAlbumsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "albums",
		Short:         "List your albums",
		Long:          "List the signed-in user's albums, newest first, with their track counts.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), rootOpts, func(ctx context.Context, rt *app.Runtime) error {
				views := albumViews(rt.Store.Albums.Albums(), rt.Store.Tracks.Tracks())
				return formatter(cmd, rootOpts).Success(views, func(w io.Writer) error {
					return writeAlbums(w, views)
				})
			})
		},
	}
}

// FeedOptions holds flags for the feed command.
type FeedOptions struct {
	*RootOptions
	Page  int
	Query string
}

// NewFeedCommand creates the feed command.
func NewFeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print one page of the global feed",
		Long: `Print one page of public, commented tracks from every user.

Requires [search] host in the config.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Page < 0 {
				return NewExitError(ExitCommandError, "--page must not be negative")
			}
			return withRuntime(cmd.Context(), opts.RootOptions, func(ctx context.Context, rt *app.Runtime) error {
				return runFeed(ctx, cmd, opts, rt)
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Page, "page", "p", 0, "page number, starting at 0")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "only entries whose title, artist or comment contain this text")

	return cmd
}

func runFeed(ctx context.Context, cmd *cobra.Command, opts *FeedOptions, rt *app.Runtime) error {
	if rt.Index == nil {
		return NewExitError(ExitCommandError, "feed disabled: set [search] host in the config")
	}
	rt.Store.Feed.SetQuery(opts.Query)
	entries, err := rt.Store.Feed.FetchPage(ctx, opts.Page)
	if err != nil {
		return WrapExitError(ExitCommandError, "fetch feed", err)
	}

	uid, _ := rt.Session.UserID()
	views := feedViews(entries, uid)
	return formatter(cmd, opts.RootOptions).Success(views, func(w io.Writer) error {
		return writeFeed(w, views)
	})
}
