package tagimport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/ushis/m3u"
	"golang.org/x/sync/errgroup"

	"github.com/ruo0o0/music-album/internal/music"
)

// readTimeout bounds how long a single file may take to read.
const readTimeout = time.Minute

// defaultConcurrency is the number of files read in parallel.
const defaultConcurrency = 4

// Meta is what the importer keeps from a file's tags.
type Meta struct {
	Path   string
	Title  string
	Artist string
	Album  string
	Track  int
	Year   int
	Format tag.Format
}

// Draft builds a track draft from the tags. The preview points at the file.
func (m Meta) Draft() music.TrackDraft {
	return music.TrackDraft{
		Title:      m.Title,
		Artist:     m.Artist,
		PreviewURL: fileURL(m.Path),
	}
}

// ReadFile reads the tags of the audio file at path. A file without a title
// tag is named after its base name.
func ReadFile(path string) (Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return Meta{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	_ = f.SetDeadline(time.Now().Add(readTimeout))
	return Read(f, path)
}

// Read reads tags from r. name is used for the fallback title and the
// preview url.
func Read(r io.ReadSeeker, name string) (Meta, error) {
	md, err := tag.ReadFrom(r)
	if err != nil {
		return Meta{}, fmt.Errorf("read tags of %s: %w", name, err)
	}

	meta := Meta{
		Path:   name,
		Title:  strings.TrimSpace(md.Title()),
		Artist: strings.TrimSpace(md.Artist()),
		Album:  strings.TrimSpace(md.Album()),
		Year:   md.Year(),
		Format: md.Format(),
	}
	meta.Track, _ = md.Track()
	if meta.Artist == "" {
		meta.Artist = strings.TrimSpace(md.AlbumArtist())
	}
	if meta.Title == "" {
		meta.Title = basename(name)
	}
	return meta, nil
}

// Expand replaces every .m3u playlist in paths with the files it lists.
// Relative entries resolve against the playlist's directory.
func Expand(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if !strings.EqualFold(filepath.Ext(p), ".m3u") {
			out = append(out, p)
			continue
		}
		entries, err := readPlaylist(p)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

func readPlaylist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open playlist: %w", err)
	}
	defer f.Close()

	pl, err := m3u.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse playlist %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	out := make([]string, 0, len(pl))
	for _, t := range pl {
		if t.Path == "" {
			continue
		}
		entry := t.Path
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(dir, entry)
		}
		out = append(out, entry)
	}
	return out, nil
}

// TrackAdder persists drafts. state.TrackStore satisfies it.
type TrackAdder interface {
	AddTrack(ctx context.Context, draft music.TrackDraft) (music.Track, error)
}

// AlbumAdder finds or creates albums. state.AlbumStore satisfies it.
type AlbumAdder interface {
	Albums() []music.Album
	AddAlbum(ctx context.Context, draft music.AlbumDraft) (music.Album, error)
}

// Options controls an import.
type Options struct {
	// Public marks the imported tracks public.
	Public bool
	// AlbumID files every track under this album. It wins over GroupAlbums.
	AlbumID string
	// GroupAlbums files each track under an album named after its album tag,
	// creating the album when the user has none with that title.
	GroupAlbums bool
	Attribution music.Attribution
	// Concurrency is the number of files read in parallel.
	Concurrency int
}

// Failure is a file that could not be imported.
type Failure struct {
	Path string
	Err  error
}

// Result lists what an import did, in input order.
type Result struct {
	Added  []music.Track
	Failed []Failure
}

// Importer reads audio tags and adds the files as tracks.
type Importer struct {
	Tracks TrackAdder
	Albums AlbumAdder
	Logger *slog.Logger
}

// Import reads every path and adds one track per readable file. Tags are
// read in parallel and tracks are added one at a time in input order.
// Unreadable files are collected in the result; a failed add stops the
// import and returns what was added so far.
func (im *Importer) Import(ctx context.Context, paths []string, opts Options) (Result, error) {
	logger := im.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	metas := make([]Meta, len(paths))
	errs := make([]error, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			metas[i], errs[i] = ReadFile(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	albums := make(map[string]string)
	if opts.GroupAlbums && im.Albums != nil {
		for _, a := range im.Albums.Albums() {
			albums[strings.ToLower(a.Title)] = a.ID
		}
	}

	for i, p := range paths {
		if errs[i] != nil {
			logger.Warn("skip file", "path", p, "error", errs[i])
			res.Failed = append(res.Failed, Failure{Path: p, Err: errs[i]})
			continue
		}
		draft := metas[i].Draft()
		draft.Public = opts.Public
		draft.Attribution = opts.Attribution
		draft.AlbumID = opts.AlbumID

		if draft.AlbumID == "" && opts.GroupAlbums && metas[i].Album != "" && im.Albums != nil {
			id, err := im.albumFor(ctx, albums, metas[i].Album)
			if err != nil {
				return res, err
			}
			draft.AlbumID = id
		}

		t, err := im.Tracks.AddTrack(ctx, draft)
		if err != nil {
			return res, fmt.Errorf("add %s: %w", p, err)
		}
		logger.Info("imported track", "path", p, "id", t.ID, "title", t.Title)
		res.Added = append(res.Added, t)
	}
	return res, nil
}

// albumFor returns the id of the album titled title, creating it once.
func (im *Importer) albumFor(ctx context.Context, known map[string]string, title string) (string, error) {
	k := strings.ToLower(title)
	if id, ok := known[k]; ok {
		return id, nil
	}
	a, err := im.Albums.AddAlbum(ctx, music.AlbumDraft{Title: title})
	if err != nil {
		return "", err
	}
	known[k] = a.ID
	return a.ID, nil
}

func basename(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if u, err := url.PathUnescape(name); err == nil {
		return u
	}
	return name
}

func fileURL(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
