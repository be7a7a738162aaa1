package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ruo0o0/music-album/internal/config"
	"github.com/ruo0o0/music-album/internal/debugserver"
	"github.com/ruo0o0/music-album/internal/docstore"
	"github.com/ruo0o0/music-album/internal/music"
	"github.com/ruo0o0/music-album/internal/prefs"
	"github.com/ruo0o0/music-album/internal/searchindex"
	"github.com/ruo0o0/music-album/internal/session"
	"github.com/ruo0o0/music-album/internal/state"
	"github.com/ruo0o0/music-album/internal/ui"
)

const openTimeout = 15 * time.Second

// Options configure the album application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/album/prefs.toml
	PollEvery  int    // seconds; zero uses the config value
}

// Runtime is the wired application: session, stores and their remote
// collaborators.
type Runtime struct {
	Config  config.Config
	Session *session.Session
	Store   *state.Store
	// Index is nil when no search host is configured.
	Index  *searchindex.Index
	Logger *slog.Logger

	closers []io.Closer
}

// Build wires a Runtime from cfg. It opens local databases but performs no
// network I/O.
func Build(cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sess := session.New(cfg.Session.UserID, cfg.Session.Token, session.Profile{
		DisplayName: cfg.Session.DisplayName,
		AvatarURL:   cfg.Session.AvatarURL,
	})
	rt := &Runtime{Config: cfg, Session: sess, Logger: logger}

	tracks, albums, closer, err := openRepositories(cfg, sess, logger)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}

	var searcher music.FeedSearcher
	if cfg.FeedEnabled() {
		idx, err := searchindex.New(searchindex.Config{
			Host:     cfg.Search.Host,
			Scheme:   cfg.Search.Scheme,
			Class:    cfg.Search.Class,
			PageSize: cfg.Search.PageSize,
			Logger:   logger.With("component", "searchindex"),
		})
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("init search index: %w", err)
		}
		rt.Index = idx
		searcher = idx
	}

	rt.Store = state.New(state.Options{
		Session:      sess,
		Tracks:       tracks,
		Albums:       albums,
		Feed:         searcher,
		FeedPageSize: cfg.Search.PageSize,
		Logger:       logger.With("component", "state"),
	})
	return rt, nil
}

// OpenBackend opens the local badger or sqlite store named by ds.
func OpenBackend(ds config.Docstore, logger *slog.Logger) (docstore.Backend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch ds.Backend {
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(ds.Path), 0o750); err != nil {
			return nil, fmt.Errorf("create docstore dir: %w", err)
		}
		db, err := docstore.OpenSQLite(ds.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.BackendBadger, "":
		db, err := docstore.OpenBadger(docstore.BadgerConfig{
			Path:   ds.Path,
			Logger: logger.With("component", "badger"),
		})
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.BackendHTTP:
		return nil, fmt.Errorf("docstore backend %q has no local store", ds.Backend)
	default:
		return nil, fmt.Errorf("unknown docstore backend %q", ds.Backend)
	}
}

// openRepositories opens the configured docstore backend.
func openRepositories(cfg config.Config, sess music.SessionProvider, logger *slog.Logger) (music.TrackRepository, music.AlbumRepository, io.Closer, error) {
	ds := cfg.Docstore
	if ds.Backend == config.BackendHTTP {
		client, err := docstore.NewClient(ds.URL, sess, docstore.ClientOptions{
			Timeout:           cfg.Timeout(),
			RequestsPerSecond: ds.RequestsPerSecond,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init docstore client: %w", err)
		}
		return client.Tracks(), client.Albums(), nil, nil
	}
	db, err := OpenBackend(ds, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return docstore.NewTrackRepository(db), docstore.NewAlbumRepository(db), db, nil
}

// Open loads the signed-in user's library.
func (r *Runtime) Open(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()
	if err := r.Store.Open(ctx); err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	return nil
}

// Close releases local databases.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Run boots the album TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.App.PollSeconds = opts.PollEvery
	}

	logger, logCloser, err := OpenLogger(cfg.App.LogFile, cfg.App.LogLevel)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	rt, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Open(ctx); err != nil {
		return err
	}
	defer rt.Store.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if rt.Index != nil {
		StartPoller(ctx, rt.Store.Feed, cfg.PollInterval(), logger.With("component", "poller"))
	}
	if cfg.App.MetricsBind != "" {
		if _, err := debugserver.New(rt.Store, logger).Start(ctx, cfg.App.MetricsBind); err != nil {
			logger.Warn("debug server disabled", "error", err)
		}
	}

	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     rt.Store,
		Session:   rt.Session,
		LogPath:   cfg.App.LogFile,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		FeedOn:    rt.Index != nil,
	})
}
