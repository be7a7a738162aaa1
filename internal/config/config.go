package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Backend names accepted in [docstore] backend.
const (
	BackendHTTP   = "http"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config is the album configuration file.
type Config struct {
	Session  Session  `toml:"session"`
	Docstore Docstore `toml:"docstore"`
	Search   Search   `toml:"search"`
	Server   Server   `toml:"server"`
	App      App      `toml:"app"`
}

// Session identifies the signed-in user.
type Session struct {
	UserID      string `toml:"user_id"`
	Token       string `toml:"token"`
	DisplayName string `toml:"display_name"`
	AvatarURL   string `toml:"avatar_url" validate:"omitempty,url"`
}

// Docstore selects where tracks and albums live.
type Docstore struct {
	Backend           string  `toml:"backend" validate:"oneof=http badger sqlite"`
	URL               string  `toml:"url"`
	Path              string  `toml:"path"`
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
	TimeoutSeconds    int     `toml:"timeout_seconds" validate:"gte=0,lte=300"`
}

// Search locates the weaviate index behind the global feed. An empty host
// disables the feed.
type Search struct {
	Host     string `toml:"host"`
	Scheme   string `toml:"scheme" validate:"oneof=http https"`
	Class    string `toml:"class" validate:"required,alphanum"`
	PageSize int    `toml:"page_size" validate:"gte=1,lte=100"`
}

// Server configures `album serve`, the HTTP document store.
type Server struct {
	Bind string `toml:"bind" validate:"hostname_port"`
	// Tokens maps bearer tokens to user ids.
	Tokens map[string]string `toml:"tokens"`
}

// App holds process-wide settings.
type App struct {
	PollSeconds int    `toml:"poll_seconds" validate:"gte=0"`
	LogFile     string `toml:"log_file"`
	LogLevel    string `toml:"log_level" validate:"oneof=debug info warn error"`
	MetricsBind string `toml:"metrics_bind" validate:"omitempty,hostname_port"`
}

const (
	defaultConfigPath   = "~/.config/album/config.toml"
	defaultDataDir      = "~/.local/share/album"
	defaultDocstoreURL  = "127.0.0.1:7488"
	defaultSearchClass  = "CommentedTrack"
	defaultPageSize     = 20
	defaultPollSeconds  = 30
	defaultLogLevel     = "info"
	defaultServerBind   = "127.0.0.1:7488"
	defaultTimeoutSecs  = 10
	defaultSearchScheme = "http"
)

var validate = validator.New()

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Docstore: Docstore{
			Backend:        BackendBadger,
			URL:            defaultDocstoreURL,
			Path:           mustExpand(defaultDataDir + "/db"),
			TimeoutSeconds: defaultTimeoutSecs,
		},
		Search: Search{
			Scheme:   defaultSearchScheme,
			Class:    defaultSearchClass,
			PageSize: defaultPageSize,
		},
		Server: Server{Bind: defaultServerBind},
		App: App{
			PollSeconds: defaultPollSeconds,
			LogFile:     mustExpand(defaultDataDir + "/album.log"),
			LogLevel:    defaultLogLevel,
		},
	}
}

// Load locates and parses the album config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw Config
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.merge(raw)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and backend-specific requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Docstore.Backend {
	case BackendHTTP:
		if c.Docstore.URL == "" {
			return errors.New("invalid config: docstore.url is required for the http backend")
		}
	case BackendBadger, BackendSQLite:
		if c.Docstore.Path == "" {
			return fmt.Errorf("invalid config: docstore.path is required for the %s backend", c.Docstore.Backend)
		}
	}
	return nil
}

// merge overlays non-empty fields of raw onto c.
func (c *Config) merge(raw Config) {
	c.Session = Session{
		UserID:      strings.TrimSpace(raw.Session.UserID),
		Token:       strings.TrimSpace(raw.Session.Token),
		DisplayName: strings.TrimSpace(raw.Session.DisplayName),
		AvatarURL:   strings.TrimSpace(raw.Session.AvatarURL),
	}

	setString(&c.Docstore.Backend, strings.ToLower(raw.Docstore.Backend))
	setString(&c.Docstore.URL, raw.Docstore.URL)
	if p := strings.TrimSpace(raw.Docstore.Path); p != "" {
		c.Docstore.Path = mustExpand(p)
	}
	if raw.Docstore.RequestsPerSecond != 0 {
		c.Docstore.RequestsPerSecond = raw.Docstore.RequestsPerSecond
	}
	if raw.Docstore.TimeoutSeconds != 0 {
		c.Docstore.TimeoutSeconds = raw.Docstore.TimeoutSeconds
	}

	setString(&c.Search.Host, raw.Search.Host)
	setString(&c.Search.Scheme, strings.ToLower(raw.Search.Scheme))
	setString(&c.Search.Class, raw.Search.Class)
	if raw.Search.PageSize != 0 {
		c.Search.PageSize = raw.Search.PageSize
	}

	setString(&c.Server.Bind, raw.Server.Bind)
	if len(raw.Server.Tokens) > 0 {
		c.Server.Tokens = make(map[string]string, len(raw.Server.Tokens))
		for tok, uid := range raw.Server.Tokens {
			c.Server.Tokens[strings.TrimSpace(tok)] = strings.TrimSpace(uid)
		}
	}

	if raw.App.PollSeconds != 0 {
		c.App.PollSeconds = raw.App.PollSeconds
	}
	if p := strings.TrimSpace(raw.App.LogFile); p != "" {
		c.App.LogFile = mustExpand(p)
	}
	setString(&c.App.LogLevel, strings.ToLower(raw.App.LogLevel))
	setString(&c.App.MetricsBind, raw.App.MetricsBind)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// PollInterval returns the feed refresh interval, zero when polling is off.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.App.PollSeconds) * time.Second
}

// Timeout returns the docstore request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Docstore.TimeoutSeconds) * time.Second
}

// FeedEnabled reports whether a search index is configured.
func (c Config) FeedEnabled() bool {
	return c.Search.Host != ""
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
