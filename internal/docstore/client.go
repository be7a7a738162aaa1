package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ruo0o0/music-album/internal/music"
)

const (
	defaultAPIBind   = "127.0.0.1:7488"
	defaultUserAgent = "album/0.1"
	requestTimeout   = 10 * time.Second
	apiPrefix        = "/v1/users/"
)

// ClientOptions tunes a Client. Zero values pick defaults.
type ClientOptions struct {
	Timeout time.Duration
	// RequestsPerSecond caps outgoing requests. Zero disables the limit.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client talks to the document API served by Server.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	session   music.SessionProvider
	limiter   *rate.Limiter
}

// NewClient builds a Client for the API at apiBind (host:port or URL).
// Requests carry the session's token as a bearer credential.
func NewClient(apiBind string, session music.SessionProvider, opts ClientOptions) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = requestTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &Client{
		baseURL:   base,
		http:      hc,
		userAgent: defaultUserAgent,
		session:   session,
		limiter:   limiter,
	}, nil
}

// Tracks returns the remote track repository.
func (c *Client) Tracks() music.TrackRepository {
	return &remoteRepo[music.TrackDraft, music.TrackPatch, music.Track]{c: c, collection: CollectionTracks}
}

// Albums returns the remote album repository.
func (c *Client) Albums() music.AlbumRepository {
	return &remoteRepo[music.AlbumDraft, music.AlbumPatch, music.Album]{c: c, collection: CollectionAlbums}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type remoteRepo[D, P, E any] struct {
	c          *Client
	collection string
}

type addResponse struct {
	ID string `json:"id"`
}

type listResponse[E any] struct {
	Documents []E `json:"documents"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// ref builds the request path, escaping each segment.
func (r *remoteRepo[D, P, E]) ref(userID string, id ...string) *url.URL {
	parts := append([]string{userID, r.collection}, id...)
	plain, raw := apiPrefix, apiPrefix
	for i, part := range parts {
		if i > 0 {
			plain += "/"
			raw += "/"
		}
		plain += part
		raw += url.PathEscape(part)
	}
	return &url.URL{Path: plain, RawPath: raw}
}

func (r *remoteRepo[D, P, E]) Add(ctx context.Context, userID string, draft D) (string, error) {
	var resp addResponse
	if err := r.c.doURL(ctx, http.MethodPost, r.ref(userID), draft, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (r *remoteRepo[D, P, E]) Update(ctx context.Context, userID, id string, patch P) error {
	return r.c.doURL(ctx, http.MethodPatch, r.ref(userID, id), patch, nil)
}

func (r *remoteRepo[D, P, E]) Delete(ctx context.Context, userID, id string) error {
	return r.c.doURL(ctx, http.MethodDelete, r.ref(userID, id), nil, nil)
}

func (r *remoteRepo[D, P, E]) List(ctx context.Context, userID string) ([]E, error) {
	var resp listResponse[E]
	if err := r.c.doURL(ctx, http.MethodGet, r.ref(userID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	op := strings.ToLower(method) + " " + rel.Path
	if err := c.limiter.Wait(ctx); err != nil {
		return music.E(music.KindRemoteUnavailable, op, "", err)
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if tok := c.session.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return music.E(music.KindRemoteUnavailable, op, "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return statusError(op, resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return music.E(music.KindRemoteUnavailable, op, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	var payload errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
	cause := fmt.Errorf("api returned status %d", resp.StatusCode)
	if payload.Error != "" {
		cause = fmt.Errorf("api returned status %d: %s", resp.StatusCode, payload.Error)
	}

	var kind music.Kind
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		kind = music.KindUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		kind = music.KindNotFound
	default:
		kind = music.KindRemoteUnavailable
	}
	return music.E(kind, op, "", cause)
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse docstore url %q: %w", apiBind, err)
	}
	if u.Host == "" {
		return nil, errors.New("docstore url has no host")
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
