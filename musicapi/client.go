// Package musicapi is the client for the third-party music service. A Client
// authenticates with client credentials and caches the bearer token for its
// own lifetime.
package musicapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"hpmusic/sentry"
)

const (
	DefaultBaseURL     = "https://api.example-music-service.com/v1"
	DefaultSearchLimit = 20
	defaultTimeout     = 10 * time.Second
	maxErrorBody       = 512
)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *tokenManager
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(cfg Config, opts ...Option) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.tokens = newTokenManager(baseURL, cfg.ClientID, cfg.ClientSecret, c.httpClient)
	return c
}

// Authenticate always performs a fresh credentials exchange and caches the
// resulting token.
func (c *Client) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	span := sentry.StartSpan(ctx, "musicapi.authenticate", "Exchange client credentials")
	token, err := c.tokens.authenticate(span.Context())
	sentry.FinishSpan(span, err)
	return token, err
}

// SearchTracks searches for tracks. A limit of zero or less means
// DefaultSearchLimit.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) (result *SearchResult, err error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	span := sentry.StartSpan(ctx, "musicapi.search", "Search tracks")
	span.SetTag("query", query)
	span.SetData("limit", limit)
	defer func() { sentry.FinishSpan(span, err) }()

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(span.Context(), OpSearch, "/search", params)
	if err != nil {
		return nil, err
	}

	result, err = ParseSearchResult(body)
	if err != nil {
		return nil, &RequestError{Op: OpSearch, Err: err}
	}
	if result.Tracks != nil {
		span.SetData("tracks_count", len(result.Tracks.Tracks))
	}
	return result, nil
}

func (c *Client) GetTrack(ctx context.Context, id string) (track *Track, err error) {
	span := sentry.StartSpan(ctx, "musicapi.track", "Get track")
	span.SetTag("track_id", id)
	defer func() { sentry.FinishSpan(span, err) }()

	body, err := c.get(span.Context(), OpTrack, "/tracks/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	track, err = ParseTrack(body)
	if err != nil {
		return nil, &RequestError{Op: OpTrack, Err: err}
	}
	return track, nil
}

func (c *Client) GetArtist(ctx context.Context, id string) (artist *Artist, err error) {
	span := sentry.StartSpan(ctx, "musicapi.artist", "Get artist")
	span.SetTag("artist_id", id)
	defer func() { sentry.FinishSpan(span, err) }()

	body, err := c.get(span.Context(), OpArtist, "/artists/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	artist, err = ParseArtist(body)
	if err != nil {
		return nil, &RequestError{Op: OpArtist, Err: err}
	}
	return artist, nil
}

func (c *Client) GetAlbum(ctx context.Context, id string) (album *Album, err error) {
	span := sentry.StartSpan(ctx, "musicapi.album", "Get album")
	span.SetTag("album_id", id)
	defer func() { sentry.FinishSpan(span, err) }()

	body, err := c.get(span.Context(), OpAlbum, "/albums/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	album, err = ParseAlbum(body)
	if err != nil {
		return nil, &RequestError{Op: OpAlbum, Err: err}
	}
	return album, nil
}

// get performs an authenticated GET. A 401 drops the cached token and the
// request is sent once more with a fresh one.
func (c *Client) get(ctx context.Context, op Operation, path string, params url.Values) ([]byte, error) {
	logger := log.WithFields(log.Fields{"module": "musicapi", "op": op, "path": path})

	token, err := c.tokens.get(ctx)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}

	status, body, err := c.do(ctx, path, params, token)
	if err != nil {
		logger.Errorf("Request failed: %v", err)
		return nil, &RequestError{Op: op, Err: err}
	}

	if status == http.StatusUnauthorized {
		logger.Debug("Access token rejected, re-authenticating")
		token, err = c.tokens.refresh(ctx, token)
		if err != nil {
			return nil, &RequestError{Op: op, StatusCode: status, Err: err}
		}
		status, body, err = c.do(ctx, path, params, token)
		if err != nil {
			logger.Errorf("Retried request failed: %v", err)
			return nil, &RequestError{Op: op, Err: err}
		}
	}

	if status < 200 || status > 299 {
		logger.Errorf("Upstream responded with status %d", status)
		return nil, &RequestError{Op: op, StatusCode: status, Err: fmt.Errorf("upstream response: %s", snippet(body))}
	}

	logger.Tracef("Upstream responded with %d bytes", len(body))
	return body, nil
}

func (c *Client) do(ctx context.Context, path string, params url.Values, token *oauth2.Token) (int, []byte, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to reach music API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		return text[:maxErrorBody] + "..."
	}
	if text == "" {
		return "(empty body)"
	}
	return text
}
