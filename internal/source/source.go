// Package source supplies raw log chunks to the formatter.
//
// [HTTPSource] polls the CrossWatch backend's log tail endpoint under a rate
// limiter, resuming from an opaque cursor. [FileSource] and [ReaderSource]
// replay captured logs in fixed-size chunks, which exercises the formatter's
// chunk-boundary independence end to end. [Follower] pumps any Source into a
// formatter session and delivers rendered blocks on a channel.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/cwlog/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Source yields successive raw log chunks. Next blocks until a chunk is
// available (an empty chunk is a valid "nothing new yet" answer) and returns
// [io.EOF] when the stream is exhausted.
type Source interface {
	Next(ctx context.Context) (string, error)
}

// HTTPOptions configures an [HTTPSource].
type HTTPOptions struct {
	BaseURL      string            // backend base URL, e.g. http://localhost:8787
	Token        string            // optional bearer token
	Headers      map[string]string // extra headers (browser session import)
	PollInterval time.Duration     // minimum spacing between polls
	Client       *http.Client      // overrides the token-derived client when set
}

// HTTPSource polls the backend log tail endpoint.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	headers map[string]string
	limiter *rate.Limiter
	cursor  string
}

const tailPath = "/api/logs/tail"

// cursorHeader carries the resume position between polls.
const cursorHeader = "X-Log-Cursor"

// NewHTTPSource creates a backend poller. When a token is configured the
// underlying client comes from a static oauth2 token source.
func NewHTTPSource(opts HTTPOptions) *HTTPSource {
	client := opts.Client
	if client == nil {
		if opts.Token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
			client = oauth2.NewClient(context.Background(), ts)
		} else {
			client = http.DefaultClient
		}
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = time.Second
	}

	return &HTTPSource{
		baseURL: opts.BaseURL,
		client:  client,
		headers: opts.Headers,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Next waits for the rate limiter, polls the tail endpoint and returns the
// body as the next chunk. An empty body means no new output yet.
func (s *HTTPSource) Next(ctx context.Context) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	url := s.baseURL + tailPath
	if s.cursor != "" {
		url += "?cursor=" + s.cursor
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: status %d", shared.ErrNotAuthenticated, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", shared.ErrBackendRequest, resp.StatusCode)
	}

	if cursor := resp.Header.Get(cursorHeader); cursor != "" {
		s.cursor = cursor
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return string(body), nil
}

// Cursor returns the current resume position.
func (s *HTTPSource) Cursor() string { return s.cursor }
