package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultUserAgent = "newsbox/1.0 (terminal feed reader)"
	DefaultTimeout   = 15 * time.Second

	// maxBodySize caps how much of a feed document is read into memory.
	maxBodySize = 10 << 20
)

var ErrFeedTooLarge = errors.New("feed too large")

// Validators are the HTTP cache validators remembered between fetches.
type Validators struct {
	ETag         string `json:"etag"`
	LastModified string `json:"last_modified"`
}

// Response is the outcome of a single feed request.
type Response struct {
	Body        []byte
	Validators  Validators
	NotModified bool
}

type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// NewFetcher returns a Fetcher with a per-request timeout. Zero values fall
// back to DefaultTimeout and DefaultUserAgent.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		maxBody:   maxBodySize,
	}
}

// Fetch requests url, sending prev as conditional GET validators. A 304
// yields a Response with NotModified set and no body; any other non-2xx
// status is an error.
func (f *Fetcher) Fetch(ctx context.Context, url string, prev Validators) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml, text/xml;q=0.9, */*;q=0.8")

	if prev.ETag != "" {
		req.Header.Set("If-None-Match", prev.ETag)
	}
	if prev.LastModified != "" {
		req.Header.Set("If-Modified-Since", prev.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &Response{NotModified: true, Validators: prev}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	// One byte past the limit tells a truncated document from one that fits.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFeedTooLarge, f.maxBody)
	}

	return &Response{
		Body: body,
		Validators: Validators{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		},
	}, nil
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.Code, http.StatusText(e.Code))
}
