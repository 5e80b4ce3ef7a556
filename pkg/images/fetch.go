// Package images downloads article images and stores them per session.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxBytes caps a single download.
const DefaultMaxBytes = 10 << 20

// Fetcher downloads an image and returns its bytes and content type.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// HTTPFetcher downloads images over HTTP.
type HTTPFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		maxBytes:  DefaultMaxBytes,
		userAgent: "headlines/1.0",
	}
}

// WithClient replaces the HTTP client.
func (f *HTTPFetcher) WithClient(client *http.Client) *HTTPFetcher {
	f.client = client
	return f
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid image url: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image, status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", fmt.Errorf("image larger than %d bytes", f.maxBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
