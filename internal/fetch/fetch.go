// SPDX-License-Identifier: MIT

// Package fetch retrieves playlist and guide payloads over http(s) or from
// the local filesystem, with transparent gzip decompression.
package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	melog "github.com/bebo-dot-dev/m3u-epg-editor/internal/log"
)

// Client retrieves remote payloads. The zero value is not usable; use New.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	retries    int
}

// New returns a client sending the given request headers with every HTTP
// request. retries is the number of additional attempts after a transient
// failure.
func New(headers map[string]string, timeout time.Duration, retries int) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if retries < 0 {
		retries = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers:    headers,
		retries:    retries,
	}
}

// Get retrieves rawURL and returns the decompressed payload. Supported
// schemes are http, https and file. Gzip payloads are recognized by URL
// suffix, content type or magic bytes.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return c.getFile(u)
	case "http", "https":
		return c.getHTTP(ctx, rawURL)
	default:
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func (c *Client) getFile(u *url.URL) ([]byte, error) {
	path := filepath.FromSlash(u.Path)
	if u.Host != "" {
		// file://host/path is not supported, but file://localhost/ is common
		if u.Host != "localhost" {
			return nil, fmt.Errorf("unsupported file url host %q", u.Host)
		}
	}
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return decompress(data, strings.HasSuffix(strings.ToLower(u.Path), ".gz"), "")
}

func (c *Client) getHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	logger := melog.WithComponentFromContext(ctx, "fetch")

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt*500) * time.Millisecond
			logger.Debug().
				Str("event", "fetch.retry").
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying fetch")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, retryable, err := c.doHTTP(ctx, rawURL)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) doHTTP(ctx context.Context, rawURL string) (data []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500,
			fmt.Errorf("get %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response from %s: %w", rawURL, err)
	}

	data, err = decompress(body,
		strings.HasSuffix(strings.ToLower(rawURL), ".gz"),
		resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, false, err
	}
	return data, false, nil
}

// decompress gunzips data when any gzip signal is present: a .gz url suffix,
// a gzip content type, or the gzip magic bytes themselves.
func decompress(data []byte, gzSuffix bool, contentType string) ([]byte, error) {
	magic := len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
	if !gzSuffix && !strings.Contains(contentType, "gzip") && !magic {
		return data, nil
	}
	if !magic {
		// signalled as gzip but plain payload; trust the bytes
		return data, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip payload: %w", err)
	}
	defer func() {
		_ = zr.Close()
	}()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress gzip payload: %w", err)
	}
	return out, nil
}
