// SPDX-License-Identifier: MIT

package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestGetHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "token", r.Header.Get("X-Auth"))
		_, _ = w.Write([]byte("#EXTM3U\n"))
	}))
	defer srv.Close()

	c := New(map[string]string{"X-Auth": "token"}, 5*time.Second, 0)
	data, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, []byte("#EXTM3U\n"), data)
}

func TestGetHTTPNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(nil, 5*time.Second, 0)
	_, err := c.Get(context.Background(), srv.URL)
	require.ErrorContains(t, err, "status 403")
}

func TestGetHTTPRetriesTransientFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(nil, 5*time.Second, 2)
	data, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, []byte("ok"), data)
	require.Equal(t, 2, calls)
}

func TestGetGzipByContentType(t *testing.T) {
	payload := []byte("<tv></tv>")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-gzip")
		_, _ = w.Write(gzipBytes(t, payload))
	}))
	defer srv.Close()

	c := New(nil, 5*time.Second, 0)
	data, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

func TestGetGzipByMagicBytes(t *testing.T) {
	payload := []byte("<tv></tv>")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(gzipBytes(t, payload))
	}))
	defer srv.Close()

	c := New(nil, 5*time.Second, 0)
	data, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

func TestGetFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.xml")
	require.NoError(t, os.WriteFile(path, []byte("<tv></tv>"), 0o600))

	c := New(nil, 5*time.Second, 0)
	data, err := c.Get(context.Background(), "file://"+path)
	require.NoError(t, err)
	require.Equal(t, []byte("<tv></tv>"), data)
}

func TestGetFileGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.xml.gz")
	require.NoError(t, os.WriteFile(path, gzipBytes(t, []byte("<tv></tv>")), 0o600))

	c := New(nil, 5*time.Second, 0)
	data, err := c.Get(context.Background(), "file://"+path)
	require.NoError(t, err)
	require.Equal(t, []byte("<tv></tv>"), data)
}

func TestGetUnsupportedScheme(t *testing.T) {
	c := New(nil, 5*time.Second, 0)
	_, err := c.Get(context.Background(), "ftp://host/file.m3u")
	require.ErrorContains(t, err, "unsupported url scheme")
}

func TestGetMissingFile(t *testing.T) {
	c := New(nil, 5*time.Second, 0)
	_, err := c.Get(context.Background(), "file:///does/not/exist.m3u")
	require.Error(t, err)
}
