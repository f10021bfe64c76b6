package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var payload = bytes.Repeat([]byte("blobcache payload "), 64)

func readAll(t *testing.T, rc io.ReadCloser) []byte {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return b
}

func TestHTTPIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "blobcache-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	h := NewHTTP(HTTPConfig{
		UserAgent: "blobcache-test",
		Header:    http.Header{"X-Token": []string{"secret"}},
	})
	rc, err := h.Fetch(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, payload, readAll(t, rc))
}

func TestHTTPDecodesGzipAndZstd(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write(payload)
	require.NoError(t, gw.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zs := enc.EncodeAll(payload, nil)
	require.NoError(t, enc.Close())

	bodies := map[string][]byte{"gzip": gz.Bytes(), "zstd": zs}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		encoding := r.URL.Query().Get("enc")
		assert.Contains(t, r.Header.Get("Accept-Encoding"), encoding)
		w.Header().Set("Content-Encoding", encoding)
		_, _ = w.Write(bodies[encoding])
	}))
	defer srv.Close()

	h := NewHTTP(HTTPConfig{})
	for _, encoding := range []string{"gzip", "zstd"} {
		rc, err := h.Fetch(context.Background(), srv.URL+"/?enc="+encoding)
		require.NoError(t, err, encoding)
		assert.Equal(t, payload, readAll(t, rc), encoding)
	}
}

func TestHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTP(HTTPConfig{}).Fetch(context.Background(), srv.URL+"/missing")
	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Contains(t, se.Error(), "404")
}

func TestHTTPRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	h := NewHTTP(HTTPConfig{RequestsPerSecond: 0.001, Burst: 1})
	rc, err := h.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	readAll(t, rc)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = h.Fetch(ctx, srv.URL)
	assert.Error(t, err, "second request should be throttled past the deadline")
}

func TestFetcherFunc(t *testing.T) {
	f := FetcherFunc(func(_ context.Context, uri string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader([]byte(uri))), nil
	})
	rc, err := f.Fetch(context.Background(), "mem://x")
	require.NoError(t, err)
	assert.Equal(t, []byte("mem://x"), readAll(t, rc))
}
