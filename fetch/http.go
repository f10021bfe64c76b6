package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/time/rate"
)

// HTTP fetches over net/http. It negotiates zstd/gzip content encoding and
// decodes the body, so persisted blobs always hold the identity bytes.
type HTTP struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	header    http.Header
}

var _ Fetcher = (*HTTP)(nil)

type HTTPConfig struct {
	Client    *http.Client // nil => http.DefaultClient
	UserAgent string
	Header    http.Header // extra request headers
	// RequestsPerSecond caps outgoing requests; 0 disables limiting.
	RequestsPerSecond float64
	Burst             int // 0 => 1
}

func NewHTTP(cfg HTTPConfig) *HTTP {
	h := &HTTP{
		client:    cfg.Client,
		userAgent: cfg.UserAgent,
		header:    cfg.Header.Clone(),
	}
	if h.client == nil {
		h.client = http.DefaultClient
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return h
}

func (h *HTTP) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range h.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	req.Header.Set("Accept-Encoding", "zstd, gzip")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, &StatusError{URI: uri, StatusCode: resp.StatusCode}
	}
	return decode(resp)
}

func decode(resp *http.Response) (io.ReadCloser, error) {
	switch enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))); enc {
	case "", "identity":
		return resp.Body, nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("fetch: gzip body: %w", err)
		}
		return &decodedBody{Reader: zr, closers: []func() error{zr.Close, resp.Body.Close}}, nil
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("fetch: zstd body: %w", err)
		}
		return &decodedBody{Reader: zr, closers: []func() error{
			func() error { zr.Close(); return nil },
			resp.Body.Close,
		}}, nil
	default:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch: unsupported content encoding %q", enc)
	}
}

type decodedBody struct {
	io.Reader
	closers []func() error
}

func (d *decodedBody) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
