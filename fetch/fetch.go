// Package fetch turns URIs into byte streams.
package fetch

import (
	"context"
	"fmt"
	"io"
)

// Fetcher opens the resource behind uri. The caller owns and closes the
// returned stream; blobcache consumes it exactly once per fill.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, uri string) (io.ReadCloser, error)

func (f FetcherFunc) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	return f(ctx, uri)
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URI        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URI, e.StatusCode)
}
