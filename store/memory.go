package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"sync"

	"github.com/unkn0wn-root/blobcache/clock"
)

// Memory is an in-process Store. Blobs live as long as the Memory value.
// Useful for tests and for caches that only need to survive within one process.
type Memory struct {
	clk clock.Clock

	mu  sync.Mutex
	nss map[string]*memNamespace
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty store stamping blobs with clk (nil => wall clock).
func NewMemory(clk clock.Clock) *Memory {
	return &Memory{clk: clock.Or(clk), nss: make(map[string]*memNamespace)}
}

func (m *Memory) Namespace(_ context.Context, root, name string) (Namespace, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty namespace", ErrInvalidName)
	}
	p := path.Join(root, name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if ns, ok := m.nss[p]; ok {
		return ns, nil
	}
	ns := &memNamespace{name: p, clk: m.clk, blobs: make(map[string]memBlob)}
	m.nss[p] = ns
	return ns, nil
}

type memBlob struct {
	data []byte
	info BlobInfo
}

type memNamespace struct {
	name string
	clk  clock.Clock

	mu    sync.RWMutex
	blobs map[string]memBlob
}

func (n *memNamespace) Name() string { return n.name }

func (n *memNamespace) Stat(ctx context.Context, name string) (BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return BlobInfo{}, err
	}
	n.mu.RLock()
	b, ok := n.blobs[name]
	n.mu.RUnlock()
	if !ok {
		return BlobInfo{}, ErrNotExist
	}
	return b.info, nil
}

func (n *memNamespace) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.RLock()
	b, ok := n.blobs[name]
	n.mu.RUnlock()
	if !ok {
		return nil, ErrNotExist
	}
	// published slices are never mutated, sharing is fine
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (n *memNamespace) Create(ctx context.Context, name string) (Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return &memWriter{ns: n, name: name}, nil
}

func (n *memNamespace) Delete(_ context.Context, name string) error {
	n.mu.Lock()
	delete(n.blobs, name)
	n.mu.Unlock()
	return nil
}

func (n *memNamespace) List(ctx context.Context) ([]BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.RLock()
	out := make([]BlobInfo, 0, len(n.blobs))
	for _, b := range n.blobs {
		out = append(out, b.info)
	}
	n.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memWriter struct {
	ns   *memNamespace
	name string
	buf  bytes.Buffer
	done bool
}

func (w *memWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, ErrCommitted
	}
	return w.buf.Write(p)
}

func (w *memWriter) Commit() (BlobInfo, error) {
	if w.done {
		return BlobInfo{}, ErrCommitted
	}
	w.done = true
	info := BlobInfo{Name: w.name, Size: int64(w.buf.Len()), ModTime: w.ns.clk.Now()}
	data := bytes.Clone(w.buf.Bytes())
	w.ns.mu.Lock()
	w.ns.blobs[w.name] = memBlob{data: data, info: info}
	w.ns.mu.Unlock()
	return info, nil
}

func (w *memWriter) Abort() error {
	w.done = true
	w.buf.Reset()
	return nil
}
