package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/blobcache/clock"
	"github.com/unkn0wn-root/blobcache/internal/wire"
	"github.com/unkn0wn-root/blobcache/store"
)

var ErrNilClient = errors.New("redis store: nil client")

// Redis keeps each blob as one framed string value under
// "<root>:<namespace>:<name>". SET replaces atomically, so no staging keys
// are ever visible.
type Redis struct {
	rdb       goredis.UniversalClient
	clk       clock.Clock
	scanCount int64
}

var _ store.Store = (*Redis)(nil)

type Config struct {
	Client goredis.UniversalClient
	Clock  clock.Clock // nil => wall clock
	// ScanCount is the COUNT hint for SCAN during List. 0 => 256.
	ScanCount int64
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	sc := cfg.ScanCount
	if sc <= 0 {
		sc = 256
	}
	return &Redis{rdb: cfg.Client, clk: clock.Or(cfg.Clock), scanCount: sc}, nil
}

// validName also rejects ':', the key separator; otherwise blob "b:c" in
// namespace "a" and blob "c" in namespace "a:b" would share one key.
func validName(name string) bool {
	return store.ValidName(name) && !strings.Contains(name, ":")
}

func (r *Redis) Namespace(ctx context.Context, root, name string) (store.Namespace, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: namespace %q", store.ErrInvalidName, name)
	}
	prefix := name + ":"
	if root != "" {
		prefix = root + ":" + prefix
	}
	return &namespace{rdb: r.rdb, clk: r.clk, prefix: prefix, scanCount: r.scanCount}, nil
}

type namespace struct {
	rdb       goredis.UniversalClient
	clk       clock.Clock
	prefix    string
	scanCount int64
}

func (n *namespace) Name() string { return strings.TrimSuffix(n.prefix, ":") }

func (n *namespace) key(name string) string { return n.prefix + name }

func (n *namespace) Stat(ctx context.Context, name string) (store.BlobInfo, error) {
	if !validName(name) {
		return store.BlobInfo{}, store.ErrNotExist
	}
	hdr, err := n.rdb.GetRange(ctx, n.key(name), 0, wire.HeaderLen-1).Bytes()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return store.BlobInfo{}, err
	}
	if len(hdr) == 0 { // GETRANGE on a missing key yields ""
		return store.BlobInfo{}, store.ErrNotExist
	}
	mt, size, err := wire.DecodeHeader(hdr)
	if err != nil {
		return store.BlobInfo{}, fmt.Errorf("redis store: %q: %w", name, err)
	}
	return store.BlobInfo{Name: name, Size: size, ModTime: mt}, nil
}

func (n *namespace) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !validName(name) {
		return nil, store.ErrNotExist
	}
	b, err := n.rdb.Get(ctx, n.key(name)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	_, payload, err := wire.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("redis store: %q: %w", name, err)
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (n *namespace) Create(ctx context.Context, name string) (store.Writer, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidName, name)
	}
	return &writer{ctx: ctx, ns: n, name: name}, nil
}

func (n *namespace) Delete(ctx context.Context, name string) error {
	if !validName(name) {
		return nil
	}
	return n.rdb.Del(ctx, n.key(name)).Err()
}

func (n *namespace) List(ctx context.Context) ([]store.BlobInfo, error) {
	var out []store.BlobInfo
	it := n.rdb.Scan(ctx, 0, escapeGlob(n.prefix)+"*", n.scanCount).Iterator()
	for it.Next(ctx) {
		name := strings.TrimPrefix(it.Val(), n.prefix)
		if strings.Contains(name, ":") {
			continue // belongs to a nested namespace
		}
		bi, err := n.Stat(ctx, name)
		if errors.Is(err, store.ErrNotExist) {
			continue // deleted between SCAN and GETRANGE
		}
		if err != nil {
			return nil, err
		}
		out = append(out, bi)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type writer struct {
	ctx  context.Context
	ns   *namespace
	name string
	buf  bytes.Buffer
	done bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, store.ErrCommitted
	}
	return w.buf.Write(p)
}

func (w *writer) Commit() (store.BlobInfo, error) {
	if w.done {
		return store.BlobInfo{}, store.ErrCommitted
	}
	w.done = true
	now := w.ns.clk.Now()
	if err := w.ns.rdb.Set(w.ctx, w.ns.key(w.name), wire.Encode(now, w.buf.Bytes()), 0).Err(); err != nil {
		return store.BlobInfo{}, err
	}
	return store.BlobInfo{Name: w.name, Size: int64(w.buf.Len()), ModTime: now}, nil
}

func (w *writer) Abort() error {
	w.done = true
	w.buf.Reset()
	return nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
