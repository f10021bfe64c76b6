// Package charm adapts charmbracelet/log to blobcache.Logger.
package charm

import (
	"sort"

	"github.com/charmbracelet/log"
	"github.com/unkn0wn-root/blobcache"
)

var _ blobcache.Logger = Logger{}

type Logger struct{ L *log.Logger }

func (c Logger) Debug(msg string, f blobcache.Fields) { c.L.Debug(msg, keyvals(f)...) }
func (c Logger) Info(msg string, f blobcache.Fields)  { c.L.Info(msg, keyvals(f)...) }
func (c Logger) Warn(msg string, f blobcache.Fields)  { c.L.Warn(msg, keyvals(f)...) }
func (c Logger) Error(msg string, f blobcache.Fields) { c.L.Error(msg, keyvals(f)...) }

func keyvals(f blobcache.Fields) []any {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, 2*len(f))
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}
