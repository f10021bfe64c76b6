package blobcache

import (
	"reflect"
	"strings"
	"time"

	gap "github.com/muesli/go-app-paths"
)

const (
	appName       = "blobcache"
	defaultTTL    = 24 * time.Hour
	defaultFolder = "blobcache"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// defaultRoot is the per-user cache directory, e.g. ~/.cache/blobcache.
func defaultRoot() (string, error) {
	return gap.NewScope(gap.User, appName).CacheDir()
}

// folderFor names the namespace after T so caches of different types
// sharing a root do not collide: []byte -> "uint8s", *pkg.Image -> "pkg.Image".
func folderFor[T any]() string {
	t := reflect.TypeFor[T]()
	name := t.String()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
		name = t.String()
	}
	if t.Kind() == reflect.Slice && t.Name() == "" {
		name = t.Elem().String() + "s"
	}
	return sanitizeFolder(name)
}

func sanitizeFolder(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	s = strings.Trim(s, "._")
	if s == "" {
		return defaultFolder
	}
	return s
}
