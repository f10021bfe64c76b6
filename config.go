package blobcache

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every variable read by LoadConfig.
const EnvPrefix = "BLOBCACHE_"

// Config is the environment-driven subset of Options:
//
//	BLOBCACHE_TTL             cache duration (e.g. "6h"); 0 => 24h
//	BLOBCACHE_MAX_ITEMS       memory layer size; 0 disables it
//	BLOBCACHE_ROOT            namespace parent directory / key prefix
//	BLOBCACHE_FOLDER          namespace name
//	BLOBCACHE_SWEEP_INTERVAL  janitor period; 0 disables it
//	BLOBCACHE_SWEEP_MAX_AGE   janitor age threshold; 0 => TTL
type Config struct {
	TTL           time.Duration `env:"TTL"`
	MaxItems      int           `env:"MAX_ITEMS"`
	Root          string        `env:"ROOT"`
	Folder        string        `env:"FOLDER"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL"`
	SweepMaxAge   time.Duration `env:"SWEEP_MAX_AGE"`
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(nil)
}

// LoadConfigFrom reads Config from environ, or from the process
// environment when environ is nil.
func LoadConfigFrom(environ map[string]string) (Config, error) {
	return env.ParseAsWithOptions[Config](env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
}

// ApplyConfig copies the non-zero fields of cfg onto opts.
func ApplyConfig[T any](cfg Config, opts Options[T]) Options[T] {
	opts.TTL = coalesce(cfg.TTL, opts.TTL)
	opts.MaxItemCount = coalesce(cfg.MaxItems, opts.MaxItemCount)
	opts.Root = coalesce(cfg.Root, opts.Root)
	opts.Folder = coalesce(cfg.Folder, opts.Folder)
	opts.SweepInterval = coalesce(cfg.SweepInterval, opts.SweepInterval)
	opts.SweepMaxAge = coalesce(cfg.SweepMaxAge, opts.SweepMaxAge)
	return opts
}
