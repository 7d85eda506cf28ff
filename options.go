package bucketcache

import (
	"fmt"
	"os"
)

// Options configures a [Cache]. Construct with [DefaultOptions] and
// override fields, or load a JSONC file with [LoadOptionsFile] and let
// constructor arguments take precedence over it.
type Options struct {
	// BucketRoot is the directory whose immediate subdirectories are
	// buckets. Must exist and be a directory.
	BucketRoot string `json:"bucket_root"` //nolint:tagliatelle // snake_case for config file

	// DatabaseRoot is wiped and recreated on New; used exclusively by this
	// process for the lifetime of the Cache.
	DatabaseRoot string `json:"database_root"` //nolint:tagliatelle // snake_case for config file

	// MaxBuckets bounds the number of cached bucket entries.
	MaxBuckets int `json:"max_buckets,omitempty"` //nolint:tagliatelle // snake_case for config file

	// MaxLanes is the number of LRU lanes the bucket pool is split across.
	MaxLanes int `json:"max_lanes,omitempty"` //nolint:tagliatelle // snake_case for config file

	// KVPoolSize is the number of KV environments buckets are partitioned
	// across.
	KVPoolSize int `json:"kv_pool_size,omitempty"` //nolint:tagliatelle // snake_case for config file

	// DisableWatch skips starting a watch manager even if the platform
	// supports one. Mainly useful for tests that want deterministic,
	// notification-free behavior.
	DisableWatch bool `json:"-"`

	// Diagnostics, if non-nil, receives best-effort diagnostic lines from
	// the watch event loop (read errors reported by the watcher).
	// Nil means silent, matching the rest of this module's
	// no-logging-library discipline.
	Diagnostics *os.File `json:"-"`
}

// DefaultOptions returns sane constructor defaults: max_buckets=100,
// max_lanes=3, kv_pool_size=3.
func DefaultOptions() Options {
	return Options{
		MaxBuckets: 100,
		MaxLanes:   3,
		KVPoolSize: 3,
	}
}

func (o Options) validate() error {
	if o.BucketRoot == "" {
		return fmt.Errorf("%w: bucket_root is required", ErrInvalidConfig)
	}

	info, err := os.Stat(o.BucketRoot)
	if err != nil {
		return fmt.Errorf("%w: bucket_root %s: %v", ErrInvalidConfig, o.BucketRoot, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: bucket_root %s is not a directory", ErrInvalidConfig, o.BucketRoot)
	}

	if o.DatabaseRoot == "" {
		return fmt.Errorf("%w: database_root is required", ErrInvalidConfig)
	}

	if o.MaxBuckets < 1 {
		return fmt.Errorf("%w: max_buckets must be >= 1, got %d", ErrInvalidConfig, o.MaxBuckets)
	}

	if o.MaxLanes < 1 {
		return fmt.Errorf("%w: max_lanes must be >= 1, got %d", ErrInvalidConfig, o.MaxLanes)
	}

	if o.KVPoolSize < 1 {
		return fmt.Errorf("%w: kv_pool_size must be >= 1, got %d", ErrInvalidConfig, o.KVPoolSize)
	}

	return nil
}
