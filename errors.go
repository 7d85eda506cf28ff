package bucketcache

import "errors"

// Sentinel errors returned by the cache. Wrapped with fmt.Errorf and %w
// where additional context is useful; callers should compare with
// errors.Is.
var (
	// ErrInvalidConfig indicates the cache was constructed with an invalid
	// Options value.
	ErrInvalidConfig = errors.New("bucketcache: invalid configuration")

	// ErrBucketVanished indicates fill could not enumerate a bucket
	// directory that GetBucket had already admitted. Returned to the
	// caller rather than aborting the process, so a library embedder can
	// decide its own fatal-error policy.
	ErrBucketVanished = errors.New("bucketcache: bucket directory vanished before fill")

	// ErrBusy indicates admission could not complete: either the race
	// retry budget was exhausted (a concurrent reclaim kept winning against
	// lru.ref), or the bucket's LRU lane was full and no entry in it could
	// be reclaimed. Transient; callers may retry GetBucket.
	ErrBusy = errors.New("bucketcache: admission race exceeded retry budget")

	// ErrClosed indicates an operation was attempted on a closed cache.
	ErrClosed = errors.New("bucketcache: cache is closed")
)
