// Package bucketcache materializes and serves listings of "buckets" —
// directories under a configured root — backed by an embedded sorted
// key/value store, and keeps those listings live as the underlying
// directories change.
package bucketcache

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/dirlist/bucketcache/internal/index"
	"github.com/dirlist/bucketcache/internal/kvenv"
	"github.com/dirlist/bucketcache/internal/lru"
	"github.com/dirlist/bucketcache/internal/watch"
	"github.com/dirlist/bucketcache/pkg/fs"
)

// GetFlags controls GetBucket's behavior.
type GetFlags uint8

const (
	// FlagCreate is reserved; admission always happens on a miss
	// regardless of whether this flag is set.
	FlagCreate GetFlags = 1 << iota

	// FlagLock returns the entry with its per-entry mutex held; the
	// caller must arrange for it to be released (ListBucket does this
	// internally; direct GetBucket callers that pass FlagLock must call
	// Cache.Unlock).
	FlagLock
)

// ResultFlags reports what GetBucket actually did.
type ResultFlags uint8

// ResultCreate indicates this call admitted the entry (it was not already
// cached).
const ResultCreate ResultFlags = 1

// admitRetries bounds the find-latch / lru.ref retry loop in GetBucket
// before giving up with [ErrBusy] on a transient admission race.
const admitRetries = 64

// Cache is the bounded bucket cache: a partitioned index coupled to
// multi-lane LRU lanes, backed by a pool of KV environments, optionally
// kept live by a watch manager.
type Cache struct {
	opts  Options
	fs    fs.FS
	pool  *kvenv.Pool
	idx   *index.Index[*BucketEntry]
	lanes *lru.Lanes[*BucketEntry]

	watcher *watch.Manager
	watchWG sync.WaitGroup

	recycleCount uint64 // atomic
	closed       int32  // atomic
	closeOnce    sync.Once
}

// New validates opts and constructs a Cache. It does not call os.Exit on
// invalid configuration; embedders that want an abort-the-process policy
// for configuration-fatal errors do so at their own boundary (see
// cmd/bucketcli).
func New(opts Options) (*Cache, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	filesystem := fs.NewReal()

	pool, err := kvenv.OpenPool(filesystem, opts.DatabaseRoot, opts.KVPoolSize)
	if err != nil {
		return nil, err
	}

	laneCapacity := opts.MaxBuckets / opts.MaxLanes
	if laneCapacity < 1 {
		laneCapacity = 1
	}

	c := &Cache{
		opts:  opts,
		fs:    filesystem,
		pool:  pool,
		idx:   index.New[*BucketEntry](opts.MaxLanes),
		lanes: lru.New[*BucketEntry](opts.MaxLanes, laneCapacity),
	}

	if !opts.DisableWatch {
		w, err := watch.New(opts.Diagnostics)
		if err != nil {
			return nil, fmt.Errorf("%w: watch manager: %v", ErrInvalidConfig, err)
		}

		if w != nil {
			c.watcher = w
			c.watchWG.Add(1)

			go c.runWatchLoop()
		}
	}

	return c, nil
}

func (c *Cache) laneIndex(h uint64) int {
	return int(h % uint64(c.lanes.NumLanes()))
}

func (c *Cache) partitionIndex(h uint64) int {
	return int(h % uint64(c.idx.NumPartitions()))
}

// GetBucket atomically finds or creates the entry for name, pinning it
// against eviction until the caller releases it with [Cache.ReleaseBucket].
func (c *Cache) GetBucket(name string, flags GetFlags) (*BucketEntry, ResultFlags, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, 0, ErrClosed
	}

	h := nameHash(name)
	partIdx := c.partitionIndex(h)

	for attempt := 0; attempt < admitRetries; attempt++ {
		latch, existing, found := c.idx.FindLatch(partIdx, name)

		if found {
			if !existing.ref() {
				// Racing reclaim won; the partition latch protects us from
				// seeing a half-reclaimed entry, but ref() itself can still
				// lose to a concurrent Reclaim that just ran, or find the
				// entry still DELETED because a racing recycle rebound it to
				// a different name and hasn't called activate() yet. Retry.
				latch.Release()

				continue
			}

			latch.Release()
			c.lanes.Touch(c.laneIndex(h), existing)

			if flags&FlagLock != 0 {
				existing.mu.Lock()
			}

			return existing, 0, nil
		}

		obj, recycled, err := c.lanes.Insert(c.laneIndex(h), name, entryFactory{pool: c.pool})
		if err != nil {
			latch.Release()

			return nil, 0, fmt.Errorf("%w: %v", ErrBusy, err)
		}

		if !recycled {
			obj.ref()
			latch.InsertLatched(obj)
		} else {
			// obj is still DELETED here (Recycle's contract): any concurrent
			// GetBucket(obj.prevName) that finds the stale old-name mapping
			// in the meantime fails existing.ref() and retries, instead of
			// being handed this object's new identity. pinRecycled bypasses
			// that check because this goroutine is the legitimate new owner.
			obj.pinRecycled()

			// Recycling may have mutated a sibling partition (the victim's
			// old name could hash to a different partition), so the cached
			// insertion position is no longer valid; fall back to a fresh
			// latch. Both the stale old-name removal and the new-name insertion
			// take their own latch after this one is released, so a victim
			// sharing this partition cannot self-deadlock.
			latch.Release()
			atomic.AddUint64(&c.recycleCount, 1)

			if obj.prevName != "" {
				oldPart := c.partitionIndex(obj.prevHash)
				c.idx.Delete(oldPart, obj.prevName)

				if c.watcher != nil {
					_ = c.watcher.RemoveWatch(c.opts.BucketRoot, obj.prevName)
				}
			}

			c.idx.Insert(partIdx, name, obj)
			obj.activate()
		}

		if flags&FlagLock != 0 {
			obj.mu.Lock()
		}

		return obj, ResultCreate, nil
	}

	return nil, 0, ErrBusy
}

// Unlock releases the per-entry mutex taken by GetBucket(..., FlagLock).
func (c *Cache) Unlock(e *BucketEntry) {
	e.mu.Unlock()
}

// ReleaseBucket drops the pin GetBucket took on e. Every successful
// GetBucket call must be paired with either a ReleaseBucket or, when the
// entry was obtained via a [Cursor], the cursor's Close.
func (c *Cache) ReleaseBucket(e *BucketEntry) {
	e.unref()
}

// Fill populates e's sub-store from its bucket directory. Precondition:
// e.mu held by the caller, !e.filled().
func (c *Cache) Fill(e *BucketEntry) error {
	entries, err := c.fs.ReadDir(bucketDir(c.opts.BucketRoot, e.name))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBucketVanished, e.name, err)
	}

	w, err := e.env.BeginWrite(e.name)
	if err != nil {
		return fmt.Errorf("bucketcache: fill %s: %w", e.name, err)
	}

	w.Reset()

	for _, fi := range entries {
		info, statErr := fi.Info()

		var modTime int64
		if statErr == nil {
			modTime = info.ModTime().Unix()
		}

		if err := w.Put([]byte(fi.Name()), modTime); err != nil {
			w.Abort()

			return fmt.Errorf("bucketcache: fill %s: %w", e.name, err)
		}
	}

	if err := w.Commit(); err != nil {
		return fmt.Errorf("bucketcache: fill %s: %w", e.name, err)
	}

	e.markFilled()

	if c.watcher != nil {
		_ = c.watcher.AddWatch(c.opts.BucketRoot, e.name)
	}

	return nil
}

// ListBucket admits the bucket if needed, fills it on first use, and
// returns a [Cursor] over keys strictly greater than marker.
func (c *Cache) ListBucket(name, marker string) (*Cursor, error) {
	e, _, err := c.GetBucket(name, FlagLock)
	if err != nil {
		return nil, err
	}

	// e.mu is held here (GetBucket was called with FlagLock), so reading
	// flags directly is safe without re-entering the lock.
	if e.flags&flagFilled == 0 {
		if fillErr := c.Fill(e); fillErr != nil {
			c.Unlock(e)
			e.unref()

			return nil, fillErr
		}
	}

	c.Unlock(e)

	reader := e.env.BeginRead(e.name)
	kvCursor := reader.Cursor([]byte(marker))

	return &Cursor{entry: e, kv: kvCursor}, nil
}

// RecycleCount returns the number of LRU recycles performed over the
// lifetime of the cache.
func (c *Cache) RecycleCount() uint64 {
	return atomic.LoadUint64(&c.recycleCount)
}

// SimulateOverflow delivers a synthetic notification-queue-overflow event
// for name, exercising the same path a real backend's overflow indication
// would. A no-op if the cache was built with watching disabled.
func (c *Cache) SimulateOverflow(name string) {
	if c.watcher == nil {
		return
	}

	c.watcher.Invalidate(name)
}

// Close stops the watch manager, if any, and releases cache resources.
// Already-open Cursors remain valid; Close does not wait for them.
func (c *Cache) Close() error {
	var err error

	c.closeOnce.Do(func() {
		atomic.StoreInt32(&c.closed, 1)

		if c.watcher != nil {
			err = c.watcher.Close()
			c.watchWG.Wait()
		}
	})

	return err
}

func (c *Cache) runWatchLoop() {
	defer c.watchWG.Done()

	for ev := range c.watcher.Events() {
		c.applyEvent(ev)
	}
}

// applyEvent translates one watch event into a cache mutation. Best-effort:
// events for buckets that are not cached, or were reclaimed in the
// meantime, are dropped.
func (c *Cache) applyEvent(ev watch.Event) {
	h := nameHash(ev.Bucket)
	partIdx := c.partitionIndex(h)

	latch, e, found := c.idx.FindLatch(partIdx, ev.Bucket)
	latch.Release()

	if !found || e.deleted() {
		return
	}

	switch ev.Kind {
	case watch.INVALIDATE:
		e.invalidate()

	case watch.ADD:
		c.applyAdd(e, ev.Object)

	case watch.REMOVE:
		c.applyRemove(e, ev.Object)
	}
}

func (c *Cache) applyAdd(e *BucketEntry, object string) {
	w, err := e.env.BeginWrite(e.name)
	if err != nil {
		return
	}

	_ = w.Put([]byte(object), 0)
	_ = w.Commit()
}

func (c *Cache) applyRemove(e *BucketEntry, object string) {
	w, err := e.env.BeginWrite(e.name)
	if err != nil {
		return
	}

	_ = w.Delete([]byte(object))
	_ = w.Commit()
}

func bucketDir(root, name string) string {
	return filepath.Join(root, name)
}
