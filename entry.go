package bucketcache

import (
	"sync"
	"sync/atomic"

	"github.com/dirlist/bucketcache/internal/bhash"
	"github.com/dirlist/bucketcache/internal/kvenv"
)

// nameHash is the single hash function used for both KV environment
// selection and LRU lane selection, so both partitionings stay stable
// under the same seed.
func nameHash(name string) uint64 {
	return bhash.Sum64(name)
}

// entryFlags is a bitset guarded by BucketEntry.mu.
type entryFlags uint8

const (
	flagFilled entryFlags = 1 << iota
	flagDeleted
)

// BucketEntry is the in-memory record for one cached bucket. It is shared
// by every caller holding a refcount and is stored in both the
// partitioned index and one LRU lane at once.
type BucketEntry struct {
	// Immutable between admission and reclaim.
	name string
	hash uint64

	// env and envIdx identify the KV environment this entry's sub-store
	// lives in. envIdx = hash mod kv_pool_size, fixed at admission.
	env    *kvenv.Environment
	envIdx int

	refcount   int32 // atomic
	generation uint64

	// prevName and prevHash record the identity this entry had just before
	// the most recent recycle, so the cache facade can evict the stale
	// mapping from the index (the old name must not keep resolving to an
	// object that now describes a different bucket). Zero value otherwise.
	prevName string
	prevHash uint64

	// mu is the per-entry admission/fill mutex. It is held across Fill,
	// which performs directory enumeration and a write transaction, so a
	// second concurrent ListBucket call for the same never-filled entry
	// blocks on mu.Lock until the filler commits and releases it. This
	// mutex-as-barrier gives waiters the same wake-on-completion behavior
	// a condition variable would, without a separate signal.
	mu    sync.Mutex
	flags entryFlags
}

func newBucketEntry(name string, hash uint64, env *kvenv.Environment, envIdx int) *BucketEntry {
	return &BucketEntry{name: name, hash: hash, env: env, envIdx: envIdx}
}

// Name returns the bucket name this entry is bound to.
func (e *BucketEntry) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.name
}

// RefCount implements lru.Entry.
func (e *BucketEntry) RefCount() int32 {
	return atomic.LoadInt32(&e.refcount)
}

// Reclaim implements lru.Entry. It is only ever called by the LRU lane
// on a candidate it has already verified has refcount 0.
func (e *BucketEntry) Reclaim() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.refcount != 0 {
		return false
	}

	e.flags |= flagDeleted
	e.env.DropStore(e.name)
	e.flags &^= flagFilled

	return true
}

// ref atomically pins the entry if it is not deleted.
func (e *BucketEntry) ref() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.flags&flagDeleted != 0 {
		return false
	}

	atomic.AddInt32(&e.refcount, 1)

	return true
}

// unref drops a pin taken by ref or pinRecycled.
func (e *BucketEntry) unref() {
	atomic.AddInt32(&e.refcount, -1)
}

// pinRecycled pins an entry that was just handed back by Recycle, for the
// caller that performed the recycle. It does not check DELETED the way ref
// does: Recycle deliberately leaves DELETED set so that any *other* caller
// still holding a stale mapping to the old identity cannot ref() it, but
// the recycler itself is the sole owner of the object at this point and
// must be able to take its own pin before activate() lifts DELETED.
func (e *BucketEntry) pinRecycled() {
	atomic.AddInt32(&e.refcount, 1)
}

// activate clears the DELETED flag that Recycle leaves set. The caller
// (Cache.GetBucket) must call this only after it has removed any stale
// old-name mapping from the index and installed the new-name mapping, so
// there is never a window where the old name still resolves to this object
// while the object answers to its new identity.
func (e *BucketEntry) activate() {
	e.mu.Lock()
	e.flags &^= flagDeleted
	e.mu.Unlock()
}

func (e *BucketEntry) filled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.flags&flagFilled != 0
}

func (e *BucketEntry) deleted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.flags&flagDeleted != 0
}

// markFilled sets FILLED. Caller must already hold e.mu (Fill's
// precondition).
func (e *BucketEntry) markFilled() {
	e.flags |= flagFilled
}

// invalidate clears FILLED (and the sub-store) without deleting the entry,
// used by overflow invalidation.
func (e *BucketEntry) invalidate() {
	e.mu.Lock()
	e.env.ClearStore(e.name)
	e.flags &^= flagFilled
	e.mu.Unlock()
}

// entryFactory implements lru.Factory[*BucketEntry], binding new/recycled
// entries to their KV environment via the pool.
type entryFactory struct {
	pool *kvenv.Pool
}

func (f entryFactory) New(name string) *BucketEntry {
	h := nameHash(name)
	envIdx := int(h % uint64(f.pool.Size()))

	return newBucketEntry(name, h, f.pool.Env(envIdx), envIdx)
}

// Recycle reinitializes an evicted entry under a new name. It does not
// touch the index: it only records the entry's previous identity in
// prevName/prevHash so the caller (Cache.GetBucket) can evict the stale
// old-name mapping itself, under its own freshly acquired latch. Doing the
// index removal here would require taking the old name's partition latch
// while the new name's latch may still be held by the caller, risking
// deadlock whenever the two happen to hash to the same partition.
//
// The returned entry is left DELETED even though it is already fully
// rebound to name: the old-name index mapping still points at this same
// object until the caller deletes it, and a concurrent GetBucket(oldName)
// must not be able to ref() its way to the new identity in that window.
// The caller lifts DELETED with activate() once the old mapping is gone
// and the new one is installed.
func (f entryFactory) Recycle(obj *BucketEntry, name string) *BucketEntry {
	h := nameHash(name)
	envIdx := int(h % uint64(f.pool.Size()))

	obj.mu.Lock()
	obj.prevName = obj.name
	obj.prevHash = obj.hash
	obj.name = name
	obj.hash = h
	obj.env = f.pool.Env(envIdx)
	obj.envIdx = envIdx
	obj.flags = flagDeleted
	obj.generation++
	obj.mu.Unlock()

	atomic.StoreInt32(&obj.refcount, 0)

	return obj
}
