package kvenv

import (
	"bytes"
	"sort"
	"sync/atomic"
)

// Record is one key/value pair in a sub-store: the bucket object's
// filename plus its last known modification time.
type Record struct {
	Key     []byte
	ModTime int64
}

// store is one named sub-store inside an [Environment]: an immutable,
// key-sorted slice of [Record] reached through an atomic pointer.
//
// Writers build a new sorted slice and swap the pointer on commit
// (copy-on-write). Readers dereference the pointer once and iterate the
// snapshot they got; an unlimited number of readers can run concurrently
// with each other and with the single writer, and neither blocks the
// other.
type store struct {
	records atomic.Pointer[[]Record]
}

func newStore() *store {
	s := &store{}
	empty := make([]Record, 0)
	s.records.Store(&empty)

	return s
}

// snapshot returns the current sorted record slice. Callers must not mutate
// the returned slice; it is shared with concurrent readers.
func (s *store) snapshot() []Record {
	return *s.records.Load()
}

// clear resets the sub-store to empty, used by invalidation (reclaim drops
// the sub-store instead).
func (s *store) clear() {
	empty := make([]Record, 0)
	s.records.Store(&empty)
}

// find returns the index of key in a sorted record slice, or the insertion
// point and false if absent.
func find(records []Record, key []byte) (int, bool) {
	idx := sort.Search(len(records), func(i int) bool {
		return bytes.Compare(records[i].Key, key) >= 0
	})

	if idx < len(records) && bytes.Equal(records[idx].Key, key) {
		return idx, true
	}

	return idx, false
}
