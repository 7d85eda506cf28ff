// Package index implements the hash-partitioned ordered map from bucket
// name to live entry: one btree per partition, each guarded by its own
// mutex (the partition "latch"), with a find-or-insert operation that
// holds the latch across both steps.
package index

import (
	"sync"

	"github.com/google/btree"
)

// degree is the btree branching factor. The index holds at most a few
// thousand live entries per partition, so this is not performance
// sensitive; 32 is the value google/btree's own docs use as a reasonable
// default.
const degree = 32

type item[T any] struct {
	name  string
	value T
}

func less[T any](a, b item[T]) bool {
	return a.name < b.name
}

type partition[T any] struct {
	mu   sync.Mutex
	tree *btree.BTreeG[item[T]]
}

// Index is a fixed set of P partitions, each an independently-latched
// ordered map keyed by bucket name.
type Index[T any] struct {
	partitions []*partition[T]
}

// New creates an Index with numPartitions partitions. numPartitions must
// be >= 1.
func New[T any](numPartitions int) *Index[T] {
	if numPartitions < 1 {
		numPartitions = 1
	}

	partitions := make([]*partition[T], numPartitions)
	for i := range partitions {
		partitions[i] = &partition[T]{tree: btree.NewG[item[T]](degree, less[T])}
	}

	return &Index[T]{partitions: partitions}
}

// NumPartitions returns the number of partitions.
func (idx *Index[T]) NumPartitions() int {
	return len(idx.partitions)
}

// Latch is held by FindLatch until the caller installs a value
// (InsertLatched) or abandons the lookup (Release). It must not be used
// after either call.
type Latch[T any] struct {
	part     *partition[T]
	name     string
	released bool
}

// InsertLatched installs value at the name FindLatch was called with and
// releases the latch. Must be called at most once.
func (l *Latch[T]) InsertLatched(value T) {
	if l.released {
		return
	}

	l.part.tree.ReplaceOrInsert(item[T]{name: l.name, value: value})
	l.released = true
	l.part.mu.Unlock()
}

// Release releases the latch without installing anything, used on the hit
// path once the caller is done reading the existing value, or to abandon a
// miss.
func (l *Latch[T]) Release() {
	if l.released {
		return
	}

	l.released = true
	l.part.mu.Unlock()
}

// FindLatch looks up name in partitionIdx and returns with the partition
// latch held. On a hit, found is true and value is the existing entry; the
// caller must still call Release (or InsertLatched to overwrite) when done.
// On a miss, the latch is held at the insertion point so a subsequent
// InsertLatched is atomic with the lookup — no other goroutine can install
// a value for the same name in between.
func (idx *Index[T]) FindLatch(partitionIdx int, name string) (latch *Latch[T], value T, found bool) {
	p := idx.partitions[partitionIdx]

	p.mu.Lock()

	existing, ok := p.tree.Get(item[T]{name: name})
	latch = &Latch[T]{part: p, name: name}

	if ok {
		return latch, existing.value, true
	}

	var zero T

	return latch, zero, false
}

// Insert installs value for name under its own latch, taken fresh (used on
// the recycle path, where the cached insertion position from FindLatch is
// no longer valid because recycling may have mutated a sibling partition).
func (idx *Index[T]) Insert(partitionIdx int, name string, value T) {
	p := idx.partitions[partitionIdx]

	p.mu.Lock()
	defer p.mu.Unlock()

	p.tree.ReplaceOrInsert(item[T]{name: name, value: value})
}

// Delete removes name from partitionIdx, if present.
func (idx *Index[T]) Delete(partitionIdx int, name string) {
	p := idx.partitions[partitionIdx]

	p.mu.Lock()
	defer p.mu.Unlock()

	p.tree.Delete(item[T]{name: name})
}

// Len reports the number of entries in partitionIdx.
func (idx *Index[T]) Len(partitionIdx int) int {
	p := idx.partitions[partitionIdx]

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.tree.Len()
}
