// Package bhash provides the single hash function the cache uses to select
// both a bucket's KV environment and its LRU lane, so that the two
// selections stay derived from one stable seed (spec: "the 64-bit hash of
// the name (stable seed, single hash function)").
package bhash

// Sum64 computes the 64-bit FNV-1a hash of name.
func Sum64(name string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	h := uint64(offset64)

	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= prime64
	}

	return h
}
