package bucketcache

import "github.com/dirlist/bucketcache/internal/kvenv"

// Cursor iterates a bucket's listing in key order, starting strictly after
// the marker ListBucket was called with. Not safe for concurrent use.
//
// The entry is pinned for the cursor's lifetime; callers must call Close
// when done to release the pin.
type Cursor struct {
	entry  *BucketEntry
	kv     *kvenv.Cursor
	closed bool
}

// Next returns the next key and its modification time, or ok=false once
// the listing is exhausted.
func (c *Cursor) Next() (name string, modTime int64, ok bool) {
	if c.closed {
		return "", 0, false
	}

	rec, got := c.kv.Next()
	if !got {
		return "", 0, false
	}

	return string(rec.Key), rec.ModTime, true
}

// Take returns up to n names, advancing the cursor. Modification times are
// not returned; use Next for those.
func (c *Cursor) Take(n int) []string {
	if c.closed {
		return nil
	}

	recs := c.kv.Take(n)
	names := make([]string, len(recs))

	for i, r := range recs {
		names[i] = string(r.Key)
	}

	return names
}

// Close unpins the underlying bucket entry. Safe to call more than once.
func (c *Cursor) Close() {
	if c.closed {
		return
	}

	c.closed = true
	c.entry.unref()
}
