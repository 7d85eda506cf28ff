package kvenv

import "sort"

// Writer is an environment's single write transaction. Writer methods are
// not safe for concurrent use; callers serialize their own mutation calls.
type Writer struct {
	env     *Environment
	store   *store
	pending []Record
	closed  bool
}

// Put inserts or updates a record by key, keeping pending in sorted order.
func (w *Writer) Put(key []byte, modTime int64) error {
	if w.closed {
		return ErrTxClosed
	}

	keyCopy := append([]byte(nil), key...)

	idx, found := find(w.pending, keyCopy)
	if found {
		w.pending[idx] = Record{Key: keyCopy, ModTime: modTime}

		return nil
	}

	w.pending = append(w.pending, Record{})
	copy(w.pending[idx+1:], w.pending[idx:])
	w.pending[idx] = Record{Key: keyCopy, ModTime: modTime}

	return nil
}

// Delete removes a record by key, if present.
func (w *Writer) Delete(key []byte) error {
	if w.closed {
		return ErrTxClosed
	}

	idx, found := find(w.pending, key)
	if !found {
		return nil
	}

	w.pending = append(w.pending[:idx], w.pending[idx+1:]...)

	return nil
}

// Reset discards every pending record, including those copied from the
// committed snapshot at BeginWrite, so a following Commit publishes only
// what was Put after Reset. Used by fill to start from an empty sub-store.
func (w *Writer) Reset() {
	w.pending = w.pending[:0]
}

// Commit publishes the pending record set atomically and releases the
// environment's writer slot.
func (w *Writer) Commit() error {
	if w.closed {
		return ErrTxClosed
	}

	sort.Slice(w.pending, func(i, j int) bool {
		return string(w.pending[i].Key) < string(w.pending[j].Key)
	})

	final := make([]Record, len(w.pending))
	copy(final, w.pending)
	w.store.records.Store(&final)

	w.closed = true
	w.env.releaseWriter()

	return nil
}

// Abort discards pending mutations without publishing them and releases
// the environment's writer slot.
func (w *Writer) Abort() {
	if w.closed {
		return
	}

	w.closed = true
	w.env.releaseWriter()
}
