// Package watch runs the filesystem-change-notification event loop that
// drives cache invalidation: a directory-change event becomes a typed
// [Event] the cache facade applies to the bucket it names.
package watch

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Kind is the translated meaning of a raw filesystem event.
type Kind int

const (
	// ADD: an object was created in, or moved into, a watched bucket.
	ADD Kind = iota
	// REMOVE: an object was deleted from, or moved out of, a watched bucket.
	REMOVE
	// INVALIDATE: the watch backend's notification queue overflowed;
	// there is no single object name to apply, the whole bucket must be
	// treated as stale.
	INVALIDATE
)

func (k Kind) String() string {
	switch k {
	case ADD:
		return "ADD"
	case REMOVE:
		return "REMOVE"
	case INVALIDATE:
		return "INVALIDATE"
	default:
		return "UNKNOWN"
	}
}

// Event is the envelope delivered to the cache facade. Object is empty for
// INVALIDATE.
type Event struct {
	Bucket string
	Object string
	Kind   Kind
}

// Manager registers per-bucket watches and runs a single event-loop
// goroutine translating raw filesystem events into [Event] values sent on
// Events(). Re-adding an already-watched bucket is idempotent.
//
// Diagnostics (read errors reported by the watcher) are written to the
// diag writer passed to New if non-nil, matching the rest of this module's
// no-logging-library discipline: callers decide where diagnostics go.
// Events of other kinds (write, chmod) are dropped without a diagnostic.
type Manager struct {
	watcher *fsnotify.Watcher
	diag    io.Writer
	events  chan Event

	mu      sync.Mutex
	roots   map[string]string // bucket name -> watched directory
	byDir   map[string]string // watched directory -> bucket name
	done    chan struct{}
	closeOk sync.Once
}

// New starts a Manager with no watches registered; buckets are added with
// AddWatch, which takes the bucket root per call. Returns (nil, nil) if the
// platform has no usable notification backend; the cache runs without live
// invalidation in that case.
func New(diag io.Writer) (*Manager, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil //nolint:nilerr // unsupported backend is not fatal, see doc comment
	}

	m := &Manager{
		watcher: w,
		diag:    diag,
		events:  make(chan Event, 64),
		roots:   make(map[string]string),
		byDir:   make(map[string]string),
		done:    make(chan struct{}),
	}

	go m.loop()

	return m, nil
}

// Events returns the channel Event values are delivered on.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// AddWatch registers a watch on bucketRoot/name for bucket name. Idempotent.
func (m *Manager) AddWatch(bucketRoot, name string) error {
	dir := filepath.Join(bucketRoot, name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.roots[name]; ok {
		return nil
	}

	if err := m.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", dir, err)
	}

	m.roots[name] = dir
	m.byDir[dir] = name

	return nil
}

// RemoveWatch unregisters the watch for bucket name, if any.
func (m *Manager) RemoveWatch(bucketRoot, name string) error {
	dir := filepath.Join(bucketRoot, name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.roots[name]; !ok {
		return nil
	}

	delete(m.roots, name)
	delete(m.byDir, dir)

	if err := m.watcher.Remove(dir); err != nil {
		return fmt.Errorf("watch: remove %s: %w", dir, err)
	}

	return nil
}

// Invalidate delivers a synthetic INVALIDATE event for name, used to
// simulate or surface queue overflow explicitly.
func (m *Manager) Invalidate(name string) {
	select {
	case m.events <- Event{Bucket: name, Kind: INVALIDATE}:
	case <-m.done:
	}
}

// Close stops the event loop and releases the underlying watcher.
func (m *Manager) Close() error {
	var err error

	m.closeOk.Do(func() {
		close(m.done)
		err = m.watcher.Close()
	})

	return err
}

func (m *Manager) loop() {
	defer close(m.events)

	for {
		select {
		case <-m.done:
			return

		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}

			m.handle(ev)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}

			if m.diag != nil {
				fmt.Fprintf(m.diag, "watch: read error: %v\n", err)
			}
		}
	}
}

func (m *Manager) handle(ev fsnotify.Event) {
	dir := filepath.Dir(ev.Name)
	object := filepath.Base(ev.Name)

	m.mu.Lock()
	bucket, ok := m.byDir[dir]
	m.mu.Unlock()

	if !ok {
		return
	}

	var kind Kind

	switch {
	case ev.Has(fsnotify.Create):
		kind = ADD
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		kind = REMOVE
	default:
		// Write/Chmod and anything else carry no listing-relevant meaning.
		return
	}

	out := Event{Bucket: bucket, Object: object, Kind: kind}

	select {
	case m.events <- out:
	case <-m.done:
	}
}
