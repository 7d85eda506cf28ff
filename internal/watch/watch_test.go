package watch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dirlist/bucketcache/internal/watch"
)

func Test_Manager_AddWatch_When_FileCreated_DeliversAddEvent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	if err := os.MkdirAll(filepath.Join(root, "bucket-a"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	m, err := watch.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if m == nil {
		t.Skip("no notification backend available on this platform")
	}

	t.Cleanup(func() { _ = m.Close() })

	if err := m.AddWatch(root, "bucket-a"); err != nil {
		t.Fatalf("AddWatch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "bucket-a", "new_obj"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case ev := <-m.Events():
		if ev.Kind != watch.ADD {
			t.Fatalf("Kind = %v, want ADD", ev.Kind)
		}

		if ev.Bucket != "bucket-a" || ev.Object != "new_obj" {
			t.Fatalf("event = %+v, want bucket-a/new_obj", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ADD event")
	}
}

func Test_Manager_Invalidate_When_Called_DeliversInvalidateEvent(t *testing.T) {
	t.Parallel()

	m, err := watch.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if m == nil {
		t.Skip("no notification backend available on this platform")
	}

	t.Cleanup(func() { _ = m.Close() })

	m.Invalidate("bucket-b")

	select {
	case ev := <-m.Events():
		if ev.Kind != watch.INVALIDATE || ev.Bucket != "bucket-b" {
			t.Fatalf("event = %+v, want INVALIDATE/bucket-b", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for INVALIDATE event")
	}
}

func Test_Manager_RemoveWatch_When_Called_StopsDeliveringEvents(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	if err := os.MkdirAll(filepath.Join(root, "bucket-a"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	m, err := watch.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if m == nil {
		t.Skip("no notification backend available on this platform")
	}

	t.Cleanup(func() { _ = m.Close() })

	if err := m.AddWatch(root, "bucket-a"); err != nil {
		t.Fatalf("AddWatch: %v", err)
	}

	if err := m.RemoveWatch(root, "bucket-a"); err != nil {
		t.Fatalf("RemoveWatch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "bucket-a", "new_obj"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case ev := <-m.Events():
		t.Fatalf("unexpected event after RemoveWatch: %+v", ev)
	case <-time.After(500 * time.Millisecond):
	}
}

func Test_Manager_RemoveWatch_When_NameNotWatched_IsNoop(t *testing.T) {
	t.Parallel()

	m, err := watch.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if m == nil {
		t.Skip("no notification backend available on this platform")
	}

	t.Cleanup(func() { _ = m.Close() })

	if err := m.RemoveWatch(t.TempDir(), "never-added"); err != nil {
		t.Fatalf("RemoveWatch on unknown name: %v", err)
	}
}

func Test_Manager_AddWatch_When_CalledTwice_IsIdempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	if err := os.MkdirAll(filepath.Join(root, "bucket-a"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	m, err := watch.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if m == nil {
		t.Skip("no notification backend available on this platform")
	}

	t.Cleanup(func() { _ = m.Close() })

	if err := m.AddWatch(root, "bucket-a"); err != nil {
		t.Fatalf("first AddWatch: %v", err)
	}

	if err := m.AddWatch(root, "bucket-a"); err != nil {
		t.Fatalf("second AddWatch: %v", err)
	}
}
