package kvenv

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_Writer_Put_When_KeyExists_Overwrites(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t.TempDir())

	w, err := e.BeginWrite("bucket-a")
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}

	if err := w.Put([]byte("a.txt"), 1); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := w.Put([]byte("a.txt"), 2); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r := e.BeginRead("bucket-a")
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}

	rec, _ := r.Cursor(nil).Next()
	if rec.ModTime != 2 {
		t.Fatalf("ModTime = %d, want 2", rec.ModTime)
	}
}

func Test_Writer_Delete_When_KeyAbsent_IsNoop(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t.TempDir())

	w, err := e.BeginWrite("bucket-a")
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}

	if err := w.Delete([]byte("missing")); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func Test_Writer_Operations_When_Closed_ReturnErrTxClosed(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t.TempDir())

	w, err := e.BeginWrite("bucket-a")
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}

	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := w.Put([]byte("a"), 1); err != ErrTxClosed {
		t.Fatalf("Put after commit err = %v, want ErrTxClosed", err)
	}

	if err := w.Delete([]byte("a")); err != ErrTxClosed {
		t.Fatalf("Delete after commit err = %v, want ErrTxClosed", err)
	}

	if err := w.Commit(); err != ErrTxClosed {
		t.Fatalf("second Commit err = %v, want ErrTxClosed", err)
	}
}

func Test_Cursor_Take_When_MarkerGiven_IsExclusive(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t.TempDir())

	w, err := e.BeginWrite("bucket-a")
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}

	for _, name := range []string{"a", "b", "c", "d"} {
		if err := w.Put([]byte(name), 0); err != nil {
			t.Fatalf("Put(%s): %v", name, err)
		}
	}

	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r := e.BeginRead("bucket-a")
	page := r.Cursor([]byte("b")).Take(10)

	want := []Record{{Key: []byte("c")}, {Key: []byte("d")}}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Fatalf("page mismatch (-want +got):\n%s", diff)
	}
}
