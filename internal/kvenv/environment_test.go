package kvenv

import "testing"

func Test_Environment_BeginRead_When_StoreMissing_ReturnsEmptyReader(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t.TempDir())

	r := e.BeginRead("bucket-a")
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", r.Len())
	}
}

func Test_Environment_BeginWrite_When_WriterAlreadyOpen_ReturnsErrWriterBusy(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t.TempDir())

	w1, err := e.BeginWrite("bucket-a")
	if err != nil {
		t.Fatalf("first BeginWrite: %v", err)
	}

	_, err = e.BeginWrite("bucket-a")
	if err != ErrWriterBusy {
		t.Fatalf("second BeginWrite err = %v, want ErrWriterBusy", err)
	}

	if err := w1.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	w2, err := e.BeginWrite("bucket-a")
	if err != nil {
		t.Fatalf("BeginWrite after commit: %v", err)
	}

	w2.Abort()
}

func Test_Environment_WriteThenRead_When_Committed_ReaderSeesRecords(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t.TempDir())

	w, err := e.BeginWrite("bucket-a")
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}

	if err := w.Put([]byte("b.txt"), 100); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := w.Put([]byte("a.txt"), 200); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r := e.BeginRead("bucket-a")
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	c := r.Cursor(nil)

	first, ok := c.Next()
	if !ok || string(first.Key) != "a.txt" {
		t.Fatalf("first record = %+v, ok=%v, want a.txt", first, ok)
	}

	second, ok := c.Next()
	if !ok || string(second.Key) != "b.txt" {
		t.Fatalf("second record = %+v, ok=%v, want b.txt", second, ok)
	}

	if _, ok := c.Next(); ok {
		t.Fatal("expected cursor exhausted")
	}
}

func Test_Environment_Abort_When_Called_DiscardsPendingWrites(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t.TempDir())

	w, err := e.BeginWrite("bucket-a")
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}

	if err := w.Put([]byte("a.txt"), 1); err != nil {
		t.Fatalf("Put: %v", err)
	}

	w.Abort()

	r := e.BeginRead("bucket-a")
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after abort", r.Len())
	}
}

func Test_Environment_DropStore_When_Called_RemovesStore(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t.TempDir())
	e.OpenStore("bucket-a")
	e.DropStore("bucket-a")

	if s := e.store("bucket-a"); s != nil {
		t.Fatal("expected store to be dropped")
	}
}

func Test_Environment_ClearStore_When_Called_EmptiesContentsKeepsStore(t *testing.T) {
	t.Parallel()

	e := newEnvironment(t.TempDir())

	w, err := e.BeginWrite("bucket-a")
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}

	if err := w.Put([]byte("a.txt"), 1); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	e.ClearStore("bucket-a")

	if s := e.store("bucket-a"); s == nil {
		t.Fatal("expected store to still exist")
	}

	if r := e.BeginRead("bucket-a"); r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after clear", r.Len())
	}
}
