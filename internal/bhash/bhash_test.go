package bhash_test

import (
	"testing"

	"github.com/dirlist/bucketcache/internal/bhash"
)

func Test_Sum64_When_CalledTwice_IsDeterministic(t *testing.T) {
	t.Parallel()

	a := bhash.Sum64("stanley")
	b := bhash.Sum64("stanley")

	if a != b {
		t.Fatalf("Sum64 not deterministic: %d != %d", a, b)
	}
}

func Test_Sum64_When_NamesDiffer_UsuallyDiffers(t *testing.T) {
	t.Parallel()

	if bhash.Sum64("a") == bhash.Sum64("b") {
		t.Fatal("expected distinct hashes for distinct short names")
	}
}
