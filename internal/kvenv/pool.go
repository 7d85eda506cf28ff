package kvenv

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/dirlist/bucketcache/pkg/fs"
)

// manifestName is the small marker file written into each partition
// directory once it has been prepared. Its presence is not load-bearing for
// correctness (sub-store contents never survive a restart); it exists so a
// partition directory can be told apart from a leftover or half-created one
// during a future startup scan.
const manifestName = "MANIFEST"

// Pool owns the N KV environments a cache is partitioned across. It wipes
// and recreates database_root/part_0..part_{N-1} on construction, so the
// database root always contains exactly those directories and nothing
// else, and hands out environments by hash-mod-N selection.
type Pool struct {
	root string
	envs []*Environment
}

// OpenPool wipes root and creates n fresh part_<i> directories inside it,
// one per environment, opening an [Environment] for each. n must be >= 1.
func OpenPool(filesystem fs.FS, root string, n int) (*Pool, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: pool size must be >= 1, got %d", ErrEnvOpen, n)
	}

	if err := filesystem.RemoveAll(root); err != nil {
		return nil, fmt.Errorf("%w: wipe %s: %v", ErrEnvOpen, root, err)
	}

	if err := filesystem.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrEnvOpen, root, err)
	}

	envs := make([]*Environment, n)

	for i := 0; i < n; i++ {
		dir := filepath.Join(root, fmt.Sprintf("part_%d", i))

		if err := filesystem.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", ErrEnvOpen, dir, err)
		}

		manifest := fmt.Sprintf("part=%d\n", i)
		if err := atomic.WriteFile(filepath.Join(dir, manifestName), bytes.NewReader([]byte(manifest))); err != nil {
			return nil, fmt.Errorf("%w: write manifest in %s: %v", ErrEnvOpen, dir, err)
		}

		envs[i] = newEnvironment(dir)
	}

	return &Pool{root: root, envs: envs}, nil
}

// Size returns the number of environments in the pool.
func (p *Pool) Size() int {
	return len(p.envs)
}

// Root returns the pool's database root directory.
func (p *Pool) Root() string {
	return p.root
}

// Env returns the environment at the given index, selected by the caller
// via hash(name) mod Size(). Panics if idx is out of range, mirroring slice
// indexing semantics — callers always derive idx from Size().
func (p *Pool) Env(idx int) *Environment {
	return p.envs[idx]
}

// EnvFor returns the environment that owns partitionHash, reduced mod the
// pool size.
func (p *Pool) EnvFor(partitionHash uint64) *Environment {
	return p.envs[partitionHash%uint64(len(p.envs))]
}
