package bucketcache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirlist/bucketcache"
)

func Test_LoadOptionsFile_When_FileMissing_ReturnsDefaults(t *testing.T) {
	t.Parallel()

	opts, err := bucketcache.LoadOptionsFile(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err, "a missing config file should not be an error")

	assert.Equal(t, bucketcache.DefaultOptions(), opts)
}

func Test_LoadOptionsFile_When_FilePresent_OverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".bucketcache.json")

	// trailing comma and a comment: exercises JSONC standardization, not
	// just plain json.Unmarshal.
	content := `{
		// override only part of the default set
		"max_buckets": 500,
		"kv_pool_size": 7,
	}`

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	opts, err := bucketcache.LoadOptionsFile(path)
	require.NoError(t, err)

	assert.Equal(t, 500, opts.MaxBuckets)
	assert.Equal(t, 7, opts.KVPoolSize)
	assert.Equal(t, bucketcache.DefaultOptions().MaxLanes, opts.MaxLanes, "fields absent from the file keep their default")
}

func Test_LoadOptionsFile_When_FileIsInvalidJSON_ReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".bucketcache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := bucketcache.LoadOptionsFile(path)
	require.ErrorIs(t, err, bucketcache.ErrInvalidConfig)
}
