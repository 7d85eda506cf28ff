package bucketcache

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// ConfigFileName is the default config file name a CLI embedder looks for.
const ConfigFileName = ".bucketcache.json"

// LoadOptionsFile reads a JSONC config file at path and merges it over
// [DefaultOptions]. A missing file is not an error: it returns the
// defaults unchanged.
func LoadOptionsFile(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}

		return Options{}, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %s: invalid JSONC: %v", ErrInvalidConfig, path, err)
	}

	fileOpts := opts

	if err := json.Unmarshal(standardized, &fileOpts); err != nil {
		return Options{}, fmt.Errorf("%w: %s: invalid JSON: %v", ErrInvalidConfig, path, err)
	}

	return fileOpts, nil
}
