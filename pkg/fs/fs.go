// Package fs provides the small filesystem seam the bucket cache depends on.
//
// The main types are:
//   - [FS]: interface for the directory operations the cache needs
//   - [Real]: production implementation backed by the [os] package
//
// The cache and the KV pool reach the filesystem through [FS]; the cache's
// New always constructs a [Real].
package fs

import (
	"os"
)

// FS defines the directory operations the bucket cache depends on: listing
// a bucket's contents, and preparing/wiping the database root.
//
// Paths use OS semantics (like the os package and path/filepath), not the
// slash-separated paths used by the standard library io/fs package.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type FS interface {
	// ReadDir reads a directory and returns its entries, sorted by name.
	// See [os.ReadDir].
	ReadDir(path string) ([]os.DirEntry, error)

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// MkdirAll creates a directory and all parents. No error if the
	// directory already exists. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// RemoveAll deletes a path and any children. No error if path doesn't
	// exist. See [os.RemoveAll].
	RemoveAll(path string) error
}
