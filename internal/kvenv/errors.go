package kvenv

import "errors"

// Errors returned by the KV environment pool and sub-stores.
var (
	// ErrEnvOpen indicates the pool could not prepare an environment directory.
	ErrEnvOpen = errors.New("kvenv: environment open failed")

	// ErrWriterBusy indicates a write transaction was requested on an
	// environment that already has one open. Only one writer may be open
	// per environment at a time (spec invariant).
	ErrWriterBusy = errors.New("kvenv: writer already active for this environment")

	// ErrTxClosed indicates an operation was attempted on a transaction
	// that was already committed, aborted, or closed.
	ErrTxClosed = errors.New("kvenv: transaction closed")
)
