package indexer

import "errors"

var (
	// ErrNoRoots indicates Start was called without any root paths
	ErrNoRoots = errors.New("no root paths given")

	// ErrInvalidRoot indicates a root path that cannot be used
	ErrInvalidRoot = errors.New("invalid root path")

	// ErrStopped is reported by a Task whose scan was stopped or superseded
	ErrStopped = errors.New("indexing stopped")
)
