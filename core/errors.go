package core

import "errors"

var (
	// ErrOutOfRange marks a parameter value outside its declared range
	ErrOutOfRange = errors.New("parameter out of range")

	// ErrRegenerationInProgress is returned for a commit that arrives while
	// another regeneration is still running. The commit is ignored.
	ErrRegenerationInProgress = errors.New("regeneration already in progress")

	// ErrAllocationFailed wraps allocator errors. The manager is left with
	// nothing attached.
	ErrAllocationFailed = errors.New("renderable allocation failed")
)
