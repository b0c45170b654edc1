package contract

import "errors"

// Error categories. Concrete errors wrap one of these so callers can use errors.Is.
var (
	// ErrRepositoryAccess means the path is missing, unreadable, or not a repository root.
	ErrRepositoryAccess = errors.New("repository access failed")

	// ErrStreamRead means the commit log could not be read to completion.
	ErrStreamRead = errors.New("commit stream read failed")

	// ErrPersistence means a store operation failed and was rolled back.
	ErrPersistence = errors.New("persistence failed")

	// ErrTaskNotFound means no task is registered under the given id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrRepositoryNotFound means no repository is registered under the given id or name.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrNoHistory means an incremental update was requested before any backfill.
	ErrNoHistory = errors.New("no stored history")
)
