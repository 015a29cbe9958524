package service

import "errors"

// Domain errors translated to HTTP status codes by the handlers.
var (
	// ErrNotFound: the entity does not exist or is outside the requester's
	// visibility.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness invariant would be violated.
	ErrConflict = errors.New("conflict")
	// ErrNotClone: revert was invoked on a ward that was not produced by
	// cloning.
	ErrNotClone = errors.New("not a cloned ward")
	// ErrNotAssigned: the voter has no active assignment.
	ErrNotAssigned = errors.New("voter is not assigned")
	// ErrNotWorker: the target user of an assignment is not a worker.
	ErrNotWorker = errors.New("the specified user is not a worker")
	// ErrInvalidStatus: not one of the four status values.
	ErrInvalidStatus = errors.New("invalid status")
)
