package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("tag not found")
	ErrAlreadyExists = errors.New("tag already exists")
	ErrNotPending    = errors.New("tag is not pending")
	ErrInvalidLimit  = errors.New("invalid page limit")
)
