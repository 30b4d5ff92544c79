package service

import "errors"

var (
	// ErrNotStarted is returned when an operation is invoked before
	// Start or after Stop.
	ErrNotStarted = errors.New("service not started")
)
