package serializer

import "errors"

// Sentinel kinds for serializer errors.
var (
	ErrStopped = errors.New("serializer pool is not running")
)
