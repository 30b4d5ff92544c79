package docstore

import (
	"errors"
	"fmt"
)

// Sentinel kinds for document store errors.
var (
	ErrKeyNotFound     = errors.New("document not found")
	ErrConditionFailed = errors.New("conditional write failed")
	ErrConflict        = errors.New("transaction conflict not resolved within retry budget")
	ErrInvalidLimit    = errors.New("scan limit must be at least 1")
	ErrBadCursor       = errors.New("malformed pagination cursor")
	ErrOpen            = errors.New("open store failed")
	ErrClosed          = errors.New("store is closed")
	ErrInternal        = errors.New("document store failure")
)

func wrapOpen(err error) error {
	return fmt.Errorf("%w: %w", ErrOpen, err)
}

func wrapInternal(err error) error {
	return fmt.Errorf("%w: %w", ErrInternal, err)
}
