package docstore

import (
	"encoding/base64"
	"fmt"
)

// Cursor codec: list endpoints hand clients an opaque token that
// round-trips the store's native continuation key. Clients pass it back
// verbatim; they never parse or construct one.

// EncodeCursor converts a native continuation key into an opaque token.
// An empty key (no further pages) encodes to the empty token.
func EncodeCursor(nextKey string) string {
	if nextKey == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(nextKey))
}

// DecodeCursor converts a client token back into the native continuation
// key. Undecodable tokens fail with ErrBadCursor before any store access.
func DecodeCursor(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadCursor, err)
	}
	return string(decoded), nil
}
