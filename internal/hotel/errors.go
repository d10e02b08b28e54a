package hotel

import "errors"

var (
	// ErrNotFound covers both a missing hotel and one owned by a
	// different account; ownership failures are not distinguished to
	// avoid leaking existence.
	ErrNotFound    = errors.New("hotel: not found")
	ErrQueryFailed = errors.New("hotel: query failed")
)
