package staging

import "errors"

// Sentinel errors for staging operations.
var (
	// ErrDirUnavailable is returned when the staging directory cannot
	// be created.
	ErrDirUnavailable = errors.New("staging: directory unavailable")

	// ErrStageFailed is returned when writing a payload fails. No
	// partially staged set survives the failure.
	ErrStageFailed = errors.New("staging: failed to stage files")

	// ErrSweepFailed is returned when the orphan sweep cannot read the
	// staging directory.
	ErrSweepFailed = errors.New("staging: sweep failed")
)
