package media

import "errors"

var (
	ErrNoFiles         = errors.New("media: no files to upload")
	ErrHotelNotFound   = errors.New("media: hotel not found or not owned by actor")
	ErrDecodeResult    = errors.New("media: failed to decode job result")
	ErrQueueRequired   = errors.New("media: queue service is required")
	ErrStorageRequired = errors.New("media: storage is required")
	ErrRepoRequired    = errors.New("media: hotel repository is required")
	ErrStagingRequired = errors.New("media: staging store is required")
)
