// Package media implements the image upload pipeline: the background
// worker that streams staged files to object storage, reconciles the
// hotel's photo gallery, and reports per-item outcomes.
package media

import (
	"github.com/google/uuid"

	"github.com/innkeep/innkeep/pkg/queue"
	"github.com/innkeep/innkeep/pkg/staging"
)

// QueueName is the queue the upload worker is bound to.
const QueueName = "media_uploads"

// UploadPayload is the job payload for one upload batch. Files are
// staged to disk by the producer before the job is enqueued.
type UploadPayload struct {
	Files         []staging.File `json:"files"`
	HotelID       uuid.UUID      `json:"hotel_id"`
	ActorID       uuid.UUID      `json:"actor_id"`
	Merge         bool           `json:"merge"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// UploadFailure describes one file that could not be uploaded. Index is
// the file's position in the original submission.
type UploadFailure struct {
	Index        int    `json:"index"`
	OriginalName string `json:"original_name"`
	Reason       string `json:"reason"`
}

// UploadResult is the job's terminal output. URLs are ordered by
// original submission index regardless of upload completion order;
// Failures is present only when at least one file failed.
type UploadResult struct {
	URLs         []string        `json:"urls"`
	SuccessCount int             `json:"success_count"`
	FailureCount int             `json:"failure_count"`
	Failures     []UploadFailure `json:"failures,omitempty"`
}

// Status is the caller-facing answer to an upload job status query.
type Status struct {
	State    queue.State   `json:"state"`
	Progress int           `json:"progress"`
	Result   *UploadResult `json:"result,omitempty"`
}

// CacheKey returns the cache key invalidated after a hotel's gallery
// changes.
func CacheKey(hotelID uuid.UUID) string {
	return "hotel:" + hotelID.String()
}
