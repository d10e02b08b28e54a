// Package hotel defines the hotel domain model and its PostgreSQL
// persistence layer.
package hotel

import (
	"time"

	"github.com/google/uuid"
)

// Hotel is a property listing owned by a single account. PhotoURLs holds
// the public URLs of the gallery images in display order.
type Hotel struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	PhotoURLs []string  `json:"photo_urls"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
