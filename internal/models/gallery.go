package models

import (
	"time"

	"github.com/google/uuid"
)

// GalleryItem is one published result. Created exactly once per successful
// generation and never updated or deleted. Token is the unguessable share
// identifier used in download links.
type GalleryItem struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ConceptName string    `json:"concept_name"`
	ImageURL    string    `json:"image_url"`
	DownloadURL string    `json:"download_url"`
	Token       string    `json:"token"`
	EventID     string    `json:"event_id,omitempty"`
}
