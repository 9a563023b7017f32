package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// SessionResponse is the UI's view of the session state machine.
type SessionResponse struct {
	State           string       `json:"state"`
	SelectedConcept *Concept     `json:"selected_concept,omitempty"`
	Result          *GalleryItem `json:"result,omitempty"`
	ErrorKind       string       `json:"error_kind,omitempty"`
	ErrorMessage    string       `json:"error_message,omitempty"`
	EventName       string       `json:"event_name,omitempty"`
	Concepts        []Concept    `json:"concepts,omitempty"`
}

type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type GalleryResponse struct {
	Items []GalleryItem `json:"items"`
}

type UploadOverlayResponse struct {
	URL string `json:"url"`
}
