package models

type SelectConceptRequest struct {
	ConceptID string `json:"concept_id" binding:"required"`
}

type AdminLoginRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// SaveSettingsRequest carries the current admin PIN alongside the payload;
// the remote store, not the kiosk, is the authority that validates it.
type SaveSettingsRequest struct {
	Settings KioskSettings `json:"settings"`
	Pin      string        `json:"pin" binding:"required"`
}

type SaveConceptsRequest struct {
	Concepts []Concept `json:"concepts"`
	Pin      string    `json:"pin" binding:"required"`
}
