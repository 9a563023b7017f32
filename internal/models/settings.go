package models

import "time"

// Orientation selects the kiosk's physical screen layout and with it the
// target aspect ratio for captured and generated images.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// AspectRatio returns the target ratio string sent to the generation service.
func (o Orientation) AspectRatio() string {
	if o == OrientationLandscape {
		return "16:9"
	}
	return "9:16"
}

// TargetSize returns the exact pixel dimensions every captured frame is
// cropped and scaled to.
func (o Orientation) TargetSize() (width, height int) {
	if o == OrientationLandscape {
		return 1920, 1080
	}
	return 1080, 1920
}

// Concept is one transformation style a guest can pick. Immutable during a
// session; edited only through the admin screen.
type Concept struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Prompt    string `json:"prompt"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// KioskSettings is the process-wide kiosk configuration. Loaded at startup,
// re-read on every return to the landing screen, mutated only by an
// authenticated admin save.
type KioskSettings struct {
	EventName        string      `json:"event_name"`
	EventDescription string      `json:"event_description"`
	FolderID         string      `json:"folder_id"`
	OverlayImage     string      `json:"overlay_image"`
	BackgroundImage  string      `json:"background_image"`
	AutoResetTime    int         `json:"auto_reset_time"` // seconds
	AdminPin         string      `json:"admin_pin"`
	Orientation      Orientation `json:"orientation"`
	ActiveEventID    string      `json:"active_event_id"`
}

// EventRecord describes an event hosted on this kiosk. At most one is active
// at a time and KioskSettings.ActiveEventID references it.
type EventRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	FolderID    string    `json:"folder_id"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
}
