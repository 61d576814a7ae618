package store

import "time"

// DeviceConfig is the locally persisted frame configuration.
type DeviceConfig struct {
	CurrentImage string     `json:"current_image"`
	Interval     int        `json:"interval"`
	Rotation     int        `json:"rotation"`
	LastUpdated  *time.Time `json:"last_updated,omitempty"`
}

// ConfigUpdate carries the fields a caller wants to overlay; nil fields are preserved.
type ConfigUpdate struct {
	CurrentImage *string `json:"current_image"`
	Interval     *int    `json:"interval"`
	Rotation     *int    `json:"rotation"`
}

// DisplayEvent is one successful render recorded in the display history.
type DisplayEvent struct {
	ID          int64     `json:"id"`
	ImageName   string    `json:"image_name"`
	Source      string    `json:"source"`
	DisplayedAt time.Time `json:"displayed_at"`
}

const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)
