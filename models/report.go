package models

import (
	"time"
)

// Status is the moderation state of a report. A report starts as pending and
// is moved by an administrator; the set of values is closed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusValidated Status = "validated"
	StatusResolved  Status = "resolved"
	StatusFalse     Status = "false"
)

// Statuses lists every valid moderation status.
var Statuses = []Status{StatusPending, StatusValidated, StatusResolved, StatusFalse}

// Valid reports whether s is one of the four defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusValidated, StatusResolved, StatusFalse:
		return true
	}
	return false
}

// Severity is the reporter-supplied severity level. Values outside the known
// set are kept as-is and counted in the "unknown" summary bucket.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Report represents a single citizen-submitted hazard observation.
type Report struct {
	ID           int64     `json:"id" db:"id"`
	Description  string    `json:"description" db:"description"`
	HazardType   string    `json:"hazard_type" db:"hazard_type"`
	Severity     Severity  `json:"severity" db:"severity"`
	Latitude     *float64  `json:"latitude" db:"latitude"`
	Longitude    *float64  `json:"longitude" db:"longitude"`
	ContactName  string    `json:"contact_name,omitempty" db:"contact_name"`
	ContactPhone string    `json:"contact_phone,omitempty" db:"contact_phone"`
	MediaURL     string    `json:"media_url,omitempty" db:"media_url"`
	Status       Status    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// HasCoordinates reports whether the report carries a usable map position.
// Reports without coordinates are still listed but never placed on the map.
func (r *Report) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// SubmitReportRequest is the citizen submission payload. Latitude and
// longitude are pointers so that an omitted location can be told apart from
// a report at (0, 0).
type SubmitReportRequest struct {
	Description  string   `json:"description"`
	HazardType   string   `json:"hazard_type"`
	Severity     string   `json:"severity"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	ContactName  string   `json:"contact_name"`
	ContactPhone string   `json:"contact_phone"`
	Image        []byte   `json:"image,omitempty"`
	ImageType    string   `json:"image_content_type,omitempty"`
}

// SetStatusRequest is the moderation transition payload.
type SetStatusRequest struct {
	ID     int64  `json:"id" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// SetStatusResponse confirms a moderation transition.
type SetStatusResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ID        int64     `json:"id"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BroadcastMessage is the envelope sent to websocket listeners.
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Timestamp        string `json:"timestamp"`
	ConnectedClients int    `json:"connected_clients"`
}
