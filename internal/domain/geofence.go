package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransitionType string

const (
	TransitionEnter TransitionType = "ENTER"
	TransitionExit  TransitionType = "EXIT"
)

// LocationSample is one device position reading. Ephemeral: only the derived
// containment state per geofence is persisted.
type LocationSample struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// GeofenceRecord is the monitoring state for one reminder with a location.
// Reminder metadata is inlined so a notification can be built at fire time
// without a secondary lookup.
type GeofenceRecord struct {
	ID                 uuid.UUID       `json:"id"`
	Lat                float64         `json:"lat"`
	Lng                float64         `json:"lng"`
	RadiusM            float64         `json:"radius_m"`
	IsActive           bool            `json:"is_active"`
	WasInside          bool            `json:"was_inside"`
	TriggeredCount     int64           `json:"triggered_count"`
	LastTriggeredAt    *time.Time      `json:"last_triggered_at,omitempty"`
	LastTransitionType TransitionType  `json:"last_transition_type,omitempty"`
	Title              string          `json:"title"`
	Body               string          `json:"body,omitempty"`
	Checklist          []ChecklistItem `json:"checklist,omitempty"`
	OnExit             bool            `json:"on_exit"`
}

// TransitionEvent is a confirmed containment change. Ephemeral: consumed by
// the dispatcher, never stored beyond the owning record's summary fields.
type TransitionEvent struct {
	GeofenceID uuid.UUID      `json:"geofence_id"`
	Type       TransitionType `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Sample     LocationSample `json:"sample"`
}

// EvaluationResult is the detector's verdict for a single fence against a
// single sample. Event is nil when containment did not change.
type EvaluationResult struct {
	GeofenceID uuid.UUID
	Inside     bool
	Event      *TransitionEvent
}
