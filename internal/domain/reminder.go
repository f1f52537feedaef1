package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReminderKind string

const (
	ReminderNote      ReminderKind = "note"
	ReminderChecklist ReminderKind = "checklist"
)

type ChecklistItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Reminder is the durable user-facing record. Its geofence shares the same id.
type Reminder struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Body      string          `json:"body,omitempty"`
	Kind      ReminderKind    `json:"kind"`
	Checklist []ChecklistItem `json:"checklist,omitempty"`
	Lat       float64         `json:"lat"`
	Lng       float64         `json:"lng"`
	RadiusM   float64         `json:"radius_m"`
	OnExit    bool            `json:"on_exit"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
