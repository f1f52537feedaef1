package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationPayload is what the sinks deliver. Tag equals the reminder id so
// a downstream sink can supersede a stale notification for the same reminder.
type NotificationPayload struct {
	ID         uuid.UUID      `json:"id"`
	Tag        string         `json:"tag"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Event      TransitionType `json:"event"`
	OccurredAt time.Time      `json:"occurred_at"`
	Lat        float64        `json:"lat"`
	Lng        float64        `json:"lng"`
}
