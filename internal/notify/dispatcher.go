package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"georem/internal/domain"
	"georem/pkg/e"
)

const checklistPreviewMax = 5

// Queue buffers payloads for the webhook sender.
type Queue interface {
	Enqueue(ctx context.Context, payload domain.NotificationPayload) error
}

// Fanout mirrors confirmed transitions to downstream consumers. Optional.
type Fanout interface {
	Publish(ctx context.Context, payload domain.NotificationPayload) error
}

// Dispatcher builds the user-facing alert from the fence record's inlined
// metadata and hands it to the sinks. Failures here never roll back the
// detector's state update: a missed notification beats repeated mis-fires.
type Dispatcher struct {
	queue  Queue
	fanout Fanout
	logger *slog.Logger
}

func NewDispatcher(queue Queue, fanout Fanout, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{queue: queue, fanout: fanout, logger: logger}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.TransitionEvent, rec domain.GeofenceRecord) error {
	payload := BuildPayload(ev, rec)

	if d.fanout != nil {
		if err := d.fanout.Publish(ctx, payload); err != nil {
			d.logger.Warn("fanout publish failed", slog.String("tag", payload.Tag), slog.Any("error", err))
		}
	}

	if err := d.queue.Enqueue(ctx, payload); err != nil {
		return fmt.Errorf("enqueue notification %s: %w", payload.Tag, e.ErrDispatch)
	}

	d.logger.Info("notification enqueued",
		slog.String("tag", payload.Tag),
		slog.String("event", string(ev.Type)),
	)
	return nil
}

// BuildPayload renders the alert. The tag is the reminder id, so a sink can
// supersede a stale notification for the same reminder.
func BuildPayload(ev domain.TransitionEvent, rec domain.GeofenceRecord) domain.NotificationPayload {
	return domain.NotificationPayload{
		ID:         rec.ID,
		Tag:        rec.ID.String(),
		Title:      alertTitle(ev.Type, rec),
		Body:       alertBody(rec),
		Event:      ev.Type,
		OccurredAt: ev.OccurredAt,
		Lat:        ev.Sample.Lat,
		Lng:        ev.Sample.Lng,
	}
}

func alertTitle(t domain.TransitionType, rec domain.GeofenceRecord) string {
	switch {
	case t == domain.TransitionExit && rec.OnExit:
		return fmt.Sprintf("Leaving: %s", rec.Title)
	case t == domain.TransitionExit:
		return fmt.Sprintf("Left area: %s", rec.Title)
	case rec.OnExit:
		return fmt.Sprintf("Back at: %s", rec.Title)
	default:
		return fmt.Sprintf("Nearby: %s", rec.Title)
	}
}

func alertBody(rec domain.GeofenceRecord) string {
	if len(rec.Checklist) == 0 {
		return rec.Body
	}

	lines := make([]string, 0, checklistPreviewMax+1)
	for i, item := range rec.Checklist {
		if i == checklistPreviewMax {
			lines = append(lines, fmt.Sprintf("+%d more", len(rec.Checklist)-checklistPreviewMax))
			break
		}
		lines = append(lines, "• "+item.Text)
	}
	return strings.Join(lines, "\n")
}
