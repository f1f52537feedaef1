package notify_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"georem/internal/domain"
	"georem/internal/notify"
	"georem/pkg/e"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeQueue struct {
	enqueued []domain.NotificationPayload
	err      error
}

func (q *fakeQueue) Enqueue(ctx context.Context, payload domain.NotificationPayload) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, payload)
	return nil
}

type fakeFanout struct {
	published []domain.NotificationPayload
	err       error
}

func (f *fakeFanout) Publish(ctx context.Context, payload domain.NotificationPayload) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, payload)
	return nil
}

func eventFor(rec domain.GeofenceRecord, t domain.TransitionType) domain.TransitionEvent {
	return domain.TransitionEvent{
		GeofenceID: rec.ID,
		Type:       t,
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Sample:     domain.LocationSample{Lat: 55.75, Lng: 37.61},
	}
}

func TestDispatch_EnqueuesAndFansOut(t *testing.T) {
	t.Parallel()

	q := &fakeQueue{}
	f := &fakeFanout{}
	d := notify.NewDispatcher(q, f, newTestLogger())

	rec := domain.GeofenceRecord{ID: uuid.New(), Title: "dry cleaning"}
	if err := d.Dispatch(context.Background(), eventFor(rec, domain.TransitionEnter), rec); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(q.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued payload, got %d", len(q.enqueued))
	}
	if len(f.published) != 1 {
		t.Fatalf("expected 1 fanout publish, got %d", len(f.published))
	}
	if q.enqueued[0].Tag != rec.ID.String() {
		t.Fatalf("tag must be the reminder id, got %s", q.enqueued[0].Tag)
	}
}

func TestDispatch_NilFanoutIsFine(t *testing.T) {
	t.Parallel()

	q := &fakeQueue{}
	d := notify.NewDispatcher(q, nil, newTestLogger())

	rec := domain.GeofenceRecord{ID: uuid.New(), Title: "post office"}
	if err := d.Dispatch(context.Background(), eventFor(rec, domain.TransitionEnter), rec); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(q.enqueued) != 1 {
		t.Fatalf("expected enqueue without fanout, got %d", len(q.enqueued))
	}
}

func TestDispatch_FanoutFailureDoesNotBlockQueue(t *testing.T) {
	t.Parallel()

	q := &fakeQueue{}
	f := &fakeFanout{err: errors.New("broker gone")}
	d := notify.NewDispatcher(q, f, newTestLogger())

	rec := domain.GeofenceRecord{ID: uuid.New(), Title: "gym"}
	if err := d.Dispatch(context.Background(), eventFor(rec, domain.TransitionExit), rec); err != nil {
		t.Fatalf("fanout failure must not fail dispatch: %v", err)
	}
	if len(q.enqueued) != 1 {
		t.Fatalf("queue must still get the payload")
	}
}

func TestDispatch_QueueFailureIsDispatchError(t *testing.T) {
	t.Parallel()

	q := &fakeQueue{err: errors.New("redis down")}
	d := notify.NewDispatcher(q, nil, newTestLogger())

	rec := domain.GeofenceRecord{ID: uuid.New(), Title: "library"}
	err := d.Dispatch(context.Background(), eventFor(rec, domain.TransitionEnter), rec)
	if !errors.Is(err, e.ErrDispatch) {
		t.Fatalf("expected ErrDispatch got %v", err)
	}
}

func TestBuildPayload_Titles(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		event  domain.TransitionType
		onExit bool
		want   string
	}{
		{"enter reminder", domain.TransitionEnter, false, "Nearby: keys"},
		{"exit reminder", domain.TransitionExit, true, "Leaving: keys"},
		{"left enter-style area", domain.TransitionExit, false, "Left area: keys"},
		{"returned to exit-style area", domain.TransitionEnter, true, "Back at: keys"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := domain.GeofenceRecord{ID: uuid.New(), Title: "keys", OnExit: tc.onExit}
			p := notify.BuildPayload(eventFor(rec, tc.event), rec)
			if p.Title != tc.want {
				t.Fatalf("expected title %q got %q", tc.want, p.Title)
			}
		})
	}
}

func TestBuildPayload_BodyFromReminder(t *testing.T) {
	t.Parallel()

	rec := domain.GeofenceRecord{ID: uuid.New(), Title: "pharmacy", Body: "pick up prescription"}
	p := notify.BuildPayload(eventFor(rec, domain.TransitionEnter), rec)
	if p.Body != "pick up prescription" {
		t.Fatalf("expected reminder body, got %q", p.Body)
	}
}

func TestBuildPayload_ChecklistPreview(t *testing.T) {
	t.Parallel()

	items := make([]domain.ChecklistItem, 7)
	for i := range items {
		items[i] = domain.ChecklistItem{Text: fmt.Sprintf("item %d", i+1)}
	}
	rec := domain.GeofenceRecord{ID: uuid.New(), Title: "groceries", Checklist: items}

	p := notify.BuildPayload(eventFor(rec, domain.TransitionEnter), rec)

	lines := strings.Split(p.Body, "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 5 items + overflow line, got %d lines: %q", len(lines), p.Body)
	}
	if lines[0] != "• item 1" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if lines[5] != "+2 more" {
		t.Fatalf("expected overflow marker, got %q", lines[5])
	}
}

func TestBuildPayload_CarriesSamplePosition(t *testing.T) {
	t.Parallel()

	rec := domain.GeofenceRecord{ID: uuid.New(), Title: "office"}
	ev := eventFor(rec, domain.TransitionEnter)
	p := notify.BuildPayload(ev, rec)

	if p.Lat != ev.Sample.Lat || p.Lng != ev.Sample.Lng {
		t.Fatalf("payload position mismatch: (%v,%v)", p.Lat, p.Lng)
	}
	if !p.OccurredAt.Equal(ev.OccurredAt) {
		t.Fatalf("payload time mismatch: %v", p.OccurredAt)
	}
	if p.Event != domain.TransitionEnter {
		t.Fatalf("payload event mismatch: %s", p.Event)
	}
}
