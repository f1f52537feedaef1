package registry

import (
	"context"
	"log/slog"
	"sync"

	"georem/internal/domain"
	"georem/pkg/e"

	"github.com/google/uuid"
)

// Store persists the full geofence record set as one durable document.
type Store interface {
	Load(ctx context.Context) ([]domain.GeofenceRecord, error)
	Save(ctx context.Context, records []domain.GeofenceRecord) error
}

// Watcher is told when the registry transitions between having active fences
// and having none. The monitor engine uses this to start and stop sampling.
type Watcher interface {
	MonitoringNeeded()
	MonitoringIdle()
}

// Registry is the in-memory authoritative set of geofence records, backed by
// the store. All mutation goes through its methods; nothing else writes to
// the backing store.
type Registry struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.GeofenceRecord

	store   Store
	logger  *slog.Logger
	watcher Watcher

	minRadiusM float64
	maxRadiusM float64
}

func New(store Store, logger *slog.Logger, minRadiusM, maxRadiusM float64) *Registry {
	return &Registry{
		records:    make(map[uuid.UUID]domain.GeofenceRecord),
		store:      store,
		logger:     logger,
		minRadiusM: minRadiusM,
		maxRadiusM: maxRadiusM,
	}
}

func (r *Registry) SetWatcher(w Watcher) {
	r.mu.Lock()
	r.watcher = w
	r.mu.Unlock()
}

// Rehydrate replaces the in-memory set with the persisted one. Called on
// process start before any sampling resumes, so a restart never silently
// drops fences. Radii are clamped into configured bounds so a bad store
// entry cannot disable a fence.
func (r *Registry) Rehydrate(ctx context.Context) error {
	records, err := r.store.Load(ctx)
	if err != nil {
		return e.Wrap("registry.Rehydrate", err)
	}

	r.mu.Lock()
	r.records = make(map[uuid.UUID]domain.GeofenceRecord, len(records))
	for _, rec := range records {
		if rec.RadiusM < r.minRadiusM {
			rec.RadiusM = r.minRadiusM
		}
		if rec.RadiusM > r.maxRadiusM {
			rec.RadiusM = r.maxRadiusM
		}
		r.records[rec.ID] = rec
	}
	active := r.activeCountLocked()
	watcher := r.watcher
	r.mu.Unlock()

	r.logger.Info("registry rehydrated", slog.Int("fences", len(records)), slog.Int("active", active))

	if watcher != nil && active > 0 {
		watcher.MonitoringNeeded()
	}
	return nil
}

// Add inserts or replaces a record by id and persists synchronously. On a
// persistence failure the in-memory update is kept and the error is returned
// so the caller can warn that monitoring may not survive a restart.
func (r *Registry) Add(ctx context.Context, rec domain.GeofenceRecord) error {
	r.mu.Lock()
	activeBefore := r.activeCountLocked()
	r.records[rec.ID] = rec
	activeAfter := r.activeCountLocked()
	err := r.persistLocked(ctx)
	watcher := r.watcher
	r.mu.Unlock()

	r.notify(watcher, activeBefore, activeAfter)

	if err != nil {
		r.logger.Error("persist after add failed", slog.String("id", rec.ID.String()), slog.Any("error", err))
		return e.Wrap("registry.Add", e.ErrPersistence)
	}
	return nil
}

// Remove deletes a record and persists. The driver keeps running as long as
// other active fences remain.
func (r *Registry) Remove(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	if _, ok := r.records[id]; !ok {
		r.mu.Unlock()
		return e.Wrap("registry.Remove", e.ErrNotFound)
	}
	activeBefore := r.activeCountLocked()
	delete(r.records, id)
	activeAfter := r.activeCountLocked()
	err := r.persistLocked(ctx)
	watcher := r.watcher
	r.mu.Unlock()

	r.notify(watcher, activeBefore, activeAfter)

	if err != nil {
		r.logger.Error("persist after remove failed", slog.String("id", id.String()), slog.Any("error", err))
		return e.Wrap("registry.Remove", e.ErrPersistence)
	}
	return nil
}

func (r *Registry) Get(id uuid.UUID) (domain.GeofenceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok
}

// Snapshot returns value copies, never live references, so the detector can
// iterate without racing registry mutation.
func (r *Registry) Snapshot() []domain.GeofenceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.GeofenceRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out
}

func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeCountLocked()
}

// TriggeredTotal sums triggeredCount across all fences.
func (r *Registry) TriggeredTotal() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, rec := range r.records {
		total += rec.TriggeredCount
	}
	return total
}

// Apply commits the detector's results for one sample: every evaluated fence
// gets its fresh containment state written back, fences with a confirmed
// transition additionally bump triggeredCount and the last-transition fields.
// One persistence write covers the whole sample. A write failure keeps the
// in-memory state and is returned for logging; detection state and
// notification delivery are separate failure domains, so confirmed events are
// returned either way.
func (r *Registry) Apply(ctx context.Context, results []domain.EvaluationResult) ([]domain.TransitionEvent, error) {
	if len(results) == 0 {
		return nil, nil
	}

	r.mu.Lock()
	events := make([]domain.TransitionEvent, 0, len(results))
	for _, res := range results {
		rec, ok := r.records[res.GeofenceID]
		if !ok {
			// Fence removed between snapshot and apply.
			continue
		}
		rec.WasInside = res.Inside
		if res.Event != nil {
			ev := *res.Event
			rec.TriggeredCount++
			rec.LastTransitionType = ev.Type
			occurred := ev.OccurredAt
			rec.LastTriggeredAt = &occurred
			events = append(events, ev)
		}
		r.records[res.GeofenceID] = rec
	}
	err := r.persistLocked(ctx)
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("persist after apply failed", slog.Any("error", err))
		return events, e.Wrap("registry.Apply", e.ErrPersistence)
	}
	return events, nil
}

func (r *Registry) activeCountLocked() int {
	n := 0
	for _, rec := range r.records {
		if rec.IsActive {
			n++
		}
	}
	return n
}

func (r *Registry) persistLocked(ctx context.Context) error {
	records := make([]domain.GeofenceRecord, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, rec)
	}
	return r.store.Save(ctx, records)
}

func (r *Registry) notify(w Watcher, activeBefore, activeAfter int) {
	if w == nil {
		return
	}
	switch {
	case activeBefore == 0 && activeAfter > 0:
		w.MonitoringNeeded()
	case activeBefore > 0 && activeAfter == 0:
		w.MonitoringIdle()
	}
}
