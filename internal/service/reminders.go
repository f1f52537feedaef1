package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"georem/internal/domain"
	"georem/internal/geo"
	"georem/pkg/e"

	"github.com/google/uuid"
)

type reminderService struct {
	repo   ReminderRepository
	fences FenceRegistry
	src    SampleSource
	logger *slog.Logger
}

func NewReminderService(repo ReminderRepository, fences FenceRegistry, src SampleSource, logger *slog.Logger) ReminderService {
	return &reminderService{repo: repo, fences: fences, src: src, logger: logger}
}

// Create stores the reminder and registers its geofence. A fence persistence
// failure still returns the new id alongside e.ErrPersistence so the caller
// can warn that monitoring may not survive a restart.
func (s *reminderService) Create(ctx context.Context, req domain.CreateReminderRequest) (uuid.UUID, error) {
	kind := req.Kind
	if kind == "" {
		kind = domain.ReminderNote
		if len(req.Checklist) > 0 {
			kind = domain.ReminderChecklist
		}
	}

	now := time.Now().UTC()
	rem := &domain.Reminder{
		ID:        uuid.New(),
		Title:     req.Title,
		Body:      req.Body,
		Kind:      kind,
		Checklist: req.Checklist,
		Lat:       req.Lat,
		Lng:       req.Lng,
		RadiusM:   req.RadiusM,
		OnExit:    req.OnExit,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, rem); err != nil {
		return uuid.Nil, err
	}

	if err := s.fences.Add(ctx, s.seededFence(rem)); err != nil {
		s.logger.Warn("fence registration not durable", slog.String("id", rem.ID.String()), slog.Any("error", err))
		return rem.ID, err
	}

	return rem.ID, nil
}

func (s *reminderService) List(ctx context.Context, page, limit int) ([]domain.Reminder, int64, error) {
	return s.repo.List(ctx, page, limit)
}

func (s *reminderService) Get(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	return s.repo.Get(ctx, id)
}

func (s *reminderService) Update(ctx context.Context, id uuid.UUID, req domain.UpdateReminderRequest) error {
	rem, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	moved := false
	if req.Title != nil {
		rem.Title = *req.Title
	}
	if req.Body != nil {
		rem.Body = *req.Body
	}
	if req.Checklist != nil {
		rem.Checklist = req.Checklist
		rem.Kind = domain.ReminderChecklist
	}
	if req.Lat != nil && *req.Lat != rem.Lat {
		rem.Lat = *req.Lat
		moved = true
	}
	if req.Lng != nil && *req.Lng != rem.Lng {
		rem.Lng = *req.Lng
		moved = true
	}
	if req.RadiusM != nil && *req.RadiusM != rem.RadiusM {
		rem.RadiusM = *req.RadiusM
		moved = true
	}
	if req.OnExit != nil {
		rem.OnExit = *req.OnExit
	}
	if req.IsActive != nil {
		rem.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, rem); err != nil {
		return err
	}

	return s.syncFence(ctx, rem, moved)
}

func (s *reminderService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.fences.Remove(ctx, id); err != nil && !errors.Is(err, e.ErrNotFound) {
		return err
	}
	return nil
}

// syncFence reconciles the registry with the updated reminder. Counters carry
// over; containment state is re-seeded only when the geometry changed, so an
// in-place title edit cannot fabricate a transition.
func (s *reminderService) syncFence(ctx context.Context, rem *domain.Reminder, moved bool) error {
	fence := s.seededFence(rem)

	if prev, ok := s.fences.Get(rem.ID); ok {
		fence.TriggeredCount = prev.TriggeredCount
		fence.LastTriggeredAt = prev.LastTriggeredAt
		fence.LastTransitionType = prev.LastTransitionType
		if !moved {
			fence.WasInside = prev.WasInside
		}
	}

	return s.fences.Add(ctx, fence)
}

// seededFence builds the monitoring record for a reminder with wasInside
// seeded from the last processed sample. Seeding never emits an event: the
// first containment *change* after creation is what fires.
func (s *reminderService) seededFence(rem *domain.Reminder) domain.GeofenceRecord {
	fence := domain.GeofenceRecord{
		ID:        rem.ID,
		Lat:       rem.Lat,
		Lng:       rem.Lng,
		RadiusM:   rem.RadiusM,
		IsActive:  rem.IsActive,
		Title:     rem.Title,
		Body:      rem.Body,
		Checklist: rem.Checklist,
		OnExit:    rem.OnExit,
	}
	if sample, ok := s.src.LastSample(); ok {
		fence.WasInside = geo.IsInside(sample, fence)
	}
	return fence
}
