package service

import (
	"context"

	"georem/internal/domain"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go
type ReminderService interface {
	Create(ctx context.Context, req domain.CreateReminderRequest) (uuid.UUID, error)
	List(ctx context.Context, page, limit int) ([]domain.Reminder, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)
	Update(ctx context.Context, id uuid.UUID, req domain.UpdateReminderRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type StatsService interface {
	GetStats(ctx context.Context) (*domain.MonitorStats, error)
}

// ReminderRepository is the durable owner of reminder content.
type ReminderRepository interface {
	Create(ctx context.Context, rem *domain.Reminder) error
	List(ctx context.Context, page, limit int) ([]domain.Reminder, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)
	Update(ctx context.Context, rem *domain.Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// FenceRegistry is the monitoring-state side of a reminder.
type FenceRegistry interface {
	Add(ctx context.Context, rec domain.GeofenceRecord) error
	Remove(ctx context.Context, id uuid.UUID) error
	Get(id uuid.UUID) (domain.GeofenceRecord, bool)
	ActiveCount() int
	TriggeredTotal() int64
}

// SampleSource exposes the engine's view of the device position.
type SampleSource interface {
	LastSample() (domain.LocationSample, bool)
	Monitoring() bool
}

type Service struct {
	ReminderService ReminderService
	StatsService    StatsService
}

func NewService(reminderService ReminderService, statsService StatsService) *Service {
	return &Service{
		ReminderService: reminderService,
		StatsService:    statsService,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateReminderRequest) (uuid.UUID, error) {
	return s.ReminderService.Create(ctx, req)
}

func (s *Service) List(ctx context.Context, page, limit int) ([]domain.Reminder, int64, error) {
	return s.ReminderService.List(ctx, page, limit)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	return s.ReminderService.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req domain.UpdateReminderRequest) error {
	return s.ReminderService.Update(ctx, id, req)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.ReminderService.Delete(ctx, id)
}

func (s *Service) GetStats(ctx context.Context) (*domain.MonitorStats, error) {
	return s.StatsService.GetStats(ctx)
}
