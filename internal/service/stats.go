package service

import (
	"context"

	"georem/internal/domain"
)

type statsService struct {
	repo   ReminderRepository
	fences FenceRegistry
	src    SampleSource
}

func NewStatsService(repo ReminderRepository, fences FenceRegistry, src SampleSource) StatsService {
	return &statsService{repo: repo, fences: fences, src: src}
}

func (s *statsService) GetStats(ctx context.Context) (*domain.MonitorStats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.MonitorStats{
		Reminders:      total,
		ActiveFences:   s.fences.ActiveCount(),
		TriggeredTotal: s.fences.TriggeredTotal(),
		Monitoring:     s.src.Monitoring(),
	}, nil
}
