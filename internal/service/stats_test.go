package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"

	"georem/internal/service"
	mock_service "georem/internal/service/mocks"
)

func TestStatsService_GetStats_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockReminderRepository(ctrl)
	fences := mock_service.NewMockFenceRegistry(ctrl)
	src := mock_service.NewMockSampleSource(ctrl)

	svc := service.NewStatsService(repo, fences, src)

	repo.EXPECT().Count(gomock.Any()).Return(int64(7), nil).Times(1)
	fences.EXPECT().ActiveCount().Return(3).Times(1)
	fences.EXPECT().TriggeredTotal().Return(int64(12)).Times(1)
	src.EXPECT().Monitoring().Return(true).Times(1)

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}

	if stats.Reminders != 7 {
		t.Fatalf("expected 7 reminders got %d", stats.Reminders)
	}
	if stats.ActiveFences != 3 {
		t.Fatalf("expected 3 active fences got %d", stats.ActiveFences)
	}
	if stats.TriggeredTotal != 12 {
		t.Fatalf("expected triggered total 12 got %d", stats.TriggeredTotal)
	}
	if !stats.Monitoring {
		t.Fatalf("expected monitoring=true")
	}
}

func TestStatsService_GetStats_RepoError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockReminderRepository(ctrl)
	fences := mock_service.NewMockFenceRegistry(ctrl)
	src := mock_service.NewMockSampleSource(ctrl)

	svc := service.NewStatsService(repo, fences, src)

	repo.EXPECT().Count(gomock.Any()).Return(int64(0), errors.New("pg down")).Times(1)

	if _, err := svc.GetStats(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
