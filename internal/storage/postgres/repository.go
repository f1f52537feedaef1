package postgres

import (
	"context"

	"georem/internal/domain"

	"github.com/google/uuid"
)

type ReminderRepository interface {
	Create(ctx context.Context, rem *domain.Reminder) error
	List(ctx context.Context, page, limit int) ([]domain.Reminder, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)
	Update(ctx context.Context, rem *domain.Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}
