package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"georem/internal/domain"
	"georem/pkg/e"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReminderRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewReminderRepo(pool *pgxpool.Pool, logger *slog.Logger) *ReminderRepo {
	return &ReminderRepo{pool: pool, logger: logger}
}

func (r *ReminderRepo) Create(ctx context.Context, rem *domain.Reminder) error {
	const op = "postgres.Reminder.Create"

	if rem == nil || rem.ID == uuid.Nil {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	if rem.CreatedAt.IsZero() {
		rem.CreatedAt = time.Now().UTC()
	}
	rem.UpdatedAt = rem.CreatedAt

	const query = `
INSERT INTO reminders (id, title, body, kind, checklist, lat, lng, radius_m, on_exit, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
	_, err := r.pool.Exec(ctx, query,
		rem.ID, rem.Title, rem.Body, rem.Kind, rem.Checklist,
		rem.Lat, rem.Lng, rem.RadiusM, rem.OnExit, rem.IsActive,
		rem.CreatedAt, rem.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (r *ReminderRepo) List(ctx context.Context, page, limit int) ([]domain.Reminder, int64, error) {
	const op = "postgres.Reminder.List"

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	const query = `
SELECT id, title, body, kind, checklist, lat, lng, radius_m, on_exit, is_active, created_at, updated_at
FROM reminders
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	reminders := make([]domain.Reminder, 0, limit)
	for rows.Next() {
		var rem domain.Reminder
		if err := rows.Scan(
			&rem.ID, &rem.Title, &rem.Body, &rem.Kind, &rem.Checklist,
			&rem.Lat, &rem.Lng, &rem.RadiusM, &rem.OnExit, &rem.IsActive,
			&rem.CreatedAt, &rem.UpdatedAt,
		); err != nil {
			return nil, 0, e.WrapError(ctx, op, err)
		}
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, e.WrapError(ctx, op, err)
	}

	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return reminders, total, nil
}

func (r *ReminderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	const op = "postgres.Reminder.Get"

	const query = `
SELECT id, title, body, kind, checklist, lat, lng, radius_m, on_exit, is_active, created_at, updated_at
FROM reminders
WHERE id = $1
`
	var rem domain.Reminder
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rem.ID, &rem.Title, &rem.Body, &rem.Kind, &rem.Checklist,
		&rem.Lat, &rem.Lng, &rem.RadiusM, &rem.OnExit, &rem.IsActive,
		&rem.CreatedAt, &rem.UpdatedAt,
	)
	if err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return &rem, nil
}

func (r *ReminderRepo) Update(ctx context.Context, rem *domain.Reminder) error {
	const op = "postgres.Reminder.Update"

	if rem == nil || rem.ID == uuid.Nil {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	rem.UpdatedAt = time.Now().UTC()

	const query = `
UPDATE reminders
SET title = $2, body = $3, kind = $4, checklist = $5, lat = $6, lng = $7,
    radius_m = $8, on_exit = $9, is_active = $10, updated_at = $11
WHERE id = $1
`
	tag, err := r.pool.Exec(ctx, query,
		rem.ID, rem.Title, rem.Body, rem.Kind, rem.Checklist,
		rem.Lat, rem.Lng, rem.RadiusM, rem.OnExit, rem.IsActive,
		rem.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return nil
}

func (r *ReminderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.Reminder.Delete"

	tag, err := r.pool.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return nil
}

func (r *ReminderRepo) Count(ctx context.Context) (int64, error) {
	const op = "postgres.Reminder.Count"

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM reminders`).Scan(&total); err != nil {
		return 0, e.WrapError(ctx, op, err)
	}
	return total, nil
}
