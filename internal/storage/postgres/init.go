package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"georem/internal/config"
	"georem/pkg/e"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	Pool     *pgxpool.Pool
	Reminder ReminderRepository
}

func NewPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Postgres, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Database,
		cfg.Postgres.SSLMode,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, e.Wrap("storage.pg.NewPostgres.ParseConfig", err)
	}
	poolCfg.MaxConns = cfg.Postgres.MaxConns
	poolCfg.MinConns = cfg.Postgres.MinConns
	poolCfg.MaxConnLifetime = cfg.Postgres.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, e.Wrap("storage.pg.NewPostgres.NewWithConfig", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, e.Wrap("storage.pg.NewPostgres.Ping", err)
	}
	logger.Info("connected to Postgres", slog.String("database", cfg.Postgres.Database))

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, e.Wrap("storage.pg.NewPostgres.ensureSchema", err)
	}

	return &Postgres{
		Pool:     pool,
		Reminder: NewReminderRepo(pool, logger),
	}, nil
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS reminders (
    id         uuid PRIMARY KEY,
    title      text NOT NULL,
    body       text NOT NULL DEFAULT '',
    kind       text NOT NULL DEFAULT 'note',
    checklist  jsonb NOT NULL DEFAULT '[]',
    lat        double precision NOT NULL,
    lng        double precision NOT NULL,
    radius_m   double precision NOT NULL,
    on_exit    boolean NOT NULL DEFAULT false,
    is_active  boolean NOT NULL DEFAULT true,
    created_at timestamptz NOT NULL DEFAULT now(),
    updated_at timestamptz NOT NULL DEFAULT now()
)`
	_, err := pool.Exec(ctx, schema)
	return err
}

func (p *Postgres) Reminders() ReminderRepository { return p.Reminder }
