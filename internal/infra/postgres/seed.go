package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/infra/postgres/migrations"
)

// OpenBun opens a bun handle over pgdriver for migrations and seeding.
func OpenBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Migrate applies all pending migrations and returns the applied group.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return group, nil
}

// SeedFunnel upserts funnel content as JSONB.
func SeedFunnel(ctx context.Context, db *bun.DB, funnel domain.Funnel) error {
	if err := funnel.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(funnel)
	if err != nil {
		return fmt.Errorf("marshal funnel: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO funnels (id, data, updated_at) VALUES (?, ?::jsonb, now())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		funnel.ID, string(data))
	if err != nil {
		return fmt.Errorf("seed funnel %s: %w", funnel.ID, err)
	}
	return nil
}
