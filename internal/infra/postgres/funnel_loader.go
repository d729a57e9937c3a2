package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-funnel/internal/domain"
)

// FunnelLoader loads funnel JSONB from Postgres.
type FunnelLoader struct {
	pool *pgxpool.Pool
}

func NewFunnelLoader(pool *pgxpool.Pool) *FunnelLoader {
	return &FunnelLoader{pool: pool}
}

func (l *FunnelLoader) LoadFunnel(ctx context.Context, funnelID string) (domain.Funnel, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM funnels WHERE id=$1`, funnelID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Funnel{}, domain.ErrFunnelNotFound
	}
	if err != nil {
		return domain.Funnel{}, fmt.Errorf("load funnel: %w", err)
	}
	var funnel domain.Funnel
	if err := json.Unmarshal(raw, &funnel); err != nil {
		return domain.Funnel{}, fmt.Errorf("unmarshal funnel: %w", err)
	}
	return funnel, nil
}
