package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coinhub/internal/model"
)

// LedgerRepository persists ledger entries.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Insert stores entries in one batch. Entries already archived are skipped.
func (r *LedgerRepository) Insert(ctx context.Context, entries []model.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	const query = `
		INSERT INTO ledger_entries (id, kind, from_user, to_user, amount, occurred_at, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, e.ID, string(e.Type), e.FromUser, e.ToUser, e.Amount,
			time.UnixMilli(e.Timestamp).UTC(), e.Details)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert ledger entries: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *LedgerRepository) Recent(ctx context.Context, limit int) ([]model.LedgerEntry, error) {
	const query = `
		SELECT id, kind, from_user, to_user, amount, occurred_at, details
		FROM ledger_entries
		ORDER BY occurred_at DESC, archived_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []model.LedgerEntry{}
	for rows.Next() {
		var (
			e    model.LedgerEntry
			kind string
			at   time.Time
		)
		if err := rows.Scan(&e.ID, &kind, &e.FromUser, &e.ToUser, &e.Amount, &at, &e.Details); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Type = model.LedgerKind(kind)
		e.Timestamp = at.UnixMilli()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}
