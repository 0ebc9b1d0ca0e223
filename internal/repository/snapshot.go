package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coinhub/internal/model"
)

// ErrSnapshotNotFound is returned when no snapshot exists for an account.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository persists point-in-time copies of accounts.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository instance.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Insert copies every account into the snapshot table stamped with takenAt.
func (r *SnapshotRepository) Insert(ctx context.Context, takenAt time.Time, accounts []*model.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(accounts))
	for _, acc := range accounts {
		data, err := json.Marshal(acc)
		if err != nil {
			return fmt.Errorf("failed to encode account %s: %w", acc.ID, err)
		}
		rows = append(rows, []any{
			acc.ID, acc.Username, acc.Coins, string(acc.VIP), acc.Experience, data, takenAt.UTC(),
		})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"account_snapshots"},
		[]string{"account_id", "username", "coins", "vip", "experience", "data", "taken_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account snapshots: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot of username.
func (r *SnapshotRepository) Latest(ctx context.Context, username string) (*model.Account, time.Time, error) {
	const query = `
		SELECT data, taken_at
		FROM account_snapshots
		WHERE username = $1
		ORDER BY taken_at DESC, id DESC
		LIMIT 1
	`

	var (
		data    []byte
		takenAt time.Time
	)
	err := r.pool.QueryRow(ctx, query, username).Scan(&data, &takenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, time.Time{}, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to get account snapshot: %w", err)
	}

	var acc model.Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode account snapshot: %w", err)
	}
	return &acc, takenAt, nil
}
