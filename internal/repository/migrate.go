// Package repository provides the optional Postgres audit archive.
//
// The archive is write-only from the server's point of view: ledger entries
// and account snapshots are copied out of the in-memory store and never read
// back into it.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	id          TEXT PRIMARY KEY,
	kind        VARCHAR(32) NOT NULL,
	from_user   VARCHAR(64) NOT NULL DEFAULT '',
	to_user     VARCHAR(64) NOT NULL,
	amount      BIGINT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	details     TEXT NOT NULL DEFAULT '',
	archived_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ledger_entries_occurred_at ON ledger_entries(occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_to_user ON ledger_entries(to_user);

CREATE TABLE IF NOT EXISTS account_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	account_id  VARCHAR(16) NOT NULL,
	username    VARCHAR(64) NOT NULL,
	coins       BIGINT NOT NULL,
	vip         VARCHAR(16) NOT NULL,
	experience  BIGINT NOT NULL,
	data        JSONB NOT NULL,
	taken_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_account_snapshots_username ON account_snapshots(username, taken_at DESC);
`

// Migrate creates the archive tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate archive schema: %w", err)
	}
	return nil
}
