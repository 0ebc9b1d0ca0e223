// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"coinhub/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a migrated connection pool.
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func TestMigrate_Idempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	assert.NoError(t, Migrate(context.Background(), pool))
}

// ============================================================================
// LedgerRepository Tests
// ============================================================================

func TestLedgerRepository_InsertAndRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewLedgerRepository(pool)
	ctx := context.Background()

	entries := []model.LedgerEntry{
		{ID: "b", Type: model.LedgerMarketSale, FromUser: "bob", ToUser: "alice", Amount: 100, Timestamp: 2000, Details: "Market purchase for 100 coins (commission 10%)"},
		{ID: "a", Type: model.LedgerTransfer, FromUser: "alice", ToUser: "bob", Amount: 90, Timestamp: 1000, Details: "Transfer of 100 coins (commission 10%)"},
	}
	require.NoError(t, repo.Insert(ctx, entries))

	got, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entries[0], got[0])
	assert.Equal(t, entries[1], got[1])

	got, err = repo.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestLedgerRepository_InsertSkipsDuplicates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewLedgerRepository(pool)
	ctx := context.Background()

	e := model.LedgerEntry{ID: "dup", Type: model.LedgerAdminUpdate, ToUser: "bob", Amount: 50, Timestamp: 1000}
	require.NoError(t, repo.Insert(ctx, []model.LedgerEntry{e}))
	require.NoError(t, repo.Insert(ctx, []model.LedgerEntry{e}))

	got, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e, got[0])
}

func TestLedgerRepository_InsertEmpty(t *testing.T) {
	// No pool needed: an empty batch never reaches the database.
	repo := NewLedgerRepository(nil)
	assert.NoError(t, repo.Insert(context.Background(), nil))
}

// ============================================================================
// SnapshotRepository Tests
// ============================================================================

func TestSnapshotRepository_InsertAndLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSnapshotRepository(pool)
	ctx := context.Background()

	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	alice := &model.Account{
		ID: "12345", Username: "alice", CredentialHash: "secret", Coins: 100,
		VIP: model.TierGold, Gifts: []string{"1"}, Role: model.RoleUser,
		Experience: 40, CompletedTasks: []string{}, LastActiveDate: "2026-01-01",
	}
	require.NoError(t, repo.Insert(ctx, first, []*model.Account{alice}))

	updated := alice.Clone()
	updated.Coins = 250
	require.NoError(t, repo.Insert(ctx, second, []*model.Account{updated}))

	got, takenAt, err := repo.Latest(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(250), got.Coins)
	assert.Equal(t, []string{"1"}, got.Gifts)
	assert.Empty(t, got.CredentialHash, "credential hashes are never archived")
	assert.True(t, second.Equal(takenAt))

	_, _, err = repo.Latest(ctx, "nobody")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

// ============================================================================
// Archive Tests
// ============================================================================

func TestArchive_WritesToPostgres(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ledger := NewLedgerRepository(pool)
	snapshots := NewSnapshotRepository(pool)
	archive := NewArchive(ledger, snapshots, 8)

	archive.ArchiveLedger([]model.LedgerEntry{
		{ID: "t1", Type: model.LedgerTransfer, FromUser: "a", ToUser: "b", Amount: 9, Timestamp: 1000},
	})
	archive.ArchiveAccounts([]*model.Account{{ID: "1", Username: "a", VIP: model.TierNone, Role: model.RoleUser}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	archive.Run(ctx)

	entries, err := ledger.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "t1", entries[0].ID)

	_, _, err = snapshots.Latest(context.Background(), "a")
	assert.NoError(t, err)
}
