package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"coinhub/internal/model"
)

const (
	defaultArchiveQueue = 256
	writeTimeout        = 5 * time.Second
)

// LedgerWriter stores ledger entries.
type LedgerWriter interface {
	Insert(ctx context.Context, entries []model.LedgerEntry) error
}

// SnapshotWriter stores account snapshots.
type SnapshotWriter interface {
	Insert(ctx context.Context, takenAt time.Time, accounts []*model.Account) error
}

type archiveJob struct {
	entries  []model.LedgerEntry
	accounts []*model.Account
	at       time.Time
}

// Archive queues audit data and writes it from a single background goroutine.
// Enqueueing never blocks: when the queue is full the job is dropped and counted.
type Archive struct {
	ledger    LedgerWriter
	snapshots SnapshotWriter
	jobs      chan archiveJob
	clock     func() time.Time
	dropped   atomic.Int64
}

// NewArchive creates an Archive with the given queue size.
func NewArchive(ledger LedgerWriter, snapshots SnapshotWriter, queue int) *Archive {
	if queue <= 0 {
		queue = defaultArchiveQueue
	}
	return &Archive{
		ledger:    ledger,
		snapshots: snapshots,
		jobs:      make(chan archiveJob, queue),
		clock:     time.Now,
	}
}

// ArchiveLedger queues entries for insertion.
func (a *Archive) ArchiveLedger(entries []model.LedgerEntry) {
	if len(entries) == 0 {
		return
	}
	a.enqueue(archiveJob{entries: entries})
}

// ArchiveAccounts queues a snapshot of accounts taken now.
func (a *Archive) ArchiveAccounts(accounts []*model.Account) {
	if len(accounts) == 0 {
		return
	}
	a.enqueue(archiveJob{accounts: accounts, at: a.clock()})
}

func (a *Archive) enqueue(job archiveJob) {
	select {
	case a.jobs <- job:
	default:
		n := a.dropped.Add(1)
		log.Warn().Int64("dropped", n).Msg("Archive queue full, dropping job")
	}
}

// Dropped returns how many jobs were discarded because the queue was full.
func (a *Archive) Dropped() int64 {
	return a.dropped.Load()
}

// Run writes queued jobs until ctx is cancelled, then flushes what is left.
func (a *Archive) Run(ctx context.Context) {
	for {
		select {
		case job := <-a.jobs:
			a.write(job)
		case <-ctx.Done():
			a.flush()
			return
		}
	}
}

func (a *Archive) flush() {
	flushed := 0
	for {
		select {
		case job := <-a.jobs:
			a.write(job)
			flushed++
		default:
			if flushed > 0 {
				log.Info().Int("jobs", flushed).Msg("Archive flushed")
			}
			return
		}
	}
}

// write runs detached from the Run context so a job dequeued during shutdown still lands.
func (a *Archive) write(job archiveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if len(job.entries) > 0 {
		if err := a.ledger.Insert(ctx, job.entries); err != nil {
			log.Error().Err(err).Int("entries", len(job.entries)).Msg("Failed to archive ledger entries")
		}
	}
	if len(job.accounts) > 0 {
		if err := a.snapshots.Insert(ctx, job.at, job.accounts); err != nil {
			log.Error().Err(err).Int("accounts", len(job.accounts)).Msg("Failed to archive account snapshot")
		}
	}
}
