package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/reliability"
	"github.com/rs/zerolog"
)

// HoldingsRefresher refreshes the prices of every held symbol
type HoldingsRefresher interface {
	RefreshHoldings(ctx context.Context) (*prices.BulkRefreshResult, error)
}

// PriceRefreshJob refreshes held symbols on a schedule
type PriceRefreshJob struct {
	refresher HoldingsRefresher
	timeout   time.Duration
	log       zerolog.Logger
}

// NewPriceRefreshJob creates a new price refresh job. timeout bounds a single
// run; zero means ten minutes.
func NewPriceRefreshJob(refresher HoldingsRefresher, timeout time.Duration, log zerolog.Logger) *PriceRefreshJob {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &PriceRefreshJob{
		refresher: refresher,
		timeout:   timeout,
		log:       log.With().Str("job", "price_refresh").Logger(),
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Run executes the price refresh job. Per-symbol failures and rate limiting
// are reported in the log, only cache failures fail the run.
func (j *PriceRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.refresher.RefreshHoldings(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh holdings: %w", err)
	}

	event := j.log.Info()
	if result.RateLimited || len(result.Failed) > 0 {
		event = j.log.Warn()
	}
	event.
		Int("refreshed", len(result.Refreshed)).
		Int("failed", len(result.Failed)).
		Int("skipped", len(result.Skipped)).
		Bool("rate_limited", result.RateLimited).
		Bool("cancelled", result.Cancelled).
		Dur("duration", result.Duration).
		Msg("Price refresh finished")
	return nil
}

// Backuper creates and rotates remote backups
type Backuper interface {
	CreateAndUpload(ctx context.Context) (*reliability.BackupInfo, error)
	Rotate(ctx context.Context, retentionDays int) (int, error)
}

// BackupJob uploads a backup and rotates out old ones
type BackupJob struct {
	backups       Backuper
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(backups Backuper, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backups:       backups,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes the backup job. A failed rotation does not fail the run.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	info, err := j.backups.CreateAndUpload(ctx)
	if err != nil {
		return err
	}

	deleted, err := j.backups.Rotate(ctx, j.retentionDays)
	if err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
		return nil
	}

	j.log.Info().
		Str("key", info.Key).
		Int("rotated", deleted).
		Msg("Backup job finished")
	return nil
}
