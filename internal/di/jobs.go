package di

import (
	"fmt"

	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/reliability"
	"github.com/aristath/folio/internal/scheduler"
	"github.com/rs/zerolog"
)

// JobInstances holds the created jobs for manual triggering
type JobInstances struct {
	PriceRefresh *scheduler.PriceRefreshJob
	PriceCache   *clientdata.PruneJob
	Maintenance  *reliability.DailyMaintenanceJob
	Backup       *scheduler.BackupJob // nil when backups are disabled
}

// RegisterJobs creates the background jobs and registers the ones with a
// schedule. The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.PortfolioService == nil {
		return nil, fmt.Errorf("services must be initialized first")
	}

	sched := scheduler.New(log)
	container.Scheduler = sched

	instances := &JobInstances{
		PriceRefresh: scheduler.NewPriceRefreshJob(container.PortfolioService, 0, log),
		PriceCache:   clientdata.NewPruneJob(container.PriceRepo, container.TransactionRepo, log),
		Maintenance:  reliability.NewDailyMaintenanceJob(container.Databases(), cfg.DataDir, log),
	}
	if container.BackupService != nil {
		instances.Backup = scheduler.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
	}

	if cfg.RefreshSchedule != "" {
		if err := sched.AddJob(cfg.RefreshSchedule, instances.PriceRefresh); err != nil {
			return nil, fmt.Errorf("failed to register price refresh job: %w", err)
		}
	}

	if cfg.MaintenanceSchedule != "" {
		if err := sched.AddJob(cfg.MaintenanceSchedule, instances.Maintenance); err != nil {
			return nil, fmt.Errorf("failed to register maintenance job: %w", err)
		}
		if err := sched.AddJob(cfg.MaintenanceSchedule, instances.PriceCache); err != nil {
			return nil, fmt.Errorf("failed to register price cache prune job: %w", err)
		}
	}

	if instances.Backup != nil {
		if err := sched.AddJob(cfg.Backup.Schedule, instances.Backup); err != nil {
			return nil, fmt.Errorf("failed to register backup job: %w", err)
		}
	}

	log.Info().Int("scheduled", len(sched.Jobs())).Msg("Jobs registered")
	return instances, nil
}
