package clientdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SymbolLister returns the symbols that still appear in the ledger.
type SymbolLister interface {
	UniqueSymbols(ctx context.Context) ([]string, error)
}

// PruneJob removes cached prices of symbols that no longer appear in the ledger.
type PruneJob struct {
	repo    *Repository
	symbols SymbolLister
	log     zerolog.Logger
}

// NewPruneJob creates a new price cache prune job.
func NewPruneJob(repo *Repository, symbols SymbolLister, log zerolog.Logger) *PruneJob {
	return &PruneJob{
		repo:    repo,
		symbols: symbols,
		log:     log.With().Str("job", "price_cache_prune").Logger(),
	}
}

// Run executes the prune.
func (j *PruneJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	keep, err := j.symbols.UniqueSymbols(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to list ledger symbols")
		return err
	}

	deleted, err := j.repo.DeleteExcept(ctx, keep)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to prune cached prices")
		return err
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Pruned cached prices")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *PruneJob) Name() string {
	return "price_cache_prune"
}
