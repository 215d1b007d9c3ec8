package di

import (
	"context"
	"fmt"

	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/clients/finnhub"
	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/modules/allocation"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/portfolio"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/modules/tickers"
	"github.com/aristath/folio/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the data access layer
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container.LedgerDB == nil || container.ClientDataDB == nil {
		return fmt.Errorf("databases must be initialized first")
	}

	container.TransactionRepo = ledger.NewRepository(container.LedgerDB.Conn(), log)
	container.PriceRepo = clientdata.NewRepository(container.ClientDataDB.Conn())

	log.Debug().Msg("Repositories initialized")
	return nil
}

// InitializeServices creates clients and services. The quote provider is
// built from cfg.Finnhub; the backup service only when backups are enabled.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container.TransactionRepo == nil || container.PriceRepo == nil {
		return fmt.Errorf("repositories must be initialized first")
	}

	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)

	opts := []finnhub.ClientOption{
		finnhub.WithRateLimit(cfg.Finnhub.RateLimit),
	}
	if cfg.Finnhub.BaseURL != "" {
		opts = append(opts, finnhub.WithBaseURL(cfg.Finnhub.BaseURL))
	}
	if cfg.Finnhub.Timeout > 0 {
		opts = append(opts, finnhub.WithTimeout(cfg.Finnhub.Timeout))
	}
	if cfg.Finnhub.APIKey == "" {
		log.Warn().Msg("FINNHUB_API_KEY is not set, price refreshes will fail with access denied")
	}
	container.QuoteProvider = finnhub.NewClient(cfg.Finnhub.APIKey, log, opts...)

	container.LedgerService = ledger.NewService(container.TransactionRepo, container.EventManager, log)

	container.PriceService = prices.NewService(
		container.PriceRepo,
		container.QuoteProvider,
		container.EventManager,
		prices.Config{
			StaleAfter: cfg.PriceStaleAfter,
			BulkDelay:  cfg.BulkRefreshDelay,
		},
		log,
	)

	container.PortfolioService = portfolio.NewService(
		container.TransactionRepo,
		container.PriceRepo,
		container.PriceService,
		portfolio.Config{
			ReportingCurrency: cfg.ReportingCurrency,
			CostBasisMode:     cfg.CostBasisMode,
		},
		log,
	)

	container.AllocationService = allocation.NewService(container.PortfolioService, log)
	container.TickerValidator = tickers.NewValidator(container.QuoteProvider, log)

	if cfg.Backup.Enabled {
		store, err := reliability.NewS3Client(ctx, cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to create backup storage client: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			store,
			[]reliability.Snapshotter{container.LedgerDB},
			cfg.Backup.Prefix,
			cfg.DataDir,
			container.EventManager,
			log,
		)
	}

	log.Debug().Bool("backups", container.BackupService != nil).Msg("Services initialized")
	return nil
}
