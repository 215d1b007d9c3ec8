// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/clients/finnhub"
	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/modules/allocation"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/portfolio"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/modules/tickers"
	"github.com/aristath/folio/internal/reliability"
	"github.com/aristath/folio/internal/scheduler"
)

// Container holds all application dependencies. It is created by Wire and
// passed to the server for access to services.
type Container struct {
	Config *config.Config

	// Databases
	LedgerDB     *database.DB // Transaction ledger, maximum durability
	ClientDataDB *database.DB // Current price cache, contents can be refetched

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Clients
	QuoteProvider *finnhub.Client

	// Repositories
	TransactionRepo *ledger.Repository
	PriceRepo       *clientdata.Repository

	// Services
	LedgerService     *ledger.Service
	PriceService      *prices.Service
	PortfolioService  *portfolio.Service
	AllocationService *allocation.Service
	TickerValidator   *tickers.Validator

	// BackupService is nil when backups are disabled
	BackupService *reliability.BackupService

	Scheduler *scheduler.Scheduler
}

// Databases returns every open database
func (c *Container) Databases() []*database.DB {
	var dbs []*database.DB
	for _, db := range []*database.DB{c.LedgerDB, c.ClientDataDB} {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return dbs
}

// Close closes every open database
func (c *Container) Close() error {
	var firstErr error
	for _, db := range c.Databases() {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
