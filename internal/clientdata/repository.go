// Package clientdata provides persistent caching for quote provider responses.
package clientdata

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
)

// Repository stores the current price per symbol in client_data.db.
// It implements domain.PriceCache.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetCurrentPrice returns the cached price for symbol, or nil if none is stored.
func (r *Repository) GetCurrentPrice(ctx context.Context, symbol string) (*domain.CurrentPrice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT symbol, price, currency, exchange, last_updated FROM current_prices WHERE symbol = ?`,
		symbol,
	)

	p, err := scanPrice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStoreError("failed to get cached price for "+symbol, err)
	}
	return p, nil
}

// UpsertCurrentPrice replaces the cached row for p.Symbol.
func (r *Repository) UpsertCurrentPrice(ctx context.Context, p domain.CurrentPrice) error {
	var exchange sql.NullString
	if p.Exchange != "" {
		exchange = sql.NullString{String: p.Exchange, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO current_prices (symbol, price, currency, exchange, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			price = excluded.price,
			currency = excluded.currency,
			exchange = excluded.exchange,
			last_updated = excluded.last_updated`,
		p.Symbol, p.Price.String(), p.Currency, exchange, p.LastUpdated.Unix(),
	)
	if err != nil {
		return domain.NewStoreError("failed to upsert cached price for "+p.Symbol, err)
	}
	return nil
}

// ListCurrentPrices returns every cached price ordered by symbol.
func (r *Repository) ListCurrentPrices(ctx context.Context) ([]domain.CurrentPrice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT symbol, price, currency, exchange, last_updated FROM current_prices ORDER BY symbol`,
	)
	if err != nil {
		return nil, domain.NewStoreError("failed to list cached prices", err)
	}
	defer rows.Close()

	prices := []domain.CurrentPrice{}
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, domain.NewStoreError("failed to scan cached price", err)
		}
		prices = append(prices, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("failed to iterate cached prices", err)
	}
	return prices, nil
}

// DeleteExcept removes cached prices for every symbol not in keep.
// An empty keep list clears the table.
func (r *Repository) DeleteExcept(ctx context.Context, keep []string) (int64, error) {
	query := `DELETE FROM current_prices`
	args := make([]interface{}, 0, len(keep))
	if len(keep) > 0 {
		query += ` WHERE symbol NOT IN (?` + strings.Repeat(", ?", len(keep)-1) + `)`
		for _, s := range keep {
			args = append(args, s)
		}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, domain.NewStoreError("failed to prune cached prices", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, domain.NewStoreError("failed to count pruned prices", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPrice(s scanner) (*domain.CurrentPrice, error) {
	var (
		p        domain.CurrentPrice
		exchange sql.NullString
		updated  int64
	)
	if err := s.Scan(&p.Symbol, &p.Price, &p.Currency, &exchange, &updated); err != nil {
		return nil, err
	}
	p.Exchange = exchange.String
	p.LastUpdated = time.Unix(updated, 0).UTC()
	return &p, nil
}
