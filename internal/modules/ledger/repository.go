// Package ledger provides the transaction ledger: storage, validation and HTTP handlers.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
)

const transactionColumns = `id, symbol, quantity, price, transaction_date, kind, notes, created_at, updated_at`

// Repository stores transactions in ledger.db.
// It implements domain.TransactionStore.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
		now: time.Now,
	}
}

// List returns the transactions matching filter, most recent first.
// Rows on the same date are ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	where, args := buildWhere(filter)

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&count)
	if err != nil {
		return nil, domain.NewStoreError("failed to count transactions", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where +
		` ORDER BY transaction_date DESC, created_at DESC, id DESC`
	switch {
	case filter.Limit > 0:
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	case filter.Offset > 0:
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStoreError("failed to list transactions", err)
	}
	defer rows.Close()

	items := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, domain.NewStoreError("failed to scan transaction", err)
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("failed to iterate transactions", err)
	}

	return &domain.TransactionPage{Items: items, Count: count}, nil
}

func buildWhere(filter domain.TransactionFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Symbol != "" {
		conds = append(conds, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.From != nil {
		conds = append(conds, "transaction_date >= ?")
		args = append(args, filter.From.Unix())
	}
	if filter.To != nil {
		conds = append(conds, "transaction_date <= ?")
		args = append(args, filter.To.Unix())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Get returns one transaction by id
func (r *Repository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.NewStoreError("failed to get transaction "+id, err)
	}
	return t, nil
}

// Insert stores a new transaction. Zero timestamps are set to now.
func (r *Repository) Insert(ctx context.Context, t *domain.Transaction) error {
	now := r.now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Symbol, t.Quantity.String(), t.Price.String(), t.Date.Unix(),
		string(t.Kind), nullString(t.Notes), t.CreatedAt.Unix(), t.UpdatedAt.Unix(),
	)
	if err != nil {
		return domain.NewStoreError("failed to insert transaction", err)
	}

	r.log.Debug().Str("id", t.ID).Str("symbol", t.Symbol).Str("kind", string(t.Kind)).Msg("Inserted transaction")
	return nil
}

// Update applies patch over the stored row inside one transaction and
// returns the full replacement.
func (r *Repository) Update(ctx context.Context, id string, patch domain.TransactionPatch) (*domain.Transaction, error) {
	var updated domain.Transaction
	var notFound bool

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
		current, err := scanTransaction(row)
		if errors.Is(err, sql.ErrNoRows) {
			notFound = true
			return err
		}
		if err != nil {
			return err
		}

		updated = patch.Apply(*current)
		updated.UpdatedAt = r.now().UTC()

		_, err = tx.ExecContext(ctx, `
			UPDATE transactions
			SET symbol = ?, quantity = ?, price = ?, transaction_date = ?, kind = ?, notes = ?, updated_at = ?
			WHERE id = ?`,
			updated.Symbol, updated.Quantity.String(), updated.Price.String(), updated.Date.Unix(),
			string(updated.Kind), nullString(updated.Notes), updated.UpdatedAt.Unix(), id,
		)
		return err
	})
	if notFound {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.NewStoreError("failed to update transaction "+id, err)
	}
	return &updated, nil
}

// Delete removes a transaction
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return domain.NewStoreError("failed to delete transaction "+id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return domain.NewStoreError("failed to delete transaction "+id, err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UniqueSymbols returns every symbol that appears in the ledger, sorted
func (r *Repository) UniqueSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM transactions ORDER BY symbol`)
	if err != nil {
		return nil, domain.NewStoreError("failed to list symbols", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, domain.NewStoreError("failed to scan symbol", err)
		}
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("failed to iterate symbols", err)
	}
	return symbols, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var (
		t                      domain.Transaction
		kind                   string
		notes                  sql.NullString
		date, created, updated int64
	)
	err := s.Scan(&t.ID, &t.Symbol, &t.Quantity, &t.Price, &date, &kind, &notes, &created, &updated)
	if err != nil {
		return nil, err
	}
	t.Kind = domain.TransactionKind(kind)
	t.Notes = notes.String
	t.Date = time.Unix(date, 0).UTC()
	t.CreatedAt = time.Unix(created, 0).UTC()
	t.UpdatedAt = time.Unix(updated, 0).UTC()
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
