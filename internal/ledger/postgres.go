package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// PostgresStore persists ledger entries in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// LastEntry returns the entry with the latest event time, breaking ties by sequence.
func (s *PostgresStore) LastEntry(ctx context.Context) (Entry, bool, error) {
	const query = `
        SELECT id, sequence, event_time, balance_before::text, amount::text
        FROM wallet_entries
        ORDER BY event_time DESC, sequence DESC
        LIMIT 1`
	var (
		id        uuid.UUID
		sequence  int64
		eventTime time.Time
		before    string
		amount    string
	)
	if err := s.db.QueryRow(ctx, query).Scan(&id, &sequence, &eventTime, &before, &amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, &StorageError{Op: "last entry", Err: err}
	}

	entry := Entry{ID: id, Sequence: uint64(sequence), EventTime: eventTime.UTC()}
	var err error
	if entry.BalanceBefore, err = decimal.NewFromString(before); err != nil {
		return Entry{}, false, &StorageError{Op: "last entry", Err: fmt.Errorf("balance_before: %w", err)}
	}
	if entry.Amount, err = decimal.NewFromString(amount); err != nil {
		return Entry{}, false, &StorageError{Op: "last entry", Err: fmt.Errorf("amount: %w", err)}
	}
	return entry, true, nil
}

// Append inserts entry only if its sequence directly follows the current maximum.
func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	if entry.BalanceAfter().IsNegative() {
		return ErrNegativeBalance
	}

	const stmt = `
        INSERT INTO wallet_entries (id, sequence, event_time, balance_before, amount)
        SELECT $1::uuid, $2::bigint, $3::timestamptz, $4::text::numeric, $5::text::numeric
        WHERE $2::bigint = (SELECT COALESCE(MAX(sequence), 0) + 1 FROM wallet_entries)`
	cmd, err := s.db.Exec(ctx, stmt,
		entry.ID,
		int64(entry.Sequence),
		entry.EventTime.UTC(),
		entry.BalanceBefore.String(),
		entry.Amount.String(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrConcurrentModification
			case pgCheckViolation:
				return ErrNegativeBalance
			}
		}
		return &StorageError{Op: "append", Err: err}
	}
	if cmd.RowsAffected() == 0 {
		return ErrConcurrentModification
	}
	return nil
}
