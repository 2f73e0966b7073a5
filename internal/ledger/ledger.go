package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrConcurrentModification indicates the log tail moved between reading
	// the last entry and appending the next one.
	ErrConcurrentModification = errors.New("concurrent modification of wallet ledger")

	// ErrNegativeBalance is returned by stores asked to persist an entry whose
	// balance after would drop below zero.
	ErrNegativeBalance = errors.New("entry would leave a negative balance")
)

// StorageError reports a ledger store that could not complete a read or write.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Entry is an immutable record of one balance movement.
type Entry struct {
	ID            uuid.UUID       `json:"id"`
	Sequence      uint64          `json:"sequence"`
	EventTime     time.Time       `json:"event_time"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	Amount        decimal.Decimal `json:"amount"`
}

// BalanceAfter is the wallet balance once this entry has been applied.
func (e Entry) BalanceAfter() decimal.Decimal {
	return e.BalanceBefore.Add(e.Amount)
}

// Store defines the contract implemented by ledger backends (e.g. Postgres).
//
// LastEntry reports false on an empty log. Append only succeeds when
// entry.Sequence directly follows the current last entry, otherwise it
// returns ErrConcurrentModification and leaves the log untouched.
type Store interface {
	LastEntry(ctx context.Context) (Entry, bool, error)
	Append(ctx context.Context, entry Entry) error
}

// newer reports whether a sorts after b in log order.
func newer(a, b Entry) bool {
	if !a.EventTime.Equal(b.EventTime) {
		return a.EventTime.After(b.EventTime)
	}
	return a.Sequence > b.Sequence
}
