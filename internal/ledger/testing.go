package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SeedBalance is a test helper that appends a single entry bringing the
// balance of an empty or populated store to amount.
func SeedBalance(s Store, amount decimal.Decimal) error {
	ctx := context.Background()
	last, ok, err := s.LastEntry(ctx)
	if err != nil {
		return err
	}
	delta := amount.Sub(CurrentBalance(last, ok))
	return s.Append(ctx, BuildEntry(last, ok, delta, time.Now()))
}

// EntryCount returns the number of entries held by an in-memory store, or -1
// for other backends.
func EntryCount(s Store) int {
	if mem, ok := s.(*inMemoryStore); ok {
		return mem.Len()
	}
	return -1
}
