package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/online_wallet/internal/ledger"
	"github.com/congo-pay/online_wallet/internal/testutil"
)

func TestPostgresStore_AppendAndLastEntry(t *testing.T) {
	pool := testutil.SetupTestPool(t)
	store := ledger.NewPostgresStore(pool)
	ctx := context.Background()

	_, ok, err := store.LastEntry(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "expected empty log")

	now := time.Now()
	first := ledger.BuildEntry(ledger.Entry{}, false, decimal.RequireFromString("100.75"), now)
	require.NoError(t, store.Append(ctx, first))
	second := ledger.BuildEntry(first, true, decimal.RequireFromString("-50.25"), now.Add(time.Second))
	require.NoError(t, store.Append(ctx, second))

	last, ok, err := store.LastEntry(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.ID, last.ID)
	assert.Equal(t, uint64(2), last.Sequence)
	assert.True(t, last.EventTime.Equal(second.EventTime), "event time %s != %s", last.EventTime, second.EventTime)
	assert.True(t, last.BalanceAfter().Equal(decimal.RequireFromString("50.50")), "balance after = %s", last.BalanceAfter())
}

func TestPostgresStore_ConditionalAppend(t *testing.T) {
	pool := testutil.SetupTestPool(t)
	store := ledger.NewPostgresStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, ledger.BuildEntry(ledger.Entry{}, false, decimal.NewFromInt(10), time.Now())))

	stale := ledger.BuildEntry(ledger.Entry{}, false, decimal.NewFromInt(20), time.Now())
	assert.ErrorIs(t, store.Append(ctx, stale), ledger.ErrConcurrentModification)

	gap := ledger.Entry{Sequence: 5, EventTime: time.Now(), Amount: decimal.NewFromInt(1)}
	assert.ErrorIs(t, store.Append(ctx, gap), ledger.ErrConcurrentModification)
}

func TestPostgresStore_ConcurrentAppendsNeverFork(t *testing.T) {
	pool := testutil.SetupTestPool(t)
	store := ledger.NewPostgresStore(pool)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last, ok, err := store.LastEntry(ctx)
			if err != nil {
				t.Errorf("last entry: %v", err)
				return
			}
			err = store.Append(ctx, ledger.BuildEntry(last, ok, decimal.NewFromInt(3), time.Now()))
			if err != nil && !errors.Is(err, ledger.ErrConcurrentModification) {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()

	var count int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM wallet_entries`).Scan(&count))
	last, ok, err := store.LastEntry(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(count), last.Sequence)
	assert.True(t, last.BalanceAfter().Equal(decimal.NewFromInt(3*count)), "balance after = %s", last.BalanceAfter())
}
