package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestInMemoryStore_EmptyLog(t *testing.T) {
	s := NewInMemory()
	_, ok, err := s.LastEntry(context.Background())
	if err != nil {
		t.Fatalf("last entry: %v", err)
	}
	if ok {
		t.Fatal("expected empty log")
	}
}

func TestInMemoryStore_LastEntryFollowsAppends(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	now := time.Now()

	first := BuildEntry(Entry{}, false, dec("50"), now.Add(-10*time.Minute))
	if err := s.Append(ctx, first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	second := BuildEntry(first, true, dec("100"), now.Add(-5*time.Minute))
	if err := s.Append(ctx, second); err != nil {
		t.Fatalf("append second: %v", err)
	}

	last, ok, err := s.LastEntry(ctx)
	if err != nil || !ok {
		t.Fatalf("last entry: ok=%v err=%v", ok, err)
	}
	if last.ID != second.ID {
		t.Fatalf("expected second entry, got %+v", last)
	}
	if !last.BalanceAfter().Equal(dec("150")) {
		t.Fatalf("expected balance 150, got %s", last.BalanceAfter())
	}
}

func TestInMemoryStore_RejectsStaleSequence(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	first := BuildEntry(Entry{}, false, dec("10"), time.Now())
	if err := s.Append(ctx, first); err != nil {
		t.Fatalf("append: %v", err)
	}
	// built from the same (empty) tail as first
	stale := BuildEntry(Entry{}, false, dec("20"), time.Now())
	if err := s.Append(ctx, stale); !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
	if n := EntryCount(s); n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
}

func TestInMemoryStore_RejectsNegativeBalance(t *testing.T) {
	s := NewInMemory()
	entry := BuildEntry(Entry{}, false, dec("-1"), time.Now())
	if err := s.Append(context.Background(), entry); !errors.Is(err, ErrNegativeBalance) {
		t.Fatalf("expected negative balance error, got %v", err)
	}
}

func TestInMemoryStore_ConcurrentAppendsNeverFork(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	const workers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last, ok, err := s.LastEntry(ctx)
			if err != nil {
				t.Errorf("last entry: %v", err)
				return
			}
			err = s.Append(ctx, BuildEntry(last, ok, dec("5"), time.Now()))
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrConcurrentModification) {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()

	last, _, _ := s.LastEntry(ctx)
	if int(last.Sequence) != accepted || EntryCount(s) != accepted {
		t.Fatalf("log forked: sequence=%d entries=%d accepted=%d", last.Sequence, EntryCount(s), accepted)
	}
	if want := dec("5").Mul(decimal.NewFromInt(int64(accepted))); !last.BalanceAfter().Equal(want) {
		t.Fatalf("expected balance %s, got %s", want, last.BalanceAfter())
	}
}
