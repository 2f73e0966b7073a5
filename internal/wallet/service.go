package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/online_wallet/internal/events"
	"github.com/congo-pay/online_wallet/internal/ledger"
	"github.com/congo-pay/online_wallet/internal/logging"
)

const (
	defaultAppendAttempts = 5
	defaultPublishTimeout = 5 * time.Second
)

// Service exposes wallet operations backed by the ledger.
type Service struct {
	store     ledger.Store
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
	attempts  int

	publishTimeout time.Duration

	// serializes read-build-append within this process
	writeMu sync.Mutex
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAppendAttempts bounds how many times a conflicting append is rebuilt.
func WithAppendAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithPublishTimeout bounds how long a single event publication may take.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// NewService builds a wallet service instance. publisher may be nil.
func NewService(store ledger.Store, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		attempts:  defaultAppendAttempts,

		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetBalance returns the balance after the most recent ledger entry.
func (s *Service) GetBalance(ctx context.Context) (Balance, error) {
	last, ok, err := s.store.LastEntry(ctx)
	if err != nil {
		return Balance{}, err
	}
	return Balance{Amount: ledger.CurrentBalance(last, ok), AsOf: s.now().UTC()}, nil
}

// Deposit appends a credit of amount. A zero deposit is still recorded.
func (s *Service) Deposit(ctx context.Context, amount decimal.Decimal) (Balance, error) {
	if err := checkAmount(amount); err != nil {
		return Balance{}, err
	}
	return s.apply(ctx, events.KindDeposit, amount, func(current decimal.Decimal) error {
		if !representable(current.Add(amount)) {
			return fmt.Errorf("%w: balance %s plus %s exceeds %s", ErrInvalidAmount, current, amount, maxAmount)
		}
		return nil
	})
}

// Withdraw appends a debit of amount unless it exceeds the current balance,
// in which case nothing is written.
func (s *Service) Withdraw(ctx context.Context, amount decimal.Decimal) (Balance, error) {
	if err := checkAmount(amount); err != nil {
		return Balance{}, err
	}
	return s.apply(ctx, events.KindWithdrawal, amount.Neg(), func(current decimal.Decimal) error {
		if current.LessThan(amount) {
			return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientBalance, current, amount)
		}
		return nil
	})
}

func checkAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount)
	}
	if !representable(amount) {
		return fmt.Errorf("%w: outside the supported decimal range", ErrInvalidAmount)
	}
	return nil
}

// apply records the movement and then publishes it outside the write lock,
// so a slow broker never stalls other movements. Events may therefore leave
// out of ledger order; consumers order them by sequence.
func (s *Service) apply(ctx context.Context, kind string, delta decimal.Decimal, check func(current decimal.Decimal) error) (Balance, error) {
	entry, err := s.record(ctx, kind, delta, check)
	if err != nil {
		return Balance{}, err
	}
	s.publish(ctx, kind, entry)
	return Balance{Amount: entry.BalanceAfter(), AsOf: entry.EventTime}, nil
}

func (s *Service) record(ctx context.Context, kind string, delta decimal.Decimal, check func(current decimal.Decimal) error) (ledger.Entry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for attempt := 1; ; attempt++ {
		last, ok, err := s.store.LastEntry(ctx)
		if err != nil {
			return ledger.Entry{}, err
		}

		if check != nil {
			if err := check(ledger.CurrentBalance(last, ok)); err != nil {
				s.logger.InfoContext(ctx, "wallet movement rejected", slog.String("kind", kind), slog.Any("error", err))
				return ledger.Entry{}, err
			}
		}

		entry := ledger.BuildEntry(last, ok, delta, s.now())
		err = s.store.Append(ctx, entry)
		if errors.Is(err, ledger.ErrConcurrentModification) && attempt < s.attempts {
			s.logger.DebugContext(ctx, "ledger tail moved, rebuilding entry",
				slog.String("kind", kind),
				slog.Int("attempt", attempt),
				slog.Uint64("sequence", entry.Sequence),
			)
			continue
		}
		if err != nil {
			return ledger.Entry{}, err
		}

		s.logger.DebugContext(ctx, "wallet movement applied",
			slog.String("kind", kind),
			slog.Uint64("sequence", entry.Sequence),
			slog.String("amount", entry.Amount.String()),
			slog.String("balance_after", entry.BalanceAfter().String()),
		)
		return entry, nil
	}
}

func (s *Service) publish(ctx context.Context, kind string, entry ledger.Entry) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, events.FromEntry(kind, entry)); err != nil {
		s.logger.WarnContext(ctx, "publish ledger event",
			slog.String("kind", kind),
			slog.Uint64("sequence", entry.Sequence),
			slog.Any("error", err),
		)
	}
}
