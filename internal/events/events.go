package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/online_wallet/internal/ledger"
)

const (
	// KindDeposit marks an accepted deposit.
	KindDeposit = "wallet.deposit"
	// KindWithdrawal marks an accepted withdrawal.
	KindWithdrawal = "wallet.withdrawal"
)

// EntryAppended describes a ledger entry that has been durably recorded.
type EntryAppended struct {
	Kind          string          `json:"kind"`
	EntryID       string          `json:"entry_id"`
	Sequence      uint64          `json:"sequence"`
	EventTime     time.Time       `json:"event_time"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// FromEntry builds the event for an appended entry.
func FromEntry(kind string, entry ledger.Entry) EntryAppended {
	return EntryAppended{
		Kind:          kind,
		EntryID:       entry.ID.String(),
		Sequence:      entry.Sequence,
		EventTime:     entry.EventTime,
		BalanceBefore: entry.BalanceBefore,
		Amount:        entry.Amount,
		BalanceAfter:  entry.BalanceAfter(),
	}
}

// Publisher delivers ledger events to downstream systems.
type Publisher interface {
	Publish(ctx context.Context, event EntryAppended) error
}

// LoggerPublisher writes events to the structured logger.
type LoggerPublisher struct {
	logger *slog.Logger
}

// NewLoggerPublisher constructs a logging publisher.
func NewLoggerPublisher(logger *slog.Logger) *LoggerPublisher {
	return &LoggerPublisher{logger: logger}
}

// Publish writes the event to the structured logger.
func (p *LoggerPublisher) Publish(ctx context.Context, event EntryAppended) error {
	if p == nil || p.logger == nil {
		return nil
	}
	p.logger.InfoContext(ctx, "ledger event",
		slog.String("kind", event.Kind),
		slog.String("entry_id", event.EntryID),
		slog.Uint64("sequence", event.Sequence),
		slog.String("amount", event.Amount.String()),
		slog.String("balance_after", event.BalanceAfter.String()),
	)
	return nil
}
