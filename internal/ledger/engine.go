package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var entryNamespace = uuid.MustParse("8f0c6a52-4d1e-4b8e-9a57-0f3c2b7d9e11")

// CurrentBalance returns the balance after the last entry, or zero when the
// log is empty.
func CurrentBalance(last Entry, ok bool) decimal.Decimal {
	if !ok {
		return decimal.Zero
	}
	return last.BalanceAfter()
}

// BuildEntry derives the entry that applies delta on top of last. It does not
// judge whether the resulting balance is acceptable.
func BuildEntry(last Entry, ok bool, delta decimal.Decimal, now time.Time) Entry {
	now = now.UTC().Truncate(time.Microsecond)
	var seq uint64 = 1
	if ok {
		seq = last.Sequence + 1
		// keep event time order consistent with sequence order
		if now.Before(last.EventTime) {
			now = last.EventTime.UTC()
		}
	}
	return Entry{
		ID:            uuid.NewSHA1(entryNamespace, []byte(fmt.Sprintf("%d:%d", seq, now.UnixNano()))),
		Sequence:      seq,
		EventTime:     now,
		BalanceBefore: CurrentBalance(last, ok),
		Amount:        delta,
	}
}
