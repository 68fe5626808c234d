package wallet

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
)

var _ Ledger = (*MemoryLedger)(nil)

// MemoryLedger keeps per-shard wallet tables in maps. Used by tests and the
// memory backend. One mutex guards all shards; balances are small maps and
// the lock makes every mutation atomic, matching the row-atomicity the
// Postgres ledger gets from single-statement upserts.
type MemoryLedger struct {
	mu     sync.Mutex
	shards map[string]map[string]Wallet
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{shards: make(map[string]map[string]Wallet)}
}

func (l *MemoryLedger) wallet(shardID, userID string) Wallet {
	if l.shards[shardID] == nil {
		l.shards[shardID] = make(map[string]Wallet)
	}
	w, ok := l.shards[shardID][userID]
	if !ok {
		w = Wallet{UserID: userID, Pending: decimal.Zero, Available: decimal.Zero}
		l.shards[shardID][userID] = w
	}
	return w
}

func (l *MemoryLedger) Credit(_ context.Context, shardID, userID string, field Field, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperr.Wrap(apperr.ErrInvalidInput, "credit amount must be non-negative")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.wallet(shardID, userID)
	switch field {
	case FieldPending:
		w.Pending = w.Pending.Add(amount)
	case FieldAvailable:
		w.Available = w.Available.Add(amount)
	default:
		return apperr.Wrap(apperr.ErrInvalidInput, "unknown balance field %q", field)
	}
	l.shards[shardID][userID] = w
	return nil
}

func (l *MemoryLedger) Debit(_ context.Context, shardID, userID string, field Field, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperr.Wrap(apperr.ErrInvalidInput, "debit amount must be non-negative")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.wallet(shardID, userID)
	switch field {
	case FieldPending:
		if w.Pending.LessThan(amount) {
			return apperr.Wrap(apperr.ErrInvalidState, "debit would overdraw pending balance of %s", userID)
		}
		w.Pending = w.Pending.Sub(amount)
	case FieldAvailable:
		if w.Available.LessThan(amount) {
			return apperr.Wrap(apperr.ErrInvalidState, "debit would overdraw available balance of %s", userID)
		}
		w.Available = w.Available.Sub(amount)
	default:
		return apperr.Wrap(apperr.ErrInvalidInput, "unknown balance field %q", field)
	}
	l.shards[shardID][userID] = w
	return nil
}

func (l *MemoryLedger) Read(_ context.Context, shardID, userID string) (Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wallet(shardID, userID), nil
}

func (l *MemoryLedger) Settle(_ context.Context, shardID, userID string, debitPending, creditAvailable decimal.Decimal) error {
	if debitPending.IsNegative() || creditAvailable.IsNegative() {
		return apperr.Wrap(apperr.ErrInvalidInput, "settle amounts must be non-negative")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.wallet(shardID, userID)
	if w.Pending.LessThan(debitPending) {
		return apperr.Wrap(apperr.ErrInvalidState, "settle would overdraw pending balance of %s", userID)
	}
	w.Pending = w.Pending.Sub(debitPending)
	w.Available = w.Available.Add(creditAvailable)
	l.shards[shardID][userID] = w
	return nil
}
