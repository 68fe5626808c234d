// Package wallet holds the per-shard escrow ledger. Every user has at most
// one wallet row per shard with a pending and an available balance; the
// transaction engine is the only mutator.
package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// Field selects which balance an operation adjusts.
type Field string

const (
	FieldPending   Field = "pending"
	FieldAvailable Field = "available"
)

// Wallet is one user's balances within one shard.
type Wallet struct {
	UserID    string          `json:"user_id"`
	Pending   decimal.Decimal `json:"pending_balance"`
	Available decimal.Decimal `json:"available_balance"`
}

// Ledger is the shard-scoped balance store. Each mutation is a single atomic
// upsert; a missing wallet row is created with both balances at zero.
type Ledger interface {
	// Credit increments the given balance. Amount must be non-negative.
	Credit(ctx context.Context, shardID, userID string, field Field, amount decimal.Decimal) error

	// Debit decrements the given balance. Amount must be non-negative.
	// Fails with InvalidState if the balance would go negative; callers only
	// debit amounts they previously credited.
	Debit(ctx context.Context, shardID, userID string, field Field, amount decimal.Decimal) error

	// Read returns the balances, lazily materializing a zero wallet.
	Read(ctx context.Context, shardID, userID string) (Wallet, error)

	// Settle moves escrowed funds in one atomic step: debits pending by
	// debitPending and credits available by creditAvailable. Fails without
	// effect if pending is short.
	Settle(ctx context.Context, shardID, userID string, debitPending, creditAvailable decimal.Decimal) error
}
