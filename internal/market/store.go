package market

import (
	"context"
	"time"
)

// Store is the shard-scoped transaction table.
type Store interface {
	// Create inserts the transaction unless an active (pending or completed)
	// one already exists for the same (ad, buyer) pair, in which case it
	// fails with DuplicatePurchase. The existence check and the insert are a
	// single atomic step; two racing purchases cannot both pass it.
	Create(ctx context.Context, shardID string, t Transaction) error

	Get(ctx context.Context, shardID, txnID string) (Transaction, error)

	// MarkCompleted transitions pending→completed exactly once. Returns
	// InvalidState if the transaction is in any other state.
	MarkCompleted(ctx context.Context, shardID, txnID string, now time.Time) (Transaction, error)

	ListByBuyer(ctx context.Context, shardID, buyerID string) ([]Transaction, error)
	ListBySeller(ctx context.Context, shardID, sellerID string) ([]Transaction, error)

	// CountPending counts pending transactions within one shard where the
	// user is buyer or seller.
	CountPending(ctx context.Context, shardID, userID string) (int, error)
}
