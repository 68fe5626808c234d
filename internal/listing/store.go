package listing

import (
	"context"
	"time"
)

// Store is the shard-scoped persistence surface for listings.
type Store interface {
	Create(ctx context.Context, shardID string, l Listing) error
	Get(ctx context.Context, shardID, adID string) (Listing, error)
	List(ctx context.Context, shardID string) ([]Listing, error)

	// SetPin marks the listing pinned until expiry.
	SetPin(ctx context.Context, shardID, adID string, expiry time.Time) error

	Delete(ctx context.Context, shardID, adID string) error

	// SweepExpired deletes deal listings whose deal_expiry passed and clears
	// pins whose pin_expiry passed, within one shard.
	SweepExpired(ctx context.Context, shardID string, now time.Time) (SweepResult, error)
}
