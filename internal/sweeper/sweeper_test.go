package sweeper_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradegrid/internal/listing"
	"github.com/sudo-init-do/tradegrid/internal/shard"
	"github.com/sudo-init-do/tradegrid/internal/sweeper"
)

// brokenShardStore fails SweepExpired for one shard and delegates the rest.
type brokenShardStore struct {
	listing.Store
	broken string
}

func (b *brokenShardStore) SweepExpired(ctx context.Context, shardID string, now time.Time) (listing.SweepResult, error) {
	if shardID == b.broken {
		return listing.SweepResult{}, fmt.Errorf("shard %s down", shardID)
	}
	return b.Store.SweepExpired(ctx, shardID, now)
}

func seedExpiredDeal(t *testing.T, store *listing.MemoryStore, shardID, id string, now time.Time) {
	t.Helper()
	past := now.Add(-time.Minute)
	require.NoError(t, store.Create(context.Background(), shardID, listing.Listing{
		ID: id, Type: listing.TypeDeal, DealExpiry: &past,
	}))
}

func TestSweepAllTotalsAcrossShards(t *testing.T) {
	reg, err := shard.NewRegistry("s1",
		&shard.Shard{ID: "s1"}, &shard.Shard{ID: "s2"})
	require.NoError(t, err)

	store := listing.NewMemoryStore()
	now := time.Now()
	seedExpiredDeal(t, store, "s1", "d1", now)
	seedExpiredDeal(t, store, "s2", "d2", now)

	sw := sweeper.New(reg, store, time.Minute, zap.NewNop())
	res := sw.SweepAll(context.Background(), now)
	assert.Equal(t, 2, res.DealsDeleted)
}

// Run must not wait for the first tick: listings that expired while the
// process was down are retired right at startup.
func TestRunSweepsImmediately(t *testing.T) {
	reg, err := shard.NewRegistry("s1", &shard.Shard{ID: "s1"})
	require.NoError(t, err)

	store := listing.NewMemoryStore()
	seedExpiredDeal(t, store, "s1", "d1", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sw := sweeper.New(reg, store, time.Hour, zap.NewNop())
	go sw.Run(ctx)

	assert.Eventually(t, func() bool {
		_, err := store.Get(context.Background(), "s1", "d1")
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
}

// One failing shard must not stop the sweep of the others.
func TestSweepAllContinuesPastFailingShard(t *testing.T) {
	reg, err := shard.NewRegistry("s1",
		&shard.Shard{ID: "s1"}, &shard.Shard{ID: "s2"}, &shard.Shard{ID: "s3"})
	require.NoError(t, err)

	store := listing.NewMemoryStore()
	now := time.Now()
	seedExpiredDeal(t, store, "s1", "d1", now)
	seedExpiredDeal(t, store, "s3", "d3", now)

	sw := sweeper.New(reg, &brokenShardStore{Store: store, broken: "s2"}, time.Minute, zap.NewNop())
	res := sw.SweepAll(context.Background(), now)
	assert.Equal(t, 2, res.DealsDeleted)
}
