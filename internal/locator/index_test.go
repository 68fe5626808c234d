package locator_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
	"github.com/sudo-init-do/tradegrid/internal/locator"
)

func newIndexedLocator(t *testing.T) (*locator.Locator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	idx := locator.NewIndex(rdb, zap.NewNop())
	return locator.New(threeShards(t), idx, zap.NewNop()), mr
}

func TestHintSkipsFanOut(t *testing.T) {
	loc, _ := newIndexedLocator(t)
	ctx := context.Background()
	loc.RecordLocation(ctx, locator.KindAd, "x", "s2")

	var probed []string
	shardID, err := loc.Locate(ctx, locator.KindAd, "x",
		func(_ context.Context, shardID string) (bool, error) {
			probed = append(probed, shardID)
			return shardID == "s2", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "s2", shardID)
	assert.Equal(t, []string{"s2"}, probed)
}

// A hint is only a hint: the probe must confirm it, and a stale entry is
// dropped and repaired from the fan-out result.
func TestStaleHintRepairedByFanOut(t *testing.T) {
	loc, mr := newIndexedLocator(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("shardloc:ad:x", "s1"))

	var probed []string
	shardID, err := loc.Locate(ctx, locator.KindAd, "x",
		func(_ context.Context, shardID string) (bool, error) {
			probed = append(probed, shardID)
			return shardID == "s3", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "s3", shardID)
	// Stale shard tried once via the hint, then the fan-out skips it.
	assert.Equal(t, []string{"s1", "s2", "s3"}, probed)

	got, err := mr.Get("shardloc:ad:x")
	require.NoError(t, err)
	assert.Equal(t, "s3", got)
}

// The entity may live on the hinted shard even when its probe fails; a clean
// miss everywhere else must stay a retryable lookup failure, never NotFound.
func TestHintProbeErrorStaysRetryable(t *testing.T) {
	loc, mr := newIndexedLocator(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("shardloc:ad:x", "s2"))

	_, err := loc.Locate(ctx, locator.KindAd, "x",
		func(_ context.Context, shardID string) (bool, error) {
			if shardID == "s2" {
				return false, fmt.Errorf("connection refused")
			}
			return false, nil
		})
	assert.ErrorIs(t, err, apperr.ErrLookup)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
}

func TestHintToUnknownShardIgnored(t *testing.T) {
	loc, mr := newIndexedLocator(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("shardloc:ad:x", "decommissioned"))

	shardID, err := loc.Locate(ctx, locator.KindAd, "x",
		func(_ context.Context, shardID string) (bool, error) {
			return shardID == "s1", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "s1", shardID)
}

func TestForgetLocationDropsEntry(t *testing.T) {
	loc, mr := newIndexedLocator(t)
	ctx := context.Background()
	loc.RecordLocation(ctx, locator.KindTransaction, "t1", "s2")
	require.True(t, mr.Exists("shardloc:txn:t1"))

	loc.ForgetLocation(ctx, locator.KindTransaction, "t1")
	assert.False(t, mr.Exists("shardloc:txn:t1"))
}
