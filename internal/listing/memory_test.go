package listing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	require.NoError(t, s.Create(ctx, "s1", Listing{ID: "dead-deal", Type: TypeDeal, DealExpiry: &past}))
	require.NoError(t, s.Create(ctx, "s1", Listing{ID: "live-deal", Type: TypeDeal, DealExpiry: &future}))
	require.NoError(t, s.Create(ctx, "s1", Listing{ID: "dead-pin", Type: TypeProduct, IsPinned: true, PinExpiry: &past}))
	require.NoError(t, s.Create(ctx, "s1", Listing{ID: "live-pin", Type: TypeProduct, IsPinned: true, PinExpiry: &future}))

	res, err := s.SweepExpired(ctx, "s1", now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DealsDeleted)
	assert.Equal(t, 1, res.PinsCleared)

	_, err = s.Get(ctx, "s1", "dead-deal")
	assert.Error(t, err)

	l, err := s.Get(ctx, "s1", "dead-pin")
	require.NoError(t, err)
	assert.False(t, l.IsPinned)
	assert.Nil(t, l.PinExpiry)

	l, err = s.Get(ctx, "s1", "live-pin")
	require.NoError(t, err)
	assert.True(t, l.IsPinned)
}

func TestListPinnedFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Create(ctx, "s1", Listing{ID: "old", CreatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, s.Create(ctx, "s1", Listing{ID: "new", CreatedAt: now}))
	require.NoError(t, s.Create(ctx, "s1", Listing{ID: "pinned", IsPinned: true, CreatedAt: now.Add(-24 * time.Hour)}))

	out, err := s.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "pinned", out[0].ID)
	assert.Equal(t, "new", out[1].ID)
	assert.Equal(t, "old", out[2].ID)
}
