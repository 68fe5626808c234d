package directory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
	"github.com/sudo-init-do/tradegrid/internal/directory"
	"github.com/sudo-init-do/tradegrid/internal/shard"
	"github.com/sudo-init-do/tradegrid/internal/user"
)

func newResolver(t *testing.T) (*directory.Resolver, *user.MemoryStore) {
	t.Helper()
	reg, err := shard.NewRegistry("home",
		&shard.Shard{ID: "home"}, &shard.Shard{ID: "s2"})
	require.NoError(t, err)
	users := user.NewMemoryStore()
	return directory.NewResolver(reg, users, zap.NewNop()), users
}

func TestResolveAssignedShard(t *testing.T) {
	r, users := newResolver(t)
	users.Put("home", user.User{ID: "u1", ShardID: "s2"})

	got, err := r.ResolveUserShard(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "s2", got)
}

func TestResolveDefaultsToHome(t *testing.T) {
	r, users := newResolver(t)
	users.Put("home", user.User{ID: "u1"})

	got, err := r.ResolveUserShard(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "home", got)
}

func TestResolveUnknownUser(t *testing.T) {
	r, _ := newResolver(t)
	_, err := r.ResolveUserShard(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolveUnreachableHomeIsRetryable(t *testing.T) {
	r, users := newResolver(t)
	users.Unreachable["home"] = true

	_, err := r.ResolveUserShard(context.Background(), "u1")
	assert.ErrorIs(t, err, apperr.ErrLookup)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolveUnknownAssignmentIsRetryable(t *testing.T) {
	r, users := newResolver(t)
	users.Put("home", user.User{ID: "u1", ShardID: "decommissioned"})

	_, err := r.ResolveUserShard(context.Background(), "u1")
	assert.ErrorIs(t, err, apperr.ErrLookup)
}
