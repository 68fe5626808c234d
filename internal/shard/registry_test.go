package shard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
	"github.com/sudo-init-do/tradegrid/internal/shard"
)

func TestRegistryIterationOrderIsStable(t *testing.T) {
	reg, err := shard.NewRegistry("b",
		&shard.Shard{ID: "b"}, &shard.Shard{ID: "a"}, &shard.Shard{ID: "c"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, reg.IDs())
	assert.Equal(t, "b", reg.Home().ID)
}

func TestRegistryGet(t *testing.T) {
	reg, err := shard.NewRegistry("s1", &shard.Shard{ID: "s1"})
	require.NoError(t, err)

	sh, err := reg.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sh.ID)

	_, err = reg.Get("nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRegistryRejectsBadInput(t *testing.T) {
	_, err := shard.NewRegistry("s1")
	assert.Error(t, err)

	_, err = shard.NewRegistry("s1", &shard.Shard{ID: "s1"}, &shard.Shard{ID: "s1"})
	assert.Error(t, err)

	_, err = shard.NewRegistry("missing", &shard.Shard{ID: "s1"})
	assert.Error(t, err)

	_, err = shard.NewRegistry("s1", &shard.Shard{ID: ""})
	assert.Error(t, err)
}
