// Package directory resolves users to their owning shard. The home shard
// holds the only authoritative user→shard mapping; resolutions always re-read
// it so a migrated user is never served from a stale assignment.
package directory

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
	"github.com/sudo-init-do/tradegrid/internal/shard"
	"github.com/sudo-init-do/tradegrid/internal/user"
)

// Resolver answers "which shard owns this user".
type Resolver struct {
	reg   *shard.Registry
	users user.Store
	log   *zap.Logger
}

func NewResolver(reg *shard.Registry, users user.Store, log *zap.Logger) *Resolver {
	return &Resolver{reg: reg, users: users, log: log}
}

// ResolveUserShard returns the id of the shard holding the user's data.
// A user without an explicit assignment lives on the home shard. An
// unreachable home shard surfaces as a retryable LookupError.
func (r *Resolver) ResolveUserShard(ctx context.Context, userID string) (string, error) {
	home := r.reg.Home()

	assigned, err := r.users.ShardAssignment(ctx, home.ID, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", err
		}
		r.log.Warn("home shard lookup failed",
			zap.String("user_id", userID),
			zap.String("home_shard", home.ID),
			zap.Error(err))
		return "", apperr.Wrap(apperr.ErrLookup, "resolve shard for user %s: home shard unreachable", userID)
	}
	if assigned == "" {
		return home.ID, nil
	}
	if _, err := r.reg.Get(assigned); err != nil {
		// Directory points at a shard this process does not know. Treat as
		// retryable so a redeploy with the full registry can heal it.
		return "", apperr.Wrap(apperr.ErrLookup, "user %s assigned to unknown shard %s", userID, assigned)
	}
	return assigned, nil
}
