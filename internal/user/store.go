package user

import "context"

// Store reads users from a shard's user table.
type Store interface {
	// Get returns the user row stored in the given shard.
	Get(ctx context.Context, shardID, userID string) (User, error)

	// ShardAssignment returns the shard assignment recorded for the user in
	// the given (home) shard. Empty string means no explicit assignment.
	ShardAssignment(ctx context.Context, homeShardID, userID string) (string, error)
}
