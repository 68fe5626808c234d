package locator

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// indexTTL bounds how long a mapping can go without being refreshed. Entries
// are verified on every use, so the TTL only limits garbage accumulation.
const indexTTL = 24 * time.Hour

// Index is a best-effort entity→shard cache in Redis. Every operation
// swallows errors: the fan-out path stays correct without it.
type Index struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewIndex(rdb *redis.Client, log *zap.Logger) *Index {
	return &Index{rdb: rdb, log: log}
}

func indexKey(kind, entityID string) string {
	return "shardloc:" + kind + ":" + entityID
}

// Hint returns the cached shard id, or "" when unknown.
func (i *Index) Hint(ctx context.Context, kind, entityID string) string {
	v, err := i.rdb.Get(ctx, indexKey(kind, entityID)).Result()
	if err != nil {
		if err != redis.Nil {
			i.log.Debug("locator index read failed", zap.Error(err))
		}
		return ""
	}
	return v
}

// Record remembers which shard owns an entity.
func (i *Index) Record(ctx context.Context, kind, entityID, shardID string) {
	if err := i.rdb.Set(ctx, indexKey(kind, entityID), shardID, indexTTL).Err(); err != nil {
		i.log.Debug("locator index write failed", zap.Error(err))
	}
}

// Forget drops a stale mapping.
func (i *Index) Forget(ctx context.Context, kind, entityID string) {
	if err := i.rdb.Del(ctx, indexKey(kind, entityID)).Err(); err != nil {
		i.log.Debug("locator index delete failed", zap.Error(err))
	}
}
