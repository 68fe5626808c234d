// Command sweep_now runs one expiry sweep across all shards and exits.
// Useful after bulk imports or when the background sweeper was down.
package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradegrid/internal/config"
	"github.com/sudo-init-do/tradegrid/internal/listing"
	"github.com/sudo-init-do/tradegrid/internal/logger"
	"github.com/sudo-init-do/tradegrid/internal/shard"
	"github.com/sudo-init-do/tradegrid/internal/sweeper"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	shards := make([]*shard.Shard, 0, len(cfg.ShardIDs))
	for _, id := range cfg.ShardIDs {
		pool, err := pgxpool.New(ctx, cfg.ShardDSN(id))
		if err != nil {
			log.Fatal("shard connect failed", zap.String("shard", id), zap.Error(err))
		}
		shards = append(shards, &shard.Shard{ID: id, Pool: pool})
	}
	reg, err := shard.NewRegistry(cfg.HomeShard, shards...)
	if err != nil {
		log.Fatal("registry init failed", zap.Error(err))
	}

	sw := sweeper.New(reg, listing.NewPostgresStore(reg), cfg.SweepInterval, log)
	res := sw.SweepAll(ctx, time.Now())
	log.Info("sweep finished",
		zap.Int("deals_deleted", res.DealsDeleted),
		zap.Int("pins_cleared", res.PinsCleared))
}
