package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradegrid/internal/config"
	"github.com/sudo-init-do/tradegrid/internal/directory"
	"github.com/sudo-init-do/tradegrid/internal/httpapi"
	"github.com/sudo-init-do/tradegrid/internal/listing"
	"github.com/sudo-init-do/tradegrid/internal/locator"
	"github.com/sudo-init-do/tradegrid/internal/logger"
	"github.com/sudo-init-do/tradegrid/internal/market"
	"github.com/sudo-init-do/tradegrid/internal/notify"
	"github.com/sudo-init-do/tradegrid/internal/objstore"
	"github.com/sudo-init-do/tradegrid/internal/shard"
	"github.com/sudo-init-do/tradegrid/internal/sweeper"
	"github.com/sudo-init-do/tradegrid/internal/user"
	"github.com/sudo-init-do/tradegrid/internal/wallet"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := buildRegistry(ctx, cfg, log)
	if err != nil {
		log.Fatal("shard registry init failed", zap.Error(err))
	}

	var (
		users      user.Store
		listings   listing.Store
		ledger     wallet.Ledger
		txns       market.Store
		locIndex   *locator.Index
		notifier   notify.Notifier
		workerStop = func() {}
	)

	if cfg.MemoryBackend {
		users = user.NewMemoryStore()
		listings = listing.NewMemoryStore()
		ledger = wallet.NewMemoryLedger()
		txns = market.NewMemoryStore()
		notifier = notify.NewLogNotifier(log)
		log.Warn("running on the in-memory backend; data will not survive a restart")
	} else {
		users = user.NewPostgresStore(reg)
		listings = listing.NewPostgresStore(reg)
		ledger = wallet.NewPostgresLedger(reg)
		txns = market.NewPostgresStore(reg)

		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		locIndex = locator.NewIndex(rdb, log)

		asynqNotifier := notify.NewAsynqNotifier(cfg.RedisAddr)
		defer asynqNotifier.Close()
		notifier = asynqNotifier

		worker := notify.NewWorker(cfg.RedisAddr, &notify.LogTransport{Log: log}, log)
		if err := worker.Start(); err != nil {
			log.Fatal("notification worker failed to start", zap.Error(err))
		}
		workerStop = worker.Shutdown
	}
	defer workerStop()

	loc := locator.New(reg, locIndex, log)
	dir := directory.NewResolver(reg, users, log)
	listingSvc := listing.NewService(reg, listings, loc, dir, log)
	engine := market.NewEngine(reg, txns, listingSvc, ledger, dir, users, loc,
		notifier, cfg.CommissionRate, cfg.SignedURLTTL, log)

	sw := sweeper.New(reg, listings, cfg.SweepInterval, log)
	go sw.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	h := &httpapi.Handler{Engine: engine, Listings: listingSvc, Log: log}
	h.Register(e, cfg.JWTSecret)

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()
	log.Info("server started",
		zap.String("addr", cfg.HTTPAddr),
		zap.Strings("shards", reg.IDs()),
		zap.String("home_shard", reg.Home().ID))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

// buildRegistry connects one pool per shard and binds the shared object
// store. The memory backend skips Postgres entirely.
func buildRegistry(ctx context.Context, cfg config.Config, log *zap.Logger) (*shard.Registry, error) {
	var objects objstore.Storage
	if cfg.MemoryBackend {
		objects = objstore.NewMemoryStorage()
	} else {
		s3, err := objstore.NewS3Storage(cfg.Storage)
		if err != nil {
			return nil, err
		}
		objects = s3
	}

	shards := make([]*shard.Shard, 0, len(cfg.ShardIDs))
	for _, id := range cfg.ShardIDs {
		var pool *pgxpool.Pool
		if !cfg.MemoryBackend {
			var err error
			pool, err = pgxpool.New(ctx, cfg.ShardDSN(id))
			if err != nil {
				return nil, err
			}
			if err := pool.Ping(ctx); err != nil {
				return nil, err
			}
			if err := shard.EnsureSchema(ctx, pool); err != nil {
				return nil, err
			}
			log.Info("shard connected", zap.String("shard", id))
		}
		shards = append(shards, &shard.Shard{
			ID:      id,
			Pool:    pool,
			Objects: objects,
			Bucket:  cfg.Storage.Bucket,
		})
	}
	return shard.NewRegistry(cfg.HomeShard, shards...)
}
