// Package config collects runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds every knob the service reads at startup.
type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	JWTSecret string

	// ShardIDs is the ordered set of shard identifiers; the first entry in
	// SHARD_IDS is iteration order for fan-out. HomeShard must be a member.
	ShardIDs  []string
	HomeShard string

	CommissionRate decimal.Decimal
	SweepInterval  time.Duration
	SignedURLTTL   time.Duration

	RedisAddr string

	Storage StorageConfig

	// MemoryBackend switches every shard store to the in-memory backend.
	// Meant for local runs and tests; production uses Postgres.
	MemoryBackend bool
}

// StorageConfig configures the S3-compatible object store.
type StorageConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// Load reads .env (if present) and assembles the configuration.
func Load() Config {
	_ = godotenv.Load()

	rate, err := decimal.NewFromString(getenv("COMMISSION_RATE", "0.02"))
	if err != nil || rate.IsNegative() {
		rate = decimal.NewFromFloat(0.02)
	}

	ids := splitList(getenv("SHARD_IDS", "shard1,shard2,shard3"))
	home := getenv("HOME_SHARD", ids[0])

	return Config{
		Env:            getenv("APP_ENV", "development"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		HTTPAddr:       ":" + getenv("PORT", "8080"),
		JWTSecret:      getenv("JWT_SECRET", "supersecret"),
		ShardIDs:       ids,
		HomeShard:      home,
		CommissionRate: rate,
		SweepInterval:  durenv("SWEEP_INTERVAL_SECONDS", 300),
		SignedURLTTL:   durenv("SIGNED_URL_TTL_SECONDS", 300),
		RedisAddr:      getenv("REDIS_ADDR", "127.0.0.1:6379"),
		Storage: StorageConfig{
			Endpoint:     getenv("STORAGE_ENDPOINT", "http://localhost:9000"),
			Region:       getenv("STORAGE_REGION", "us-east-1"),
			Bucket:       getenv("STORAGE_BUCKET", "tradegrid"),
			AccessKey:    os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:    os.Getenv("STORAGE_SECRET_KEY"),
			UsePathStyle: boolenv("STORAGE_PATH_STYLE", true),
		},
		MemoryBackend: boolenv("MEMORY_BACKEND", false),
	}
}

// ShardDSN returns the Postgres DSN for a shard, e.g. SHARD1_DSN for "shard1".
// Falls back to assembling one from the shared DB_* variables with a per-shard
// database name.
func (c Config) ShardDSN(id string) string {
	key := strings.ToUpper(strings.ReplaceAll(id, "-", "_")) + "_DSN"
	if dsn := os.Getenv(key); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		getenv("DB_USER", "postgres"),
		getenv("DB_PASSWORD", "postgres"),
		getenv("DB_HOST", "localhost"),
		getenv("DB_PORT", "5432"),
		id,
	)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func boolenv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durenv(key string, defSec int) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return time.Duration(defSec) * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return time.Duration(defSec) * time.Second
	}
	return time.Duration(n) * time.Second
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = []string{"shard1"}
	}
	return out
}
