package shard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the per-shard tables if they are missing. Every shard
// carries the same schema; only the home shard's users.shard_id column is
// authoritative.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			short_id TEXT NOT NULL DEFAULT '',
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			role TEXT NOT NULL DEFAULT 'normal',
			shard_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ads (
			id UUID PRIMARY KEY,
			seller_id UUID NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price NUMERIC(18,2) NOT NULL,
			original_price NUMERIC(18,2) NOT NULL DEFAULT 0,
			type TEXT NOT NULL,
			is_pinned BOOLEAN NOT NULL DEFAULT FALSE,
			pin_expiry TIMESTAMPTZ,
			deal_expiry TIMESTAMPTZ,
			image_path TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			user_id UUID PRIMARY KEY,
			pending_balance NUMERIC(18,2) NOT NULL DEFAULT 0,
			available_balance NUMERIC(18,2) NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			ad_id UUID NOT NULL,
			buyer_id UUID NOT NULL,
			seller_id UUID NOT NULL,
			amount NUMERIC(18,2) NOT NULL,
			commission NUMERIC(18,2) NOT NULL,
			status TEXT NOT NULL,
			payment_method TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Backstop for the purchase idempotency guard: one active claim per
		// (ad, buyer) pair, enforced by the storage layer itself.
		`CREATE UNIQUE INDEX IF NOT EXISTS transactions_active_claim
			ON transactions (ad_id, buyer_id)
			WHERE status IN ('pending', 'completed')`,
		`CREATE INDEX IF NOT EXISTS ads_deal_expiry ON ads (deal_expiry) WHERE deal_expiry IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS ads_pin_expiry ON ads (pin_expiry) WHERE is_pinned`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
