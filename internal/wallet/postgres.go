package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
	"github.com/sudo-init-do/tradegrid/internal/shard"
)

var _ Ledger = (*PostgresLedger)(nil)

// PostgresLedger stores wallets in each shard's wallets table.
type PostgresLedger struct {
	reg *shard.Registry
}

func NewPostgresLedger(reg *shard.Registry) *PostgresLedger {
	return &PostgresLedger{reg: reg}
}

func column(field Field) (string, error) {
	switch field {
	case FieldPending:
		return "pending_balance", nil
	case FieldAvailable:
		return "available_balance", nil
	default:
		return "", apperr.Wrap(apperr.ErrInvalidInput, "unknown balance field %q", field)
	}
}

func (l *PostgresLedger) Credit(ctx context.Context, shardID, userID string, field Field, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperr.Wrap(apperr.ErrInvalidInput, "credit amount must be non-negative")
	}
	col, err := column(field)
	if err != nil {
		return err
	}
	sh, err := l.reg.Get(shardID)
	if err != nil {
		return err
	}
	// Single-statement upsert keeps the increment atomic per row.
	_, err = sh.Pool.Exec(ctx, fmt.Sprintf(
		`INSERT INTO wallets (user_id, %s) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET %s = wallets.%s + EXCLUDED.%s`,
		col, col, col, col),
		userID, amount)
	if err != nil {
		return fmt.Errorf("credit %s of %s in %s: %w", field, userID, shardID, err)
	}
	return nil
}

func (l *PostgresLedger) Debit(ctx context.Context, shardID, userID string, field Field, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperr.Wrap(apperr.ErrInvalidInput, "debit amount must be non-negative")
	}
	col, err := column(field)
	if err != nil {
		return err
	}
	sh, err := l.reg.Get(shardID)
	if err != nil {
		return err
	}
	tag, err := sh.Pool.Exec(ctx, fmt.Sprintf(
		`UPDATE wallets SET %s = %s - $2 WHERE user_id = $1 AND %s >= $2`, col, col, col),
		userID, amount)
	if err != nil {
		return fmt.Errorf("debit %s of %s in %s: %w", field, userID, shardID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrap(apperr.ErrInvalidState, "debit would overdraw %s balance of %s", field, userID)
	}
	return nil
}

func (l *PostgresLedger) Read(ctx context.Context, shardID, userID string) (Wallet, error) {
	sh, err := l.reg.Get(shardID)
	if err != nil {
		return Wallet{}, err
	}
	w := Wallet{UserID: userID}
	err = sh.Pool.QueryRow(ctx,
		`SELECT pending_balance, available_balance FROM wallets WHERE user_id = $1`,
		userID).Scan(&w.Pending, &w.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lazily create the zero wallet so later reads and upserts agree.
		_, err = sh.Pool.Exec(ctx,
			`INSERT INTO wallets (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
		if err != nil {
			return Wallet{}, fmt.Errorf("create wallet for %s in %s: %w", userID, shardID, err)
		}
		w.Pending = decimal.Zero
		w.Available = decimal.Zero
		return w, nil
	}
	if err != nil {
		return Wallet{}, fmt.Errorf("read wallet of %s in %s: %w", userID, shardID, err)
	}
	return w, nil
}

// Settle runs the escrow release as one transaction so a crash can never
// leave pending debited without the matching available credit.
func (l *PostgresLedger) Settle(ctx context.Context, shardID, userID string, debitPending, creditAvailable decimal.Decimal) error {
	if debitPending.IsNegative() || creditAvailable.IsNegative() {
		return apperr.Wrap(apperr.ErrInvalidInput, "settle amounts must be non-negative")
	}
	sh, err := l.reg.Get(shardID)
	if err != nil {
		return err
	}

	tx, err := sh.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("settle begin in %s: %w", shardID, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE wallets SET pending_balance = pending_balance - $2
		 WHERE user_id = $1 AND pending_balance >= $2`,
		userID, debitPending)
	if err != nil {
		return fmt.Errorf("settle debit for %s in %s: %w", userID, shardID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrap(apperr.ErrInvalidState, "settle would overdraw pending balance of %s", userID)
	}

	_, err = tx.Exec(ctx,
		`UPDATE wallets SET available_balance = available_balance + $2 WHERE user_id = $1`,
		userID, creditAvailable)
	if err != nil {
		return fmt.Errorf("settle credit for %s in %s: %w", userID, shardID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("settle commit for %s in %s: %w", userID, shardID, err)
	}
	return nil
}
