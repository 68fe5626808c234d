package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
	"github.com/sudo-init-do/tradegrid/internal/shard"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore persists transactions in each shard's transactions table.
// The schema carries a partial unique index on (ad_id, buyer_id) over active
// statuses, so a duplicate insert loses even if it slips past the guard:
//
//	CREATE UNIQUE INDEX transactions_active_claim
//	ON transactions (ad_id, buyer_id)
//	WHERE status IN ('pending', 'completed');
type PostgresStore struct {
	reg *shard.Registry
}

func NewPostgresStore(reg *shard.Registry) *PostgresStore {
	return &PostgresStore{reg: reg}
}

const txnColumns = `id, ad_id, buyer_id, seller_id, amount, commission, status,
	payment_method, created_at, updated_at`

func scanTxn(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.AdID, &t.BuyerID, &t.SellerID, &t.Amount,
		&t.Commission, &t.Status, &t.PaymentMethod, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *PostgresStore) Create(ctx context.Context, shardID string, t Transaction) error {
	sh, err := s.reg.Get(shardID)
	if err != nil {
		return err
	}
	tag, err := sh.Pool.Exec(ctx,
		`INSERT INTO transactions (`+txnColumns+`)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		 WHERE NOT EXISTS (
			SELECT 1 FROM transactions
			WHERE ad_id = $2 AND buyer_id = $3 AND status IN ('pending', 'completed')
		 )`,
		t.ID, t.AdID, t.BuyerID, t.SellerID, t.Amount, t.Commission, t.Status,
		t.PaymentMethod, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Wrap(apperr.ErrDuplicatePurchase, "buyer %s already claimed ad %s", t.BuyerID, t.AdID)
		}
		return fmt.Errorf("insert transaction %s into %s: %w", t.ID, shardID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrap(apperr.ErrDuplicatePurchase, "buyer %s already claimed ad %s", t.BuyerID, t.AdID)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, shardID, txnID string) (Transaction, error) {
	sh, err := s.reg.Get(shardID)
	if err != nil {
		return Transaction{}, err
	}
	t, err := scanTxn(sh.Pool.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE id = $1`, txnID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, apperr.Wrap(apperr.ErrNotFound, "transaction %s not found", txnID)
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("fetch transaction %s from %s: %w", txnID, shardID, err)
	}
	return t, nil
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, shardID, txnID string, now time.Time) (Transaction, error) {
	sh, err := s.reg.Get(shardID)
	if err != nil {
		return Transaction{}, err
	}
	// Compare-and-set on status makes the transition one-shot under races.
	t, err := scanTxn(sh.Pool.QueryRow(ctx,
		`UPDATE transactions SET status = 'completed', updated_at = $2
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+txnColumns, txnID, now))
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish missing from already settled.
		if _, getErr := s.Get(ctx, shardID, txnID); getErr != nil {
			return Transaction{}, getErr
		}
		return Transaction{}, apperr.Wrap(apperr.ErrInvalidState, "transaction %s is not pending", txnID)
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("complete transaction %s in %s: %w", txnID, shardID, err)
	}
	return t, nil
}

func (s *PostgresStore) ListByBuyer(ctx context.Context, shardID, buyerID string) ([]Transaction, error) {
	return s.list(ctx, shardID, `buyer_id = $1`, buyerID)
}

func (s *PostgresStore) ListBySeller(ctx context.Context, shardID, sellerID string) ([]Transaction, error) {
	return s.list(ctx, shardID, `seller_id = $1`, sellerID)
}

func (s *PostgresStore) list(ctx context.Context, shardID, where, arg string) ([]Transaction, error) {
	sh, err := s.reg.Get(shardID)
	if err != nil {
		return nil, err
	}
	rows, err := sh.Pool.Query(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("list transactions in %s: %w", shardID, err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row in %s: %w", shardID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountPending(ctx context.Context, shardID, userID string) (int, error) {
	sh, err := s.reg.Get(shardID)
	if err != nil {
		return 0, err
	}
	var n int
	err = sh.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions
		 WHERE status = 'pending' AND (buyer_id = $1 OR seller_id = $1)`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending in %s: %w", shardID, err)
	}
	return n, nil
}
