package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
	"github.com/sudo-init-do/tradegrid/internal/shard"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore persists listings in each shard's ads table.
type PostgresStore struct {
	reg *shard.Registry
}

func NewPostgresStore(reg *shard.Registry) *PostgresStore {
	return &PostgresStore{reg: reg}
}

const listingColumns = `id, seller_id, title, description, price, original_price, type,
	is_pinned, pin_expiry, deal_expiry, image_path, file_path, created_at`

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	err := row.Scan(&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Price,
		&l.OriginalPrice, &l.Type, &l.IsPinned, &l.PinExpiry, &l.DealExpiry,
		&l.ImagePath, &l.FilePath, &l.CreatedAt)
	return l, err
}

func (s *PostgresStore) Create(ctx context.Context, shardID string, l Listing) error {
	sh, err := s.reg.Get(shardID)
	if err != nil {
		return err
	}
	_, err = sh.Pool.Exec(ctx,
		`INSERT INTO ads (`+listingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		l.ID, l.SellerID, l.Title, l.Description, l.Price, l.OriginalPrice,
		l.Type, l.IsPinned, l.PinExpiry, l.DealExpiry, l.ImagePath, l.FilePath,
		l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ad %s into %s: %w", l.ID, shardID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, shardID, adID string) (Listing, error) {
	sh, err := s.reg.Get(shardID)
	if err != nil {
		return Listing{}, err
	}
	l, err := scanListing(sh.Pool.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM ads WHERE id = $1`, adID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Listing{}, apperr.Wrap(apperr.ErrNotFound, "ad %s not found", adID)
	}
	if err != nil {
		return Listing{}, fmt.Errorf("fetch ad %s from %s: %w", adID, shardID, err)
	}
	return l, nil
}

func (s *PostgresStore) List(ctx context.Context, shardID string) ([]Listing, error) {
	sh, err := s.reg.Get(shardID)
	if err != nil {
		return nil, err
	}
	rows, err := sh.Pool.Query(ctx,
		`SELECT `+listingColumns+` FROM ads ORDER BY is_pinned DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list ads in %s: %w", shardID, err)
	}
	defer rows.Close()

	var out []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ad row in %s: %w", shardID, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetPin(ctx context.Context, shardID, adID string, expiry time.Time) error {
	sh, err := s.reg.Get(shardID)
	if err != nil {
		return err
	}
	tag, err := sh.Pool.Exec(ctx,
		`UPDATE ads SET is_pinned = TRUE, pin_expiry = $2 WHERE id = $1`, adID, expiry)
	if err != nil {
		return fmt.Errorf("pin ad %s in %s: %w", adID, shardID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrap(apperr.ErrNotFound, "ad %s not found", adID)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, shardID, adID string) error {
	sh, err := s.reg.Get(shardID)
	if err != nil {
		return err
	}
	tag, err := sh.Pool.Exec(ctx, `DELETE FROM ads WHERE id = $1`, adID)
	if err != nil {
		return fmt.Errorf("delete ad %s in %s: %w", adID, shardID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrap(apperr.ErrNotFound, "ad %s not found", adID)
	}
	return nil
}

func (s *PostgresStore) SweepExpired(ctx context.Context, shardID string, now time.Time) (SweepResult, error) {
	sh, err := s.reg.Get(shardID)
	if err != nil {
		return SweepResult{}, err
	}

	var res SweepResult
	tag, err := sh.Pool.Exec(ctx,
		`DELETE FROM ads WHERE type = $1 AND deal_expiry IS NOT NULL AND deal_expiry < $2`,
		TypeDeal, now)
	if err != nil {
		return res, fmt.Errorf("sweep deals in %s: %w", shardID, err)
	}
	res.DealsDeleted = int(tag.RowsAffected())

	tag, err = sh.Pool.Exec(ctx,
		`UPDATE ads SET is_pinned = FALSE, pin_expiry = NULL
		 WHERE is_pinned = TRUE AND pin_expiry IS NOT NULL AND pin_expiry < $1`, now)
	if err != nil {
		return res, fmt.Errorf("sweep pins in %s: %w", shardID, err)
	}
	res.PinsCleared = int(tag.RowsAffected())
	return res, nil
}
