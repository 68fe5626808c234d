package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
	"github.com/sudo-init-do/tradegrid/internal/shard"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore reads user rows from the per-shard users tables.
type PostgresStore struct {
	reg *shard.Registry
}

func NewPostgresStore(reg *shard.Registry) *PostgresStore {
	return &PostgresStore{reg: reg}
}

func (s *PostgresStore) Get(ctx context.Context, shardID, userID string) (User, error) {
	sh, err := s.reg.Get(shardID)
	if err != nil {
		return User{}, err
	}

	var u User
	err = sh.Pool.QueryRow(ctx,
		`SELECT id, display_name, short_id, verified, role, COALESCE(shard_id, '')
		 FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.DisplayName, &u.ShortID, &u.Verified, &u.Role, &u.ShardID)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, apperr.Wrap(apperr.ErrNotFound, "user %s not found", userID)
	}
	if err != nil {
		return User{}, fmt.Errorf("fetch user %s from %s: %w", userID, shardID, err)
	}
	return u, nil
}

func (s *PostgresStore) ShardAssignment(ctx context.Context, homeShardID, userID string) (string, error) {
	sh, err := s.reg.Get(homeShardID)
	if err != nil {
		return "", err
	}

	var assigned string
	err = sh.Pool.QueryRow(ctx,
		`SELECT COALESCE(shard_id, '') FROM users WHERE id = $1`, userID,
	).Scan(&assigned)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.Wrap(apperr.ErrNotFound, "user %s not in directory", userID)
	}
	if err != nil {
		return "", fmt.Errorf("fetch shard assignment for %s: %w", userID, err)
	}
	return assigned, nil
}
