package user

import (
	"context"
	"sync"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps per-shard user tables in maps. Used by tests and the
// memory backend.
type MemoryStore struct {
	mu     sync.RWMutex
	shards map[string]map[string]User

	// Unreachable simulates an unreachable shard; reads against it fail.
	Unreachable map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shards:      make(map[string]map[string]User),
		Unreachable: make(map[string]bool),
	}
}

// Put seeds a user row into a shard.
func (s *MemoryStore) Put(shardID string, u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shards[shardID] == nil {
		s.shards[shardID] = make(map[string]User)
	}
	s.shards[shardID][u.ID] = u
}

func (s *MemoryStore) Get(_ context.Context, shardID, userID string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Unreachable[shardID] {
		return User{}, apperr.Wrap(apperr.ErrLookup, "shard %s unreachable", shardID)
	}
	u, ok := s.shards[shardID][userID]
	if !ok {
		return User{}, apperr.Wrap(apperr.ErrNotFound, "user %s not found", userID)
	}
	return u, nil
}

func (s *MemoryStore) ShardAssignment(_ context.Context, homeShardID, userID string) (string, error) {
	u, err := s.Get(context.Background(), homeShardID, userID)
	if err != nil {
		return "", err
	}
	return u.ShardID, nil
}
