package listing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps per-shard ads tables in maps. Used by tests and the
// memory backend.
type MemoryStore struct {
	mu     sync.RWMutex
	shards map[string]map[string]Listing
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shards: make(map[string]map[string]Listing)}
}

func (s *MemoryStore) Create(_ context.Context, shardID string, l Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shards[shardID] == nil {
		s.shards[shardID] = make(map[string]Listing)
	}
	s.shards[shardID][l.ID] = l
	return nil
}

func (s *MemoryStore) Get(_ context.Context, shardID, adID string) (Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.shards[shardID][adID]
	if !ok {
		return Listing{}, apperr.Wrap(apperr.ErrNotFound, "ad %s not found", adID)
	}
	return l, nil
}

func (s *MemoryStore) List(_ context.Context, shardID string) ([]Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Listing, 0, len(s.shards[shardID]))
	for _, l := range s.shards[shardID] {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) SetPin(_ context.Context, shardID, adID string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.shards[shardID][adID]
	if !ok {
		return apperr.Wrap(apperr.ErrNotFound, "ad %s not found", adID)
	}
	l.IsPinned = true
	l.PinExpiry = &expiry
	s.shards[shardID][adID] = l
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, shardID, adID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shards[shardID][adID]; !ok {
		return apperr.Wrap(apperr.ErrNotFound, "ad %s not found", adID)
	}
	delete(s.shards[shardID], adID)
	return nil
}

func (s *MemoryStore) SweepExpired(_ context.Context, shardID string, now time.Time) (SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res SweepResult
	for id, l := range s.shards[shardID] {
		if l.Type == TypeDeal && l.DealExpiry != nil && l.DealExpiry.Before(now) {
			delete(s.shards[shardID], id)
			res.DealsDeleted++
			continue
		}
		if l.IsPinned && l.PinExpiry != nil && l.PinExpiry.Before(now) {
			l.IsPinned = false
			l.PinExpiry = nil
			s.shards[shardID][id] = l
			res.PinsCleared++
		}
	}
	return res, nil
}
