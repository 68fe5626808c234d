package market

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps per-shard transaction tables in maps. The single mutex
// makes Create's duplicate check and insert one atomic step, mirroring the
// partial unique index the Postgres store relies on.
type MemoryStore struct {
	mu     sync.Mutex
	shards map[string]map[string]Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shards: make(map[string]map[string]Transaction)}
}

func (s *MemoryStore) Create(_ context.Context, shardID string, t Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shards[shardID] == nil {
		s.shards[shardID] = make(map[string]Transaction)
	}
	for _, existing := range s.shards[shardID] {
		if existing.AdID == t.AdID && existing.BuyerID == t.BuyerID &&
			(existing.Status == StatusPending || existing.Status == StatusCompleted) {
			return apperr.Wrap(apperr.ErrDuplicatePurchase, "buyer %s already claimed ad %s", t.BuyerID, t.AdID)
		}
	}
	s.shards[shardID][t.ID] = t
	return nil
}

func (s *MemoryStore) Get(_ context.Context, shardID, txnID string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.shards[shardID][txnID]
	if !ok {
		return Transaction{}, apperr.Wrap(apperr.ErrNotFound, "transaction %s not found", txnID)
	}
	return t, nil
}

func (s *MemoryStore) MarkCompleted(_ context.Context, shardID, txnID string, now time.Time) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.shards[shardID][txnID]
	if !ok {
		return Transaction{}, apperr.Wrap(apperr.ErrNotFound, "transaction %s not found", txnID)
	}
	if t.Status != StatusPending {
		return Transaction{}, apperr.Wrap(apperr.ErrInvalidState, "transaction %s is not pending", txnID)
	}
	t.Status = StatusCompleted
	t.UpdatedAt = now
	s.shards[shardID][txnID] = t
	return t, nil
}

func (s *MemoryStore) ListByBuyer(_ context.Context, shardID, buyerID string) ([]Transaction, error) {
	return s.filter(shardID, func(t Transaction) bool { return t.BuyerID == buyerID }), nil
}

func (s *MemoryStore) ListBySeller(_ context.Context, shardID, sellerID string) ([]Transaction, error) {
	return s.filter(shardID, func(t Transaction) bool { return t.SellerID == sellerID }), nil
}

func (s *MemoryStore) CountPending(_ context.Context, shardID, userID string) (int, error) {
	matches := s.filter(shardID, func(t Transaction) bool {
		return t.Status == StatusPending && (t.BuyerID == userID || t.SellerID == userID)
	})
	return len(matches), nil
}

func (s *MemoryStore) filter(shardID string, keep func(Transaction) bool) []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Transaction
	for _, t := range s.shards[shardID] {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
