// Package shard defines the static shard registry. Every user and the
// entities they own live in exactly one shard; the registry binds each shard
// id to its Postgres pool and object-storage handle.
package shard

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
	"github.com/sudo-init-do/tradegrid/internal/objstore"
)

// Shard is one partition. Immutable once the registry is built.
type Shard struct {
	ID      string
	Pool    *pgxpool.Pool
	Objects objstore.Storage
	Bucket  string
}

// Registry is the ordered, immutable set of shards. Iteration order is the
// construction order, which keeps fan-out deterministic.
type Registry struct {
	order  []*Shard
	byID   map[string]*Shard
	homeID string
}

// NewRegistry builds a registry. homeID designates the shard holding the
// authoritative user directory and must be one of the given shards.
func NewRegistry(homeID string, shards ...*Shard) (*Registry, error) {
	if len(shards) == 0 {
		return nil, fmt.Errorf("registry needs at least one shard")
	}
	r := &Registry{
		order:  make([]*Shard, 0, len(shards)),
		byID:   make(map[string]*Shard, len(shards)),
		homeID: homeID,
	}
	for _, s := range shards {
		if s.ID == "" {
			return nil, fmt.Errorf("shard id must not be empty")
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate shard id %q", s.ID)
		}
		r.order = append(r.order, s)
		r.byID[s.ID] = s
	}
	if _, ok := r.byID[homeID]; !ok {
		return nil, fmt.Errorf("home shard %q is not in the registry", homeID)
	}
	return r, nil
}

// All returns the shards in stable iteration order.
func (r *Registry) All() []*Shard {
	out := make([]*Shard, len(r.order))
	copy(out, r.order)
	return out
}

// IDs returns the shard ids in iteration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	for i, s := range r.order {
		out[i] = s.ID
	}
	return out
}

// Get resolves a shard id to its handle.
func (r *Registry) Get(id string) (*Shard, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, apperr.Wrap(apperr.ErrNotFound, "unknown shard %q", id)
	}
	return s, nil
}

// Home returns the shard holding the global user directory.
func (r *Registry) Home() *Shard {
	return r.byID[r.homeID]
}
