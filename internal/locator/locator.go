// Package locator finds the shard owning an entity when the caller does not
// know it in advance. The primary mechanism is brute-force fan-out over the
// registry; a best-effort Redis index short-cuts the common case and is
// repaired from fan-out results.
package locator

import (
	"context"

	"go.uber.org/zap"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
	"github.com/sudo-init-do/tradegrid/internal/shard"
)

// Entity kinds tracked by the locator and its index.
const (
	KindAd          = "ad"
	KindTransaction = "txn"
)

// Probe checks a single shard for the entity. It reports found=true when the
// shard owns the entity; the probe closure captures the loaded record.
type Probe func(ctx context.Context, shardID string) (found bool, err error)

// Locator fans out entity lookups across all shards.
type Locator struct {
	reg   *shard.Registry
	index *Index // nil disables the secondary index
	log   *zap.Logger
}

func New(reg *shard.Registry, index *Index, log *zap.Logger) *Locator {
	return &Locator{reg: reg, index: index, log: log}
}

// Locate returns the id of the shard owning the entity. Shards are probed in
// registry order and the first hit wins. NotFound is only reported once every
// shard has been tried; if any probe errored and none matched, the result is
// a retryable LookupError instead of a false negative.
func (l *Locator) Locate(ctx context.Context, kind, entityID string, probe Probe) (string, error) {
	// Index hint first; a hit skips the fan-out entirely. The hint is always
	// verified by the probe, so a stale index can never misroute.
	hinted := ""
	var probeErr error
	if l.index != nil {
		if hint := l.index.Hint(ctx, kind, entityID); hint != "" {
			if _, err := l.reg.Get(hint); err == nil {
				found, err := probe(ctx, hint)
				if err == nil && found {
					return hint, nil
				}
				if err != nil {
					// The entity may live on the failing shard; remember the
					// error so a clean miss everywhere else stays retryable.
					l.log.Warn("hinted shard probe failed",
						zap.String("kind", kind),
						zap.String("entity_id", entityID),
						zap.String("shard", hint),
						zap.Error(err))
					probeErr = err
				}
				hinted = hint
				l.index.Forget(ctx, kind, entityID)
			}
		}
	}

	for _, sh := range l.reg.All() {
		if sh.ID == hinted {
			continue // already tried via the hint
		}
		found, err := probe(ctx, sh.ID)
		if err != nil {
			l.log.Warn("shard probe failed",
				zap.String("kind", kind),
				zap.String("entity_id", entityID),
				zap.String("shard", sh.ID),
				zap.Error(err))
			probeErr = err
			continue
		}
		if found {
			if l.index != nil {
				l.index.Record(ctx, kind, entityID, sh.ID)
			}
			return sh.ID, nil
		}
	}

	if probeErr != nil {
		return "", apperr.Wrap(apperr.ErrLookup, "locate %s %s: one or more shards unreachable", kind, entityID)
	}
	return "", apperr.Wrap(apperr.ErrNotFound, "%s %s not found in any shard", kind, entityID)
}

// RecordLocation seeds the secondary index when the owning shard is known at
// create time. No-op without an index.
func (l *Locator) RecordLocation(ctx context.Context, kind, entityID, shardID string) {
	if l.index != nil {
		l.index.Record(ctx, kind, entityID, shardID)
	}
}

// ForgetLocation drops the index entry after an entity is deleted.
func (l *Locator) ForgetLocation(ctx context.Context, kind, entityID string) {
	if l.index != nil {
		l.index.Forget(ctx, kind, entityID)
	}
}
