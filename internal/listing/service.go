package listing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
	"github.com/sudo-init-do/tradegrid/internal/directory"
	"github.com/sudo-init-do/tradegrid/internal/locator"
	"github.com/sudo-init-do/tradegrid/internal/shard"
)

// minDealDuration is the floor (and default) for deal listings.
const minDealDuration = time.Hour

// Service owns listing lifecycle: publish, pin, delete, discovery.
type Service struct {
	reg   *shard.Registry
	store Store
	loc   *locator.Locator
	dir   *directory.Resolver
	log   *zap.Logger
}

func NewService(reg *shard.Registry, store Store, loc *locator.Locator, dir *directory.Resolver, log *zap.Logger) *Service {
	return &Service{reg: reg, store: store, loc: loc, dir: dir, log: log}
}

// Publish creates a listing in the seller's shard. Deal listings get an
// expiry of now + dealDuration, clamped up to one hour.
func (s *Service) Publish(ctx context.Context, l Listing, dealDuration time.Duration) (Listing, error) {
	if l.Title == "" || !l.Price.IsPositive() {
		return Listing{}, apperr.Wrap(apperr.ErrInvalidInput, "title and a positive price are required")
	}
	switch l.Type {
	case TypeProduct, TypeDigital, TypeDeal:
	default:
		return Listing{}, apperr.Wrap(apperr.ErrInvalidInput, "unknown listing type %q", l.Type)
	}

	shardID, err := s.dir.ResolveUserShard(ctx, l.SellerID)
	if err != nil {
		return Listing{}, err
	}

	now := time.Now()
	l.ID = uuid.New().String()
	l.IsPinned = false
	l.PinExpiry = nil
	l.CreatedAt = now
	if l.Type == TypeDeal {
		if dealDuration < minDealDuration {
			dealDuration = minDealDuration
		}
		expiry := now.Add(dealDuration)
		l.DealExpiry = &expiry
	} else {
		l.DealExpiry = nil
	}

	if err := s.store.Create(ctx, shardID, l); err != nil {
		return Listing{}, err
	}
	s.loc.RecordLocation(ctx, locator.KindAd, l.ID, shardID)
	return l, nil
}

// Locate finds the shard holding an ad and returns both.
func (s *Service) Locate(ctx context.Context, adID string) (string, Listing, error) {
	var found Listing
	shardID, err := s.loc.Locate(ctx, locator.KindAd, adID, func(ctx context.Context, shardID string) (bool, error) {
		l, err := s.store.Get(ctx, shardID, adID)
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		found = l
		return true, nil
	})
	if err != nil {
		return "", Listing{}, err
	}
	return shardID, found, nil
}

// Pin marks a listing pinned for the given number of hours. Only the seller
// may pin their own listing.
func (s *Service) Pin(ctx context.Context, adID, callerID string, hours int) error {
	if hours <= 0 {
		return apperr.Wrap(apperr.ErrInvalidInput, "pin duration must be at least one hour")
	}
	shardID, l, err := s.Locate(ctx, adID)
	if err != nil {
		return err
	}
	if l.SellerID != callerID {
		return apperr.Wrap(apperr.ErrForbidden, "only the seller may pin this listing")
	}
	expiry := time.Now().Add(time.Duration(hours) * time.Hour)
	return s.store.SetPin(ctx, shardID, adID, expiry)
}

// Delete removes a listing. The caller must be the seller or an admin.
// Object-storage assets are removed best-effort first: a storage failure is
// logged for manual cleanup and never blocks the row deletion.
func (s *Service) Delete(ctx context.Context, adID, callerID string, isAdmin bool) error {
	shardID, l, err := s.Locate(ctx, adID)
	if err != nil {
		return err
	}
	if l.SellerID != callerID && !isAdmin {
		return apperr.Wrap(apperr.ErrForbidden, "only the seller or an admin may delete this listing")
	}

	sh, err := s.reg.Get(shardID)
	if err != nil {
		return err
	}
	for _, path := range []string{l.ImagePath, l.FilePath} {
		if path == "" || sh.Objects == nil {
			continue
		}
		if err := sh.Objects.Delete(ctx, sh.Bucket, path); err != nil {
			s.log.Error("orphaned object needs manual cleanup",
				zap.String("ad_id", adID),
				zap.String("shard", shardID),
				zap.String("path", path),
				zap.Error(err))
		}
	}

	if err := s.store.Delete(ctx, shardID, adID); err != nil {
		return err
	}
	s.loc.ForgetLocation(ctx, locator.KindAd, adID)
	return nil
}

// ListAll gathers listings from every shard, registry order.
func (s *Service) ListAll(ctx context.Context) ([]Listing, error) {
	var out []Listing
	for _, sh := range s.reg.All() {
		ls, err := s.store.List(ctx, sh.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ls...)
	}
	return out, nil
}
