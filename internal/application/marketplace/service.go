// Package marketplace executes share listings and trades. Every operation
// runs in one transaction behind one coordination key.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/infrastructure/coordination"
	"coopshares-backend/internal/infrastructure/ledger"
	"coopshares-backend/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service encapsulates marketplace operations.
type Service struct {
	DB     *gorm.DB
	Locker coordination.Locker
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// run takes key, then executes fn in a transaction.
func (s *Service) run(ctx context.Context, key string, fn func(tx *gorm.DB) error) error {
	release, err := coordination.Acquire(ctx, s.Locker, key)
	if err != nil {
		return err
	}
	defer release()
	return s.DB.WithContext(ctx).Transaction(fn)
}

// CreateListing reserves qty shares from the seller's holding and offers them
// at the cooperative's current price. The cooperative row stays locked until
// the listing is written so a concurrent price change cannot slip in between.
func (s *Service) CreateListing(ctx context.Context, actor domain.Actor, coopID uuid.UUID, qty int64) (*domain.ShareListing, error) {
	if !actor.Valid() {
		return nil, fmt.Errorf("create listing: %w", domain.ErrPermission)
	}
	if qty <= 0 {
		return nil, reject(domain.ErrInvalidQuantity)
	}

	var listing domain.ShareListing
	err := s.run(ctx, coordination.HoldingKey(coopID, actor.UserID), func(tx *gorm.DB) error {
		coop, err := ledger.LockCooperative(tx, coopID)
		if err != nil {
			return err
		}
		if err := ledger.DebitHolding(tx, coopID, actor.UserID, qty); err != nil {
			return err
		}
		now := s.now()
		listing = domain.ShareListing{
			CooperativeID:     coopID,
			SellerID:          actor.UserID,
			InitialQuantity:   qty,
			QuantityAvailable: qty,
			Status:            domain.ListingActive,
			PricePerShare:     coop.PricePerShare,
			CreatedAt:         now,
		}
		if err := tx.Create(&listing).Error; err != nil {
			return err
		}
		return ledger.RecordListingEvent(tx, listing.ListingID, domain.EventCreated, &actor.UserID, now, map[string]interface{}{
			"quantity":        qty,
			"price_per_share": listing.PricePerShare,
		})
	})
	if err != nil {
		return nil, reject(err)
	}
	observability.ListingTransitions.WithLabelValues(domain.EventCreated).Inc()
	return &listing, nil
}

// CancelListing returns the unsold remainder to the seller. Canceling a
// listing that is no longer active changes nothing.
func (s *Service) CancelListing(ctx context.Context, actor domain.Actor, listingID uuid.UUID) (*domain.ShareListing, error) {
	var listing *domain.ShareListing
	var canceled bool
	err := s.run(ctx, coordination.ListingKey(listingID), func(tx *gorm.DB) error {
		l, err := ledger.LockListing(tx, listingID)
		if err != nil {
			return err
		}
		listing = l
		if l.SellerID != actor.UserID {
			return fmt.Errorf("only the seller can cancel a listing: %w", domain.ErrPermission)
		}
		if l.Status != domain.ListingActive {
			return nil
		}
		released, err := ledger.CloseListing(tx, l, domain.ListingCanceled)
		if err != nil {
			return err
		}
		if released > 0 {
			if err := ledger.CreditHolding(tx, l.CooperativeID, l.SellerID, released); err != nil {
				return err
			}
		}
		canceled = true
		return ledger.RecordListingEvent(tx, l.ListingID, domain.EventCanceled, &actor.UserID, s.now(), map[string]interface{}{
			"released_quantity": released,
		})
	})
	if err != nil {
		return nil, reject(err)
	}
	if canceled {
		observability.ListingTransitions.WithLabelValues(domain.EventCanceled).Inc()
	}
	return listing, nil
}

// reject records a failed operation and returns err unchanged.
func reject(err error) error {
	observability.MarketplaceRejections.WithLabelValues(reason(err)).Inc()
	return err
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrInsufficientHolding):
		return "insufficient_holding"
	case errors.Is(err, domain.ErrInsufficientInventory):
		return "insufficient_inventory"
	case errors.Is(err, domain.ErrInsufficientQuantity):
		return "insufficient_quantity"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrSelfTrade):
		return "self_trade"
	case errors.Is(err, domain.ErrPermission):
		return "permission"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrConsistency):
		return "consistency"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, coordination.ErrNotObtained):
		return "busy"
	}
	return "internal"
}
