package marketplace

import (
	"context"
	"errors"
	"fmt"

	"coopshares-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListActiveListings returns open listings in fill order. A nil cooperative
// lists every cooperative.
func (s *Service) ListActiveListings(ctx context.Context, coopID uuid.UUID) ([]domain.ShareListing, error) {
	q := s.DB.WithContext(ctx).Where("status = ? AND quantity_available > 0", domain.ListingActive)
	if coopID != uuid.Nil {
		q = q.Where("cooperative_id = ?", coopID)
	}
	var listings []domain.ShareListing
	if err := q.Order("created_at ASC").Order("listing_id ASC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// GetListing returns one listing.
func (s *Service) GetListing(ctx context.Context, listingID uuid.UUID) (*domain.ShareListing, error) {
	var l domain.ShareListing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("listing %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return &l, nil
}

// ListSellerListings returns every listing of a seller, newest first.
func (s *Service) ListSellerListings(ctx context.Context, sellerID uuid.UUID) ([]domain.ShareListing, error) {
	var listings []domain.ShareListing
	err := s.DB.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

// ListTrades returns trades where the user bought or sold, newest first.
func (s *Service) ListTrades(ctx context.Context, userID uuid.UUID) ([]domain.ShareTrade, error) {
	var trades []domain.ShareTrade
	err := s.DB.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").Order("trade_id ASC").
		Find(&trades).Error
	return trades, err
}

// ListListingEvents returns the audit trail of a listing, oldest first.
func (s *Service) ListListingEvents(ctx context.Context, listingID uuid.UUID) ([]domain.ListingEvent, error) {
	var events []domain.ListingEvent
	err := s.DB.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
