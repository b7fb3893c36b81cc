package listingevents

import (
	"context"
	"fmt"

	"coopshares-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// GetSellerListingEvents returns the audit trail of every listing the seller
// created, oldest first. coopID narrows it to one cooperative when set.
func (s *Service) GetSellerListingEvents(ctx context.Context, sellerID, coopID uuid.UUID) ([]domain.ListingEvent, error) {
	if sellerID == uuid.Nil {
		return nil, fmt.Errorf("seller id is required: %w", domain.ErrInvalidArgument)
	}
	q := s.DB.WithContext(ctx).
		Table("listing_events AS e").
		Select("e.*").
		Joins("JOIN share_listings l ON l.listing_id = e.listing_id").
		Where("l.seller_id = ?", sellerID)
	if coopID != uuid.Nil {
		q = q.Where("l.cooperative_id = ?", coopID)
	}
	var events []domain.ListingEvent
	if err := q.Order("e.created_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
