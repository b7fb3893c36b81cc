package holdings

import (
	"context"
	"errors"
	"fmt"

	"coopshares-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// recentContributions bounds the contributions shown on the dashboard.
const recentContributions = 20

// Service reads a shareholder's positions.
type Service struct {
	DB *gorm.DB
}

// HoldingView is a holding with its cooperative and the shares the owner
// currently has reserved in active listings.
type HoldingView struct {
	domain.ShareHolding
	CooperativeName string `json:"cooperative_name"`
	PricePerShare   int64  `json:"price_per_share"`
	Listed          int64  `json:"listed"`
}

// ContributionView is a contribution with its project.
type ContributionView struct {
	domain.Contribution
	ProjectTitle  string               `json:"project_title"`
	ProjectStatus domain.ProjectStatus `json:"project_status"`
	CooperativeID uuid.UUID            `json:"cooperative_id"`
}

// Dashboard is the shareholder landing view.
type Dashboard struct {
	Holdings      []HoldingView      `json:"holdings"`
	Contributions []ContributionView `json:"contributions"`
}

// ViewHoldings returns the user's holdings ordered by cooperative name.
func (s *Service) ViewHoldings(ctx context.Context, userID uuid.UUID) ([]HoldingView, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidArgument)
	}
	var out []HoldingView
	err := s.DB.WithContext(ctx).
		Table("share_holdings AS h").
		Select("h.*, c.name AS cooperative_name, c.price_per_share, "+
			"COALESCE((SELECT SUM(l.quantity_available) FROM share_listings l "+
			"WHERE l.cooperative_id = h.cooperative_id AND l.seller_id = h.user_id AND l.status = ?), 0) AS listed",
			domain.ListingActive).
		Joins("JOIN cooperatives c ON c.cooperative_id = h.cooperative_id").
		Where("h.user_id = ?", userID).
		Order("c.name ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ViewHolding returns the user's holding in one cooperative.
func (s *Service) ViewHolding(ctx context.Context, userID, coopID uuid.UUID) (*domain.ShareHolding, error) {
	var h domain.ShareHolding
	err := s.DB.WithContext(ctx).Where("user_id = ? AND cooperative_id = ?", userID, coopID).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("holding %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ViewContributions returns the user's contributions newest first. limit <= 0
// returns all of them.
func (s *Service) ViewContributions(ctx context.Context, userID uuid.UUID, limit int) ([]ContributionView, error) {
	q := s.DB.WithContext(ctx).
		Table("contributions AS ct").
		Select("ct.*, p.title AS project_title, p.status AS project_status, p.cooperative_id").
		Joins("JOIN projects p ON p.project_id = ct.project_id").
		Where("ct.user_id = ?", userID).
		Order("ct.created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []ContributionView
	if err := q.Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ViewDashboard returns holdings and recent contributions.
func (s *Service) ViewDashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	hs, err := s.ViewHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	cs, err := s.ViewContributions(ctx, userID, recentContributions)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Holdings: hs, Contributions: cs}, nil
}
