package coops

import (
	"context"

	"coopshares-backend/internal/domain"

	"github.com/google/uuid"
)

// Summary is a point-in-time view of where a cooperative's shares sit.
type Summary struct {
	Cooperative     domain.Cooperative `json:"cooperative"`
	HeldByMembers   int64              `json:"held_by_members"`
	ListedForSale   int64              `json:"listed_for_sale"`
	Shareholders    int64              `json:"shareholders"`
	ActiveListings  int64              `json:"active_listings"`
	TradeCount      int64              `json:"trade_count"`
	SharesTraded    int64              `json:"shares_traded"`
	TradeVolume     int64              `json:"trade_volume"`
	PrimarySold     int64              `json:"primary_sold"`
	ProjectsDone    int64              `json:"projects_done"`
	ProjectsRunning int64              `json:"projects_running"`
}

// Summarize collects the share distribution of one cooperative.
func (s *Service) Summarize(ctx context.Context, coopID uuid.UUID) (*Summary, error) {
	db := s.DB.WithContext(ctx)
	coop, err := s.Get(ctx, coopID)
	if err != nil {
		return nil, err
	}
	out := Summary{Cooperative: *coop}

	var held struct {
		Total int64
		Count int64
	}
	if err := db.Model(&domain.ShareHolding{}).
		Select("COALESCE(SUM(quantity), 0) AS total, COUNT(CASE WHEN quantity > 0 THEN 1 END) AS count").
		Where("cooperative_id = ?", coopID).Scan(&held).Error; err != nil {
		return nil, err
	}
	out.HeldByMembers, out.Shareholders = held.Total, held.Count

	var listed struct {
		Total int64
		Count int64
	}
	if err := db.Model(&domain.ShareListing{}).
		Select("COALESCE(SUM(quantity_available), 0) AS total, COUNT(*) AS count").
		Where("cooperative_id = ? AND status = ?", coopID, domain.ListingActive).Scan(&listed).Error; err != nil {
		return nil, err
	}
	out.ListedForSale, out.ActiveListings = listed.Total, listed.Count

	var trades struct {
		Count       int64
		Shares      int64
		Volume      int64
		PrimarySold int64
	}
	if err := db.Model(&domain.ShareTrade{}).
		Select("COUNT(*) AS count, COALESCE(SUM(quantity), 0) AS shares, COALESCE(SUM(total_price), 0) AS volume, "+
			"COALESCE(SUM(CASE WHEN seller_id IS NULL THEN quantity ELSE 0 END), 0) AS primary_sold").
		Where("cooperative_id = ?", coopID).Scan(&trades).Error; err != nil {
		return nil, err
	}
	out.TradeCount, out.SharesTraded, out.TradeVolume, out.PrimarySold = trades.Count, trades.Shares, trades.Volume, trades.PrimarySold

	if err := db.Model(&domain.Project{}).Where("cooperative_id = ? AND status = ?", coopID, domain.ProjectDone).Count(&out.ProjectsDone).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Project{}).Where("cooperative_id = ? AND status = ?", coopID, domain.ProjectActive).Count(&out.ProjectsRunning).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
