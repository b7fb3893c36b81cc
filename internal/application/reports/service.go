package reports

import (
	"context"
	"fmt"
	"time"

	"coopshares-backend/internal/application/coops"
	"coopshares-backend/internal/application/holdings"
	"coopshares-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Summarizer yields a cooperative's share distribution.
type Summarizer interface {
	Summarize(ctx context.Context, coopID uuid.UUID) (*coops.Summary, error)
}

// Service builds board and personal exports.
type Service struct {
	DB        *gorm.DB
	Summaries Summarizer
	Holdings  *holdings.Service
}

func (s *Service) authorize(actor domain.Actor, coopID uuid.UUID) error {
	if !actor.ManagesCooperative(coopID) {
		return fmt.Errorf("export cooperative data: %w", domain.ErrPermission)
	}
	return nil
}

type shareholderRow struct {
	ShareholderID     *string
	FullName          string
	NationalNumber    string
	PhoneNumber       string
	BankAccountNumber string
	Address           string
	PostID            string
	Quantity          int64
}

// Shareholders lists every member of the cooperative holding shares.
func (s *Service) Shareholders(ctx context.Context, actor domain.Actor, coopID uuid.UUID) (*Table, error) {
	if err := s.authorize(actor, coopID); err != nil {
		return nil, err
	}
	var rows []shareholderRow
	err := s.DB.WithContext(ctx).
		Table("share_holdings AS h").
		Select("i.shareholder_id, i.full_name, i.national_number, i.phone_number, i.bank_account_number, i.address, i.post_id, h.quantity").
		Joins("JOIN individuals i ON i.individual_id = h.user_id").
		Where("h.cooperative_id = ? AND h.quantity > 0", coopID).
		Order("i.full_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	t := &Table{
		Name:   "shareholders",
		Header: []string{"shareholder_id", "full_name", "national_number", "phone_number", "bank_account_number", "address", "post_id", "shares"},
	}
	for _, r := range rows {
		t.add(deref(r.ShareholderID), r.FullName, r.NationalNumber, r.PhoneNumber, r.BankAccountNumber, r.Address, r.PostID, r.Quantity)
	}
	return t, nil
}

type tradeRow struct {
	TradeID       uuid.UUID
	CreatedAt     time.Time
	BuyerName     string
	SellerID      *uuid.UUID
	SellerName    *string
	ListingID     *uuid.UUID
	Quantity      int64
	PricePerShare int64
	TotalPrice    int64
}

func (r tradeRow) seller() string {
	if r.SellerID == nil {
		return domain.TreasuryLabel
	}
	if r.SellerName != nil {
		return *r.SellerName
	}
	return r.SellerID.String()
}

func (r tradeRow) source() string {
	if r.SellerID == nil {
		return "primary"
	}
	return "secondary"
}

// Trades is the cooperative's share purchase log, oldest first.
func (s *Service) Trades(ctx context.Context, actor domain.Actor, coopID uuid.UUID) (*Table, error) {
	if err := s.authorize(actor, coopID); err != nil {
		return nil, err
	}
	var rows []tradeRow
	err := s.DB.WithContext(ctx).
		Table("share_trades AS t").
		Select("t.trade_id, t.created_at, b.full_name AS buyer_name, t.seller_id, s.full_name AS seller_name, t.listing_id, t.quantity, t.price_per_share, t.total_price").
		Joins("LEFT JOIN individuals b ON b.individual_id = t.buyer_id").
		Joins("LEFT JOIN individuals s ON s.individual_id = t.seller_id").
		Where("t.cooperative_id = ?", coopID).
		Order("t.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	t := &Table{
		Name:   "trades",
		Header: []string{"created_at", "trade_id", "source", "buyer", "seller", "listing_id", "quantity", "price_per_share", "total_price"},
	}
	for _, r := range rows {
		t.add(r.CreatedAt, r.TradeID.String(), r.source(), r.BuyerName, r.seller(), uuidString(r.ListingID), r.Quantity, r.PricePerShare, r.TotalPrice)
	}
	return t, nil
}

// Summary is the cooperative's share summary as metric/value rows.
func (s *Service) Summary(ctx context.Context, actor domain.Actor, coopID uuid.UUID) (*Table, error) {
	if err := s.authorize(actor, coopID); err != nil {
		return nil, err
	}
	sum, err := s.Summaries.Summarize(ctx, coopID)
	if err != nil {
		return nil, err
	}
	t := &Table{Name: "summary", Header: []string{"metric", "value"}}
	t.add("cooperative", sum.Cooperative.Name)
	t.add("price_per_share", sum.Cooperative.PricePerShare)
	t.add("total_shares", sum.Cooperative.TotalShares)
	t.add("available_primary_shares", sum.Cooperative.AvailablePrimaryShares)
	t.add("held_by_members", sum.HeldByMembers)
	t.add("listed_for_sale", sum.ListedForSale)
	t.add("shareholders", sum.Shareholders)
	t.add("active_listings", sum.ActiveListings)
	t.add("trade_count", sum.TradeCount)
	t.add("shares_traded", sum.SharesTraded)
	t.add("trade_volume", sum.TradeVolume)
	t.add("primary_sold", sum.PrimarySold)
	t.add("projects_done", sum.ProjectsDone)
	t.add("projects_running", sum.ProjectsRunning)
	return t, nil
}

// MyHoldings exports the user's holdings.
func (s *Service) MyHoldings(ctx context.Context, userID uuid.UUID) (*Table, error) {
	hs, err := s.Holdings.ViewHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	t := &Table{
		Name:   "my_holdings",
		Header: []string{"cooperative", "cooperative_id", "shares", "listed", "price_per_share", "value"},
	}
	for _, h := range hs {
		t.add(h.CooperativeName, h.CooperativeID.String(), h.Quantity, h.Listed, h.PricePerShare, h.Quantity*h.PricePerShare)
	}
	return t, nil
}

// MyContributions exports all of the user's contributions.
func (s *Service) MyContributions(ctx context.Context, userID uuid.UUID) (*Table, error) {
	cs, err := s.Holdings.ViewContributions(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	t := &Table{
		Name:   "my_contributions",
		Header: []string{"created_at", "project", "project_status", "amount", "allocated_shares"},
	}
	for _, c := range cs {
		t.add(c.CreatedAt, c.ProjectTitle, string(c.ProjectStatus), c.Amount, c.AllocatedShares)
	}
	return t, nil
}

// myTradeRow declares every column itself; an embedded tradeRow next to
// BuyerID left buyer_name unscanned.
type myTradeRow struct {
	TradeID         uuid.UUID  `gorm:"column:trade_id"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	BuyerID         uuid.UUID  `gorm:"column:buyer_id"`
	BuyerName       string     `gorm:"column:buyer_name"`
	SellerID        *uuid.UUID `gorm:"column:seller_id"`
	SellerName      *string    `gorm:"column:seller_name"`
	Quantity        int64      `gorm:"column:quantity"`
	PricePerShare   int64      `gorm:"column:price_per_share"`
	TotalPrice      int64      `gorm:"column:total_price"`
	CooperativeName string     `gorm:"column:cooperative_name"`
}

func (r myTradeRow) seller() string {
	return tradeRow{SellerID: r.SellerID, SellerName: r.SellerName}.seller()
}

// MyTrades exports every trade the user bought or sold in, newest first.
func (s *Service) MyTrades(ctx context.Context, userID uuid.UUID) (*Table, error) {
	var rows []myTradeRow
	err := s.DB.WithContext(ctx).
		Table("share_trades AS t").
		Select("t.trade_id, t.created_at, t.buyer_id, b.full_name AS buyer_name, t.seller_id, s.full_name AS seller_name, "+
			"t.quantity, t.price_per_share, t.total_price, c.name AS cooperative_name").
		Joins("JOIN cooperatives c ON c.cooperative_id = t.cooperative_id").
		Joins("LEFT JOIN individuals b ON b.individual_id = t.buyer_id").
		Joins("LEFT JOIN individuals s ON s.individual_id = t.seller_id").
		Where("t.buyer_id = ? OR t.seller_id = ?", userID, userID).
		Order("t.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	t := &Table{
		Name:   "my_trades",
		Header: []string{"created_at", "cooperative", "side", "counterparty", "quantity", "price_per_share", "total_price"},
	}
	for _, r := range rows {
		side, counterparty := "buy", r.seller()
		if r.BuyerID != userID {
			side, counterparty = "sell", r.BuyerName
		}
		t.add(r.CreatedAt, r.CooperativeName, side, counterparty, r.Quantity, r.PricePerShare, r.TotalPrice)
	}
	return t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
