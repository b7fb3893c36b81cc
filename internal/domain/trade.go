package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TreasuryLabel is how a trade without a seller is presented to people.
const TreasuryLabel = "Cooperative treasury"

// ShareTrade is one executed transfer. Rows are append-only.
// A nil SellerID means the cooperative sold from its treasury.
type ShareTrade struct {
	TradeID       uuid.UUID  `gorm:"column:trade_id;type:uuid;primaryKey" json:"trade_id"`
	CooperativeID uuid.UUID  `gorm:"column:cooperative_id;type:uuid;not null;index" json:"cooperative_id"`
	BuyerID       uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null;index" json:"buyer_id"`
	SellerID      *uuid.UUID `gorm:"column:seller_id;type:uuid;index" json:"seller_id"`
	ListingID     *uuid.UUID `gorm:"column:listing_id;type:uuid" json:"listing_id"`
	Quantity      int64      `gorm:"column:quantity;not null" json:"quantity"`
	PricePerShare int64      `gorm:"column:price_per_share;not null" json:"price_per_share"`
	TotalPrice    int64      `gorm:"column:total_price;not null" json:"total_price"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (ShareTrade) TableName() string {
	return "share_trades"
}

func (t *ShareTrade) BeforeCreate(tx *gorm.DB) error {
	if t.TradeID == uuid.Nil {
		t.TradeID = uuid.New()
	}
	return nil
}

// IsPrimary reports whether the trade was a treasury sale.
func (t ShareTrade) IsPrimary() bool {
	return t.SellerID == nil
}

// CounterpartyLabel names the seller side for reports.
func (t ShareTrade) CounterpartyLabel() string {
	if t.SellerID == nil {
		return TreasuryLabel
	}
	return t.SellerID.String()
}
