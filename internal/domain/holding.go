package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShareHolding is a user's share balance in one cooperative. One row per
// (cooperative, user); rows are created lazily at zero and never deleted.
type ShareHolding struct {
	HoldingID     uuid.UUID `gorm:"column:holding_id;type:uuid;primaryKey" json:"holding_id"`
	CooperativeID uuid.UUID `gorm:"column:cooperative_id;type:uuid;not null;uniqueIndex:idx_holding_coop_user" json:"cooperative_id"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_holding_coop_user;index" json:"user_id"`
	Quantity      int64     `gorm:"column:quantity;not null;default:0;check:quantity >= 0" json:"quantity"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ShareHolding) TableName() string {
	return "share_holdings"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (h *ShareHolding) BeforeCreate(tx *gorm.DB) error {
	if h.HoldingID == uuid.Nil {
		h.HoldingID = uuid.New()
	}
	return nil
}
