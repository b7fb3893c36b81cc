package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cooperative owns a treasury of primary shares sold at a board-controlled price.
type Cooperative struct {
	CooperativeID          uuid.UUID `gorm:"column:cooperative_id;type:uuid;primaryKey" json:"cooperative_id"`
	Name                   string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Village                string    `gorm:"column:village" json:"village"`
	Description            string    `gorm:"column:description" json:"description"`
	PricePerShare          int64     `gorm:"column:price_per_share;not null;default:0" json:"price_per_share"`
	TotalShares            int64     `gorm:"column:total_shares;not null;default:0" json:"total_shares"`
	AvailablePrimaryShares int64     `gorm:"column:available_primary_shares;not null;default:0;check:available_primary_shares >= 0" json:"available_primary_shares"`
	Website                string    `gorm:"column:website" json:"website"`
	Phone                  string    `gorm:"column:phone" json:"phone"`
	CreatedAt              time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt              time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Cooperative) TableName() string {
	return "cooperatives"
}

// BeforeCreate ensures cooperative_id is set for DBs without default uuid.
func (c *Cooperative) BeforeCreate(tx *gorm.DB) error {
	if c.CooperativeID == uuid.Nil {
		c.CooperativeID = uuid.New()
	}
	return nil
}
