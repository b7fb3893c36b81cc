package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListingStatus is the lifecycle state of a ShareListing.
type ListingStatus string

const (
	ListingActive   ListingStatus = "ACTIVE"
	ListingSoldOut  ListingStatus = "SOLD_OUT"
	ListingCanceled ListingStatus = "CANCELED"
)

// Terminal reports whether no further transitions are possible.
func (s ListingStatus) Terminal() bool {
	return s == ListingSoldOut || s == ListingCanceled
}

// ShareListing is a seller's offer on the secondary market. The listed
// quantity is already deducted from the seller's holding.
type ShareListing struct {
	ListingID         uuid.UUID     `gorm:"column:listing_id;type:uuid;primaryKey" json:"listing_id"`
	CooperativeID     uuid.UUID     `gorm:"column:cooperative_id;type:uuid;not null;index:idx_listing_fifo,priority:1" json:"cooperative_id"`
	SellerID          uuid.UUID     `gorm:"column:seller_id;type:uuid;not null;index" json:"seller_id"`
	InitialQuantity   int64         `gorm:"column:initial_quantity;not null" json:"initial_quantity"`
	QuantityAvailable int64         `gorm:"column:quantity_available;not null;check:quantity_available >= 0" json:"quantity_available"`
	Status            ListingStatus `gorm:"column:status;type:varchar(20);not null;default:'ACTIVE';index:idx_listing_fifo,priority:2" json:"status"`
	PricePerShare     int64         `gorm:"column:price_per_share;not null" json:"price_per_share"`
	CreatedAt         time.Time     `gorm:"column:created_at;index:idx_listing_fifo,priority:3" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (ShareListing) TableName() string {
	return "share_listings"
}

// BeforeCreate sets listing_id if not already set (DBs without default uuid).
func (l *ShareListing) BeforeCreate(tx *gorm.DB) error {
	if l.ListingID == uuid.Nil {
		l.ListingID = uuid.New()
	}
	return nil
}

// Listing event types.
const (
	EventCreated         = "CREATED"
	EventPartiallyFilled = "PARTIALLY_FILLED"
	EventFilled          = "FILLED"
	EventCanceled        = "CANCELED"
)

// ListingEvent is the audit trail of a listing.
type ListingEvent struct {
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	ListingID uuid.UUID      `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	EventType string         `gorm:"column:event_type;type:varchar(30);not null" json:"event_type"`
	EventData datatypes.JSON `gorm:"column:event_data;not null" json:"event_data"`
	ActorID   *uuid.UUID     `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (ListingEvent) TableName() string {
	return "listing_events"
}

func (le *ListingEvent) BeforeCreate(tx *gorm.DB) error {
	if le.EventID == uuid.Nil {
		le.EventID = uuid.New()
	}
	return nil
}
