// Package ledger holds the persistence primitives shared by the allocation and
// marketplace services. Every function takes the caller's transaction; none
// of them opens one.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coopshares-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, domain.ErrNotFound)
	}
	return err
}

// LockCooperative reads the cooperative row under an exclusive row lock.
func LockCooperative(tx *gorm.DB, coopID uuid.UUID) (*domain.Cooperative, error) {
	var coop domain.Cooperative
	if err := tx.Clauses(forUpdate).Where("cooperative_id = ?", coopID).First(&coop).Error; err != nil {
		return nil, notFound(err, "cooperative")
	}
	return &coop, nil
}

// GetCooperative reads the cooperative without locking.
func GetCooperative(tx *gorm.DB, coopID uuid.UUID) (*domain.Cooperative, error) {
	var coop domain.Cooperative
	if err := tx.Where("cooperative_id = ?", coopID).First(&coop).Error; err != nil {
		return nil, notFound(err, "cooperative")
	}
	return &coop, nil
}

// DebitPrimaryInventory removes qty shares from the treasury. The caller must
// hold the cooperative row lock; the guard catches drift anyway.
func DebitPrimaryInventory(tx *gorm.DB, coopID uuid.UUID, qty int64) error {
	res := tx.Model(&domain.Cooperative{}).
		Where("cooperative_id = ? AND available_primary_shares >= ?", coopID, qty).
		Update("available_primary_shares", gorm.Expr("available_primary_shares - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("treasury debit of %d: %w", qty, domain.ErrConsistency)
	}
	return nil
}

// CreditPrimaryInventory returns or issues qty shares to the treasury.
func CreditPrimaryInventory(tx *gorm.DB, coopID uuid.UUID, qty int64) error {
	res := tx.Model(&domain.Cooperative{}).
		Where("cooperative_id = ?", coopID).
		Updates(map[string]interface{}{
			"available_primary_shares": gorm.Expr("available_primary_shares + ?", qty),
			"total_shares":             gorm.Expr("total_shares + ?", qty),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("cooperative %w", domain.ErrNotFound)
	}
	return nil
}

// LockListing reads a listing under an exclusive row lock.
func LockListing(tx *gorm.DB, listingID uuid.UUID) (*domain.ShareListing, error) {
	var l domain.ShareListing
	if err := tx.Clauses(forUpdate).Where("listing_id = ?", listingID).First(&l).Error; err != nil {
		return nil, notFound(err, "listing")
	}
	return &l, nil
}

// ActiveListingsFIFO returns the cooperative's active listings, oldest first,
// excluding the given seller. When lock is set every returned row is locked.
func ActiveListingsFIFO(tx *gorm.DB, coopID, excludeSeller uuid.UUID, lock bool) ([]domain.ShareListing, error) {
	q := tx.Where("cooperative_id = ? AND status = ? AND quantity_available > 0", coopID, domain.ListingActive)
	if excludeSeller != uuid.Nil {
		q = q.Where("seller_id <> ?", excludeSeller)
	}
	if lock {
		q = q.Clauses(forUpdate)
	}
	var listings []domain.ShareListing
	if err := q.Order("created_at ASC").Order("listing_id ASC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// SumQuantity totals quantity_available over listings.
func SumQuantity(listings []domain.ShareListing) int64 {
	var total int64
	for _, l := range listings {
		total += l.QuantityAvailable
	}
	return total
}

// TakeFromListing removes qty from a locked listing and closes it at zero.
// The struct is updated in place.
func TakeFromListing(tx *gorm.DB, l *domain.ShareListing, qty int64) error {
	if l.Status != domain.ListingActive || l.QuantityAvailable < qty {
		return fmt.Errorf("listing %s: %w", l.ListingID, domain.ErrConsistency)
	}
	remaining := l.QuantityAvailable - qty
	status := domain.ListingActive
	if remaining == 0 {
		status = domain.ListingSoldOut
	}
	res := tx.Model(&domain.ShareListing{}).
		Where("listing_id = ? AND status = ? AND quantity_available = ?", l.ListingID, domain.ListingActive, l.QuantityAvailable).
		Updates(map[string]interface{}{"quantity_available": remaining, "status": status})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("listing %s: %w", l.ListingID, domain.ErrConsistency)
	}
	l.QuantityAvailable = remaining
	l.Status = status
	return nil
}

// CloseListing moves a locked active listing to a terminal status and zeroes
// its quantity. It returns the quantity that was still available.
func CloseListing(tx *gorm.DB, l *domain.ShareListing, status domain.ListingStatus) (int64, error) {
	released := l.QuantityAvailable
	res := tx.Model(&domain.ShareListing{}).
		Where("listing_id = ? AND status = ?", l.ListingID, domain.ListingActive).
		Updates(map[string]interface{}{"quantity_available": 0, "status": status})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected != 1 {
		return 0, fmt.Errorf("listing %s: %w", l.ListingID, domain.ErrConsistency)
	}
	l.QuantityAvailable = 0
	l.Status = status
	return released, nil
}

// RecordListingEvent appends an audit event for a listing. A zero at lets the
// database stamp the row.
func RecordListingEvent(tx *gorm.DB, listingID uuid.UUID, eventType string, actor *uuid.UUID, at time.Time, data map[string]interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return tx.Create(&domain.ListingEvent{
		ListingID: listingID,
		EventType: eventType,
		EventData: datatypes.JSON(b),
		ActorID:   actor,
		CreatedAt: at,
	}).Error
}

// AppendTrade writes an immutable trade row. TotalPrice is always derived.
func AppendTrade(tx *gorm.DB, t *domain.ShareTrade) error {
	if t.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	t.TotalPrice = t.Quantity * t.PricePerShare
	return tx.Create(t).Error
}
