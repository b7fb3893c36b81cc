package ledger

import (
	"fmt"

	"coopshares-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureHolding creates the (cooperative, user) holding at zero if absent.
func EnsureHolding(tx *gorm.DB, coopID, userID uuid.UUID) error {
	h := domain.ShareHolding{CooperativeID: coopID, UserID: userID, Quantity: 0}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cooperative_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&h).Error
}

// CreditHolding adds qty shares to a holding, creating it when needed.
// The increment is a single UPDATE so concurrent credits commute.
func CreditHolding(tx *gorm.DB, coopID, userID uuid.UUID, qty int64) error {
	if qty == 0 {
		return EnsureHolding(tx, coopID, userID)
	}
	if qty < 0 {
		return domain.ErrInvalidQuantity
	}
	if err := EnsureHolding(tx, coopID, userID); err != nil {
		return err
	}
	res := tx.Model(&domain.ShareHolding{}).
		Where("cooperative_id = ? AND user_id = ?", coopID, userID).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("holding credit: %w", domain.ErrConsistency)
	}
	return nil
}

// DebitHolding removes qty shares only if the holding has at least qty.
func DebitHolding(tx *gorm.DB, coopID, userID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	res := tx.Model(&domain.ShareHolding{}).
		Where("cooperative_id = ? AND user_id = ? AND quantity >= ?", coopID, userID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return domain.ErrInsufficientHolding
	}
	return nil
}

// HoldingQuantity returns the current balance, zero when no holding exists.
func HoldingQuantity(tx *gorm.DB, coopID, userID uuid.UUID) (int64, error) {
	var h domain.ShareHolding
	err := tx.Where("cooperative_id = ? AND user_id = ?", coopID, userID).Limit(1).Find(&h).Error
	if err != nil {
		return 0, err
	}
	return h.Quantity, nil
}
