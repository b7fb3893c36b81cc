package coops

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coopshares-backend/internal/application/accounts"
	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/infrastructure/coordination"
	"coopshares-backend/internal/infrastructure/ledger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is the cooperative registry and the board's treasury controls.
type Service struct {
	DB     *gorm.DB
	Locker coordination.Locker
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CoopInput carries the fields of a new cooperative.
type CoopInput struct {
	Name          string `json:"name" validate:"required,max=200"`
	Village       string `json:"village" validate:"max=200"`
	Description   string `json:"description"`
	PricePerShare int64  `json:"price_per_share" validate:"gte=0"`
	Website       string `json:"website" validate:"omitempty,url"`
	Phone         string `json:"phone" validate:"omitempty,phone"`
}

// Create registers a cooperative and makes its founder an accepted board
// member of it. A founder already on a board cannot found another.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CoopInput) (*domain.Cooperative, *domain.Individual, error) {
	if !actor.Valid() {
		return nil, nil, fmt.Errorf("create cooperative: %w", domain.ErrPermission)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, fmt.Errorf("name is required: %w", domain.ErrInvalidArgument)
	}
	if in.PricePerShare < 0 {
		return nil, nil, fmt.Errorf("price must not be negative: %w", domain.ErrInvalidArgument)
	}

	now := s.now()
	coop := domain.Cooperative{
		Name:          name,
		Village:       strings.TrimSpace(in.Village),
		Description:   in.Description,
		PricePerShare: in.PricePerShare,
		Website:       strings.TrimSpace(in.Website),
		Phone:         strings.TrimSpace(in.Phone),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	var founder domain.Individual
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("individual_id = ?", actor.UserID).First(&founder).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("individual %w", domain.ErrNotFound)
			}
			return err
		}
		if founder.Role.IsBoard() {
			return fmt.Errorf("already serves on a board: %w", domain.ErrInvalidState)
		}
		var n int64
		if err := tx.Model(&domain.Cooperative{}).Where("name = ?", name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("cooperative %q %w", name, domain.ErrAlreadyExists)
		}
		if err := tx.Create(&coop).Error; err != nil {
			return err
		}

		boardID := accounts.NewBoardMemberID()
		founder.Role = founder.Role.WithBoard()
		founder.BoardMemberID = &boardID
		founder.BoardCooperativeID = &coop.CooperativeID
		founder.BoardStatus = domain.BoardAccepted
		return tx.Model(&domain.Individual{}).
			Where("individual_id = ?", founder.IndividualID).
			Updates(map[string]interface{}{
				"role":                 founder.Role,
				"board_member_id":      boardID,
				"board_cooperative_id": coop.CooperativeID,
				"board_status":         domain.BoardAccepted,
				"updated_at":           now,
			}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &coop, &founder, nil
}

// List returns all cooperatives by name.
func (s *Service) List(ctx context.Context) ([]domain.Cooperative, error) {
	var coops []domain.Cooperative
	err := s.DB.WithContext(ctx).Order("name ASC").Find(&coops).Error
	return coops, err
}

// Get returns one cooperative.
func (s *Service) Get(ctx context.Context, coopID uuid.UUID) (*domain.Cooperative, error) {
	return ledger.GetCooperative(s.DB.WithContext(ctx), coopID)
}

// CoopUpdate holds the board-editable fields. Nil fields are left alone.
type CoopUpdate struct {
	Village       *string `json:"village"`
	Description   *string `json:"description"`
	Website       *string `json:"website" validate:"omitempty,url"`
	Phone         *string `json:"phone" validate:"omitempty,phone"`
	PricePerShare *int64  `json:"price_per_share" validate:"omitempty,gte=0"`
}

// Update edits a cooperative. A price change applies to primary sales and to
// listings created afterwards; existing listings keep their snapshot.
func (s *Service) Update(ctx context.Context, actor domain.Actor, coopID uuid.UUID, in CoopUpdate) (*domain.Cooperative, error) {
	if !actor.ManagesCooperative(coopID) {
		return nil, fmt.Errorf("update cooperative: %w", domain.ErrPermission)
	}
	upd := map[string]interface{}{}
	if in.Village != nil {
		upd["village"] = strings.TrimSpace(*in.Village)
	}
	if in.Description != nil {
		upd["description"] = *in.Description
	}
	if in.Website != nil {
		upd["website"] = strings.TrimSpace(*in.Website)
	}
	if in.Phone != nil {
		upd["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.PricePerShare != nil {
		if *in.PricePerShare < 0 {
			return nil, fmt.Errorf("price must not be negative: %w", domain.ErrInvalidArgument)
		}
		upd["price_per_share"] = *in.PricePerShare
	}
	if len(upd) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrInvalidArgument)
	}
	upd["updated_at"] = s.now()

	var coop *domain.Cooperative
	err := s.run(ctx, coopID, func(tx *gorm.DB) error {
		if _, err := ledger.LockCooperative(tx, coopID); err != nil {
			return err
		}
		if err := tx.Model(&domain.Cooperative{}).Where("cooperative_id = ?", coopID).Updates(upd).Error; err != nil {
			return err
		}
		var err error
		coop, err = ledger.GetCooperative(tx, coopID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return coop, nil
}

// IssuePrimaryShares adds qty new shares to the cooperative treasury.
func (s *Service) IssuePrimaryShares(ctx context.Context, actor domain.Actor, coopID uuid.UUID, qty int64) (*domain.Cooperative, error) {
	if !actor.ManagesCooperative(coopID) {
		return nil, fmt.Errorf("issue shares: %w", domain.ErrPermission)
	}
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	var coop *domain.Cooperative
	err := s.run(ctx, coopID, func(tx *gorm.DB) error {
		if _, err := ledger.LockCooperative(tx, coopID); err != nil {
			return err
		}
		if err := ledger.CreditPrimaryInventory(tx, coopID, qty); err != nil {
			return err
		}
		var err error
		coop, err = ledger.GetCooperative(tx, coopID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return coop, nil
}

func (s *Service) run(ctx context.Context, coopID uuid.UUID, fn func(tx *gorm.DB) error) error {
	release, err := coordination.Acquire(ctx, s.Locker, coordination.CooperativeKey(coopID))
	if err != nil {
		return err
	}
	defer release()
	return s.DB.WithContext(ctx).Transaction(fn)
}
