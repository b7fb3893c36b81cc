package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned for an unknown user name or a wrong password.
var ErrInvalidCredentials = errors.New("invalid user name or password")

const (
	bcryptCost         = 10
	pendingBankAccount = "PENDING"
)

// Service registers individuals and manages their profiles.
type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	UserName       string     `json:"user_name" validate:"required,min=3,max=150"`
	Password       string     `json:"password" validate:"required,min=8"`
	FullName       string     `json:"full_name" validate:"required,max=200"`
	NationalNumber string     `json:"national_number" validate:"required,national"`
	PhoneNumber    string     `json:"phone_number" validate:"omitempty,phone"`
	Address        string     `json:"address"`
	PostID         string     `json:"post_id" validate:"max=30"`
	BirthDate      *time.Time `json:"birth_date"`
}

// NewShareholderID returns a fresh SH- identifier.
func NewShareholderID() string { return newProfileID("SH-") }

// NewBoardMemberID returns a fresh BM- identifier.
func NewBoardMemberID() string { return newProfileID("BM-") }

func newProfileID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + strings.ToUpper(hex[:12])
}

// Register creates an individual together with its shareholder profile.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Individual, error) {
	userName := strings.TrimSpace(in.UserName)
	fullName := strings.TrimSpace(in.FullName)
	national := strings.TrimSpace(in.NationalNumber)
	if userName == "" || fullName == "" {
		return nil, fmt.Errorf("user name and full name are required: %w", domain.ErrInvalidArgument)
	}
	if !validation.IsValidNationalNumber(national) {
		return nil, fmt.Errorf("national number must be 8 to 15 digits: %w", domain.ErrInvalidArgument)
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, fmt.Errorf("password needs 8 characters with a letter, a digit and a symbol: %w", domain.ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	shareholderID := NewShareholderID()
	ind := domain.Individual{
		UserName:          userName,
		PasswordHash:      string(hash),
		FullName:          fullName,
		BirthDate:         in.BirthDate,
		PhoneNumber:       validation.NormalizePhone(in.PhoneNumber),
		NationalNumber:    national,
		Address:           strings.TrimSpace(in.Address),
		PostID:            strings.TrimSpace(in.PostID),
		Role:              domain.RoleShareholder,
		ShareholderID:     &shareholderID,
		BankAccountNumber: pendingBankAccount,
		CreatedAt:         s.now(),
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Individual{}).Where("user_name = ?", userName).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("user name %w", domain.ErrAlreadyExists)
		}
		if err := tx.Model(&domain.Individual{}).Where("national_number = ?", national).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("national number %w", domain.ErrAlreadyExists)
		}
		return tx.Create(&ind).Error
	})
	if err != nil {
		return nil, err
	}
	return &ind, nil
}

// Authenticate checks a user name and password.
func (s *Service) Authenticate(ctx context.Context, userName, password string) (*domain.Individual, error) {
	if strings.TrimSpace(userName) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	var ind domain.Individual
	if err := s.DB.WithContext(ctx).Where("user_name = ?", strings.TrimSpace(userName)).First(&ind).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(ind.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &ind, nil
}

// Get returns one individual.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Individual, error) {
	return s.first(ctx, "individual_id = ?", id)
}

// GetByUserName returns the individual registered under userName.
func (s *Service) GetByUserName(ctx context.Context, userName string) (*domain.Individual, error) {
	return s.first(ctx, "user_name = ?", strings.TrimSpace(userName))
}

func (s *Service) first(ctx context.Context, query string, arg interface{}) (*domain.Individual, error) {
	var ind domain.Individual
	if err := s.DB.WithContext(ctx).Where(query, arg).First(&ind).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("individual %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return &ind, nil
}

// AddBoardMember makes the holder of shareholderID an accepted board member
// of the actor's cooperative.
func (s *Service) AddBoardMember(ctx context.Context, actor domain.Actor, shareholderID string) (*domain.Individual, error) {
	if !actor.Role.IsBoard() || actor.BoardCooperativeID == nil {
		return nil, fmt.Errorf("add board member: %w", domain.ErrPermission)
	}
	shareholderID = strings.TrimSpace(shareholderID)
	if shareholderID == "" {
		return nil, fmt.Errorf("shareholder id is required: %w", domain.ErrInvalidArgument)
	}
	coopID := *actor.BoardCooperativeID

	var target domain.Individual
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acting domain.Individual
		if err := tx.Where("individual_id = ?", actor.UserID).First(&acting).Error; err != nil {
			return fmt.Errorf("add board member: %w", domain.ErrPermission)
		}
		if !acting.Role.IsBoard() || acting.BoardStatus != domain.BoardAccepted ||
			acting.BoardCooperativeID == nil || *acting.BoardCooperativeID != coopID {
			return fmt.Errorf("board membership is not accepted: %w", domain.ErrPermission)
		}

		if err := tx.Where("shareholder_id = ?", shareholderID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("shareholder %s %w", shareholderID, domain.ErrNotFound)
			}
			return err
		}
		if target.Role.IsBoard() {
			return fmt.Errorf("board member %w", domain.ErrAlreadyExists)
		}

		boardID := NewBoardMemberID()
		role := target.Role.WithBoard()
		res := tx.Model(&domain.Individual{}).
			Where("individual_id = ? AND board_member_id IS NULL", target.IndividualID).
			Updates(map[string]interface{}{
				"role":                 role,
				"board_member_id":      boardID,
				"board_cooperative_id": coopID,
				"board_status":         domain.BoardAccepted,
				"updated_at":           s.now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("board member %w", domain.ErrAlreadyExists)
		}
		target.Role = role
		target.BoardMemberID = &boardID
		target.BoardCooperativeID = &coopID
		target.BoardStatus = domain.BoardAccepted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &target, nil
}
