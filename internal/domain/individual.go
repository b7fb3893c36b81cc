package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role tags which profiles an individual holds.
type Role string

const (
	RoleNone        Role = "none"
	RoleShareholder Role = "shareholder"
	RoleBoard       Role = "board"
	RoleBoth        Role = "both"
)

// ParseRole accepts the stored value; anything unknown is RoleNone.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleShareholder, RoleBoard, RoleBoth:
		return Role(s)
	}
	return RoleNone
}

func (r Role) IsShareholder() bool { return r == RoleShareholder || r == RoleBoth }
func (r Role) IsBoard() bool       { return r == RoleBoard || r == RoleBoth }

// WithShareholder returns the role after adding a shareholder profile.
func (r Role) WithShareholder() Role {
	if r.IsBoard() {
		return RoleBoth
	}
	return RoleShareholder
}

// WithBoard returns the role after adding a board profile.
func (r Role) WithBoard() Role {
	if r.IsShareholder() {
		return RoleBoth
	}
	return RoleBoard
}

// Board membership authority status.
const (
	BoardPending  = "PENDING"
	BoardAccepted = "ACCEPTED"
	BoardRejected = "REJECTED"
)

// Individual is a registered person. Shareholder and board profiles are
// optional columns tagged by Role.
type Individual struct {
	IndividualID       uuid.UUID  `gorm:"column:individual_id;type:uuid;primaryKey" json:"individual_id"`
	UserName           string     `gorm:"column:user_name;not null;uniqueIndex" json:"user_name"`
	PasswordHash       string     `gorm:"column:password_hash;not null" json:"-"`
	FullName           string     `gorm:"column:full_name;not null" json:"full_name"`
	BirthDate          *time.Time `gorm:"column:birth_date" json:"birth_date"`
	PhoneNumber        string     `gorm:"column:phone_number" json:"phone_number"`
	NationalNumber     string     `gorm:"column:national_number;type:varchar(15);not null;uniqueIndex" json:"national_number"`
	Address            string     `gorm:"column:address" json:"address"`
	PostID             string     `gorm:"column:post_id" json:"post_id"`
	Role               Role       `gorm:"column:role;type:varchar(20);not null;default:'none'" json:"role"`
	ShareholderID      *string    `gorm:"column:shareholder_id;uniqueIndex" json:"shareholder_id"`
	BankAccountNumber  string     `gorm:"column:bank_account_number" json:"bank_account_number"`
	BoardMemberID      *string    `gorm:"column:board_member_id;uniqueIndex" json:"board_member_id"`
	BoardCooperativeID *uuid.UUID `gorm:"column:board_cooperative_id;type:uuid;index" json:"board_cooperative_id"`
	BoardStatus        string     `gorm:"column:board_status;type:varchar(20)" json:"board_status"`
	CreatedAt          time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Individual) TableName() string {
	return "individuals"
}

func (i *Individual) BeforeCreate(tx *gorm.DB) error {
	if i.IndividualID == uuid.Nil {
		i.IndividualID = uuid.New()
	}
	return nil
}

// Actor returns the capability used when this individual calls into the core.
func (i *Individual) Actor() Actor {
	a := Actor{UserID: i.IndividualID, Role: i.Role}
	if i.Role.IsBoard() && i.BoardStatus == BoardAccepted {
		a.BoardCooperativeID = i.BoardCooperativeID
	}
	return a
}
