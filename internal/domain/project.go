package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectStatus is the lifecycle state of a crowdfunded project.
type ProjectStatus string

const (
	ProjectDraft    ProjectStatus = "DRAFT"
	ProjectActive   ProjectStatus = "ACTIVE"
	ProjectDone     ProjectStatus = "DONE"
	ProjectCanceled ProjectStatus = "CANCELED"
)

// Finalizable reports whether a project in this status may be marked done.
func (s ProjectStatus) Finalizable() bool {
	return s == ProjectActive || s == ProjectDraft
}

// Project collects contributions and, once done, distributes a fixed pool of shares.
type Project struct {
	ProjectID          uuid.UUID     `gorm:"column:project_id;type:uuid;primaryKey" json:"project_id"`
	CooperativeID      uuid.UUID     `gorm:"column:cooperative_id;type:uuid;not null;index" json:"cooperative_id"`
	Title              string        `gorm:"column:title;not null" json:"title"`
	Description        string        `gorm:"column:description" json:"description"`
	ImageURL           *string       `gorm:"column:image_url" json:"image_url"`
	GoalAmount         int64         `gorm:"column:goal_amount;not null" json:"goal_amount"`
	SharesToDistribute int64         `gorm:"column:shares_to_distribute;not null" json:"shares_to_distribute"`
	Status             ProjectStatus `gorm:"column:status;type:varchar(20);not null;default:'DRAFT'" json:"status"`
	IsFullyFunded      bool          `gorm:"column:is_fully_funded;not null;default:false" json:"is_fully_funded"`
	CreatedBy          uuid.UUID     `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	CreatedAt          time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ProjectID == uuid.Nil {
		p.ProjectID = uuid.New()
	}
	return nil
}

// Contribution is money pledged to a project. AllocatedShares stays nil until
// the project is finalized and is written exactly once.
type Contribution struct {
	ContributionID  uuid.UUID `gorm:"column:contribution_id;type:uuid;primaryKey" json:"contribution_id"`
	ProjectID       uuid.UUID `gorm:"column:project_id;type:uuid;not null;index" json:"project_id"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Amount          int64     `gorm:"column:amount;not null;check:amount > 0" json:"amount"`
	AllocatedShares *int64    `gorm:"column:allocated_shares" json:"allocated_shares"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Contribution) TableName() string {
	return "contributions"
}

func (c *Contribution) BeforeCreate(tx *gorm.DB) error {
	if c.ContributionID == uuid.Nil {
		c.ContributionID = uuid.New()
	}
	return nil
}
