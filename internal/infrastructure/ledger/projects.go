package ledger

import (
	"fmt"

	"coopshares-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LockProject reads a project under an exclusive row lock.
func LockProject(tx *gorm.DB, projectID uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	if err := tx.Clauses(forUpdate).Where("project_id = ?", projectID).First(&p).Error; err != nil {
		return nil, notFound(err, "project")
	}
	return &p, nil
}

// LockContributions locks every contribution of a project and returns them
// in allocation order (created_at, contribution_id).
func LockContributions(tx *gorm.DB, projectID uuid.UUID) ([]domain.Contribution, error) {
	var cs []domain.Contribution
	err := tx.Clauses(forUpdate).
		Where("project_id = ?", projectID).
		Order("created_at ASC").Order("contribution_id ASC").
		Find(&cs).Error
	return cs, err
}

// SetProjectStatus moves a project to status.
func SetProjectStatus(tx *gorm.DB, p *domain.Project, status domain.ProjectStatus) error {
	res := tx.Model(&domain.Project{}).Where("project_id = ?", p.ProjectID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("project %s: %w", p.ProjectID, domain.ErrConsistency)
	}
	p.Status = status
	return nil
}

// SetAllocatedShares writes the allocation of a contribution. The column is
// write-once: a row that already carries a value is a consistency error.
func SetAllocatedShares(tx *gorm.DB, contributionID uuid.UUID, shares int64) error {
	res := tx.Model(&domain.Contribution{}).
		Where("contribution_id = ? AND allocated_shares IS NULL", contributionID).
		Update("allocated_shares", shares)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("contribution %s already allocated: %w", contributionID, domain.ErrConsistency)
	}
	return nil
}

// ContributionTotal sums the amounts pledged to a project.
func ContributionTotal(tx *gorm.DB, projectID uuid.UUID) (int64, error) {
	var total int64
	err := tx.Model(&domain.Contribution{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
