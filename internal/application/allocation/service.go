package allocation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/infrastructure/coordination"
	"coopshares-backend/internal/infrastructure/ledger"
	"coopshares-backend/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service runs project lifecycle operations and finalization.
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

// Allocation is the outcome for one contribution.
type Allocation struct {
	ContributionID uuid.UUID `json:"contribution_id"`
	UserID         uuid.UUID `json:"user_id"`
	Amount         int64     `json:"amount"`
	Shares         int64     `json:"allocated_shares"`
}

// FinalizeResult describes a finalized project. AlreadyDone is set when the
// call found the project finalized and changed nothing.
type FinalizeResult struct {
	Project          domain.Project `json:"project"`
	TotalContributed int64          `json:"total_contributed"`
	Allocations      []Allocation   `json:"allocations"`
	AlreadyDone      bool           `json:"already_done"`
}

// Finalize marks a project DONE and credits every contributor with their
// share of the project's pool. Only a board member of the project's
// cooperative may call it. Finalizing a DONE project is a no-op.
func (s *Service) Finalize(ctx context.Context, actor domain.Actor, projectID uuid.UUID) (*FinalizeResult, error) {
	release, err := coordination.Acquire(ctx, s.Locker, coordination.ProjectKey(projectID))
	if err != nil {
		return nil, err
	}
	defer release()

	var result FinalizeResult
	var credited int64
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := ledger.LockProject(tx, projectID)
		if err != nil {
			return err
		}
		if !actor.ManagesCooperative(project.CooperativeID) {
			return fmt.Errorf("finalize project: %w", domain.ErrPermission)
		}

		contributions, err := ledger.LockContributions(tx, projectID)
		if err != nil {
			return err
		}
		var total int64
		for _, c := range contributions {
			total += c.Amount
		}
		result.TotalContributed = total

		if project.Status == domain.ProjectDone {
			result.Project = *project
			result.AlreadyDone = true
			result.Allocations = existingAllocations(contributions)
			return nil
		}
		if !project.Status.Finalizable() {
			return fmt.Errorf("cannot finalize %s project: %w", project.Status, domain.ErrInvalidState)
		}

		if err := ledger.SetProjectStatus(tx, project, domain.ProjectDone); err != nil {
			return err
		}
		result.Project = *project

		amounts := make([]int64, len(contributions))
		for i, c := range contributions {
			amounts[i] = c.Amount
		}
		// Distribute yields all zeros on the empty path; holdings are left alone there.
		shares := Distribute(amounts, project.SharesToDistribute)
		payout := total > 0 && project.SharesToDistribute > 0

		result.Allocations = make([]Allocation, len(contributions))
		for i, c := range contributions {
			if payout {
				if err := ledger.CreditHolding(tx, project.CooperativeID, c.UserID, shares[i]); err != nil {
					return err
				}
				credited += shares[i]
			}
			if err := ledger.SetAllocatedShares(tx, c.ContributionID, shares[i]); err != nil {
				return err
			}
			result.Allocations[i] = Allocation{
				ContributionID: c.ContributionID,
				UserID:         c.UserID,
				Amount:         c.Amount,
				Shares:         shares[i],
			}
		}
		if payout && credited != project.SharesToDistribute {
			return fmt.Errorf("allocated %d of %d shares: %w", credited, project.SharesToDistribute, domain.ErrConsistency)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyDone {
		path := "payout"
		if credited == 0 {
			path = "zero"
		}
		observability.ProjectsFinalized.WithLabelValues(path).Inc()
		observability.SharesAllocated.Add(float64(credited))
	}
	return &result, nil
}

func existingAllocations(contributions []domain.Contribution) []Allocation {
	out := make([]Allocation, len(contributions))
	for i, c := range contributions {
		var shares int64
		if c.AllocatedShares != nil {
			shares = *c.AllocatedShares
		}
		out[i] = Allocation{ContributionID: c.ContributionID, UserID: c.UserID, Amount: c.Amount, Shares: shares}
	}
	return out
}

// Contribute pledges amount to an active project and flips the fully-funded
// flag once the goal is reached.
func (s *Service) Contribute(ctx context.Context, actor domain.Actor, projectID uuid.UUID, amount int64) (*domain.Contribution, error) {
	if !actor.Valid() {
		return nil, fmt.Errorf("contribute: %w", domain.ErrPermission)
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	release, err := coordination.Acquire(ctx, s.Locker, coordination.ProjectKey(projectID))
	if err != nil {
		return nil, err
	}
	defer release()

	var contribution domain.Contribution
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := ledger.LockProject(tx, projectID)
		if err != nil {
			return err
		}
		if project.Status != domain.ProjectActive {
			return fmt.Errorf("project is %s: %w", project.Status, domain.ErrInvalidState)
		}

		contribution = domain.Contribution{
			ProjectID: projectID,
			UserID:    actor.UserID,
			Amount:    amount,
			CreatedAt: s.now(),
		}
		if err := tx.Create(&contribution).Error; err != nil {
			return err
		}

		total, err := ledger.ContributionTotal(tx, projectID)
		if err != nil {
			return err
		}
		if total >= project.GoalAmount && !project.IsFullyFunded {
			return tx.Model(&domain.Project{}).Where("project_id = ?", projectID).
				Update("is_fully_funded", true).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &contribution, nil
}

// ProjectInput carries the fields of a new project.
type ProjectInput struct {
	CooperativeID      uuid.UUID
	Title              string
	Description        string
	ImageURL           *string
	GoalAmount         int64
	SharesToDistribute int64
}

// CreateProject creates a DRAFT project for the board's cooperative.
func (s *Service) CreateProject(ctx context.Context, actor domain.Actor, in ProjectInput) (*domain.Project, error) {
	if !actor.ManagesCooperative(in.CooperativeID) {
		return nil, fmt.Errorf("create project: %w", domain.ErrPermission)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrInvalidArgument)
	}
	if in.GoalAmount <= 0 || in.SharesToDistribute < 0 {
		return nil, fmt.Errorf("goal must be positive and shares non-negative: %w", domain.ErrInvalidArgument)
	}

	project := domain.Project{
		CooperativeID:      in.CooperativeID,
		Title:              strings.TrimSpace(in.Title),
		Description:        in.Description,
		ImageURL:           in.ImageURL,
		GoalAmount:         in.GoalAmount,
		SharesToDistribute: in.SharesToDistribute,
		Status:             domain.ProjectDraft,
		CreatedBy:          actor.UserID,
		CreatedAt:          s.now(),
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ledger.GetCooperative(tx, in.CooperativeID); err != nil {
			return err
		}
		return tx.Create(&project).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ActivateProject opens a DRAFT project for contributions.
func (s *Service) ActivateProject(ctx context.Context, actor domain.Actor, projectID uuid.UUID) (*domain.Project, error) {
	return s.transition(ctx, actor, projectID, domain.ProjectActive, func(from domain.ProjectStatus) bool {
		return from == domain.ProjectDraft
	})
}

// CancelProject closes a DRAFT or ACTIVE project without payout.
func (s *Service) CancelProject(ctx context.Context, actor domain.Actor, projectID uuid.UUID) (*domain.Project, error) {
	return s.transition(ctx, actor, projectID, domain.ProjectCanceled, domain.ProjectStatus.Finalizable)
}

func (s *Service) transition(ctx context.Context, actor domain.Actor, projectID uuid.UUID, to domain.ProjectStatus, allowed func(domain.ProjectStatus) bool) (*domain.Project, error) {
	release, err := coordination.Acquire(ctx, s.Locker, coordination.ProjectKey(projectID))
	if err != nil {
		return nil, err
	}
	defer release()

	var project *domain.Project
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := ledger.LockProject(tx, projectID)
		if err != nil {
			return err
		}
		if !actor.ManagesCooperative(p.CooperativeID) {
			return fmt.Errorf("change project status: %w", domain.ErrPermission)
		}
		if p.Status == to {
			project = p
			return nil
		}
		if !allowed(p.Status) {
			return fmt.Errorf("cannot move %s project to %s: %w", p.Status, to, domain.ErrInvalidState)
		}
		if err := ledger.SetProjectStatus(tx, p, to); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// ProjectView is a project with its contributed total.
type ProjectView struct {
	domain.Project
	TotalContributed int64 `json:"total_contributed"`
}

// GetProject returns one project.
func (s *Service) GetProject(ctx context.Context, projectID uuid.UUID) (*ProjectView, error) {
	var p domain.Project
	if err := s.DB.WithContext(ctx).Where("project_id = ?", projectID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %w", domain.ErrNotFound)
		}
		return nil, err
	}
	total, err := ledger.ContributionTotal(s.DB.WithContext(ctx), projectID)
	if err != nil {
		return nil, err
	}
	return &ProjectView{Project: p, TotalContributed: total}, nil
}

// ListProjects returns projects newest first, optionally for one cooperative.
func (s *Service) ListProjects(ctx context.Context, coopID uuid.UUID) ([]domain.Project, error) {
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if coopID != uuid.Nil {
		q = q.Where("cooperative_id = ?", coopID)
	}
	var projects []domain.Project
	if err := q.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// ListContributions returns a project's contributions in allocation order.
func (s *Service) ListContributions(ctx context.Context, projectID uuid.UUID) ([]domain.Contribution, error) {
	var cs []domain.Contribution
	err := s.DB.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").Order("contribution_id ASC").
		Find(&cs).Error
	return cs, err
}
