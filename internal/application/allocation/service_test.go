package allocation

import (
	"context"
	"testing"
	"time"

	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/infrastructure/coordination"
	"coopshares-backend/internal/infrastructure/database"
	"coopshares-backend/internal/infrastructure/ledger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   *Service
	coop  domain.Cooperative
	board domain.Actor
	clock time.Time
}

func setupAllocationTest(t *testing.T) *fixture {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	coop := domain.Cooperative{Name: "Golestan", PricePerShare: 1000}
	require.NoError(t, db.Create(&coop).Error)

	f := &fixture{
		db:    db,
		coop:  coop,
		board: domain.Actor{UserID: uuid.New(), Role: domain.RoleBoard, BoardCooperativeID: &coop.CooperativeID},
		clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = &Service{
		DB:     db,
		Locker: coordination.NewLocalLocker(),
		Now: func() time.Time {
			f.clock = f.clock.Add(time.Second)
			return f.clock
		},
	}
	return f
}

func (f *fixture) activeProject(t *testing.T, goal, pool int64) domain.Project {
	ctx := context.Background()
	p, err := f.svc.CreateProject(ctx, f.board, ProjectInput{
		CooperativeID: f.coop.CooperativeID, Title: "Water tank", GoalAmount: goal, SharesToDistribute: pool,
	})
	require.NoError(t, err)
	p, err = f.svc.ActivateProject(ctx, f.board, p.ProjectID)
	require.NoError(t, err)
	return *p
}

func member() domain.Actor {
	return domain.Actor{UserID: uuid.New(), Role: domain.RoleShareholder}
}

func (f *fixture) holding(t *testing.T, user uuid.UUID) int64 {
	q, err := ledger.HoldingQuantity(f.db, f.coop.CooperativeID, user)
	require.NoError(t, err)
	return q
}

func TestFinalize_ProportionalAllocation(t *testing.T) {
	f := setupAllocationTest(t)
	ctx := context.Background()
	p := f.activeProject(t, 100, 10)

	a, b, c := member(), member(), member()
	for _, in := range []struct {
		who    domain.Actor
		amount int64
	}{{a, 50}, {b, 30}, {c, 20}} {
		_, err := f.svc.Contribute(ctx, in.who, p.ProjectID, in.amount)
		require.NoError(t, err)
	}

	res, err := f.svc.Finalize(ctx, f.board, p.ProjectID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyDone)
	assert.Equal(t, domain.ProjectDone, res.Project.Status)
	assert.Equal(t, int64(100), res.TotalContributed)
	require.Len(t, res.Allocations, 3)
	assert.Equal(t, int64(5), res.Allocations[0].Shares)
	assert.Equal(t, int64(3), res.Allocations[1].Shares)
	assert.Equal(t, int64(2), res.Allocations[2].Shares)

	assert.Equal(t, int64(5), f.holding(t, a.UserID))
	assert.Equal(t, int64(3), f.holding(t, b.UserID))
	assert.Equal(t, int64(2), f.holding(t, c.UserID))

	cs, err := f.svc.ListContributions(ctx, p.ProjectID)
	require.NoError(t, err)
	var total int64
	for _, c := range cs {
		require.NotNil(t, c.AllocatedShares)
		total += *c.AllocatedShares
	}
	assert.Equal(t, int64(10), total)
}

func TestFinalize_Idempotent(t *testing.T) {
	f := setupAllocationTest(t)
	ctx := context.Background()
	p := f.activeProject(t, 100, 7)

	a, b := member(), member()
	_, err := f.svc.Contribute(ctx, a, p.ProjectID, 10)
	require.NoError(t, err)
	_, err = f.svc.Contribute(ctx, b, p.ProjectID, 20)
	require.NoError(t, err)

	first, err := f.svc.Finalize(ctx, f.board, p.ProjectID)
	require.NoError(t, err)
	second, err := f.svc.Finalize(ctx, f.board, p.ProjectID)
	require.NoError(t, err)

	assert.True(t, second.AlreadyDone)
	assert.Equal(t, first.Allocations, second.Allocations)
	assert.Equal(t, first.Allocations[0].Shares, f.holding(t, a.UserID))
	assert.Equal(t, first.Allocations[1].Shares, f.holding(t, b.UserID))
	assert.Equal(t, int64(7), f.holding(t, a.UserID)+f.holding(t, b.UserID))
}

func TestFinalize_SameUserContributionsAccumulate(t *testing.T) {
	f := setupAllocationTest(t)
	ctx := context.Background()
	p := f.activeProject(t, 10, 9)

	a, b := member(), member()
	for _, who := range []domain.Actor{a, b, a} {
		_, err := f.svc.Contribute(ctx, who, p.ProjectID, 10)
		require.NoError(t, err)
	}
	_, err := f.svc.Finalize(ctx, f.board, p.ProjectID)
	require.NoError(t, err)

	assert.Equal(t, int64(6), f.holding(t, a.UserID))
	assert.Equal(t, int64(3), f.holding(t, b.UserID))
}

func TestFinalize_ZeroPath(t *testing.T) {
	f := setupAllocationTest(t)
	ctx := context.Background()

	t.Run("no contributions", func(t *testing.T) {
		p := f.activeProject(t, 100, 10)
		res, err := f.svc.Finalize(ctx, f.board, p.ProjectID)
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectDone, res.Project.Status)
		assert.Empty(t, res.Allocations)
	})

	t.Run("empty pool", func(t *testing.T) {
		p := f.activeProject(t, 100, 0)
		a := member()
		_, err := f.svc.Contribute(ctx, a, p.ProjectID, 40)
		require.NoError(t, err)

		res, err := f.svc.Finalize(ctx, f.board, p.ProjectID)
		require.NoError(t, err)
		require.Len(t, res.Allocations, 1)
		assert.Equal(t, int64(0), res.Allocations[0].Shares)

		var count int64
		require.NoError(t, f.db.Model(&domain.ShareHolding{}).Where("user_id = ?", a.UserID).Count(&count).Error)
		assert.Equal(t, int64(0), count)

		cs, err := f.svc.ListContributions(ctx, p.ProjectID)
		require.NoError(t, err)
		require.NotNil(t, cs[0].AllocatedShares)
		assert.Equal(t, int64(0), *cs[0].AllocatedShares)
	})
}

func TestFinalize_DraftAllowedCanceledRejected(t *testing.T) {
	f := setupAllocationTest(t)
	ctx := context.Background()

	draft, err := f.svc.CreateProject(ctx, f.board, ProjectInput{
		CooperativeID: f.coop.CooperativeID, Title: "Draft", GoalAmount: 10, SharesToDistribute: 5,
	})
	require.NoError(t, err)
	res, err := f.svc.Finalize(ctx, f.board, draft.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectDone, res.Project.Status)

	p := f.activeProject(t, 10, 5)
	_, err = f.svc.CancelProject(ctx, f.board, p.ProjectID)
	require.NoError(t, err)
	_, err = f.svc.Finalize(ctx, f.board, p.ProjectID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestFinalize_RequiresBoardOfCooperative(t *testing.T) {
	f := setupAllocationTest(t)
	ctx := context.Background()
	p := f.activeProject(t, 10, 5)

	other := uuid.New()
	outsider := domain.Actor{UserID: uuid.New(), Role: domain.RoleBoard, BoardCooperativeID: &other}
	_, err := f.svc.Finalize(ctx, outsider, p.ProjectID)
	assert.ErrorIs(t, err, domain.ErrPermission)

	_, err = f.svc.Finalize(ctx, member(), p.ProjectID)
	assert.ErrorIs(t, err, domain.ErrPermission)

	got, err := f.svc.GetProject(ctx, p.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectActive, got.Status)
}

func TestFinalize_PreallocatedRowRollsBack(t *testing.T) {
	f := setupAllocationTest(t)
	ctx := context.Background()
	p := f.activeProject(t, 10, 4)

	a, b := member(), member()
	_, err := f.svc.Contribute(ctx, a, p.ProjectID, 10)
	require.NoError(t, err)
	c, err := f.svc.Contribute(ctx, b, p.ProjectID, 10)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&domain.Contribution{}).
		Where("contribution_id = ?", c.ContributionID).Update("allocated_shares", 1).Error)

	_, err = f.svc.Finalize(ctx, f.board, p.ProjectID)
	assert.ErrorIs(t, err, domain.ErrConsistency)

	got, err := f.svc.GetProject(ctx, p.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectActive, got.Status)
	assert.Equal(t, int64(0), f.holding(t, a.UserID))
}

func TestFinalize_ConcurrentCallsCreditOnce(t *testing.T) {
	f := setupAllocationTest(t)
	ctx := context.Background()
	p := f.activeProject(t, 10, 10)

	a := member()
	_, err := f.svc.Contribute(ctx, a, p.ProjectID, 10)
	require.NoError(t, err)

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := f.svc.Finalize(ctx, f.board, p.ProjectID)
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-errs)
	}
	assert.Equal(t, int64(10), f.holding(t, a.UserID))
}

func TestContribute(t *testing.T) {
	f := setupAllocationTest(t)
	ctx := context.Background()
	p := f.activeProject(t, 100, 10)
	a := member()

	_, err := f.svc.Contribute(ctx, a, p.ProjectID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.svc.Contribute(ctx, domain.Actor{}, p.ProjectID, 10)
	assert.ErrorIs(t, err, domain.ErrPermission)
	_, err = f.svc.Contribute(ctx, a, uuid.New(), 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Contribute(ctx, a, p.ProjectID, 60)
	require.NoError(t, err)
	got, err := f.svc.GetProject(ctx, p.ProjectID)
	require.NoError(t, err)
	assert.False(t, got.IsFullyFunded)
	assert.Equal(t, int64(60), got.TotalContributed)

	_, err = f.svc.Contribute(ctx, a, p.ProjectID, 40)
	require.NoError(t, err)
	got, err = f.svc.GetProject(ctx, p.ProjectID)
	require.NoError(t, err)
	assert.True(t, got.IsFullyFunded)

	draft, err := f.svc.CreateProject(ctx, f.board, ProjectInput{
		CooperativeID: f.coop.CooperativeID, Title: "Later", GoalAmount: 10, SharesToDistribute: 1,
	})
	require.NoError(t, err)
	_, err = f.svc.Contribute(ctx, a, draft.ProjectID, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestProjectLifecycle(t *testing.T) {
	f := setupAllocationTest(t)
	ctx := context.Background()

	_, err := f.svc.CreateProject(ctx, member(), ProjectInput{CooperativeID: f.coop.CooperativeID, Title: "x", GoalAmount: 1})
	assert.ErrorIs(t, err, domain.ErrPermission)
	_, err = f.svc.CreateProject(ctx, f.board, ProjectInput{CooperativeID: f.coop.CooperativeID, Title: " ", GoalAmount: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = f.svc.CreateProject(ctx, f.board, ProjectInput{CooperativeID: f.coop.CooperativeID, Title: "x", GoalAmount: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	p := f.activeProject(t, 10, 1)
	again, err := f.svc.ActivateProject(ctx, f.board, p.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectActive, again.Status)

	_, err = f.svc.CancelProject(ctx, f.board, p.ProjectID)
	require.NoError(t, err)
	_, err = f.svc.ActivateProject(ctx, f.board, p.ProjectID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	second := f.activeProject(t, 10, 1)
	list, err := f.svc.ListProjects(ctx, f.coop.CooperativeID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ProjectID, list[0].ProjectID)

	none, err := f.svc.ListProjects(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.GetProject(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
