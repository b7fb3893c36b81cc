package holdings

import (
	"context"
	"testing"
	"time"

	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/infrastructure/database"
	"coopshares-backend/internal/infrastructure/ledger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupHoldingsTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{DB: db}, db
}

func newCoop(t *testing.T, db *gorm.DB, name string, price int64) *domain.Cooperative {
	c := &domain.Cooperative{Name: name, PricePerShare: price}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestViewHoldings(t *testing.T) {
	s, db := setupHoldingsTest(t)
	user := uuid.New()
	saffron := newCoop(t, db, "Saffron", 100)
	almond := newCoop(t, db, "Almond", 50)
	require.NoError(t, ledger.CreditHolding(db, saffron.CooperativeID, user, 4))
	require.NoError(t, ledger.CreditHolding(db, almond.CooperativeID, user, 9))
	require.NoError(t, ledger.CreditHolding(db, almond.CooperativeID, uuid.New(), 3))
	require.NoError(t, db.Create(&domain.ShareListing{
		CooperativeID: almond.CooperativeID, SellerID: user, InitialQuantity: 2,
		QuantityAvailable: 2, Status: domain.ListingActive, PricePerShare: 50,
	}).Error)
	require.NoError(t, db.Create(&domain.ShareListing{
		CooperativeID: almond.CooperativeID, SellerID: user, InitialQuantity: 5,
		QuantityAvailable: 0, Status: domain.ListingCanceled, PricePerShare: 50,
	}).Error)

	views, err := s.ViewHoldings(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Almond", views[0].CooperativeName)
	assert.Equal(t, int64(9), views[0].Quantity)
	assert.Equal(t, int64(2), views[0].Listed)
	assert.Equal(t, int64(50), views[0].PricePerShare)
	assert.Equal(t, "Saffron", views[1].CooperativeName)
	assert.Equal(t, int64(0), views[1].Listed)

	_, err = s.ViewHoldings(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestViewHolding_NotFound(t *testing.T) {
	s, db := setupHoldingsTest(t)
	coop := newCoop(t, db, "Saffron", 100)
	_, err := s.ViewHolding(context.Background(), uuid.New(), coop.CooperativeID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestViewDashboard_RecentContributions(t *testing.T) {
	s, db := setupHoldingsTest(t)
	user := uuid.New()
	coop := newCoop(t, db, "Saffron", 100)
	project := &domain.Project{CooperativeID: coop.CooperativeID, Title: "Well", GoalAmount: 1000, Status: domain.ProjectActive, CreatedBy: user}
	require.NoError(t, db.Create(project).Error)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		require.NoError(t, db.Create(&domain.Contribution{
			ProjectID: project.ProjectID, UserID: user, Amount: int64(i + 1), CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	d, err := s.ViewDashboard(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, d.Holdings)
	require.Len(t, d.Contributions, 20)
	assert.Equal(t, int64(25), d.Contributions[0].Amount)
	assert.Equal(t, "Well", d.Contributions[0].ProjectTitle)
	assert.Equal(t, coop.CooperativeID, d.Contributions[0].CooperativeID)

	all, err := s.ViewContributions(context.Background(), user, 0)
	require.NoError(t, err)
	assert.Len(t, all, 25)
}
