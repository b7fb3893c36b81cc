package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"coopshares-backend/internal/application/coops"
	"coopshares-backend/internal/application/holdings"
	"coopshares-backend/internal/domain"
	"coopshares-backend/internal/infrastructure/database"
	"coopshares-backend/internal/infrastructure/ledger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type fixture struct {
	svc    *Service
	db     *gorm.DB
	coop   *domain.Cooperative
	board  domain.Actor
	buyer  *domain.Individual
	seller *domain.Individual
}

func newPerson(t *testing.T, db *gorm.DB, name, national string) *domain.Individual {
	sh := "SH-" + national
	ind := &domain.Individual{
		UserName: name, PasswordHash: "x", FullName: name, NationalNumber: national,
		Role: domain.RoleShareholder, ShareholderID: &sh, BankAccountNumber: "PENDING",
	}
	require.NoError(t, db.Create(ind).Error)
	return ind
}

func setupReportsTest(t *testing.T) *fixture {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	coop := &domain.Cooperative{Name: "Saffron", PricePerShare: 10, TotalShares: 100, AvailablePrimaryShares: 95}
	require.NoError(t, db.Create(coop).Error)
	buyer := newPerson(t, db, "Buyer", "0011111111")
	seller := newPerson(t, db, "Seller", "0022222222")
	require.NoError(t, ledger.CreditHolding(db, coop.CooperativeID, buyer.IndividualID, 7))
	require.NoError(t, ledger.CreditHolding(db, coop.CooperativeID, seller.IndividualID, 0))

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.AppendTrade(db, &domain.ShareTrade{
		CooperativeID: coop.CooperativeID, BuyerID: buyer.IndividualID, Quantity: 5, PricePerShare: 10, CreatedAt: base,
	}))
	listingID := uuid.New()
	require.NoError(t, ledger.AppendTrade(db, &domain.ShareTrade{
		CooperativeID: coop.CooperativeID, BuyerID: buyer.IndividualID, SellerID: &seller.IndividualID,
		ListingID: &listingID, Quantity: 2, PricePerShare: 12, CreatedAt: base.Add(time.Hour),
	}))

	hs := &holdings.Service{DB: db}
	coopID := coop.CooperativeID
	return &fixture{
		svc:    &Service{DB: db, Summaries: &coops.Service{DB: db}, Holdings: hs},
		db:     db,
		coop:   coop,
		board:  domain.Actor{UserID: uuid.New(), Role: domain.RoleBoard, BoardCooperativeID: &coopID},
		buyer:  buyer,
		seller: seller,
	}
}

func csvRecords(t *testing.T, tbl *Table) [][]string {
	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return records
}

func TestShareholders(t *testing.T) {
	f := setupReportsTest(t)
	tbl, err := f.svc.Shareholders(context.Background(), f.board, f.coop.CooperativeID)
	require.NoError(t, err)

	records := csvRecords(t, tbl)
	require.Len(t, records, 2)
	assert.Equal(t, "shareholder_id", records[0][0])
	assert.Equal(t, []string{"SH-0011111111", "Buyer", "0011111111", "", "PENDING", "", "", "7"}, records[1])
}

func TestBoardExports_RequireBoardOfCoop(t *testing.T) {
	f := setupReportsTest(t)
	ctx := context.Background()
	other := uuid.New()
	outsider := domain.Actor{UserID: uuid.New(), Role: domain.RoleBoard, BoardCooperativeID: &other}

	_, err := f.svc.Shareholders(ctx, outsider, f.coop.CooperativeID)
	assert.ErrorIs(t, err, domain.ErrPermission)
	_, err = f.svc.Trades(ctx, f.buyer.Actor(), f.coop.CooperativeID)
	assert.ErrorIs(t, err, domain.ErrPermission)
	_, err = f.svc.Summary(ctx, outsider, f.coop.CooperativeID)
	assert.ErrorIs(t, err, domain.ErrPermission)
}

func TestTrades_LabelsTreasury(t *testing.T) {
	f := setupReportsTest(t)
	tbl, err := f.svc.Trades(context.Background(), f.board, f.coop.CooperativeID)
	require.NoError(t, err)

	records := csvRecords(t, tbl)
	require.Len(t, records, 3)
	assert.Equal(t, "primary", records[1][2])
	assert.Equal(t, domain.TreasuryLabel, records[1][4])
	assert.Equal(t, "", records[1][5])
	assert.Equal(t, "50", records[1][8])
	assert.Equal(t, "secondary", records[2][2])
	assert.Equal(t, "Seller", records[2][4])
	assert.Equal(t, "24", records[2][8])
}

func TestSummary(t *testing.T) {
	f := setupReportsTest(t)
	tbl, err := f.svc.Summary(context.Background(), f.board, f.coop.CooperativeID)
	require.NoError(t, err)

	values := map[string]string{}
	for _, r := range csvRecords(t, tbl)[1:] {
		values[r[0]] = r[1]
	}
	assert.Equal(t, "Saffron", values["cooperative"])
	assert.Equal(t, "7", values["held_by_members"])
	assert.Equal(t, "2", values["trade_count"])
	assert.Equal(t, "5", values["primary_sold"])
	assert.Equal(t, "74", values["trade_volume"])
}

func TestMyTrades_Sides(t *testing.T) {
	f := setupReportsTest(t)
	ctx := context.Background()

	bought, err := f.svc.MyTrades(ctx, f.buyer.IndividualID)
	require.NoError(t, err)
	records := csvRecords(t, bought)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"buy", "Seller"}, records[1][2:4])
	assert.Equal(t, []string{"buy", domain.TreasuryLabel}, records[2][2:4])

	sold, err := f.svc.MyTrades(ctx, f.seller.IndividualID)
	require.NoError(t, err)
	records = csvRecords(t, sold)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Saffron", "sell", "Buyer", "2", "12", "24"}, records[1][1:])
}

func TestMyHoldingsAndContributions(t *testing.T) {
	f := setupReportsTest(t)
	ctx := context.Background()
	project := &domain.Project{CooperativeID: f.coop.CooperativeID, Title: "Well", GoalAmount: 100, Status: domain.ProjectDone, CreatedBy: f.board.UserID}
	require.NoError(t, f.db.Create(project).Error)
	shares := int64(3)
	require.NoError(t, f.db.Create(&domain.Contribution{ProjectID: project.ProjectID, UserID: f.buyer.IndividualID, Amount: 40, AllocatedShares: &shares}).Error)

	h, err := f.svc.MyHoldings(ctx, f.buyer.IndividualID)
	require.NoError(t, err)
	records := csvRecords(t, h)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Saffron", f.coop.CooperativeID.String(), "7", "0", "10", "70"}, records[1])

	c, err := f.svc.MyContributions(ctx, f.buyer.IndividualID)
	require.NoError(t, err)
	records = csvRecords(t, c)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Well", "DONE", "40", "3"}, records[1][1:])
}

func TestWriteXLSX(t *testing.T) {
	tbl := &Table{Name: "x", Header: []string{"name", "shares", "allocated"}}
	tbl.add("Saffron", int64(12), (*int64)(nil))

	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf, FormatXLSX))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"name", "shares", "allocated"}, rows[0])
	assert.Equal(t, []string{"Saffron", "12"}, rows[1])
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("xlsx")
	assert.True(t, ok)
	assert.Equal(t, "x.xlsx", (&Table{Name: "x"}).Filename(f))
	assert.Contains(t, FormatCSV.ContentType(), "text/csv")
	_, ok = ParseFormat("pdf")
	assert.False(t, ok)
}
