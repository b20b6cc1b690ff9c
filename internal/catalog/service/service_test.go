package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/licenta/internal/catalog/domain"
	"github.com/smallbiznis/licenta/internal/catalog/repository"
	"github.com/smallbiznis/licenta/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS software (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		version TEXT NOT NULL,
		category TEXT NOT NULL,
		price INTEGER NOT NULL,
		currency TEXT NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`).Error)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS discounts (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		software_id INTEGER NOT NULL,
		percentage REAL NOT NULL,
		start_date TIMESTAMP NOT NULL,
		end_date TIMESTAMP NOT NULL,
		is_signed BOOLEAN NOT NULL DEFAULT FALSE,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`).Error)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS contracts (
		id INTEGER PRIMARY KEY,
		contract_type TEXT NOT NULL,
		personal_client_id TEXT,
		company_client_id TEXT,
		software_id INTEGER NOT NULL,
		discount_id INTEGER,
		price INTEGER NOT NULL,
		currency TEXT NOT NULL,
		start_date TIMESTAMP NOT NULL,
		end_date TIMESTAMP NOT NULL,
		years_supported INTEGER NOT NULL DEFAULT 0,
		is_signed BOOLEAN NOT NULL DEFAULT FALSE,
		is_paid BOOLEAN NOT NULL DEFAULT FALSE,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TIMESTAMP,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`).Error)

	return db
}

func setupCatalogService(t *testing.T, clk clock.Clock) (*Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := &Service{
		db:    db,
		log:   zaptest.NewLogger(t),
		genID: node,
		clock: clk,
		repo:  repository.Provide(),
	}
	return svc, db, node
}

func TestCreateSoftwareDefaultsCurrency(t *testing.T) {
	svc, _, _ := setupCatalogService(t, clock.NewSystemClock())
	ctx := context.Background()

	created, err := svc.CreateSoftware(ctx, domain.CreateSoftwareRequest{
		Name:     "Licenta Office",
		Version:  "2.1.0",
		Category: "office",
		Price:    49900,
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultCurrency, created.Currency)
	assert.NotZero(t, created.ID)

	_, err = svc.CreateSoftware(ctx, domain.CreateSoftwareRequest{Name: "", Price: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.CreateSoftware(ctx, domain.CreateSoftwareRequest{Name: "Neg", Price: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestUpdateSoftwareDoesNotTouchContracts(t *testing.T) {
	svc, db, node := setupCatalogService(t, clock.NewSystemClock())
	ctx := context.Background()

	created, err := svc.CreateSoftware(ctx, domain.CreateSoftwareRequest{
		Name:  "Licenta Office",
		Price: 10000,
	})
	require.NoError(t, err)

	// A contract that captured the old price.
	now := time.Now().UTC()
	contractID := node.Generate()
	require.NoError(t, db.Exec(`INSERT INTO contracts
		(id, contract_type, personal_client_id, software_id, price, currency, start_date, end_date, created_at, updated_at)
		VALUES (?, 'PRIVATE', '90010112345', ?, 10000, 'PLN', ?, ?, ?, ?)`,
		contractID, created.ID, now, now.AddDate(1, 0, 0), now, now).Error)

	updated, err := svc.UpdateSoftware(ctx, domain.UpdateSoftwareRequest{
		ID:    created.ID.String(),
		Name:  "Licenta Office",
		Price: 12000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12000), updated.Price)

	var contractPrice int64
	require.NoError(t, db.Raw(`SELECT price FROM contracts WHERE id = ?`, contractID).Scan(&contractPrice).Error)
	assert.Equal(t, int64(10000), contractPrice, "captured price is immutable")
}

func TestSignDiscount(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	svc, _, _ := setupCatalogService(t, clk)
	ctx := context.Background()

	software, err := svc.CreateSoftware(ctx, domain.CreateSoftwareRequest{Name: "Licenta Office", Price: 10000})
	require.NoError(t, err)

	discount, err := svc.CreateDiscount(ctx, domain.CreateDiscountRequest{
		SoftwareID: software.ID.String(),
		Name:       "Summer",
		Percentage: 25,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.False(t, discount.IsSigned)

	signed, err := svc.SignDiscount(ctx, domain.SignDiscountRequest{ID: discount.ID.String()})
	require.NoError(t, err)
	assert.True(t, signed.IsSigned)

	// Signing again is a no-op, not an error.
	again, err := svc.SignDiscount(ctx, domain.SignDiscountRequest{ID: discount.ID.String()})
	require.NoError(t, err)
	assert.True(t, again.IsSigned)
}

func TestSignDiscountOutsideWindow(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))
	svc, _, _ := setupCatalogService(t, clk)
	ctx := context.Background()

	software, err := svc.CreateSoftware(ctx, domain.CreateSoftwareRequest{Name: "Licenta Office", Price: 10000})
	require.NoError(t, err)

	discount, err := svc.CreateDiscount(ctx, domain.CreateDiscountRequest{
		SoftwareID: software.ID.String(),
		Name:       "Expired",
		Percentage: 25,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = svc.SignDiscount(ctx, domain.SignDiscountRequest{ID: discount.ID.String()})
	assert.ErrorIs(t, err, domain.ErrDiscountNotActivatable)
}

func TestCreateDiscountValidation(t *testing.T) {
	svc, _, node := setupCatalogService(t, clock.NewSystemClock())
	ctx := context.Background()

	software, err := svc.CreateSoftware(ctx, domain.CreateSoftwareRequest{Name: "Licenta Office", Price: 10000})
	require.NoError(t, err)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	_, err = svc.CreateDiscount(ctx, domain.CreateDiscountRequest{
		SoftwareID: software.ID.String(), Name: "Too big", Percentage: 101, StartDate: start, EndDate: end,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPercentage)

	_, err = svc.CreateDiscount(ctx, domain.CreateDiscountRequest{
		SoftwareID: software.ID.String(), Name: "Backwards", Percentage: 10, StartDate: end, EndDate: start,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)

	_, err = svc.CreateDiscount(ctx, domain.CreateDiscountRequest{
		SoftwareID: node.Generate().String(), Name: "Orphan", Percentage: 10, StartDate: start, EndDate: end,
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestRetireSoftwareBlockedByOpenContract(t *testing.T) {
	svc, db, node := setupCatalogService(t, clock.NewSystemClock())
	ctx := context.Background()

	software, err := svc.CreateSoftware(ctx, domain.CreateSoftwareRequest{Name: "Licenta Office", Price: 10000})
	require.NoError(t, err)

	now := time.Now().UTC()
	contractID := node.Generate()
	require.NoError(t, db.Exec(`INSERT INTO contracts
		(id, contract_type, personal_client_id, software_id, price, currency, start_date, end_date, created_at, updated_at)
		VALUES (?, 'PRIVATE', '90010112345', ?, 10000, 'PLN', ?, ?, ?, ?)`,
		contractID, software.ID, now, now.AddDate(1, 0, 0), now, now).Error)

	err = svc.RetireSoftware(ctx, domain.RetireSoftwareRequest{ID: software.ID.String()})
	assert.ErrorIs(t, err, domain.ErrHasActiveContracts)

	require.NoError(t, db.Exec(`UPDATE contracts SET is_deleted = TRUE WHERE id = ?`, contractID).Error)
	require.NoError(t, svc.RetireSoftware(ctx, domain.RetireSoftwareRequest{ID: software.ID.String()}))

	_, err = svc.GetSoftware(ctx, domain.GetSoftwareRequest{ID: software.ID.String()})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	got, err := svc.GetSoftware(ctx, domain.GetSoftwareRequest{ID: software.ID.String(), IncludeRetired: true})
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
}

func TestRetireDiscountBlockedByOpenContract(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	svc, db, node := setupCatalogService(t, clk)
	ctx := context.Background()

	software, err := svc.CreateSoftware(ctx, domain.CreateSoftwareRequest{Name: "Licenta Office", Price: 10000})
	require.NoError(t, err)

	discount, err := svc.CreateDiscount(ctx, domain.CreateDiscountRequest{
		SoftwareID: software.ID.String(),
		Name:       "Summer",
		Percentage: 25,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	now := clk.Now()
	require.NoError(t, db.Exec(`INSERT INTO contracts
		(id, contract_type, personal_client_id, software_id, discount_id, price, currency, start_date, end_date, created_at, updated_at)
		VALUES (?, 'PRIVATE', '90010112345', ?, ?, 7500, 'PLN', ?, ?, ?, ?)`,
		node.Generate(), software.ID, discount.ID, now, now.AddDate(1, 0, 0), now, now).Error)

	err = svc.RetireDiscount(ctx, domain.RetireDiscountRequest{ID: discount.ID.String()})
	assert.ErrorIs(t, err, domain.ErrHasActiveContracts)
}
