package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/licenta/internal/clock"
	contractdomain "github.com/smallbiznis/licenta/internal/contract/domain"
	contractrepository "github.com/smallbiznis/licenta/internal/contract/repository"
	domain "github.com/smallbiznis/licenta/internal/payment/domain"
	"github.com/smallbiznis/licenta/internal/payment/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	svc          *Service
	db           *gorm.DB
	node         *snowflake.Node
	clk          *clock.FakeClock
	contractRepo contractdomain.Repository
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

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

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY,
		contract_id INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		payment_date TIMESTAMP NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		CONSTRAINT ck_payments_amount CHECK (amount > 0)
	)`).Error)

	return db
}

func setupPaymentService(t *testing.T) fixture {
	t.Helper()
	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	contractRepo := contractrepository.Provide()

	svc := &Service{
		db:           db,
		log:          zaptest.NewLogger(t),
		genID:        node,
		clock:        clk,
		repo:         repository.Provide(),
		contractRepo: contractRepo,
	}
	return fixture{svc: svc, db: db, node: node, clk: clk, contractRepo: contractRepo}
}

func (f fixture) seedContract(t *testing.T, price int64) contractdomain.Contract {
	t.Helper()
	now := f.clk.Now()
	pesel := "90010112345"
	contract := contractdomain.Contract{
		ID:               f.node.Generate(),
		ContractType:     contractdomain.TypePrivate,
		PersonalClientID: &pesel,
		SoftwareID:       f.node.Generate(),
		Price:            price,
		Currency:         "PLN",
		StartDate:        now,
		EndDate:          now.AddDate(1, 0, 0),
		IsSigned:         true,
		Metadata:         datatypes.JSONMap{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, f.contractRepo.Insert(context.Background(), f.db, &contract))
	return contract
}

func (f fixture) contractPaid(t *testing.T, id snowflake.ID) bool {
	t.Helper()
	contract, err := f.contractRepo.FindByID(context.Background(), f.db, id, true)
	require.NoError(t, err)
	require.NotNil(t, contract)
	return contract.IsPaid
}

func TestRecordPaymentsSettleContract(t *testing.T) {
	f := setupPaymentService(t)
	ctx := context.Background()

	// 100.00 priced contract, paid in a 60.00 and a 40.00 instalment.
	contract := f.seedContract(t, 10000)

	first, err := f.svc.Record(ctx, domain.RecordPaymentRequest{
		ContractID: contract.ID.String(),
		Amount:     6000,
	})
	require.NoError(t, err)
	assert.Equal(t, "PLN", first.Currency, "currency defaults to the contract's")
	assert.False(t, f.contractPaid(t, contract.ID), "60.00 of 100.00 is not settled")

	second, err := f.svc.Record(ctx, domain.RecordPaymentRequest{
		ContractID: contract.ID.String(),
		Amount:     4000,
	})
	require.NoError(t, err)
	assert.True(t, f.contractPaid(t, contract.ID), "60.00 + 40.00 settles the contract")

	// Voiding the second instalment flips the contract back to unpaid.
	require.NoError(t, f.svc.Void(ctx, domain.VoidPaymentRequest{ID: second.ID.String()}))
	assert.False(t, f.contractPaid(t, contract.ID))

	balance, err := f.svc.OutstandingBalance(ctx, domain.OutstandingBalanceRequest{ContractID: contract.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), balance.Outstanding)
	assert.Equal(t, int64(6000), balance.Paid)
	assert.False(t, balance.IsPaid)
}

func TestRecordPaymentValidation(t *testing.T) {
	f := setupPaymentService(t)
	ctx := context.Background()

	contract := f.seedContract(t, 10000)

	_, err := f.svc.Record(ctx, domain.RecordPaymentRequest{ContractID: contract.ID.String(), Amount: 0})
	assert.ErrorIs(t, err, domain.ErrNonPositiveAmount)

	_, err = f.svc.Record(ctx, domain.RecordPaymentRequest{ContractID: contract.ID.String(), Amount: -100})
	assert.ErrorIs(t, err, domain.ErrNonPositiveAmount)

	_, err = f.svc.Record(ctx, domain.RecordPaymentRequest{ContractID: contract.ID.String(), Amount: 100, Currency: "EUR"})
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	_, err = f.svc.Record(ctx, domain.RecordPaymentRequest{ContractID: f.node.Generate().String(), Amount: 100})
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
}

func TestRecordPaymentOnRetiredContract(t *testing.T) {
	f := setupPaymentService(t)
	ctx := context.Background()

	contract := f.seedContract(t, 10000)
	require.NoError(t, f.contractRepo.MarkDeleted(ctx, f.db, contract.ID, f.clk.Now()))

	_, err := f.svc.Record(ctx, domain.RecordPaymentRequest{ContractID: contract.ID.String(), Amount: 100})
	assert.ErrorIs(t, err, domain.ErrContractDeleted)
}

func TestOverpaymentStaysSettled(t *testing.T) {
	f := setupPaymentService(t)
	ctx := context.Background()

	contract := f.seedContract(t, 10000)

	_, err := f.svc.Record(ctx, domain.RecordPaymentRequest{ContractID: contract.ID.String(), Amount: 15000})
	require.NoError(t, err)
	assert.True(t, f.contractPaid(t, contract.ID))

	balance, err := f.svc.OutstandingBalance(ctx, domain.OutstandingBalanceRequest{ContractID: contract.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.Outstanding, "outstanding never goes negative")
	assert.Equal(t, int64(15000), balance.Paid)
	assert.True(t, balance.IsPaid)
}

func TestVoidPayment(t *testing.T) {
	f := setupPaymentService(t)
	ctx := context.Background()

	contract := f.seedContract(t, 10000)
	payment, err := f.svc.Record(ctx, domain.RecordPaymentRequest{ContractID: contract.ID.String(), Amount: 10000})
	require.NoError(t, err)
	require.True(t, f.contractPaid(t, contract.ID))

	require.NoError(t, f.svc.Void(ctx, domain.VoidPaymentRequest{ID: payment.ID.String()}))

	err = f.svc.Void(ctx, domain.VoidPaymentRequest{ID: payment.ID.String()})
	assert.ErrorIs(t, err, domain.ErrAlreadyVoided)

	err = f.svc.Void(ctx, domain.VoidPaymentRequest{ID: f.node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestListByContract(t *testing.T) {
	f := setupPaymentService(t)
	ctx := context.Background()

	contract := f.seedContract(t, 10000)

	first, err := f.svc.Record(ctx, domain.RecordPaymentRequest{ContractID: contract.ID.String(), Amount: 6000})
	require.NoError(t, err)
	f.clk.Advance(time.Hour)
	_, err = f.svc.Record(ctx, domain.RecordPaymentRequest{ContractID: contract.ID.String(), Amount: 4000})
	require.NoError(t, err)

	require.NoError(t, f.svc.Void(ctx, domain.VoidPaymentRequest{ID: first.ID.String()}))

	visible, err := f.svc.ListByContract(ctx, domain.ListPaymentsRequest{ContractID: contract.ID.String()})
	require.NoError(t, err)
	assert.Len(t, visible.Payments, 1, "voided entries are hidden by default")

	all, err := f.svc.ListByContract(ctx, domain.ListPaymentsRequest{ContractID: contract.ID.String(), IncludeVoided: true})
	require.NoError(t, err)
	require.Len(t, all.Payments, 2)
	assert.True(t, all.Payments[0].IsDeleted, "journal keeps the voided entry")

	_, err = f.svc.ListByContract(ctx, domain.ListPaymentsRequest{ContractID: f.node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
}
