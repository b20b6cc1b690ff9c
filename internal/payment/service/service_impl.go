package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/licenta/internal/clock"
	contractdomain "github.com/smallbiznis/licenta/internal/contract/domain"
	obsmetrics "github.com/smallbiznis/licenta/internal/observability/metrics"
	domain "github.com/smallbiznis/licenta/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	ContractRepo contractdomain.Repository
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	contractRepo contractdomain.Repository
	obsMetrics   *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("payment.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		contractRepo: p.ContractRepo,
		obsMetrics:   p.ObsMetrics,
	}
}

// Record appends a journal entry and recomputes the contract's paid
// flag in the same transaction, with the contract row locked. The flag
// is always derived from the journal total, never toggled directly.
func (s *Service) Record(ctx context.Context, req domain.RecordPaymentRequest) (domain.Payment, error) {
	contractID, err := s.parseID(req.ContractID)
	if err != nil {
		return domain.Payment{}, err
	}
	if req.Amount <= 0 {
		return domain.Payment{}, domain.ErrNonPositiveAmount
	}

	var recorded domain.Payment
	var settled bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.contractRepo.FindByIDForUpdate(ctx, tx, contractID)
		if err != nil {
			return err
		}
		if contract == nil {
			return domain.ErrContractNotFound
		}
		if contract.IsDeleted {
			return domain.ErrContractDeleted
		}

		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		if currency == "" {
			currency = contract.Currency
		}
		if currency != contract.Currency {
			return domain.ErrCurrencyMismatch
		}

		now := s.clock.Now()
		paymentDate := req.PaymentDate
		if paymentDate.IsZero() {
			paymentDate = now
		}

		recorded = domain.Payment{
			ID:          s.genID.Generate(),
			ContractID:  contractID,
			Amount:      req.Amount,
			Currency:    currency,
			PaymentDate: paymentDate.UTC(),
			CreatedAt:   now,
		}
		if err := s.repo.Insert(ctx, tx, &recorded); err != nil {
			return err
		}

		settled, err = s.reconcile(ctx, tx, contract, now)
		return err
	})
	if err != nil {
		return domain.Payment{}, err
	}

	s.obsMetrics.RecordPaymentRecorded(ctx, settled)
	return recorded, nil
}

// Void soft-deletes a journal entry and recomputes the paid flag,
// which may flip a settled contract back to unpaid.
func (s *Service) Void(ctx context.Context, req domain.VoidPaymentRequest) error {
	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrPaymentNotFound
		}
		if payment.IsDeleted {
			return domain.ErrAlreadyVoided
		}

		contract, err := s.contractRepo.FindByIDForUpdate(ctx, tx, payment.ContractID)
		if err != nil {
			return err
		}
		if contract == nil {
			s.log.Error("payment references a missing contract",
				zap.String("payment_id", payment.ID.String()),
				zap.String("contract_id", payment.ContractID.String()),
			)
			return domain.ErrContractNotFound
		}

		if err := s.repo.MarkVoided(ctx, tx, id); err != nil {
			return err
		}

		_, err = s.reconcile(ctx, tx, contract, s.clock.Now())
		return err
	})
	if err != nil {
		return err
	}

	s.obsMetrics.RecordPaymentVoided(ctx)
	return nil
}

func (s *Service) ListByContract(ctx context.Context, req domain.ListPaymentsRequest) (domain.ListPaymentsResponse, error) {
	contractID, err := s.parseID(req.ContractID)
	if err != nil {
		return domain.ListPaymentsResponse{}, err
	}

	contract, err := s.contractRepo.FindByID(ctx, s.db, contractID, true)
	if err != nil {
		return domain.ListPaymentsResponse{}, err
	}
	if contract == nil {
		return domain.ListPaymentsResponse{}, domain.ErrContractNotFound
	}

	items, err := s.repo.ListByContract(ctx, s.db, contractID, req.IncludeVoided)
	if err != nil {
		return domain.ListPaymentsResponse{}, err
	}

	payments := make([]domain.Payment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payments = append(payments, *item)
	}
	return domain.ListPaymentsResponse{Payments: payments}, nil
}

func (s *Service) OutstandingBalance(ctx context.Context, req domain.OutstandingBalanceRequest) (domain.OutstandingBalanceResponse, error) {
	contractID, err := s.parseID(req.ContractID)
	if err != nil {
		return domain.OutstandingBalanceResponse{}, err
	}

	contract, err := s.contractRepo.FindByID(ctx, s.db, contractID, true)
	if err != nil {
		return domain.OutstandingBalanceResponse{}, err
	}
	if contract == nil {
		return domain.OutstandingBalanceResponse{}, domain.ErrContractNotFound
	}

	paid, err := s.repo.SumByContract(ctx, s.db, contractID)
	if err != nil {
		return domain.OutstandingBalanceResponse{}, err
	}

	outstanding := contract.Price - paid
	if outstanding < 0 {
		outstanding = 0
	}
	return domain.OutstandingBalanceResponse{
		Price:       contract.Price,
		Paid:        paid,
		Outstanding: outstanding,
		Currency:    contract.Currency,
		IsPaid:      paid >= contract.Price,
	}, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// reconcile derives is_paid from the non-voided journal total and
// writes it back only when it changed. Caller must hold the contract
// row lock.
func (s *Service) reconcile(ctx context.Context, tx *gorm.DB, contract *contractdomain.Contract, at time.Time) (bool, error) {
	total, err := s.repo.SumByContract(ctx, tx, contract.ID)
	if err != nil {
		return false, err
	}

	paid := total >= contract.Price
	if paid != contract.IsPaid {
		if err := s.contractRepo.SetPaid(ctx, tx, contract.ID, paid, at); err != nil {
			return false, err
		}
		contract.IsPaid = paid
	}
	return paid, nil
}
