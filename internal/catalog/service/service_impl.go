package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/licenta/internal/catalog/domain"
	"github.com/smallbiznis/licenta/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultCurrency prices catalog entries that do not specify one.
const DefaultCurrency = "PLN"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CreateSoftware(ctx context.Context, req domain.CreateSoftwareRequest) (domain.Software, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Software{}, domain.ErrInvalidName
	}
	if req.Price < 0 {
		return domain.Software{}, domain.ErrInvalidPrice
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	now := s.clock.Now()
	software := domain.Software{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Version:     strings.TrimSpace(req.Version),
		Category:    strings.TrimSpace(req.Category),
		Price:       req.Price,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.InsertSoftware(ctx, s.db, &software); err != nil {
		return domain.Software{}, err
	}
	return software, nil
}

// UpdateSoftware changes catalog attributes. Contracts capture price at
// signing, so a price update here never reprices existing contracts.
func (s *Service) UpdateSoftware(ctx context.Context, req domain.UpdateSoftwareRequest) (domain.Software, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Software{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Software{}, domain.ErrInvalidName
	}
	if req.Price < 0 {
		return domain.Software{}, domain.ErrInvalidPrice
	}

	var updated domain.Software
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindSoftwareByID(ctx, tx, id, false)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrProductNotFound
		}

		existing.Name = name
		existing.Description = strings.TrimSpace(req.Description)
		existing.Version = strings.TrimSpace(req.Version)
		existing.Category = strings.TrimSpace(req.Category)
		existing.Price = req.Price
		existing.UpdatedAt = s.clock.Now()

		if err := s.repo.UpdateSoftware(ctx, tx, existing); err != nil {
			return err
		}
		updated = *existing
		return nil
	})
	if err != nil {
		return domain.Software{}, err
	}
	return updated, nil
}

func (s *Service) GetSoftware(ctx context.Context, req domain.GetSoftwareRequest) (domain.Software, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Software{}, err
	}

	item, err := s.repo.FindSoftwareByID(ctx, s.db, id, req.IncludeRetired)
	if err != nil {
		return domain.Software{}, err
	}
	if item == nil {
		return domain.Software{}, domain.ErrProductNotFound
	}
	return *item, nil
}

func (s *Service) ListSoftware(ctx context.Context, req domain.ListSoftwareRequest) ([]domain.Software, error) {
	return s.repo.ListSoftware(ctx, s.db, domain.ListSoftwareFilter{
		Category:       strings.TrimSpace(req.Category),
		IncludeRetired: req.IncludeRetired,
	})
}

func (s *Service) RetireSoftware(ctx context.Context, req domain.RetireSoftwareRequest) error {
	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindSoftwareByID(ctx, tx, id, false)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrProductNotFound
		}

		open, err := s.repo.CountOpenContractsForSoftware(ctx, tx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.ErrHasActiveContracts
		}

		return s.repo.MarkSoftwareRetired(ctx, tx, id, s.clock.Now())
	})
}

func (s *Service) CreateDiscount(ctx context.Context, req domain.CreateDiscountRequest) (domain.Discount, error) {
	softwareID, err := s.parseID(req.SoftwareID)
	if err != nil {
		return domain.Discount{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Discount{}, domain.ErrInvalidName
	}
	if req.Percentage < 0 || req.Percentage > 100 {
		return domain.Discount{}, domain.ErrInvalidPercentage
	}
	if !req.StartDate.Before(req.EndDate) {
		return domain.Discount{}, domain.ErrInvalidWindow
	}

	var created domain.Discount
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		software, err := s.repo.FindSoftwareByID(ctx, tx, softwareID, false)
		if err != nil {
			return err
		}
		if software == nil {
			return domain.ErrProductNotFound
		}

		now := s.clock.Now()
		created = domain.Discount{
			ID:         s.genID.Generate(),
			Name:       name,
			SoftwareID: softwareID,
			Percentage: domain.RoundPercentage(req.Percentage),
			StartDate:  req.StartDate.UTC(),
			EndDate:    req.EndDate.UTC(),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return s.repo.InsertDiscount(ctx, tx, &created)
	})
	if err != nil {
		return domain.Discount{}, err
	}
	return created, nil
}

// SignDiscount activates the offer. Activation is only valid while the
// clock sits inside the discount window; an already-signed discount is
// left untouched.
func (s *Service) SignDiscount(ctx context.Context, req domain.SignDiscountRequest) (domain.Discount, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Discount{}, err
	}

	var signed domain.Discount
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindDiscountByID(ctx, tx, id, false)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrDiscountNotFound
		}
		if existing.IsSigned {
			signed = *existing
			return nil
		}

		now := s.clock.Now()
		if !existing.InWindow(now) {
			return domain.ErrDiscountNotActivatable
		}

		if err := s.repo.MarkDiscountSigned(ctx, tx, id, now); err != nil {
			return err
		}
		existing.IsSigned = true
		existing.UpdatedAt = now
		signed = *existing
		return nil
	})
	if err != nil {
		return domain.Discount{}, err
	}
	return signed, nil
}

func (s *Service) GetDiscount(ctx context.Context, req domain.GetDiscountRequest) (domain.Discount, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Discount{}, err
	}

	item, err := s.repo.FindDiscountByID(ctx, s.db, id, req.IncludeRetired)
	if err != nil {
		return domain.Discount{}, err
	}
	if item == nil {
		return domain.Discount{}, domain.ErrDiscountNotFound
	}
	return *item, nil
}

func (s *Service) ListDiscounts(ctx context.Context, req domain.ListDiscountsRequest) ([]domain.Discount, error) {
	filter := domain.ListDiscountFilter{IncludeRetired: req.IncludeRetired}
	if strings.TrimSpace(req.SoftwareID) != "" {
		softwareID, err := s.parseID(req.SoftwareID)
		if err != nil {
			return nil, err
		}
		filter.SoftwareID = softwareID
	}
	return s.repo.ListDiscounts(ctx, s.db, filter)
}

// RetireDiscount soft-deletes an offer. Blocked while a non-deleted
// contract priced itself with this discount.
func (s *Service) RetireDiscount(ctx context.Context, req domain.RetireDiscountRequest) error {
	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindDiscountByID(ctx, tx, id, false)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrDiscountNotFound
		}

		open, err := s.repo.CountOpenContractsForDiscount(ctx, tx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.ErrHasActiveContracts
		}

		return s.repo.MarkDiscountRetired(ctx, tx, id, s.clock.Now())
	})
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
