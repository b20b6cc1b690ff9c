package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/licenta/internal/catalog/domain"
	clientdomain "github.com/smallbiznis/licenta/internal/client/domain"
	"github.com/smallbiznis/licenta/internal/clock"
	domain "github.com/smallbiznis/licenta/internal/contract/domain"
	obsmetrics "github.com/smallbiznis/licenta/internal/observability/metrics"
	pkgdb "github.com/smallbiznis/licenta/pkg/db"
	"github.com/smallbiznis/licenta/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	ClientRepo  clientdomain.Repository
	CatalogRepo catalogdomain.Repository
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	clientRepo  clientdomain.Repository
	catalogRepo catalogdomain.Repository
	obsMetrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("contract.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		clientRepo:  p.ClientRepo,
		catalogRepo: p.CatalogRepo,
		obsMetrics:  p.ObsMetrics,
	}
}

// Create validates the discriminated union and the contract window,
// resolves client, product and optional discount, captures the
// effective price, and persists the draft. Everything after validation
// runs in one transaction; a failure at any step leaves no trace.
func (s *Service) Create(ctx context.Context, req domain.CreateContractRequest) (domain.Contract, error) {
	ref, err := resolveClientRef(req)
	if err != nil {
		return domain.Contract{}, err
	}
	if !req.StartDate.Before(req.EndDate) {
		return domain.Contract{}, domain.ErrInvalidWindow
	}
	if req.YearsSupported < 0 {
		return domain.Contract{}, domain.ErrInvalidYearsSupported
	}

	softwareID, err := s.parseID(req.SoftwareID)
	if err != nil {
		return domain.Contract{}, err
	}

	var discountID *snowflake.ID
	if strings.TrimSpace(req.DiscountID) != "" {
		id, err := s.parseID(req.DiscountID)
		if err != nil {
			return domain.Contract{}, err
		}
		discountID = &id
	}

	var created domain.Contract
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureClientExists(ctx, tx, ref); err != nil {
			return err
		}

		software, err := s.catalogRepo.FindSoftwareByID(ctx, tx, softwareID, false)
		if err != nil {
			return err
		}
		if software == nil {
			return domain.ErrProductNotFound
		}

		now := s.clock.Now()
		price := software.Price
		if discountID != nil {
			discount, err := s.catalogRepo.FindDiscountByID(ctx, tx, *discountID, false)
			if err != nil {
				return err
			}
			if discount == nil || !discount.Applicable(softwareID, now) {
				return domain.ErrDiscountNotApplicable
			}
			price = catalogdomain.EffectivePrice(software.Price, discount.Percentage)
		}

		open, err := s.repo.CountOpenByClientAndSoftware(ctx, tx, ref, softwareID)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.ErrContractExists
		}

		created = domain.Contract{
			ID:             s.genID.Generate(),
			ContractType:   req.Type,
			SoftwareID:     softwareID,
			DiscountID:     discountID,
			Price:          price,
			Currency:       software.Currency,
			StartDate:      req.StartDate.UTC(),
			EndDate:        req.EndDate.UTC(),
			YearsSupported: req.YearsSupported,
			Metadata:       metadataOrEmpty(req.Metadata),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if ref.Kind == clientdomain.KindPersonal {
			created.PersonalClientID = &ref.ID
		} else {
			created.CompanyClientID = &ref.ID
		}

		if err := s.repo.Insert(ctx, tx, &created); err != nil {
			if pkgdb.IsCheckConstraintErr(err) {
				s.log.Error("contract insert tripped the union constraint",
					zap.String("contract_type", string(req.Type)),
					zap.Error(err),
				)
				return domain.ErrClientUnionViolation
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Contract{}, err
	}

	s.obsMetrics.RecordContractCreated(ctx, string(created.ContractType), created.DiscountID != nil)
	return created, nil
}

// Sign transitions is_signed false→true. Signing an already-signed
// contract succeeds without touching the row.
func (s *Service) Sign(ctx context.Context, req domain.SignContractRequest) (domain.Contract, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Contract{}, err
	}

	var signed domain.Contract
	var already bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrContractNotFound
		}
		if existing.IsDeleted {
			return domain.ErrContractDeleted
		}
		if existing.IsSigned {
			already = true
			signed = *existing
			return nil
		}

		now := s.clock.Now()
		if err := s.repo.MarkSigned(ctx, tx, id, now); err != nil {
			return err
		}
		existing.IsSigned = true
		existing.UpdatedAt = now
		signed = *existing
		return nil
	})
	if err != nil {
		return domain.Contract{}, err
	}

	if !already {
		s.obsMetrics.RecordContractSigned(ctx)
	}
	return signed, nil
}

// Cancel withdraws a contract before fulfilment.
func (s *Service) Cancel(ctx context.Context, req domain.CancelContractRequest) error {
	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	if err := s.retire(ctx, id, false); err != nil {
		return err
	}
	s.obsMetrics.RecordContractRetired(ctx, string(domain.StatusCancelled))
	return nil
}

// Close retires a fulfilled contract. Only valid once the contract
// window has elapsed; Cancel is the early-withdrawal path.
func (s *Service) Close(ctx context.Context, req domain.CloseContractRequest) error {
	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	if err := s.retire(ctx, id, true); err != nil {
		return err
	}
	s.obsMetrics.RecordContractRetired(ctx, string(domain.StatusClosed))
	return nil
}

func (s *Service) retire(ctx context.Context, id snowflake.ID, requireElapsed bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrContractNotFound
		}
		if existing.IsDeleted {
			return domain.ErrContractDeleted
		}

		now := s.clock.Now()
		if requireElapsed && !now.After(existing.EndDate) {
			return domain.ErrWindowNotElapsed
		}

		return s.repo.MarkDeleted(ctx, tx, id, now)
	})
}

func (s *Service) Get(ctx context.Context, req domain.GetContractRequest) (domain.Contract, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Contract{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id, req.IncludeRetired)
	if err != nil {
		return domain.Contract{}, err
	}
	if item == nil {
		return domain.Contract{}, domain.ErrContractNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListContractsRequest) (domain.ListContractsResponse, error) {
	filter := domain.ListContractFilter{
		Signed:         req.Signed,
		Paid:           req.Paid,
		ActiveFrom:     req.ActiveFrom,
		ActiveTo:       req.ActiveTo,
		IncludeRetired: req.IncludeRetired,
	}

	if strings.TrimSpace(req.ClientID) != "" {
		ref := clientdomain.ClientRef{
			Kind: clientdomain.ClientKind(strings.ToUpper(strings.TrimSpace(req.ClientKind))),
			ID:   strings.TrimSpace(req.ClientID),
		}
		if err := ref.Validate(); err != nil {
			return domain.ListContractsResponse{}, err
		}
		filter.ClientRef = &ref
	}
	if strings.TrimSpace(req.SoftwareID) != "" {
		softwareID, err := s.parseID(req.SoftwareID)
		if err != nil {
			return domain.ListContractsResponse{}, err
		}
		filter.SoftwareID = softwareID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListContractsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(contract *domain.Contract) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        contract.ID.String(),
			CreatedAt: contract.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	contracts := make([]domain.Contract, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		contracts = append(contracts, *item)
	}

	resp := domain.ListContractsResponse{Contracts: contracts}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) ensureClientExists(ctx context.Context, tx *gorm.DB, ref clientdomain.ClientRef) error {
	switch ref.Kind {
	case clientdomain.KindPersonal:
		client, err := s.clientRepo.FindPersonalByID(ctx, tx, ref.ID, false)
		if err != nil {
			return err
		}
		if client == nil {
			return domain.ErrClientNotFound
		}
	case clientdomain.KindCompany:
		client, err := s.clientRepo.FindCompanyByID(ctx, tx, ref.ID, false)
		if err != nil {
			return err
		}
		if client == nil {
			return domain.ErrClientNotFound
		}
	default:
		return domain.ErrInvalidType
	}
	return nil
}

// resolveClientRef enforces the discriminated union at the boundary:
// exactly one client reference, and it must match the contract type.
func resolveClientRef(req domain.CreateContractRequest) (clientdomain.ClientRef, error) {
	personal := strings.TrimSpace(req.PersonalClientID)
	company := strings.TrimSpace(req.CompanyClientID)

	if (personal == "") == (company == "") {
		return clientdomain.ClientRef{}, domain.ErrExactlyOneClientRef
	}

	var ref clientdomain.ClientRef
	switch req.Type {
	case domain.TypePrivate:
		if personal == "" {
			return clientdomain.ClientRef{}, domain.ErrClientTypeMismatch
		}
		ref = clientdomain.ClientRef{Kind: clientdomain.KindPersonal, ID: personal}
	case domain.TypeCorporate:
		if company == "" {
			return clientdomain.ClientRef{}, domain.ErrClientTypeMismatch
		}
		ref = clientdomain.ClientRef{Kind: clientdomain.KindCompany, ID: company}
	default:
		return clientdomain.ClientRef{}, domain.ErrInvalidType
	}

	if err := ref.Validate(); err != nil {
		return clientdomain.ClientRef{}, err
	}
	return ref, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func metadataOrEmpty(metadata map[string]any) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(metadata)
}
