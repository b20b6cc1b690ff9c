package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/licenta/internal/client/domain"
	"github.com/smallbiznis/licenta/internal/clock"
	obsmetrics "github.com/smallbiznis/licenta/internal/observability/metrics"
	"github.com/smallbiznis/licenta/pkg/db"
	"github.com/smallbiznis/licenta/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repo       domain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	repo       domain.Repository
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("client.service"),
		clock:      p.Clock,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) RegisterPersonal(ctx context.Context, req domain.RegisterPersonalRequest) (domain.PersonalClient, error) {
	pesel := strings.TrimSpace(req.PESEL)
	if err := domain.ValidatePESEL(pesel); err != nil {
		return domain.PersonalClient{}, err
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return domain.PersonalClient{}, domain.ErrInvalidName
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.PersonalClient{}, err
	}

	now := s.clock.Now()
	client := domain.PersonalClient{
		PESEL:       pesel,
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Metadata:    metadataOrEmpty(req.Metadata),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// The primary key carries the uniqueness rule, so a duplicate
	// registration surfaces as a constraint violation rather than a
	// racy read-then-insert.
	if err := s.repo.InsertPersonal(ctx, s.db, &client); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.PersonalClient{}, domain.ErrDuplicateIdentity
		}
		return domain.PersonalClient{}, err
	}

	s.obsMetrics.RecordClientRegistered(ctx, string(domain.KindPersonal))
	return client, nil
}

func (s *Service) RegisterCompany(ctx context.Context, req domain.RegisterCompanyRequest) (domain.CompanyClient, error) {
	krs := strings.TrimSpace(req.KRS)
	if err := domain.ValidateKRS(krs); err != nil {
		return domain.CompanyClient{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.CompanyClient{}, domain.ErrInvalidName
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.CompanyClient{}, err
	}

	now := s.clock.Now()
	client := domain.CompanyClient{
		KRS:         krs,
		Name:        name,
		Address:     strings.TrimSpace(req.Address),
		Email:       email,
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Metadata:    metadataOrEmpty(req.Metadata),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.InsertCompany(ctx, s.db, &client); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.CompanyClient{}, domain.ErrDuplicateIdentity
		}
		return domain.CompanyClient{}, err
	}

	s.obsMetrics.RecordClientRegistered(ctx, string(domain.KindCompany))
	return client, nil
}

func (s *Service) UpdatePersonal(ctx context.Context, req domain.UpdatePersonalRequest) (domain.PersonalClient, error) {
	pesel := strings.TrimSpace(req.PESEL)
	if err := domain.ValidatePESEL(pesel); err != nil {
		return domain.PersonalClient{}, err
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return domain.PersonalClient{}, domain.ErrInvalidName
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.PersonalClient{}, err
	}

	var updated domain.PersonalClient
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindPersonalByID(ctx, tx, pesel, false)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrClientNotFound
		}

		existing.FirstName = firstName
		existing.LastName = lastName
		existing.Email = email
		existing.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
		existing.UpdatedAt = s.clock.Now()

		if err := s.repo.UpdatePersonal(ctx, tx, existing); err != nil {
			return err
		}
		updated = *existing
		return nil
	})
	if err != nil {
		return domain.PersonalClient{}, err
	}
	return updated, nil
}

func (s *Service) UpdateCompany(ctx context.Context, req domain.UpdateCompanyRequest) (domain.CompanyClient, error) {
	krs := strings.TrimSpace(req.KRS)
	if err := domain.ValidateKRS(krs); err != nil {
		return domain.CompanyClient{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.CompanyClient{}, domain.ErrInvalidName
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.CompanyClient{}, err
	}

	var updated domain.CompanyClient
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindCompanyByID(ctx, tx, krs, false)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrClientNotFound
		}

		existing.Name = name
		existing.Address = strings.TrimSpace(req.Address)
		existing.Email = email
		existing.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
		existing.UpdatedAt = s.clock.Now()

		if err := s.repo.UpdateCompany(ctx, tx, existing); err != nil {
			return err
		}
		updated = *existing
		return nil
	})
	if err != nil {
		return domain.CompanyClient{}, err
	}
	return updated, nil
}

func (s *Service) GetPersonal(ctx context.Context, req domain.GetClientRequest) (domain.PersonalClient, error) {
	if req.Ref.Kind != domain.KindPersonal {
		return domain.PersonalClient{}, domain.ErrInvalidClientRef
	}
	if err := req.Ref.Validate(); err != nil {
		return domain.PersonalClient{}, err
	}

	item, err := s.repo.FindPersonalByID(ctx, s.db, req.Ref.ID, req.IncludeRetired)
	if err != nil {
		return domain.PersonalClient{}, err
	}
	if item == nil {
		return domain.PersonalClient{}, domain.ErrClientNotFound
	}
	return *item, nil
}

func (s *Service) GetCompany(ctx context.Context, req domain.GetClientRequest) (domain.CompanyClient, error) {
	if req.Ref.Kind != domain.KindCompany {
		return domain.CompanyClient{}, domain.ErrInvalidClientRef
	}
	if err := req.Ref.Validate(); err != nil {
		return domain.CompanyClient{}, err
	}

	item, err := s.repo.FindCompanyByID(ctx, s.db, req.Ref.ID, req.IncludeRetired)
	if err != nil {
		return domain.CompanyClient{}, err
	}
	if item == nil {
		return domain.CompanyClient{}, domain.ErrClientNotFound
	}
	return *item, nil
}

func (s *Service) ListPersonal(ctx context.Context, req domain.ListClientsRequest) (domain.ListPersonalResponse, error) {
	filter := domain.ListClientFilter{
		Email:          strings.TrimSpace(req.Email),
		IncludeRetired: req.IncludeRetired,
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListPersonal(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListPersonalResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(client *domain.PersonalClient) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        client.PESEL,
			CreatedAt: client.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	clients := make([]domain.PersonalClient, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clients = append(clients, *item)
	}

	resp := domain.ListPersonalResponse{Clients: clients}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) ListCompany(ctx context.Context, req domain.ListClientsRequest) (domain.ListCompanyResponse, error) {
	filter := domain.ListClientFilter{
		Email:          strings.TrimSpace(req.Email),
		IncludeRetired: req.IncludeRetired,
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListCompany(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListCompanyResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(client *domain.CompanyClient) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        client.KRS,
			CreatedAt: client.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	clients := make([]domain.CompanyClient, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clients = append(clients, *item)
	}

	resp := domain.ListCompanyResponse{Clients: clients}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// Retire soft-deletes a client. Retirement is blocked while any
// non-deleted contract still references the client; contracts that were
// themselves soft-deleted do not count.
func (s *Service) Retire(ctx context.Context, req domain.RetireClientRequest) error {
	if err := req.Ref.Validate(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.refExists(ctx, tx, req.Ref)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrClientNotFound
		}

		open, err := s.repo.CountOpenContracts(ctx, tx, req.Ref)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.ErrHasActiveContracts
		}

		return s.repo.MarkRetired(ctx, tx, req.Ref, s.clock.Now())
	})
}

func (s *Service) refExists(ctx context.Context, tx *gorm.DB, ref domain.ClientRef) (bool, error) {
	switch ref.Kind {
	case domain.KindPersonal:
		item, err := s.repo.FindPersonalByID(ctx, tx, ref.ID, false)
		if err != nil {
			return false, err
		}
		return item != nil, nil
	case domain.KindCompany:
		item, err := s.repo.FindCompanyByID(ctx, tx, ref.ID, false)
		if err != nil {
			return false, err
		}
		return item != nil, nil
	default:
		return false, domain.ErrInvalidClientRef
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func metadataOrEmpty(metadata map[string]any) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(metadata)
}
