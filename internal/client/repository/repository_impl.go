package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/licenta/internal/client/domain"
	"github.com/smallbiznis/licenta/pkg/db/option"
	"github.com/smallbiznis/licenta/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertPersonal(ctx context.Context, db *gorm.DB, client *domain.PersonalClient) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO personal_clients (pesel, first_name, last_name, email, phone_number, metadata, is_deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		client.PESEL,
		client.FirstName,
		client.LastName,
		client.Email,
		client.PhoneNumber,
		client.Metadata,
		client.IsDeleted,
		client.CreatedAt,
		client.UpdatedAt,
	).Error
}

func (r *repo) InsertCompany(ctx context.Context, db *gorm.DB, client *domain.CompanyClient) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO company_clients (krs, name, address, email, phone_number, metadata, is_deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		client.KRS,
		client.Name,
		client.Address,
		client.Email,
		client.PhoneNumber,
		client.Metadata,
		client.IsDeleted,
		client.CreatedAt,
		client.UpdatedAt,
	).Error
}

func (r *repo) FindPersonalByID(ctx context.Context, db *gorm.DB, pesel string, includeRetired bool) (*domain.PersonalClient, error) {
	query := `SELECT pesel, first_name, last_name, email, phone_number, metadata, is_deleted, created_at, updated_at
		 FROM personal_clients WHERE pesel = ?`
	if !includeRetired {
		query += ` AND is_deleted = FALSE`
	}

	var client domain.PersonalClient
	err := db.WithContext(ctx).Raw(query, pesel).Scan(&client).Error
	if err != nil {
		return nil, err
	}
	if client.PESEL == "" {
		return nil, nil
	}
	return &client, nil
}

func (r *repo) FindCompanyByID(ctx context.Context, db *gorm.DB, krs string, includeRetired bool) (*domain.CompanyClient, error) {
	query := `SELECT krs, name, address, email, phone_number, metadata, is_deleted, created_at, updated_at
		 FROM company_clients WHERE krs = ?`
	if !includeRetired {
		query += ` AND is_deleted = FALSE`
	}

	var client domain.CompanyClient
	err := db.WithContext(ctx).Raw(query, krs).Scan(&client).Error
	if err != nil {
		return nil, err
	}
	if client.KRS == "" {
		return nil, nil
	}
	return &client, nil
}

func (r *repo) UpdatePersonal(ctx context.Context, db *gorm.DB, client *domain.PersonalClient) error {
	return db.WithContext(ctx).Exec(
		`UPDATE personal_clients
		 SET first_name = ?, last_name = ?, email = ?, phone_number = ?, updated_at = ?
		 WHERE pesel = ? AND is_deleted = FALSE`,
		client.FirstName,
		client.LastName,
		client.Email,
		client.PhoneNumber,
		client.UpdatedAt,
		client.PESEL,
	).Error
}

func (r *repo) UpdateCompany(ctx context.Context, db *gorm.DB, client *domain.CompanyClient) error {
	return db.WithContext(ctx).Exec(
		`UPDATE company_clients
		 SET name = ?, address = ?, email = ?, phone_number = ?, updated_at = ?
		 WHERE krs = ? AND is_deleted = FALSE`,
		client.Name,
		client.Address,
		client.Email,
		client.PhoneNumber,
		client.UpdatedAt,
		client.KRS,
	).Error
}

func (r *repo) ListPersonal(ctx context.Context, db *gorm.DB, filter domain.ListClientFilter, page pagination.Pagination) ([]*domain.PersonalClient, error) {
	var clients []*domain.PersonalClient
	stmt := db.WithContext(ctx).Model(&domain.PersonalClient{})
	if !filter.IncludeRetired {
		stmt = stmt.Where("is_deleted = ?", false)
	}
	if filter.Email != "" {
		stmt = stmt.Where("email = ?", filter.Email)
	}
	stmt = option.ApplyPagination(page, "pesel").Apply(stmt)
	err := stmt.
		Order("created_at desc, pesel desc").
		Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *repo) ListCompany(ctx context.Context, db *gorm.DB, filter domain.ListClientFilter, page pagination.Pagination) ([]*domain.CompanyClient, error) {
	var clients []*domain.CompanyClient
	stmt := db.WithContext(ctx).Model(&domain.CompanyClient{})
	if !filter.IncludeRetired {
		stmt = stmt.Where("is_deleted = ?", false)
	}
	if filter.Email != "" {
		stmt = stmt.Where("email = ?", filter.Email)
	}
	stmt = option.ApplyPagination(page, "krs").Apply(stmt)
	err := stmt.
		Order("created_at desc, krs desc").
		Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *repo) MarkRetired(ctx context.Context, db *gorm.DB, ref domain.ClientRef, retiredAt time.Time) error {
	switch ref.Kind {
	case domain.KindPersonal:
		return db.WithContext(ctx).Exec(
			`UPDATE personal_clients SET is_deleted = TRUE, updated_at = ? WHERE pesel = ?`,
			retiredAt,
			ref.ID,
		).Error
	case domain.KindCompany:
		return db.WithContext(ctx).Exec(
			`UPDATE company_clients SET is_deleted = TRUE, updated_at = ? WHERE krs = ?`,
			retiredAt,
			ref.ID,
		).Error
	default:
		return domain.ErrInvalidClientRef
	}
}

func (r *repo) CountOpenContracts(ctx context.Context, db *gorm.DB, ref domain.ClientRef) (int64, error) {
	column := "personal_client_id"
	if ref.Kind == domain.KindCompany {
		column = "company_client_id"
	}

	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM contracts WHERE `+column+` = ? AND is_deleted = FALSE`,
		ref.ID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
