package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallbiznis/licenta/internal/client/domain"
	"github.com/smallbiznis/licenta/internal/contract/domain"
	"github.com/smallbiznis/licenta/pkg/db"
	"github.com/smallbiznis/licenta/pkg/db/option"
	"github.com/smallbiznis/licenta/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, contract *domain.Contract) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO contracts (
			id, contract_type, personal_client_id, company_client_id, software_id, discount_id,
			price, currency, start_date, end_date, years_supported,
			is_signed, is_paid, is_deleted, deleted_at, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		contract.ID,
		contract.ContractType,
		contract.PersonalClientID,
		contract.CompanyClientID,
		contract.SoftwareID,
		contract.DiscountID,
		contract.Price,
		contract.Currency,
		contract.StartDate,
		contract.EndDate,
		contract.YearsSupported,
		contract.IsSigned,
		contract.IsPaid,
		contract.IsDeleted,
		contract.DeletedAt,
		contract.Metadata,
		contract.CreatedAt,
		contract.UpdatedAt,
	).Error
}

const contractColumns = `id, contract_type, personal_client_id, company_client_id, software_id, discount_id,
	price, currency, start_date, end_date, years_supported,
	is_signed, is_paid, is_deleted, deleted_at, metadata, created_at, updated_at`

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID, includeRetired bool) (*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = ?`
	if !includeRetired {
		query += ` AND is_deleted = FALSE`
	}

	var contract domain.Contract
	err := conn.WithContext(ctx).Raw(query, id).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == 0 {
		return nil, nil
	}
	return &contract, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = ?` + db.ForUpdateSuffix(conn)

	var contract domain.Contract
	err := conn.WithContext(ctx).Raw(query, id).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == 0 {
		return nil, nil
	}
	return &contract, nil
}

func (r *repo) CountOpenByClientAndSoftware(ctx context.Context, conn *gorm.DB, ref clientdomain.ClientRef, softwareID snowflake.ID) (int64, error) {
	column := "personal_client_id"
	if ref.Kind == clientdomain.KindCompany {
		column = "company_client_id"
	}

	var count int64
	err := conn.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM contracts WHERE `+column+` = ? AND software_id = ? AND is_deleted = FALSE`,
		ref.ID,
		softwareID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) MarkSigned(ctx context.Context, conn *gorm.DB, id snowflake.ID, signedAt time.Time) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE contracts SET is_signed = TRUE, updated_at = ? WHERE id = ?`,
		signedAt,
		id,
	).Error
}

func (r *repo) MarkDeleted(ctx context.Context, conn *gorm.DB, id snowflake.ID, deletedAt time.Time) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE contracts SET is_deleted = TRUE, deleted_at = ?, updated_at = ? WHERE id = ?`,
		deletedAt,
		deletedAt,
		id,
	).Error
}

func (r *repo) SetPaid(ctx context.Context, conn *gorm.DB, id snowflake.ID, paid bool, at time.Time) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE contracts SET is_paid = ?, updated_at = ? WHERE id = ?`,
		paid,
		at,
		id,
	).Error
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListContractFilter, page pagination.Pagination) ([]*domain.Contract, error) {
	var contracts []*domain.Contract
	stmt := conn.WithContext(ctx).Model(&domain.Contract{})
	if !filter.IncludeRetired {
		stmt = stmt.Where("is_deleted = ?", false)
	}
	if filter.ClientRef != nil {
		if filter.ClientRef.Kind == clientdomain.KindCompany {
			stmt = stmt.Where("company_client_id = ?", filter.ClientRef.ID)
		} else {
			stmt = stmt.Where("personal_client_id = ?", filter.ClientRef.ID)
		}
	}
	if filter.SoftwareID != 0 {
		stmt = stmt.Where("software_id = ?", filter.SoftwareID)
	}
	if filter.Signed != nil {
		stmt = stmt.Where("is_signed = ?", *filter.Signed)
	}
	if filter.Paid != nil {
		stmt = stmt.Where("is_paid = ?", *filter.Paid)
	}
	// Date-range filtering matches contracts whose window overlaps the
	// requested range.
	if filter.ActiveFrom != nil {
		stmt = stmt.Where("end_date >= ?", *filter.ActiveFrom)
	}
	if filter.ActiveTo != nil {
		stmt = stmt.Where("start_date <= ?", *filter.ActiveTo)
	}
	stmt = option.ApplyPagination(page, "id").Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}
