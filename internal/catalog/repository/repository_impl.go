package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/licenta/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertSoftware(ctx context.Context, db *gorm.DB, software *domain.Software) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO software (id, name, description, version, category, price, currency, is_deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		software.ID,
		software.Name,
		software.Description,
		software.Version,
		software.Category,
		software.Price,
		software.Currency,
		software.IsDeleted,
		software.CreatedAt,
		software.UpdatedAt,
	).Error
}

func (r *repo) FindSoftwareByID(ctx context.Context, db *gorm.DB, id snowflake.ID, includeRetired bool) (*domain.Software, error) {
	query := `SELECT id, name, description, version, category, price, currency, is_deleted, created_at, updated_at
		 FROM software WHERE id = ?`
	if !includeRetired {
		query += ` AND is_deleted = FALSE`
	}

	var software domain.Software
	err := db.WithContext(ctx).Raw(query, id).Scan(&software).Error
	if err != nil {
		return nil, err
	}
	if software.ID == 0 {
		return nil, nil
	}
	return &software, nil
}

func (r *repo) UpdateSoftware(ctx context.Context, db *gorm.DB, software *domain.Software) error {
	return db.WithContext(ctx).Exec(
		`UPDATE software
		 SET name = ?, description = ?, version = ?, category = ?, price = ?, updated_at = ?
		 WHERE id = ? AND is_deleted = FALSE`,
		software.Name,
		software.Description,
		software.Version,
		software.Category,
		software.Price,
		software.UpdatedAt,
		software.ID,
	).Error
}

func (r *repo) ListSoftware(ctx context.Context, db *gorm.DB, filter domain.ListSoftwareFilter) ([]domain.Software, error) {
	var items []domain.Software
	stmt := db.WithContext(ctx).Model(&domain.Software{})
	if !filter.IncludeRetired {
		stmt = stmt.Where("is_deleted = ?", false)
	}
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkSoftwareRetired(ctx context.Context, db *gorm.DB, id snowflake.ID, retiredAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE software SET is_deleted = TRUE, updated_at = ? WHERE id = ?`,
		retiredAt,
		id,
	).Error
}

func (r *repo) InsertDiscount(ctx context.Context, db *gorm.DB, discount *domain.Discount) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO discounts (id, name, software_id, percentage, start_date, end_date, is_signed, is_deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		discount.ID,
		discount.Name,
		discount.SoftwareID,
		discount.Percentage,
		discount.StartDate,
		discount.EndDate,
		discount.IsSigned,
		discount.IsDeleted,
		discount.CreatedAt,
		discount.UpdatedAt,
	).Error
}

func (r *repo) FindDiscountByID(ctx context.Context, db *gorm.DB, id snowflake.ID, includeRetired bool) (*domain.Discount, error) {
	query := `SELECT id, name, software_id, percentage, start_date, end_date, is_signed, is_deleted, created_at, updated_at
		 FROM discounts WHERE id = ?`
	if !includeRetired {
		query += ` AND is_deleted = FALSE`
	}

	var discount domain.Discount
	err := db.WithContext(ctx).Raw(query, id).Scan(&discount).Error
	if err != nil {
		return nil, err
	}
	if discount.ID == 0 {
		return nil, nil
	}
	return &discount, nil
}

func (r *repo) MarkDiscountSigned(ctx context.Context, db *gorm.DB, id snowflake.ID, signedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE discounts SET is_signed = TRUE, updated_at = ? WHERE id = ?`,
		signedAt,
		id,
	).Error
}

func (r *repo) ListDiscounts(ctx context.Context, db *gorm.DB, filter domain.ListDiscountFilter) ([]domain.Discount, error) {
	var items []domain.Discount
	stmt := db.WithContext(ctx).Model(&domain.Discount{})
	if !filter.IncludeRetired {
		stmt = stmt.Where("is_deleted = ?", false)
	}
	if filter.SoftwareID != 0 {
		stmt = stmt.Where("software_id = ?", filter.SoftwareID)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkDiscountRetired(ctx context.Context, db *gorm.DB, id snowflake.ID, retiredAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE discounts SET is_deleted = TRUE, updated_at = ? WHERE id = ?`,
		retiredAt,
		id,
	).Error
}

func (r *repo) CountOpenContractsForSoftware(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM contracts WHERE software_id = ? AND is_deleted = FALSE`,
		id,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) CountOpenContractsForDiscount(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM contracts WHERE discount_id = ? AND is_deleted = FALSE`,
		id,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
