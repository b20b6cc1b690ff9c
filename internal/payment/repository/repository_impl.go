package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	domain "github.com/smallbiznis/licenta/internal/payment/domain"
	"gorm.io/gorm"
)

const paymentColumns = `id, contract_id, amount, currency, payment_date, is_deleted, created_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, payment *domain.Payment) error {
	return conn.WithContext(ctx).Exec(`
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.ContractID,
		payment.Amount,
		payment.Currency,
		payment.PaymentDate,
		payment.IsDeleted,
		payment.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := conn.WithContext(ctx).Raw(`
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = ?`, id).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) SumByContract(ctx context.Context, conn *gorm.DB, contractID snowflake.ID) (int64, error) {
	var total int64
	err := conn.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE contract_id = ? AND is_deleted = ?`, contractID, false).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repo) MarkVoided(ctx context.Context, conn *gorm.DB, id snowflake.ID) error {
	return conn.WithContext(ctx).Exec(`
		UPDATE payments
		SET is_deleted = ?
		WHERE id = ?`, true, id).Error
}

func (r *repo) ListByContract(ctx context.Context, conn *gorm.DB, contractID snowflake.ID, includeVoided bool) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE contract_id = ?`
	if !includeVoided {
		query += ` AND is_deleted = FALSE`
	}
	query += ` ORDER BY payment_date ASC, id ASC`

	var payments []*domain.Payment
	if err := conn.WithContext(ctx).Raw(query, contractID).Scan(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
