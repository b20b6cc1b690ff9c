package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/licenta/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	InsertPersonal(ctx context.Context, db *gorm.DB, client *PersonalClient) error
	InsertCompany(ctx context.Context, db *gorm.DB, client *CompanyClient) error
	FindPersonalByID(ctx context.Context, db *gorm.DB, pesel string, includeRetired bool) (*PersonalClient, error)
	FindCompanyByID(ctx context.Context, db *gorm.DB, krs string, includeRetired bool) (*CompanyClient, error)
	UpdatePersonal(ctx context.Context, db *gorm.DB, client *PersonalClient) error
	UpdateCompany(ctx context.Context, db *gorm.DB, client *CompanyClient) error
	ListPersonal(ctx context.Context, db *gorm.DB, filter ListClientFilter, page pagination.Pagination) ([]*PersonalClient, error)
	ListCompany(ctx context.Context, db *gorm.DB, filter ListClientFilter, page pagination.Pagination) ([]*CompanyClient, error)
	MarkRetired(ctx context.Context, db *gorm.DB, ref ClientRef, retiredAt time.Time) error
	CountOpenContracts(ctx context.Context, db *gorm.DB, ref ClientRef) (int64, error)
}
