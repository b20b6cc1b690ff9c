package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListSoftwareFilter struct {
	Category       string
	IncludeRetired bool
}

type ListDiscountFilter struct {
	SoftwareID     snowflake.ID
	IncludeRetired bool
}

type Repository interface {
	InsertSoftware(ctx context.Context, db *gorm.DB, software *Software) error
	FindSoftwareByID(ctx context.Context, db *gorm.DB, id snowflake.ID, includeRetired bool) (*Software, error)
	UpdateSoftware(ctx context.Context, db *gorm.DB, software *Software) error
	ListSoftware(ctx context.Context, db *gorm.DB, filter ListSoftwareFilter) ([]Software, error)
	MarkSoftwareRetired(ctx context.Context, db *gorm.DB, id snowflake.ID, retiredAt time.Time) error

	InsertDiscount(ctx context.Context, db *gorm.DB, discount *Discount) error
	FindDiscountByID(ctx context.Context, db *gorm.DB, id snowflake.ID, includeRetired bool) (*Discount, error)
	MarkDiscountSigned(ctx context.Context, db *gorm.DB, id snowflake.ID, signedAt time.Time) error
	ListDiscounts(ctx context.Context, db *gorm.DB, filter ListDiscountFilter) ([]Discount, error)
	MarkDiscountRetired(ctx context.Context, db *gorm.DB, id snowflake.ID, retiredAt time.Time) error

	CountOpenContractsForSoftware(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	CountOpenContractsForDiscount(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
