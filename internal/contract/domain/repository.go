package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallbiznis/licenta/internal/client/domain"
	"github.com/smallbiznis/licenta/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListContractFilter struct {
	ClientRef      *clientdomain.ClientRef
	SoftwareID     snowflake.ID
	Signed         *bool
	Paid           *bool
	ActiveFrom     *time.Time
	ActiveTo       *time.Time
	IncludeRetired bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contract *Contract) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, includeRetired bool) (*Contract, error)
	// FindByIDForUpdate locks the contract row for the duration of the
	// surrounding transaction. Soft-deleted rows are returned so the
	// caller can distinguish deleted from absent.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Contract, error)
	CountOpenByClientAndSoftware(ctx context.Context, db *gorm.DB, ref clientdomain.ClientRef, softwareID snowflake.ID) (int64, error)
	MarkSigned(ctx context.Context, db *gorm.DB, id snowflake.ID, signedAt time.Time) error
	MarkDeleted(ctx context.Context, db *gorm.DB, id snowflake.ID, deletedAt time.Time) error
	SetPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paid bool, at time.Time) error
	List(ctx context.Context, db *gorm.DB, filter ListContractFilter, page pagination.Pagination) ([]*Contract, error)
}
