package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error

	// FindByID returns nil when no row matches.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)

	// SumByContract totals the non-voided journal entries for a
	// contract. Call it with the contract row locked, otherwise the
	// total can be stale by the time it is acted on.
	SumByContract(ctx context.Context, db *gorm.DB, contractID snowflake.ID) (int64, error)

	MarkVoided(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	ListByContract(ctx context.Context, db *gorm.DB, contractID snowflake.ID, includeVoided bool) ([]*Payment, error)
}
