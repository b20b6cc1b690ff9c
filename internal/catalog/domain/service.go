package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/licenta/pkg/licerr"
)

type CreateSoftwareRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency,omitempty"`
}

type UpdateSoftwareRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
}

type GetSoftwareRequest struct {
	ID             string
	IncludeRetired bool
}

type ListSoftwareRequest struct {
	Category       string
	IncludeRetired bool
}

type RetireSoftwareRequest struct {
	ID string
}

type CreateDiscountRequest struct {
	SoftwareID string    `json:"software_id"`
	Name       string    `json:"name"`
	Percentage float64   `json:"percentage"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

type SignDiscountRequest struct {
	ID string
}

type GetDiscountRequest struct {
	ID             string
	IncludeRetired bool
}

type ListDiscountsRequest struct {
	SoftwareID     string
	IncludeRetired bool
}

type RetireDiscountRequest struct {
	ID string
}

type Service interface {
	CreateSoftware(context.Context, CreateSoftwareRequest) (Software, error)
	UpdateSoftware(context.Context, UpdateSoftwareRequest) (Software, error)
	GetSoftware(context.Context, GetSoftwareRequest) (Software, error)
	ListSoftware(context.Context, ListSoftwareRequest) ([]Software, error)
	RetireSoftware(context.Context, RetireSoftwareRequest) error

	CreateDiscount(context.Context, CreateDiscountRequest) (Discount, error)
	SignDiscount(context.Context, SignDiscountRequest) (Discount, error)
	GetDiscount(context.Context, GetDiscountRequest) (Discount, error)
	ListDiscounts(context.Context, ListDiscountsRequest) ([]Discount, error)
	RetireDiscount(context.Context, RetireDiscountRequest) error
}

var (
	ErrInvalidID              = licerr.Validation("invalid_id")
	ErrInvalidName            = licerr.Validation("invalid_name")
	ErrInvalidPrice           = licerr.Validation("invalid_price")
	ErrInvalidPercentage      = licerr.Validation("invalid_percentage")
	ErrInvalidWindow          = licerr.Validation("invalid_window")
	ErrProductNotFound        = licerr.NotFound("product_not_found")
	ErrDiscountNotFound       = licerr.NotFound("discount_not_found")
	ErrDiscountNotActivatable = licerr.Conflict("discount_not_activatable")
	ErrHasActiveContracts     = licerr.Conflict("catalog_entry_has_active_contracts")
)
