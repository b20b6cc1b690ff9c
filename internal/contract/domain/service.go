package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/licenta/pkg/db/pagination"
	"github.com/smallbiznis/licenta/pkg/licerr"
)

// CreateContractRequest carries both client fields on purpose: the
// service rejects any combination other than exactly one, matching the
// contract type, before anything is persisted.
type CreateContractRequest struct {
	Type             ContractType   `json:"contract_type"`
	PersonalClientID string         `json:"personal_client_id,omitempty"`
	CompanyClientID  string         `json:"company_client_id,omitempty"`
	SoftwareID       string         `json:"software_id"`
	DiscountID       string         `json:"discount_id,omitempty"`
	StartDate        time.Time      `json:"start_date"`
	EndDate          time.Time      `json:"end_date"`
	YearsSupported   int            `json:"years_supported"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

type SignContractRequest struct {
	ID string
}

type CancelContractRequest struct {
	ID string
}

type CloseContractRequest struct {
	ID string
}

type GetContractRequest struct {
	ID             string
	IncludeRetired bool
}

type ListContractsRequest struct {
	ClientKind     string
	ClientID       string
	SoftwareID     string
	Signed         *bool
	Paid           *bool
	ActiveFrom     *time.Time
	ActiveTo       *time.Time
	IncludeRetired bool
	PageToken      string
	PageSize       int32
}

type ListContractsResponse struct {
	pagination.PageInfo
	Contracts []Contract `json:"contracts"`
}

type Service interface {
	Create(context.Context, CreateContractRequest) (Contract, error)
	Sign(context.Context, SignContractRequest) (Contract, error)
	Cancel(context.Context, CancelContractRequest) error
	Close(context.Context, CloseContractRequest) error
	Get(context.Context, GetContractRequest) (Contract, error)
	List(context.Context, ListContractsRequest) (ListContractsResponse, error)
}

var (
	ErrInvalidType           = licerr.Validation("invalid_contract_type")
	ErrExactlyOneClientRef   = licerr.Validation("exactly_one_client_ref_required")
	ErrClientTypeMismatch    = licerr.Validation("client_ref_does_not_match_type")
	ErrInvalidWindow         = licerr.Validation("invalid_window")
	ErrInvalidYearsSupported = licerr.Validation("invalid_years_supported")
	ErrInvalidID             = licerr.Validation("invalid_id")
	ErrClientNotFound        = licerr.NotFound("client_not_found")
	ErrProductNotFound       = licerr.NotFound("product_not_found")
	ErrContractNotFound      = licerr.NotFound("contract_not_found")
	ErrDiscountNotApplicable = licerr.Conflict("discount_not_applicable")
	ErrContractExists        = licerr.Conflict("contract_already_exists")
	ErrContractDeleted       = licerr.Conflict("contract_already_deleted")
	ErrWindowNotElapsed      = licerr.Conflict("window_not_elapsed")
	ErrClientUnionViolation  = licerr.Invariant("client_union_violation")
)
