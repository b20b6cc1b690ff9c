package domain

import (
	"context"

	"github.com/smallbiznis/licenta/pkg/db/pagination"
	"github.com/smallbiznis/licenta/pkg/licerr"
)

type RegisterPersonalRequest struct {
	PESEL       string         `json:"pesel"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Email       string         `json:"email"`
	PhoneNumber string         `json:"phone_number"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type RegisterCompanyRequest struct {
	KRS         string         `json:"krs"`
	Name        string         `json:"name"`
	Address     string         `json:"address"`
	Email       string         `json:"email"`
	PhoneNumber string         `json:"phone_number"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// UpdatePersonalRequest replaces contact attributes. The identity key
// is immutable once set.
type UpdatePersonalRequest struct {
	PESEL       string `json:"pesel"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type UpdateCompanyRequest struct {
	KRS         string `json:"krs"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type GetClientRequest struct {
	Ref            ClientRef
	IncludeRetired bool
}

type ListClientFilter struct {
	Email          string
	IncludeRetired bool
}

type ListClientsRequest struct {
	Email          string
	IncludeRetired bool
	PageToken      string
	PageSize       int32
}

type ListPersonalResponse struct {
	pagination.PageInfo
	Clients []PersonalClient `json:"clients"`
}

type ListCompanyResponse struct {
	pagination.PageInfo
	Clients []CompanyClient `json:"clients"`
}

type RetireClientRequest struct {
	Ref ClientRef
}

type Service interface {
	RegisterPersonal(context.Context, RegisterPersonalRequest) (PersonalClient, error)
	RegisterCompany(context.Context, RegisterCompanyRequest) (CompanyClient, error)
	UpdatePersonal(context.Context, UpdatePersonalRequest) (PersonalClient, error)
	UpdateCompany(context.Context, UpdateCompanyRequest) (CompanyClient, error)
	GetPersonal(context.Context, GetClientRequest) (PersonalClient, error)
	GetCompany(context.Context, GetClientRequest) (CompanyClient, error)
	ListPersonal(context.Context, ListClientsRequest) (ListPersonalResponse, error)
	ListCompany(context.Context, ListClientsRequest) (ListCompanyResponse, error)
	Retire(context.Context, RetireClientRequest) error
}

var (
	ErrInvalidIdentity    = licerr.Validation("invalid_identity_format")
	ErrInvalidClientRef   = licerr.Validation("invalid_client_ref")
	ErrInvalidName        = licerr.Validation("invalid_name")
	ErrInvalidEmail       = licerr.Validation("invalid_email")
	ErrDuplicateIdentity  = licerr.Conflict("duplicate_identity")
	ErrClientNotFound     = licerr.NotFound("client_not_found")
	ErrHasActiveContracts = licerr.Conflict("client_has_active_contracts")
)
