package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/licenta/pkg/licerr"
)

type RecordPaymentRequest struct {
	ContractID  string    `json:"contract_id"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency,omitempty"`
	PaymentDate time.Time `json:"payment_date,omitempty"`
}

type VoidPaymentRequest struct {
	ID string
}

type ListPaymentsRequest struct {
	ContractID    string
	IncludeVoided bool
}

type ListPaymentsResponse struct {
	Payments []Payment `json:"payments"`
}

type OutstandingBalanceRequest struct {
	ContractID string
}

// OutstandingBalanceResponse reports how much of the contract price is
// still owed. Outstanding never goes negative; overpayment shows up as
// Paid exceeding Price.
type OutstandingBalanceResponse struct {
	Price       int64  `json:"price"`
	Paid        int64  `json:"paid"`
	Outstanding int64  `json:"outstanding"`
	Currency    string `json:"currency"`
	IsPaid      bool   `json:"is_paid"`
}

type Service interface {
	Record(context.Context, RecordPaymentRequest) (Payment, error)
	Void(context.Context, VoidPaymentRequest) error
	ListByContract(context.Context, ListPaymentsRequest) (ListPaymentsResponse, error)
	OutstandingBalance(context.Context, OutstandingBalanceRequest) (OutstandingBalanceResponse, error)
}

var (
	ErrInvalidID         = licerr.Validation("invalid_id")
	ErrNonPositiveAmount = licerr.Validation("non_positive_amount")
	ErrCurrencyMismatch  = licerr.Validation("currency_mismatch")
	ErrContractNotFound  = licerr.NotFound("contract_not_found")
	ErrContractDeleted   = licerr.Conflict("contract_deleted")
	ErrPaymentNotFound   = licerr.NotFound("payment_not_found")
	ErrAlreadyVoided     = licerr.Conflict("payment_already_voided")
)
