// Package domain contains the contract ledger: one polymorphic
// contract entity covering both private and corporate agreements,
// discriminated by contract_type with exactly one client reference set.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallbiznis/licenta/internal/client/domain"
	"gorm.io/datatypes"
)

// ContractType discriminates the client union.
type ContractType string

const (
	TypePrivate   ContractType = "PRIVATE"
	TypeCorporate ContractType = "CORPORATE"
)

// ContractStatus is the externally observable lifecycle state, derived
// from the persisted flags rather than stored on its own.
type ContractStatus string

const (
	StatusDrafted   ContractStatus = "DRAFTED"
	StatusSigned    ContractStatus = "SIGNED"
	StatusPaid      ContractStatus = "PAID"
	StatusClosed    ContractStatus = "CLOSED"
	StatusCancelled ContractStatus = "CANCELLED"
)

// Contract ties exactly one client to one product with a captured
// price. Price is fixed at creation; later catalog changes never touch
// it.
type Contract struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	ContractType     ContractType      `gorm:"type:text;not null" json:"contract_type"`
	PersonalClientID *string           `gorm:"type:varchar(11)" json:"personal_client_id,omitempty"`
	CompanyClientID  *string           `gorm:"type:varchar(10)" json:"company_client_id,omitempty"`
	SoftwareID       snowflake.ID      `gorm:"not null;index" json:"software_id"`
	DiscountID       *snowflake.ID     `gorm:"index" json:"discount_id,omitempty"`
	Price            int64             `gorm:"not null" json:"price"`
	Currency         string            `gorm:"not null" json:"currency"`
	StartDate        time.Time         `gorm:"not null" json:"start_date"`
	EndDate          time.Time         `gorm:"not null" json:"end_date"`
	YearsSupported   int               `gorm:"not null;default:0" json:"years_supported"`
	IsSigned         bool              `gorm:"not null;default:false" json:"is_signed"`
	IsPaid           bool              `gorm:"not null;default:false" json:"is_paid"`
	IsDeleted        bool              `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt        *time.Time        `json:"deleted_at,omitempty"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

// ClientRef returns the tagged client reference, or an invariant error
// when the persisted row does not satisfy the union. That state should
// be unreachable through this package and indicates a collaborator
// wrote rows directly.
func (c Contract) ClientRef() (clientdomain.ClientRef, error) {
	switch c.ContractType {
	case TypePrivate:
		if c.PersonalClientID == nil || c.CompanyClientID != nil {
			return clientdomain.ClientRef{}, ErrClientUnionViolation
		}
		return clientdomain.ClientRef{Kind: clientdomain.KindPersonal, ID: *c.PersonalClientID}, nil
	case TypeCorporate:
		if c.CompanyClientID == nil || c.PersonalClientID != nil {
			return clientdomain.ClientRef{}, ErrClientUnionViolation
		}
		return clientdomain.ClientRef{Kind: clientdomain.KindCompany, ID: *c.CompanyClientID}, nil
	default:
		return clientdomain.ClientRef{}, ErrClientUnionViolation
	}
}

// Status derives the lifecycle state at the given instant. The two
// terminal states share the soft-delete flag: a contract removed after
// its window elapsed was fulfilled (closed), one removed before was
// withdrawn (cancelled).
func (c Contract) Status(now time.Time) ContractStatus {
	if c.IsDeleted {
		at := now
		if c.DeletedAt != nil {
			at = *c.DeletedAt
		}
		if at.After(c.EndDate) {
			return StatusClosed
		}
		return StatusCancelled
	}
	if c.IsPaid {
		return StatusPaid
	}
	if c.IsSigned {
		return StatusSigned
	}
	return StatusDrafted
}
