// Package domain contains the client registry entities: two client
// kinds under disjoint identity spaces, both keyed by their national
// registry number rather than a surrogate ID.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ClientKind discriminates the two identity spaces.
type ClientKind string

const (
	KindPersonal ClientKind = "PERSONAL"
	KindCompany  ClientKind = "COMPANY"
)

const (
	// PESELLength is the fixed length of a personal national ID.
	PESELLength = 11
	// KRSLength is the fixed length of a company registry number.
	KRSLength = 10
)

// PersonalClient is an individual licensee, identified by PESEL.
type PersonalClient struct {
	PESEL       string            `gorm:"column:pesel;primaryKey" json:"pesel"`
	FirstName   string            `gorm:"not null" json:"first_name"`
	LastName    string            `gorm:"not null" json:"last_name"`
	Email       string            `gorm:"not null" json:"email"`
	PhoneNumber string            `gorm:"not null" json:"phone_number"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	IsDeleted   bool              `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PersonalClient) TableName() string { return "personal_clients" }

// CompanyClient is a corporate licensee, identified by KRS.
type CompanyClient struct {
	KRS         string            `gorm:"column:krs;primaryKey" json:"krs"`
	Name        string            `gorm:"not null" json:"name"`
	Address     string            `gorm:"not null" json:"address"`
	Email       string            `gorm:"not null" json:"email"`
	PhoneNumber string            `gorm:"not null" json:"phone_number"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	IsDeleted   bool              `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CompanyClient) TableName() string { return "company_clients" }

// ClientRef is the tagged reference to exactly one client, validated
// at the boundary before anything touches the contracts table.
type ClientRef struct {
	Kind ClientKind `json:"kind"`
	ID   string     `json:"id"`
}

// Validate checks the kind is known and the identity matches its
// fixed-length numeric format.
func (r ClientRef) Validate() error {
	switch r.Kind {
	case KindPersonal:
		if !isDigits(r.ID, PESELLength) {
			return ErrInvalidIdentity
		}
	case KindCompany:
		if !isDigits(r.ID, KRSLength) {
			return ErrInvalidIdentity
		}
	default:
		return ErrInvalidClientRef
	}
	return nil
}

// ValidatePESEL checks the personal identity format.
func ValidatePESEL(pesel string) error {
	if !isDigits(pesel, PESELLength) {
		return ErrInvalidIdentity
	}
	return nil
}

// ValidateKRS checks the company identity format.
func ValidateKRS(krs string) error {
	if !isDigits(krs, KRSLength) {
		return ErrInvalidIdentity
	}
	return nil
}

func isDigits(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
