// Package domain contains the catalog entities: priced software
// products and the time-bounded percentage discounts offered on them.
package domain

import (
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Software is a priced catalog product. Price and version may change
// over time; contracts capture the price they were signed at, so
// catalog updates never touch existing contracts.
type Software struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"not null" json:"name"`
	Description string       `gorm:"not null" json:"description"`
	Version     string       `gorm:"not null" json:"version"`
	Category    string       `gorm:"not null" json:"category"`
	Price       int64        `gorm:"not null" json:"price"`
	Currency    string       `gorm:"not null" json:"currency"`
	IsDeleted   bool         `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Software) TableName() string { return "software" }

// Discount is a percentage reduction on one product, valid within
// [StartDate, EndDate]. IsSigned marks the offer as formally accepted;
// an unsigned discount exists in the catalog but cannot price a
// contract.
type Discount struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Name       string       `gorm:"not null" json:"name"`
	SoftwareID snowflake.ID `gorm:"not null;index" json:"software_id"`
	Percentage float64      `gorm:"type:numeric(7,5);not null" json:"percentage"`
	StartDate  time.Time    `gorm:"not null" json:"start_date"`
	EndDate    time.Time    `gorm:"not null" json:"end_date"`
	IsSigned   bool         `gorm:"not null;default:false" json:"is_signed"`
	IsDeleted  bool         `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Discount) TableName() string { return "discounts" }

// InWindow reports whether at falls inside the discount's validity
// window, boundaries inclusive.
func (d Discount) InWindow(at time.Time) bool {
	return !at.Before(d.StartDate) && !at.After(d.EndDate)
}

// Applicable reports whether the discount can price a contract for the
// given product at the given instant.
func (d Discount) Applicable(softwareID snowflake.ID, at time.Time) bool {
	return d.SoftwareID == softwareID && d.IsSigned && !d.IsDeleted && d.InWindow(at)
}

// RoundPercentage clamps a discount percentage to the stored 5-decimal
// precision.
func RoundPercentage(pct float64) float64 {
	return math.Round(pct*1e5) / 1e5
}

// EffectivePrice applies a percentage discount to a minor-unit price,
// rounding half away from zero to the nearest minor unit.
func EffectivePrice(price int64, pct float64) int64 {
	discounted := float64(price) * (1 - pct/100)
	return int64(math.Round(discounted))
}
