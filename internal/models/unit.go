package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unit of billing (word, page, hour, ...). Exactly one unit may carry the
// IsBase flag; MultiplierToBase expresses the ratio to that unit.
type Unit struct {
	ID               uint            `gorm:"primaryKey"`
	Name             string          `gorm:"not null;uniqueIndex" validate:"required"`
	MultiplierToBase decimal.Decimal `gorm:"type:decimal(12,4)"`
	IsBase           bool            `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UnitCategory groups units for cross-unit aggregation. The three unit
// references are optional anchors used when summing mixed-unit work.
type UnitCategory struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"not null;uniqueIndex" validate:"required"`
	BaseUnitID *uint
	OralUnitID *uint
	PageUnitID *uint
	Units      []Unit `gorm:"many2many:unit_category_members"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
