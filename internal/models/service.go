package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Segment is one of six VAT classification buckets: client kind crossed with
// the client's relation to the seller's country.
type Segment string

const (
	SegmentCompanyDomestic Segment = "company_domestic"
	SegmentCompanyEU       Segment = "company_eu"
	SegmentCompanyWorld    Segment = "company_world"
	SegmentPersonDomestic  Segment = "person_domestic"
	SegmentPersonEU        Segment = "person_eu"
	SegmentPersonWorld     Segment = "person_world"
)

// VAT rule kinds.
const (
	VATRuleKindRate   = "rate"
	VATRuleKindExempt = "exempt"
)

// Service is a billable service type (regular translation, certified
// translation, proofreading, ...).
type Service struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"not null;uniqueIndex" validate:"required"`
	DefaultVATRate decimal.Decimal `gorm:"type:decimal(6,2)"`
	VATRules       []ServiceVATRule `gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ServiceVATRule overrides the VAT treatment of a service for one segment,
// optionally narrowed to a single client country. CountryCode "" matches any
// country within the segment. Either a numeric rate or an exemption code
// applies, never both.
type ServiceVATRule struct {
	ID            uint    `gorm:"primaryKey"`
	ServiceID     uint    `gorm:"not null;uniqueIndex:idx_service_segment_country,priority:1" validate:"required"`
	Segment       Segment `gorm:"size:24;not null;uniqueIndex:idx_service_segment_country,priority:2" validate:"required,oneof=company_domestic company_eu company_world person_domestic person_eu person_world"`
	CountryCode   string  `gorm:"size:2;uniqueIndex:idx_service_segment_country,priority:3"`
	Kind          string  `gorm:"size:8;not null;default:'rate'" validate:"omitempty,oneof=rate exempt"` // rate or exempt
	Rate          decimal.Decimal `gorm:"type:decimal(6,2)"`
	ExemptionCode string  `gorm:"size:16"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
