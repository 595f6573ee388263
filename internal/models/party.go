package models

import "time"

// Client kinds used by VAT segment classification.
const (
	ClientKindCompany = "company"
	ClientKindPerson  = "person"
)

// Client is a party the office invoices.
type Client struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null;index" validate:"required"`
	Kind        string `gorm:"size:16;not null;default:'company'" validate:"omitempty,oneof=company person"` // company or person
	TaxID       string `gorm:"size:32;index"`
	Street      string
	City        string
	PostalCode  string `gorm:"size:16"`
	CountryCode string `gorm:"size:2;index" validate:"omitempty,len=2"`
	EUVAT       bool   `gorm:"not null;default:false"` // registered for intra-EU VAT
	Email       string
	Phone       string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Contractor is a party work gets sub-contracted to.
type Contractor struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null;index" validate:"required"`
	TaxID       string `gorm:"size:32;index"`
	Street      string
	City        string
	PostalCode  string `gorm:"size:16"`
	CountryCode string `gorm:"size:2"`
	Email       string
	Phone       string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
