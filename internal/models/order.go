package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Work statuses.
const (
	OrderStatusToDo       = "to_do"
	OrderStatusInProgress = "in_progress"
	OrderStatusDone       = "done"
)

// Invoice statuses. An order may not hold one of the last three while its
// invoice number is empty; writes violating that are coerced to to_issue.
const (
	InvoiceStatusToIssue         = "to_issue"
	InvoiceStatusIssued          = "issued"
	InvoiceStatusAwaitingPayment = "awaiting_payment"
	InvoiceStatusPaid            = "paid"
)

// OrderBook is a named ledger partition with its own numbering template and
// optional specialized layout for printed confirmations.
type OrderBook struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"not null;uniqueIndex" validate:"required"`
	NumberTemplate string `gorm:"not null;default:'Z/{YYYY}/{NR}'"`
	Layout         string `gorm:"size:32"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Order is the transactional ledger record.
type Order struct {
	ID           uint   `gorm:"primaryKey"`
	BookID       uint   `gorm:"not null;index" validate:"required"`
	Number       string `gorm:"size:50;index"`
	ClientID     uint   `gorm:"not null;index" validate:"required"`
	ServiceID    uint   `gorm:"index"`
	UnitID       uint   `gorm:"index"`
	LanguagePair string `gorm:"size:32"`
	Quantity     decimal.Decimal `gorm:"type:decimal(12,4)"`
	Rate         decimal.Decimal `gorm:"type:decimal(12,4)"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2)"`
	Currency     string          `gorm:"size:3;not null;default:'PLN'"`
	ContractorID *uint           `gorm:"index"`
	Status       string          `gorm:"size:16;not null;default:'to_do'" validate:"omitempty,oneof=to_do in_progress done"`

	VATRate decimal.Decimal `gorm:"type:decimal(6,2)"`
	VATCode string          `gorm:"size:16"`

	InvoiceNumber    string `gorm:"size:50;index"`
	InvoiceStatus    string `gorm:"size:20;not null;default:'to_issue'" validate:"omitempty,oneof=to_issue issued awaiting_payment paid"`
	InvoiceIssueDate *time.Time
	InvoiceSellDate  *time.Time
	InvoiceDueDate   *time.Time
	PaidDate         *time.Time

	ReceivedAt *time.Time
	Deadline   *time.Time
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Subcontract delegates an order to a contractor with its own
// quantity/rate/amount snapshot, independent of the parent order.
type Subcontract struct {
	ID           uint   `gorm:"primaryKey"`
	OrderID      uint   `gorm:"not null;index" validate:"required"`
	ContractorID uint   `gorm:"not null;index" validate:"required"`
	Number       string `gorm:"size:50;index"`
	Quantity     decimal.Decimal `gorm:"type:decimal(12,4)"`
	Rate         decimal.Decimal `gorm:"type:decimal(12,4)"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2)"`
	Currency     string          `gorm:"size:3;not null;default:'PLN'"`
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
