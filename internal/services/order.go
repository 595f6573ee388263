package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

const (
	subcontractTemplateKey     = "numbering/subcontract_template"
	defaultSubcontractTemplate = "S/{YYYY}/{NR}"
)

// OrderService is the order ledger: order books, orders, sub-contracts,
// numbering and the invoice-status lifecycle.
type OrderService struct {
	DB            *gorm.DB
	VAT           *VATService
	SellerCountry string
}

func NewOrderService(db *gorm.DB, vat *VATService, sellerCountry string) *OrderService {
	return &OrderService{DB: db, VAT: vat, SellerCountry: sellerCountry}
}

func (s *OrderService) ListBooks() ([]models.OrderBook, error) {
	var books []models.OrderBook
	return books, s.DB.Order("name").Find(&books).Error
}

func (s *OrderService) GetBook(id uint) (*models.OrderBook, error) {
	var b models.OrderBook
	if err := s.DB.First(&b, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *OrderService) SaveBook(b *models.OrderBook) error {
	if b.NumberTemplate == "" {
		b.NumberTemplate = "Z/{YYYY}/{NR}"
	}
	if err := checkInput(b); err != nil {
		return err
	}
	return s.DB.Save(b).Error
}

func (s *OrderService) DeleteBook(id uint) error {
	var count int64
	if err := s.DB.Model(&models.Order{}).Where("book_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrBookInUse
	}
	return s.DB.Delete(&models.OrderBook{}, id).Error
}

// ListOrders returns the orders of one book, or all orders when bookID is 0.
func (s *OrderService) ListOrders(bookID uint) ([]models.Order, error) {
	q := s.DB.Order("id")
	if bookID != 0 {
		q = q.Where("book_id = ?", bookID)
	}
	var orders []models.Order
	return orders, q.Find(&orders).Error
}

func (s *OrderService) GetOrder(id uint) (*models.Order, error) {
	var o models.Order
	if err := s.DB.First(&o, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// AddOrder creates an order. The order number defaults from the book's
// template, and the VAT rate defaults from the service's flat rate when the
// caller supplied neither a rate nor a code.
func (s *OrderService) AddOrder(o *models.Order) error {
	normalizeOrder(o)
	if err := checkInput(o); err != nil {
		return err
	}
	if _, err := s.GetBook(o.BookID); err != nil {
		return err
	}
	if o.Number == "" {
		number, err := s.NextNumber(o.BookID, time.Now())
		if err != nil {
			return err
		}
		o.Number = number
	}
	if o.ServiceID != 0 && o.VATRate.IsZero() && o.VATCode == "" {
		var svc models.Service
		if err := s.DB.First(&svc, o.ServiceID).Error; err != nil {
			return notFound(err)
		}
		o.VATRate = svc.DefaultVATRate
	}
	return s.DB.Create(o).Error
}

func (s *OrderService) UpdateOrder(o *models.Order) error {
	if o.ID == 0 {
		return invalidf("order id required for update")
	}
	normalizeOrder(o)
	if err := checkInput(o); err != nil {
		return err
	}
	return s.DB.Save(o).Error
}

func (s *OrderService) DeleteOrder(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.Subcontract{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
}

// normalizeOrder enforces the write-time invariants: defaults for the two
// status fields, canonical language pair, amount recomputed from
// quantity×rate when absent, and the invoice-state rule that an order with
// no invoice number can only be to_issue — with all invoice dates cleared.
func normalizeOrder(o *models.Order) {
	if o.Status == "" {
		o.Status = models.OrderStatusToDo
	}
	if o.InvoiceStatus == "" {
		o.InvoiceStatus = models.InvoiceStatusToIssue
	}
	if o.Currency == "" {
		o.Currency = "PLN"
	}
	o.LanguagePair = models.CanonicalPair(o.LanguagePair)
	o.VATCode = models.CanonicalExemptionCode(o.VATCode)
	if o.Amount.IsZero() && !o.Quantity.IsZero() && !o.Rate.IsZero() {
		o.Amount = o.Quantity.Mul(o.Rate).Round(2)
	}
	if o.InvoiceNumber == "" {
		switch o.InvoiceStatus {
		case models.InvoiceStatusIssued, models.InvoiceStatusAwaitingPayment, models.InvoiceStatusPaid:
			o.InvoiceStatus = models.InvoiceStatusToIssue
		}
		o.InvoiceIssueDate = nil
		o.InvoiceSellDate = nil
		o.InvoiceDueDate = nil
		o.PaidDate = nil
	}
}

// NextNumber expands the book's numbering template with the next sequence
// derived from the numbers already in that book. No counter is persisted:
// the scan tolerates manual edits and gaps.
func (s *OrderService) NextNumber(bookID uint, now time.Time) (string, error) {
	book, err := s.GetBook(bookID)
	if err != nil {
		return "", err
	}
	var numbers []string
	if err := s.DB.Model(&models.Order{}).Where("book_id = ? AND number <> ''", bookID).
		Pluck("number", &numbers).Error; err != nil {
		return "", err
	}
	return ExpandTemplate(book.NumberTemplate, now, NextSequence(numbers)), nil
}

// NextSubcontractNumber numbers sub-contracts in a single global partition.
func (s *OrderService) NextSubcontractNumber(now time.Time) (string, error) {
	return s.nextSubcontractNumber(s.DB, now)
}

func (s *OrderService) nextSubcontractNumber(tx *gorm.DB, now time.Time) (string, error) {
	template := defaultSubcontractTemplate
	var setting models.Setting
	err := tx.First(&setting, "key = ?", subcontractTemplateKey).Error
	if err == nil && setting.Value != "" {
		template = setting.Value
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	var numbers []string
	if err := tx.Model(&models.Subcontract{}).Where("number <> ''").Pluck("number", &numbers).Error; err != nil {
		return "", err
	}
	return ExpandTemplate(template, now, NextSequence(numbers)), nil
}

// AssignContractor associates a contractor with an order. An order holds at
// most one live contractor association: when quantity or rate is already
// set, the association materializes as a Subcontract carrying a snapshot of
// the order's figures, and the order's own contractor field is detached.
// Returns the created subcontract, or nil when the contractor was attached
// directly.
func (s *OrderService) AssignContractor(orderID, contractorID uint) (*models.Subcontract, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	var contractor models.Contractor
	if err := s.DB.First(&contractor, contractorID).Error; err != nil {
		return nil, notFound(err)
	}
	if order.Quantity.IsZero() && order.Rate.IsZero() {
		order.ContractorID = &contractorID
		return nil, s.DB.Save(order).Error
	}
	var sub *models.Subcontract
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		number, err := s.nextSubcontractNumber(tx, time.Now())
		if err != nil {
			return err
		}
		sub = &models.Subcontract{
			OrderID:      order.ID,
			ContractorID: contractorID,
			Number:       number,
			Quantity:     order.Quantity,
			Rate:         order.Rate,
			Amount:       order.Amount,
			Currency:     order.Currency,
		}
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		order.ContractorID = nil
		return tx.Save(order).Error
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *OrderService) ListSubcontracts(orderID uint) ([]models.Subcontract, error) {
	q := s.DB.Order("id")
	if orderID != 0 {
		q = q.Where("order_id = ?", orderID)
	}
	var subs []models.Subcontract
	return subs, q.Find(&subs).Error
}

func (s *OrderService) SaveSubcontract(sub *models.Subcontract) error {
	if err := checkInput(sub); err != nil {
		return err
	}
	if sub.Currency == "" {
		sub.Currency = "PLN"
	}
	if sub.Amount.IsZero() && !sub.Quantity.IsZero() && !sub.Rate.IsZero() {
		sub.Amount = sub.Quantity.Mul(sub.Rate).Round(2)
	}
	return s.DB.Save(sub).Error
}

func (s *OrderService) DeleteSubcontract(id uint) error {
	return s.DB.Delete(&models.Subcontract{}, id).Error
}

// IssueInvoice stamps the invoice fields on an order and resolves its VAT
// treatment against the client's segment. The stamped values are final:
// later rule changes never touch an issued invoice.
func (s *OrderService) IssueInvoice(orderID uint, number string, issueDate, sellDate, dueDate time.Time) (*models.Order, error) {
	if number == "" {
		return nil, invalidf("invoice number must not be empty")
	}
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	var client models.Client
	if err := s.DB.First(&client, order.ClientID).Error; err != nil {
		return nil, notFound(err)
	}
	if err := s.VAT.Apply(order, &client, s.SellerCountry); err != nil {
		return nil, err
	}
	order.InvoiceNumber = number
	order.InvoiceStatus = models.InvoiceStatusIssued
	order.InvoiceIssueDate = &issueDate
	order.InvoiceSellDate = &sellDate
	order.InvoiceDueDate = &dueDate
	order.PaidDate = nil
	if err := s.DB.Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// ClearInvoice resets an order to to_issue and nulls all invoice fields.
func (s *OrderService) ClearInvoice(orderID uint) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	order.InvoiceNumber = ""
	normalizeOrder(order)
	if err := s.DB.Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// MarkPaid records payment of an issued invoice.
func (s *OrderService) MarkPaid(orderID uint, when time.Time) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	switch order.InvoiceStatus {
	case models.InvoiceStatusIssued, models.InvoiceStatusAwaitingPayment:
	default:
		return nil, ErrInvoiceNotIssued
	}
	order.InvoiceStatus = models.InvoiceStatusPaid
	order.PaidDate = &when
	if err := s.DB.Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}
