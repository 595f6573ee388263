package services

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateTaxID   = errors.New("party with this tax id already exists")
	ErrUnitInUse        = errors.New("unit is referenced by rate rules or orders")
	ErrBookInUse        = errors.New("order book still contains orders")
	ErrLanguageInUse    = errors.New("language is referenced by language pairs")
	ErrInvoiceNotIssued = errors.New("order has no issued invoice")
)

// ValidationError is a typed rejection for malformed or missing required
// fields on add/update operations.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("invalid input: %v", e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) error {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func checkInput(v any) error {
	if err := validate.Struct(v); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// notFound translates gorm's sentinel so callers match on one error.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
