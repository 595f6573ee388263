package services

import (
	"errors"
	"testing"

	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

func TestAddClientRejectsDuplicateTaxID(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewPartyService(gdb)

	first := models.Client{Name: "ACME sp. z o.o.", TaxID: "5260305006", CountryCode: "pl"}
	if err := svc.AddClient(&first); err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.CountryCode != "PL" {
		t.Fatalf("expected uppercased country, got %q", first.CountryCode)
	}
	if first.Kind != models.ClientKindCompany {
		t.Fatalf("expected company default, got %q", first.Kind)
	}

	dup := models.Client{Name: "ACME again", TaxID: "5260305006"}
	if err := svc.AddClient(&dup); !errors.Is(err, ErrDuplicateTaxID) {
		t.Fatalf("expected ErrDuplicateTaxID, got %v", err)
	}

	// an empty tax id never counts as a duplicate
	a := models.Client{Name: "Jan Kowalski", Kind: models.ClientKindPerson}
	b := models.Client{Name: "Anna Nowak", Kind: models.ClientKindPerson}
	if err := svc.AddClient(&a); err != nil {
		t.Fatalf("add person a: %v", err)
	}
	if err := svc.AddClient(&b); err != nil {
		t.Fatalf("add person b: %v", err)
	}
}

func TestAddClientValidatesKind(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewPartyService(gdb)

	err := svc.AddClient(&models.Client{Name: "Bad", Kind: "charity"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdateClientRequiresID(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewPartyService(gdb)
	if err := svc.UpdateClient(&models.Client{Name: "No ID"}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestContractorLifecycle(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewPartyService(gdb)

	c := models.Contractor{Name: "Jan Tłumacz", TaxID: "1132456789"}
	if err := svc.AddContractor(&c); err != nil {
		t.Fatalf("add: %v", err)
	}
	c.Email = "jan@example.com"
	if err := svc.UpdateContractor(&c); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.GetContractor(c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "jan@example.com" {
		t.Fatalf("expected updated email, got %q", got.Email)
	}
	if err := svc.DeleteContractor(c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetContractor(c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
