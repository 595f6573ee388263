package services

import "testing"

func TestSettingsRoundTrip(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewSettingsService(gdb)

	if _, ok, err := svc.Get("numbering/subcontract_template"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}
	if err := svc.Set("numbering/subcontract_template", "S/{YYYY}/{NR}"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := svc.Get("numbering/subcontract_template")
	if err != nil || !ok || got != "S/{YYYY}/{NR}" {
		t.Fatalf("get after set: %q ok=%v err=%v", got, ok, err)
	}

	// Set on an existing key overwrites instead of duplicating.
	if err := svc.Set("numbering/subcontract_template", "SUB/{YY}/{NR4}"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, err = svc.Get("numbering/subcontract_template")
	if err != nil || got != "SUB/{YY}/{NR4}" {
		t.Fatalf("get after overwrite: %q err=%v", got, err)
	}

	all, err := svc.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one setting, got %d", len(all))
	}

	if err := svc.Delete("numbering/subcontract_template"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := svc.Get("numbering/subcontract_template"); ok {
		t.Fatalf("expected key gone after delete")
	}
}

func TestSettingsGetDefault(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewSettingsService(gdb)

	got, err := svc.GetDefault("vat/default_exemption_code", "ZW")
	if err != nil || got != "ZW" {
		t.Fatalf("expected fallback ZW, got %q err=%v", got, err)
	}
	if err := svc.Set("vat/default_exemption_code", "NP"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = svc.GetDefault("vat/default_exemption_code", "ZW")
	if err != nil || got != "NP" {
		t.Fatalf("expected stored NP, got %q err=%v", got, err)
	}
}
