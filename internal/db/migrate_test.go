package db

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return gdb
}

func TestMigrateFreshStore(t *testing.T) {
	gdb := setupTestDB(t)
	if err := Migrate(gdb, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	v, err := storedSchemaVersion(gdb)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != currentSchemaVersion {
		t.Fatalf("expected version %d got %d", currentSchemaVersion, v)
	}
	var books int64
	if err := gdb.Model(&models.OrderBook{}).Count(&books).Error; err != nil {
		t.Fatalf("count books: %v", err)
	}
	if books != 1 {
		t.Fatalf("expected seeded default book, got %d", books)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	gdb := setupTestDB(t)
	if err := Migrate(gdb, nil); err != nil {
		t.Fatalf("first migrate: %v", err)
	}

	// legacy-looking content that the normalization passes rewrite once
	svc := models.Service{Name: "translation", DefaultVATRate: decimal.NewFromInt(23)}
	if err := gdb.Create(&svc).Error; err != nil {
		t.Fatalf("seed service: %v", err)
	}
	rule := models.ServiceVATRule{ServiceID: svc.ID, Segment: models.SegmentCompanyEU, Kind: models.VATRuleKindExempt, ExemptionCode: "zw."}
	if err := gdb.Create(&rule).Error; err != nil {
		t.Fatalf("seed vat rule: %v", err)
	}
	pair := models.LanguagePair{Label: "en → pl"}
	if err := gdb.Create(&pair).Error; err != nil {
		t.Fatalf("seed pair: %v", err)
	}

	if err := Migrate(gdb, nil); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var gotRule models.ServiceVATRule
	if err := gdb.First(&gotRule, rule.ID).Error; err != nil {
		t.Fatalf("reload rule: %v", err)
	}
	if gotRule.ExemptionCode != "ZW" {
		t.Fatalf("expected canonical exemption code ZW, got %q", gotRule.ExemptionCode)
	}
	var gotPair models.LanguagePair
	if err := gdb.First(&gotPair, pair.ID).Error; err != nil {
		t.Fatalf("reload pair: %v", err)
	}
	if gotPair.Label != "EN>PL" {
		t.Fatalf("expected canonical label EN>PL, got %q", gotPair.Label)
	}
	firstUpdated := gotPair.UpdatedAt

	if err := Migrate(gdb, nil); err != nil {
		t.Fatalf("third migrate: %v", err)
	}
	if err := gdb.First(&gotPair, pair.ID).Error; err != nil {
		t.Fatalf("reload pair again: %v", err)
	}
	if !gotPair.UpdatedAt.Equal(firstUpdated) {
		t.Fatalf("normalization re-applied on an already canonical row")
	}
	v, err := storedSchemaVersion(gdb)
	if err != nil || v != currentSchemaVersion {
		t.Fatalf("version drifted: %d %v", v, err)
	}
}

func TestVersionedStepsRunInOrderAndStopOnFailure(t *testing.T) {
	gdb := setupTestDB(t)
	if err := migrateStructure(gdb); err != nil {
		t.Fatalf("structure: %v", err)
	}
	if err := setStoredSchemaVersion(gdb, 1); err != nil {
		t.Fatalf("set version: %v", err)
	}

	var ran []int
	boom := errors.New("boom")
	steps := []migrationStep{
		{Version: 1, Name: "one", Run: func(*gorm.DB) error { ran = append(ran, 1); return nil }},
		{Version: 2, Name: "two", Run: func(*gorm.DB) error { ran = append(ran, 2); return nil }},
		{Version: 3, Name: "three", Run: func(*gorm.DB) error { ran = append(ran, 3); return boom }},
		{Version: 4, Name: "four", Run: func(*gorm.DB) error { ran = append(ran, 4); return nil }},
	}
	err := runVersionedSteps(gdb, steps, 4, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if !errors.Is(err, boom) {
		t.Fatalf("expected step failure, got %v", err)
	}
	if len(ran) != 2 || ran[0] != 2 || ran[1] != 3 {
		t.Fatalf("expected exactly steps 2,3 to run, got %v", ran)
	}
	v, verr := storedSchemaVersion(gdb)
	if verr != nil {
		t.Fatalf("version: %v", verr)
	}
	if v != 2 {
		t.Fatalf("expected stored version 2 after failed step 3, got %d", v)
	}
}

func TestLegacyRateTableMigration(t *testing.T) {
	gdb := setupTestDB(t)
	if err := gdb.AutoMigrate(&legacyRate{}); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	rows := []legacyRate{
		{UnitID: 1, LanguagePair: "en → pl", Rate: decimal.RequireFromString("0.12"), Currency: "PLN"},
		{UnitID: 1, Rate: decimal.RequireFromString("0.10")},
	}
	for i := range rows {
		if err := gdb.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed legacy row: %v", err)
		}
	}

	if err := Migrate(gdb, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	var migrated []models.RateRule
	if err := gdb.Preload("Args").Order("id").Find(&migrated).Error; err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if len(migrated) != 2 {
		t.Fatalf("expected 2 migrated rules, got %d", len(migrated))
	}
	if len(migrated[0].Args) != 1 || migrated[0].Args[0].Value != "EN>PL" {
		t.Fatalf("expected canonical language_pair arg, got %+v", migrated[0].Args)
	}
	if migrated[1].Currency != "PLN" {
		t.Fatalf("expected default currency PLN, got %q", migrated[1].Currency)
	}

	// guarded: target no longer empty, so a re-run copies nothing
	if err := Migrate(gdb, nil); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var count int64
	if err := gdb.Model(&models.RateRule{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("legacy migration ran twice, got %d rules", count)
	}
}

func TestCleanupRemovesOrphansAndPlaceholders(t *testing.T) {
	gdb := setupTestDB(t)
	if err := Migrate(gdb, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	var book models.OrderBook
	if err := gdb.First(&book).Error; err != nil {
		t.Fatalf("default book: %v", err)
	}
	client := models.Client{Name: "ACME", CountryCode: "PL"}
	if err := gdb.Create(&client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}

	kept := models.Order{BookID: book.ID, ClientID: client.ID, Number: "Z/2024/1", Quantity: decimal.NewFromInt(100), Rate: decimal.RequireFromString("0.10")}
	orphan := models.Order{BookID: book.ID, ClientID: client.ID + 999, Number: "Z/2024/2"}
	placeholder := models.Order{BookID: book.ID, ClientID: client.ID}
	for _, o := range []*models.Order{&kept, &orphan, &placeholder} {
		if err := gdb.Create(o).Error; err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}
	sub := models.Subcontract{OrderID: orphan.ID, ContractorID: 1}
	if err := gdb.Create(&sub).Error; err != nil {
		t.Fatalf("seed subcontract: %v", err)
	}

	if err := Migrate(gdb, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	var remaining []models.Order
	if err := gdb.Find(&remaining).Error; err != nil {
		t.Fatalf("load orders: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != kept.ID {
		t.Fatalf("expected only the real order to survive, got %+v", remaining)
	}
	var subs int64
	if err := gdb.Model(&models.Subcontract{}).Count(&subs).Error; err != nil {
		t.Fatalf("count subcontracts: %v", err)
	}
	if subs != 0 {
		t.Fatalf("expected orphan subcontract removed, got %d", subs)
	}
}
