package db

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

const (
	schemaVersionKey        = "schema/version"
	defaultExemptionCodeKey = "vat/default_exemption_code"

	currentSchemaVersion = 3
)

// AllModels lists every entity the structural migration has to cover.
// Order matters only for readability; AutoMigrate resolves references itself.
func AllModels() []any {
	return []any{
		&models.Setting{},
		&models.Unit{},
		&models.UnitCategory{},
		&models.Language{},
		&models.LanguagePair{},
		&models.Client{},
		&models.Contractor{},
		&models.RateRule{},
		&models.RateRuleArg{},
		&models.Service{},
		&models.ServiceVATRule{},
		&models.OrderBook{},
		&models.Order{},
		&models.Subcontract{},
	}
}

// Migrate brings a store of unknown prior version to the current shape.
// Safe to run on every start: the structural pass is a declarative diff, the
// versioned steps replay only past the stored version, and the normalization
// and cleanup passes guard themselves. A failed versioned step is fatal and
// leaves the stored version at the last step that completed.
func Migrate(gdb *gorm.DB, log *slog.Logger) error {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := migrateStructure(gdb); err != nil {
		return err
	}
	if err := runVersionedSteps(gdb, migrationSteps, currentSchemaVersion, log); err != nil {
		return err
	}
	if err := normalizeExemptionCodes(gdb, log); err != nil {
		return err
	}
	if err := normalizePairLabels(gdb, log); err != nil {
		return err
	}
	if err := migrateLegacyRates(gdb, log); err != nil {
		return err
	}
	return cleanupOrphans(gdb, log)
}

// migrateStructure computes the delta between the expected and actual shape
// and applies only what is missing. AutoMigrate never drops columns or data.
func migrateStructure(gdb *gorm.DB) error {
	for _, m := range AllModels() {
		if err := gdb.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"settings", "units", "rate_rules", "order_books", "orders"} {
		if !gdb.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

type migrationStep struct {
	Version int
	Name    string
	Run     func(*gorm.DB) error
}

var migrationSteps = []migrationStep{
	{Version: 1, Name: "seed-default-book", Run: seedDefaultBook},
	{Version: 2, Name: "stamp-base-unit", Run: stampBaseUnit},
	{Version: 3, Name: "default-exemption-code", Run: seedDefaultExemptionCode},
}

func storedSchemaVersion(gdb *gorm.DB) (int, error) {
	var s models.Setting
	err := gdb.First(&s, "key = ?", schemaVersionKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, convErr := strconv.Atoi(s.Value)
	if convErr != nil {
		return 0, fmt.Errorf("corrupt schema version %q: %w", s.Value, convErr)
	}
	return v, nil
}

func setStoredSchemaVersion(gdb *gorm.DB, v int) error {
	return gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Key: schemaVersionKey, Value: strconv.Itoa(v)}).Error
}

// runVersionedSteps replays steps stored+1..target in order. The stored
// version advances only after a step succeeds, so a failure aborts before
// any later step can run against an inconsistent base.
func runVersionedSteps(gdb *gorm.DB, steps []migrationStep, target int, log *slog.Logger) error {
	have, err := storedSchemaVersion(gdb)
	if err != nil {
		return err
	}
	for _, step := range steps {
		if step.Version <= have || step.Version > target {
			continue
		}
		if err := step.Run(gdb); err != nil {
			return fmt.Errorf("migration step %d (%s): %w", step.Version, step.Name, err)
		}
		if err := setStoredSchemaVersion(gdb, step.Version); err != nil {
			return err
		}
		log.Info("applied migration step", "version", step.Version, "name", step.Name)
	}
	return nil
}

func seedDefaultBook(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&models.OrderBook{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return gdb.Create(&models.OrderBook{Name: "Orders", NumberTemplate: "Z/{YYYY}/{NR}"}).Error
}

func stampBaseUnit(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&models.Unit{}).Where("is_base = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	var u models.Unit
	err := gdb.Where("lower(name) IN ?", []string{"word", "words"}).Order("id").First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = gdb.Order("id").First(&u).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // empty catalog, nothing to anchor
	}
	if err != nil {
		return err
	}
	u.IsBase = true
	u.MultiplierToBase = decimal.NewFromInt(1)
	return gdb.Save(&u).Error
}

func seedDefaultExemptionCode(gdb *gorm.DB) error {
	var s models.Setting
	err := gdb.First(&s, "key = ?", defaultExemptionCodeKey).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return gdb.Create(&models.Setting{Key: defaultExemptionCodeKey, Value: "ZW"}).Error
}

// normalizeExemptionCodes rewrites legacy exemption spellings to the current
// two-letter scheme. Touches only rows whose canonical form differs, so a
// second run is a no-op.
func normalizeExemptionCodes(gdb *gorm.DB, log *slog.Logger) error {
	changed := 0

	var rules []models.ServiceVATRule
	if err := gdb.Where("exemption_code <> ''").Find(&rules).Error; err != nil {
		return err
	}
	for i := range rules {
		if c := models.CanonicalExemptionCode(rules[i].ExemptionCode); c != rules[i].ExemptionCode {
			if err := gdb.Model(&rules[i]).Update("exemption_code", c).Error; err != nil {
				return err
			}
			changed++
		}
	}

	var orders []models.Order
	if err := gdb.Where("vat_code <> ''").Find(&orders).Error; err != nil {
		return err
	}
	for i := range orders {
		if c := models.CanonicalExemptionCode(orders[i].VATCode); c != orders[i].VATCode {
			if err := gdb.Model(&orders[i]).Update("vat_code", c).Error; err != nil {
				return err
			}
			changed++
		}
	}
	if changed > 0 {
		log.Info("normalized exemption codes", "rows", changed)
	}
	return nil
}

// normalizePairLabels canonicalizes directional-arrow glyphs in language-pair
// labels everywhere they are stored.
func normalizePairLabels(gdb *gorm.DB, log *slog.Logger) error {
	changed := 0

	var pairs []models.LanguagePair
	if err := gdb.Find(&pairs).Error; err != nil {
		return err
	}
	for i := range pairs {
		if c := models.CanonicalPair(pairs[i].Label); c != pairs[i].Label {
			if err := gdb.Model(&pairs[i]).Update("label", c).Error; err != nil {
				return err
			}
			changed++
		}
	}

	var rules []models.RateRule
	if err := gdb.Where("legacy_language_pair <> ''").Find(&rules).Error; err != nil {
		return err
	}
	for i := range rules {
		if c := models.CanonicalPair(rules[i].LegacyLanguagePair); c != rules[i].LegacyLanguagePair {
			if err := gdb.Model(&rules[i]).Update("legacy_language_pair", c).Error; err != nil {
				return err
			}
			changed++
		}
	}

	var args []models.RateRuleArg
	if err := gdb.Where("key = ?", "language_pair").Find(&args).Error; err != nil {
		return err
	}
	for i := range args {
		if c := models.CanonicalPair(args[i].Value); c != args[i].Value {
			if err := gdb.Model(&args[i]).Update("value", c).Error; err != nil {
				return err
			}
			changed++
		}
	}

	var orders []models.Order
	if err := gdb.Where("language_pair <> ''").Find(&orders).Error; err != nil {
		return err
	}
	for i := range orders {
		if c := models.CanonicalPair(orders[i].LanguagePair); c != orders[i].LanguagePair {
			if err := gdb.Model(&orders[i]).Update("language_pair", c).Error; err != nil {
				return err
			}
			changed++
		}
	}
	if changed > 0 {
		log.Info("canonicalized language pair labels", "rows", changed)
	}
	return nil
}

// legacyRate mirrors the single-currency rate table of old stores.
type legacyRate struct {
	ID           uint
	ClientID     *uint
	UnitID       uint
	LanguagePair string
	Rate         decimal.Decimal
	Currency     string
}

func (legacyRate) TableName() string { return "legacy_rates" }

// migrateLegacyRates copies the old rate table into the multi-argument one.
// Runs only when legacy data exists and the new table is still empty; the
// legacy table is left in place so a pre-upgrade binary can still read it.
func migrateLegacyRates(gdb *gorm.DB, log *slog.Logger) error {
	if !gdb.Migrator().HasTable("legacy_rates") {
		return nil
	}
	var count int64
	if err := gdb.Model(&models.RateRule{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	var rows []legacyRate
	if err := gdb.Find(&rows).Error; err != nil {
		return err
	}
	for _, r := range rows {
		currency := r.Currency
		if currency == "" {
			currency = "PLN"
		}
		rule := models.RateRule{ClientID: r.ClientID, UnitID: r.UnitID, Currency: currency, Rate: r.Rate}
		if p := models.CanonicalPair(r.LanguagePair); p != "" {
			rule.Args = []models.RateRuleArg{{Key: "language_pair", Value: p}}
		}
		if err := gdb.Create(&rule).Error; err != nil {
			return fmt.Errorf("migrate legacy rate %d: %w", r.ID, err)
		}
	}
	if len(rows) > 0 {
		log.Info("migrated legacy rate table", "rows", len(rows))
	}
	return nil
}

// cleanupOrphans removes ledger rows referencing deleted parents and empty
// placeholder orders. Runs on every start and reports what it removed.
func cleanupOrphans(gdb *gorm.DB, log *slog.Logger) error {
	orphanOrders := gdb.Exec(`DELETE FROM orders WHERE book_id NOT IN (SELECT id FROM order_books) OR client_id NOT IN (SELECT id FROM clients)`)
	if orphanOrders.Error != nil {
		return orphanOrders.Error
	}
	orphanSubs := gdb.Exec(`DELETE FROM subcontracts WHERE order_id NOT IN (SELECT id FROM orders) OR contractor_id NOT IN (SELECT id FROM contractors)`)
	if orphanSubs.Error != nil {
		return orphanSubs.Error
	}
	orphanArgs := gdb.Exec(`DELETE FROM rate_rule_args WHERE rate_rule_id NOT IN (SELECT id FROM rate_rules)`)
	if orphanArgs.Error != nil {
		return orphanArgs.Error
	}
	placeholders := gdb.Exec(`DELETE FROM orders WHERE quantity = 0 AND rate = 0 AND amount = 0 AND invoice_number = '' AND number = ''`)
	if placeholders.Error != nil {
		return placeholders.Error
	}
	removed := orphanOrders.RowsAffected + orphanSubs.RowsAffected + orphanArgs.RowsAffected + placeholders.RowsAffected
	if removed > 0 {
		log.Info("cleanup removed rows",
			"orphan_orders", orphanOrders.RowsAffected,
			"orphan_subcontracts", orphanSubs.RowsAffected,
			"orphan_rule_args", orphanArgs.RowsAffected,
			"placeholder_orders", placeholders.RowsAffected)
	}
	return nil
}
