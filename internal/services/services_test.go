package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lingua-ledger/lingua-ledger/internal/db"
	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	return namedTestDB(t, "")
}

func namedTestDB(t *testing.T, suffix string) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + suffix
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, m := range db.AllModels() {
		if err := gdb.AutoMigrate(m); err != nil {
			t.Fatalf("automigrate %T: %v", m, err)
		}
	}
	return gdb
}

func seedUnit(t *testing.T, gdb *gorm.DB, name string) *models.Unit {
	t.Helper()
	u := models.Unit{Name: name, MultiplierToBase: decimal.NewFromInt(1)}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("seed unit %s: %v", name, err)
	}
	return &u
}

func seedClient(t *testing.T, gdb *gorm.DB, name, country, kind string) *models.Client {
	t.Helper()
	c := models.Client{Name: name, CountryCode: country, Kind: kind}
	if err := gdb.Create(&c).Error; err != nil {
		t.Fatalf("seed client %s: %v", name, err)
	}
	return &c
}

func seedBook(t *testing.T, gdb *gorm.DB, name, template string) *models.OrderBook {
	t.Helper()
	b := models.OrderBook{Name: name, NumberTemplate: template}
	if err := gdb.Create(&b).Error; err != nil {
		t.Fatalf("seed book %s: %v", name, err)
	}
	return &b
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
