package main

import (
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/lingua-ledger/lingua-ledger/internal/app"
	"github.com/lingua-ledger/lingua-ledger/internal/config"
	"github.com/lingua-ledger/lingua-ledger/internal/db"
	"github.com/lingua-ledger/lingua-ledger/internal/services"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run store migrations and exit")
	linkFlag        = flag.Bool("link", false, "Confirm linkage of an unlinked store to this identity")
	seedFlag        = flag.Bool("seed", false, "Apply the built-in catalog preset")
	exportFlag      = flag.String("export-preset", "", "Write the catalog preset to FILE and exit")
	applyFlag       = flag.String("apply-preset", "", "Load a catalog preset from FILE")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := app.NewLogger(cfg)

	gdb, release, err := db.Open(cfg, logger)
	if errors.Is(err, db.ErrStoreUnlinked) {
		if !*linkFlag {
			log.Fatalf("store exists but carries no linkage descriptor; rerun with -link to bind it to this identity")
		}
		if err := db.Link(cfg); err != nil {
			log.Fatalf("link store: %v", err)
		}
		gdb, release, err = db.Open(cfg, logger)
	}
	var mismatch *db.LinkageMismatchError
	if errors.As(err, &mismatch) {
		log.Fatalf("refusing to open: %v", mismatch)
	}
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer release()
	logger.Info("store ready", "data_dir", cfg.DataDir, "organization", cfg.OrganizationID)

	if *migrateOnlyFlag {
		logger.Info("migrations completed; exiting as requested")
		return
	}

	presets := services.NewPresetService(gdb)
	switch {
	case *seedFlag:
		if err := presets.Apply(services.DefaultPreset()); err != nil {
			log.Fatalf("seed catalog: %v", err)
		}
		logger.Info("applied built-in catalog preset")
	case *exportFlag != "":
		p, err := presets.Export()
		if err != nil {
			log.Fatalf("export preset: %v", err)
		}
		raw, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			log.Fatalf("encode preset: %v", err)
		}
		if err := os.WriteFile(*exportFlag, raw, 0o644); err != nil {
			log.Fatalf("write preset: %v", err)
		}
		logger.Info("exported catalog preset", "file", *exportFlag)
	case *applyFlag != "":
		raw, err := os.ReadFile(*applyFlag)
		if err != nil {
			log.Fatalf("read preset: %v", err)
		}
		var p services.Preset
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Fatalf("decode preset: %v", err)
		}
		if err := presets.Apply(&p); err != nil {
			log.Fatalf("apply preset: %v", err)
		}
		logger.Info("applied catalog preset", "file", *applyFlag)
	}
}
