package config

import (
	"errors"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	DataDir        string    `envconfig:"LEDGER_DATA_DIR" default:"./data"`
	OrganizationID uuid.UUID `envconfig:"LEDGER_ORG_ID"`
	UserID         uuid.UUID `envconfig:"LEDGER_USER_ID"`

	// SellerCountry is the office's own country code, the anchor for VAT
	// segment classification.
	SellerCountry string `envconfig:"LEDGER_SELLER_COUNTRY" default:"PL"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	DBDebug   bool   `envconfig:"DB_DEBUG" default:"false"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.OrganizationID == uuid.Nil {
		return nil, errors.New("LEDGER_ORG_ID must be provided")
	}
	if cfg.UserID == uuid.Nil {
		return nil, errors.New("LEDGER_USER_ID must be provided")
	}
	return &cfg, nil
}
