package app

import (
	"log/slog"
	"os"

	"github.com/lingua-ledger/lingua-ledger/internal/config"
)

// NewLogger returns a configured slog.Logger based on configuration.
func NewLogger(cfg *config.Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
