package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateRule prices one unit for a subject. ClientID nil means the rule is a
// global default. Up to three argument constraints narrow its applicability;
// LegacyLanguagePair is an older single-field constraint kept readable for
// stores written before the argument table existed.
type RateRule struct {
	ID                 uint  `gorm:"primaryKey"`
	ClientID           *uint `gorm:"index"`
	UnitID             uint  `gorm:"not null;index"`
	Currency           string          `gorm:"size:3;not null;default:'PLN'"`
	Rate               decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	LegacyLanguagePair string          `gorm:"size:32"`
	Args               []RateRuleArg   `gorm:"foreignKey:RateRuleID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RateRuleArg is one {key,value} constraint, e.g. {language_pair, "EN>PL"}.
type RateRuleArg struct {
	ID         uint   `gorm:"primaryKey"`
	RateRuleID uint   `gorm:"not null;index"`
	Key        string `gorm:"size:40;not null"`
	Value      string `gorm:"size:120;not null"`
}

// MaxRateRuleArgs caps constraints per rule.
const MaxRateRuleArgs = 3
