package models

import "time"

type Language struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;uniqueIndex" validate:"required"`
	ISOCode   string `gorm:"size:8;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LanguagePair is a directed pair. Label holds the canonical ASCII form
// "EN>PL"; legacy arrow glyphs are normalized away at startup.
type LanguagePair struct {
	ID        uint   `gorm:"primaryKey"`
	Label     string `gorm:"size:32;not null;uniqueIndex" validate:"required"`
	SourceID  *uint
	TargetID  *uint
	CreatedAt time.Time
	UpdatedAt time.Time
}
