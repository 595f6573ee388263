package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

// SettingsService is the generic key→value store. Leaf dependency: user
// preferences, numbering templates and internal bookkeeping all live here.
type SettingsService struct{ DB *gorm.DB }

func NewSettingsService(db *gorm.DB) *SettingsService { return &SettingsService{DB: db} }

func (s *SettingsService) Get(key string) (string, bool, error) {
	var row models.Setting
	err := s.DB.First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (s *SettingsService) GetDefault(key, def string) (string, error) {
	v, ok, err := s.Get(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

func (s *SettingsService) Set(key, value string) error {
	if key == "" {
		return invalidf("setting key must not be empty")
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
}

func (s *SettingsService) Delete(key string) error {
	return s.DB.Delete(&models.Setting{}, "key = ?", key).Error
}

func (s *SettingsService) All() (map[string]string, error) {
	var rows []models.Setting
	if err := s.DB.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}
