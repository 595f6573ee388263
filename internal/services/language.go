package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

// LanguageService manages languages and directional language pairs.
type LanguageService struct{ DB *gorm.DB }

func NewLanguageService(db *gorm.DB) *LanguageService { return &LanguageService{DB: db} }

func (s *LanguageService) ListLanguages() ([]models.Language, error) {
	var langs []models.Language
	return langs, s.DB.Order("name").Find(&langs).Error
}

func (s *LanguageService) SaveLanguage(l *models.Language) error {
	if err := checkInput(l); err != nil {
		return err
	}
	l.ISOCode = strings.ToUpper(strings.TrimSpace(l.ISOCode))
	return s.DB.Save(l).Error
}

func (s *LanguageService) DeleteLanguage(id uint) error {
	var refs int64
	if err := s.DB.Model(&models.LanguagePair{}).
		Where("source_id = ? OR target_id = ?", id, id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return ErrLanguageInUse
	}
	return s.DB.Delete(&models.Language{}, id).Error
}

func (s *LanguageService) ListPairs() ([]models.LanguagePair, error) {
	var pairs []models.LanguagePair
	return pairs, s.DB.Order("label").Find(&pairs).Error
}

// SavePair stores a pair under its canonical label. When the label is empty
// it is derived from the source and target language ISO codes.
func (s *LanguageService) SavePair(p *models.LanguagePair) error {
	if p.Label == "" && p.SourceID != nil && p.TargetID != nil {
		var src, dst models.Language
		if err := s.DB.First(&src, *p.SourceID).Error; err != nil {
			return notFound(err)
		}
		if err := s.DB.First(&dst, *p.TargetID).Error; err != nil {
			return notFound(err)
		}
		p.Label = src.ISOCode + ">" + dst.ISOCode
	}
	p.Label = models.CanonicalPair(p.Label)
	if err := checkInput(p); err != nil {
		return err
	}
	return s.DB.Save(p).Error
}

func (s *LanguageService) DeletePair(id uint) error {
	return s.DB.Delete(&models.LanguagePair{}, id).Error
}
