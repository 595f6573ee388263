package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

// ServiceCatalog manages billable service types and their VAT rules.
type ServiceCatalog struct{ DB *gorm.DB }

func NewServiceCatalog(db *gorm.DB) *ServiceCatalog { return &ServiceCatalog{DB: db} }

func (s *ServiceCatalog) ListServices() ([]models.Service, error) {
	var svcs []models.Service
	return svcs, s.DB.Preload("VATRules").Order("name").Find(&svcs).Error
}

func (s *ServiceCatalog) GetService(id uint) (*models.Service, error) {
	var svc models.Service
	if err := s.DB.Preload("VATRules").First(&svc, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &svc, nil
}

func (s *ServiceCatalog) SaveService(svc *models.Service) error {
	if err := checkInput(svc); err != nil {
		return err
	}
	return s.DB.Save(svc).Error
}

func (s *ServiceCatalog) DeleteService(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("service_id = ?", id).Delete(&models.ServiceVATRule{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Service{}, id).Error
	})
}

// SetVATRule upserts a rule; (service, segment, country-or-empty) is unique,
// so an existing rule under the same key is replaced.
func (s *ServiceCatalog) SetVATRule(rule *models.ServiceVATRule) error {
	rule.CountryCode = strings.ToUpper(strings.TrimSpace(rule.CountryCode))
	if rule.Kind == "" {
		rule.Kind = models.VATRuleKindRate
	}
	rule.ExemptionCode = models.CanonicalExemptionCode(rule.ExemptionCode)
	if err := checkInput(rule); err != nil {
		return err
	}
	if rule.Kind == models.VATRuleKindExempt && rule.ExemptionCode == "" {
		return invalidf("exemption rule requires an exemption code")
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("service_id = ? AND segment = ? AND country_code = ? AND id <> ?",
			rule.ServiceID, rule.Segment, rule.CountryCode, rule.ID).
			Delete(&models.ServiceVATRule{}).Error; err != nil {
			return err
		}
		return tx.Save(rule).Error
	})
}

func (s *ServiceCatalog) DeleteVATRule(id uint) error {
	return s.DB.Delete(&models.ServiceVATRule{}, id).Error
}
