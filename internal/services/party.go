package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

// PartyService manages clients and contractors.
type PartyService struct{ DB *gorm.DB }

func NewPartyService(db *gorm.DB) *PartyService { return &PartyService{DB: db} }

func (s *PartyService) ListClients() ([]models.Client, error) {
	var clients []models.Client
	return clients, s.DB.Order("name").Find(&clients).Error
}

func (s *PartyService) GetClient(id uint) (*models.Client, error) {
	var c models.Client
	if err := s.DB.First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *PartyService) AddClient(c *models.Client) error {
	if err := s.normalizeClient(c); err != nil {
		return err
	}
	if c.TaxID != "" {
		var dup int64
		if err := s.DB.Model(&models.Client{}).Where("tax_id = ?", c.TaxID).Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return ErrDuplicateTaxID
		}
	}
	return s.DB.Create(c).Error
}

func (s *PartyService) UpdateClient(c *models.Client) error {
	if c.ID == 0 {
		return invalidf("client id required for update")
	}
	if err := s.normalizeClient(c); err != nil {
		return err
	}
	return s.DB.Save(c).Error
}

func (s *PartyService) DeleteClient(id uint) error {
	return s.DB.Delete(&models.Client{}, id).Error
}

func (s *PartyService) normalizeClient(c *models.Client) error {
	c.CountryCode = strings.ToUpper(strings.TrimSpace(c.CountryCode))
	if c.Kind == "" {
		c.Kind = models.ClientKindCompany
	}
	return checkInput(c)
}

func (s *PartyService) ListContractors() ([]models.Contractor, error) {
	var contractors []models.Contractor
	return contractors, s.DB.Order("name").Find(&contractors).Error
}

func (s *PartyService) GetContractor(id uint) (*models.Contractor, error) {
	var c models.Contractor
	if err := s.DB.First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *PartyService) AddContractor(c *models.Contractor) error {
	c.CountryCode = strings.ToUpper(strings.TrimSpace(c.CountryCode))
	if err := checkInput(c); err != nil {
		return err
	}
	if c.TaxID != "" {
		var dup int64
		if err := s.DB.Model(&models.Contractor{}).Where("tax_id = ?", c.TaxID).Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return ErrDuplicateTaxID
		}
	}
	return s.DB.Create(c).Error
}

func (s *PartyService) UpdateContractor(c *models.Contractor) error {
	if c.ID == 0 {
		return invalidf("contractor id required for update")
	}
	c.CountryCode = strings.ToUpper(strings.TrimSpace(c.CountryCode))
	if err := checkInput(c); err != nil {
		return err
	}
	return s.DB.Save(c).Error
}

func (s *PartyService) DeleteContractor(id uint) error {
	return s.DB.Delete(&models.Contractor{}, id).Error
}
