package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

// CatalogService manages units and unit categories.
type CatalogService struct{ DB *gorm.DB }

func NewCatalogService(db *gorm.DB) *CatalogService { return &CatalogService{DB: db} }

func (s *CatalogService) ListUnits() ([]models.Unit, error) {
	var units []models.Unit
	return units, s.DB.Order("name").Find(&units).Error
}

func (s *CatalogService) GetUnit(id uint) (*models.Unit, error) {
	var u models.Unit
	if err := s.DB.First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// SaveUnit creates or updates a unit. At most one unit may be the base unit:
// setting the flag clears it everywhere else in the same transaction.
func (s *CatalogService) SaveUnit(u *models.Unit) error {
	if err := checkInput(u); err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if u.IsBase {
			if err := tx.Model(&models.Unit{}).Where("id <> ?", u.ID).Update("is_base", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(u).Error
	})
}

// DeleteUnit refuses while rate rules or orders still reference the unit.
func (s *CatalogService) DeleteUnit(id uint) error {
	var refs int64
	if err := s.DB.Model(&models.RateRule{}).Where("unit_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs == 0 {
		if err := s.DB.Model(&models.Order{}).Where("unit_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
	}
	if refs > 0 {
		return ErrUnitInUse
	}
	return s.DB.Delete(&models.Unit{}, id).Error
}

// BaseUnit returns the designated conversion anchor, nil when none is set.
func (s *CatalogService) BaseUnit() (*models.Unit, error) {
	var u models.Unit
	err := s.DB.First(&u, "is_base = ?", true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *CatalogService) ListCategories() ([]models.UnitCategory, error) {
	var cats []models.UnitCategory
	return cats, s.DB.Preload("Units").Order("name").Find(&cats).Error
}

func (s *CatalogService) GetCategory(id uint) (*models.UnitCategory, error) {
	var c models.UnitCategory
	if err := s.DB.Preload("Units").First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *CatalogService) SaveCategory(c *models.UnitCategory) error {
	if err := checkInput(c); err != nil {
		return err
	}
	return s.DB.Save(c).Error
}

// SetCategoryUnits replaces the category's unit membership.
func (s *CatalogService) SetCategoryUnits(categoryID uint, unitIDs []uint) error {
	cat, err := s.GetCategory(categoryID)
	if err != nil {
		return err
	}
	var units []models.Unit
	if len(unitIDs) > 0 {
		if err := s.DB.Find(&units, unitIDs).Error; err != nil {
			return err
		}
	}
	return s.DB.Model(cat).Association("Units").Replace(units)
}

func (s *CatalogService) DeleteCategory(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM unit_category_members WHERE unit_category_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.UnitCategory{}, id).Error
	})
}
