package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

// Preset is a plain snapshot of the catalog — units, categories, services
// and their VAT rules — used for first-run seeding and backup. Entities are
// referenced by name so a preset survives id changes between stores.
type Preset struct {
	Units      []UnitPreset     `json:"units"`
	Categories []CategoryPreset `json:"categories"`
	Services   []ServicePreset  `json:"services"`
}

type UnitPreset struct {
	Name             string          `json:"name"`
	MultiplierToBase decimal.Decimal `json:"multiplier_to_base"`
	IsBase           bool            `json:"is_base"`
}

type CategoryPreset struct {
	Name     string   `json:"name"`
	BaseUnit string   `json:"base_unit,omitempty"`
	OralUnit string   `json:"oral_unit,omitempty"`
	PageUnit string   `json:"page_unit,omitempty"`
	Members  []string `json:"members,omitempty"`
}

type ServicePreset struct {
	Name           string          `json:"name"`
	DefaultVATRate decimal.Decimal `json:"default_vat_rate"`
	VATRules       []VATRulePreset `json:"vat_rules,omitempty"`
}

type VATRulePreset struct {
	Segment       models.Segment  `json:"segment"`
	CountryCode   string          `json:"country_code,omitempty"`
	Kind          string          `json:"kind"`
	Rate          decimal.Decimal `json:"rate,omitempty"`
	ExemptionCode string          `json:"exemption_code,omitempty"`
}

// PresetService dumps and bulk-loads the catalog.
type PresetService struct{ DB *gorm.DB }

func NewPresetService(db *gorm.DB) *PresetService { return &PresetService{DB: db} }

// Export captures the current catalog as a preset.
func (s *PresetService) Export() (*Preset, error) {
	p := &Preset{}

	var units []models.Unit
	if err := s.DB.Order("id").Find(&units).Error; err != nil {
		return nil, err
	}
	unitNames := map[uint]string{}
	for _, u := range units {
		unitNames[u.ID] = u.Name
		p.Units = append(p.Units, UnitPreset{Name: u.Name, MultiplierToBase: u.MultiplierToBase, IsBase: u.IsBase})
	}

	nameOf := func(id *uint) string {
		if id == nil {
			return ""
		}
		return unitNames[*id]
	}
	var cats []models.UnitCategory
	if err := s.DB.Preload("Units").Order("id").Find(&cats).Error; err != nil {
		return nil, err
	}
	for _, c := range cats {
		cp := CategoryPreset{
			Name:     c.Name,
			BaseUnit: nameOf(c.BaseUnitID),
			OralUnit: nameOf(c.OralUnitID),
			PageUnit: nameOf(c.PageUnitID),
		}
		for _, u := range c.Units {
			cp.Members = append(cp.Members, u.Name)
		}
		p.Categories = append(p.Categories, cp)
	}

	var svcs []models.Service
	if err := s.DB.Preload("VATRules").Order("id").Find(&svcs).Error; err != nil {
		return nil, err
	}
	for _, svc := range svcs {
		sp := ServicePreset{Name: svc.Name, DefaultVATRate: svc.DefaultVATRate}
		for _, r := range svc.VATRules {
			sp.VATRules = append(sp.VATRules, VATRulePreset{
				Segment:       r.Segment,
				CountryCode:   r.CountryCode,
				Kind:          r.Kind,
				Rate:          r.Rate,
				ExemptionCode: r.ExemptionCode,
			})
		}
		p.Services = append(p.Services, sp)
	}
	return p, nil
}

// Apply bulk-loads a preset. Inserts are guarded by name: entities that
// already exist are left untouched, so applying the same preset twice is a
// no-op.
func (s *PresetService) Apply(p *Preset) error {
	if p == nil {
		return invalidf("preset must not be nil")
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var hasBase int64
		if err := tx.Model(&models.Unit{}).Where("is_base = ?", true).Count(&hasBase).Error; err != nil {
			return err
		}
		for _, up := range p.Units {
			var existing models.Unit
			err := tx.Where("name = ?", up.Name).First(&existing).Error
			if err == nil {
				continue
			}
			if err != gorm.ErrRecordNotFound {
				return err
			}
			u := models.Unit{Name: up.Name, MultiplierToBase: up.MultiplierToBase}
			if up.IsBase && hasBase == 0 {
				u.IsBase = true
				hasBase = 1
			}
			if err := tx.Create(&u).Error; err != nil {
				return err
			}
		}

		unitID := func(name string) *uint {
			if name == "" {
				return nil
			}
			var u models.Unit
			if err := tx.Where("name = ?", name).First(&u).Error; err != nil {
				return nil
			}
			id := u.ID
			return &id
		}
		for _, cp := range p.Categories {
			var existing models.UnitCategory
			err := tx.Where("name = ?", cp.Name).First(&existing).Error
			if err == nil {
				continue
			}
			if err != gorm.ErrRecordNotFound {
				return err
			}
			c := models.UnitCategory{
				Name:       cp.Name,
				BaseUnitID: unitID(cp.BaseUnit),
				OralUnitID: unitID(cp.OralUnit),
				PageUnitID: unitID(cp.PageUnit),
			}
			for _, member := range cp.Members {
				if id := unitID(member); id != nil {
					var u models.Unit
					if err := tx.First(&u, *id).Error; err == nil {
						c.Units = append(c.Units, u)
					}
				}
			}
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
		}

		for _, sp := range p.Services {
			var existing models.Service
			err := tx.Where("name = ?", sp.Name).First(&existing).Error
			if err == nil {
				continue
			}
			if err != gorm.ErrRecordNotFound {
				return err
			}
			svc := models.Service{Name: sp.Name, DefaultVATRate: sp.DefaultVATRate}
			for _, rp := range sp.VATRules {
				kind := rp.Kind
				if kind == "" {
					kind = models.VATRuleKindRate
				}
				svc.VATRules = append(svc.VATRules, models.ServiceVATRule{
					Segment:       rp.Segment,
					CountryCode:   rp.CountryCode,
					Kind:          kind,
					Rate:          rp.Rate,
					ExemptionCode: models.CanonicalExemptionCode(rp.ExemptionCode),
				})
			}
			if err := tx.Create(&svc).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DefaultPreset is the built-in translation-office catalog used for
// first-run seeding.
func DefaultPreset() *Preset {
	vat23 := decimal.NewFromInt(23)
	return &Preset{
		Units: []UnitPreset{
			{Name: "word", MultiplierToBase: decimal.NewFromInt(1), IsBase: true},
			{Name: "page", MultiplierToBase: decimal.NewFromInt(250)},
			{Name: "certified page", MultiplierToBase: decimal.NewFromInt(1125)},
			{Name: "hour", MultiplierToBase: decimal.Zero},
		},
		Categories: []CategoryPreset{
			{Name: "written", BaseUnit: "word", PageUnit: "page", Members: []string{"word", "page", "certified page"}},
			{Name: "oral", OralUnit: "hour", Members: []string{"hour"}},
		},
		Services: []ServicePreset{
			{
				Name:           "regular translation",
				DefaultVATRate: vat23,
				VATRules: []VATRulePreset{
					{Segment: models.SegmentCompanyEU, Kind: models.VATRuleKindExempt, ExemptionCode: "NP"},
					{Segment: models.SegmentCompanyWorld, Kind: models.VATRuleKindExempt, ExemptionCode: "NP"},
				},
			},
			{
				Name:           "certified translation",
				DefaultVATRate: vat23,
				VATRules: []VATRulePreset{
					{Segment: models.SegmentCompanyEU, Kind: models.VATRuleKindExempt, ExemptionCode: "NP"},
					{Segment: models.SegmentCompanyWorld, Kind: models.VATRuleKindExempt, ExemptionCode: "NP"},
				},
			},
			{
				Name:           "interpreting",
				DefaultVATRate: vat23,
			},
		},
	}
}
