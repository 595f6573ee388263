package services

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

// EU member-state country codes. EL is the VAT-territory spelling of Greece.
var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "EL": {}, "HU": {},
	"IE": {}, "IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {},
	"PL": {}, "PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// SegmentFor classifies a client into one of the six VAT segments relative
// to the seller's own country. A client without a country code counts as
// domestic.
func SegmentFor(client *models.Client, sellerCountry string) models.Segment {
	kind := "company"
	if client.Kind == models.ClientKindPerson {
		kind = "person"
	}
	cc := strings.ToUpper(strings.TrimSpace(client.CountryCode))
	seller := strings.ToUpper(strings.TrimSpace(sellerCountry))
	zone := "world"
	switch {
	case cc == "" || cc == seller:
		zone = "domestic"
	case inEU(cc) || client.EUVAT:
		zone = "eu"
	}
	return models.Segment(kind + "_" + zone)
}

func inEU(countryCode string) bool {
	_, ok := euCountries[countryCode]
	return ok
}

// VATService resolves the VAT rate or exemption code to stamp on an order
// at invoice time.
type VATService struct{ DB *gorm.DB }

func NewVATService(db *gorm.DB) *VATService { return &VATService{DB: db} }

// Apply mutates the order's VAT fields from the service's rules: an exact
// (segment, client country) rule beats the (segment, any country) fallback.
// With no matching rule the order's stored values stand — the caller's own
// fallback (typically the service's flat default rate) stays in effect.
// Invoked at invoice-issue time only, never retroactively.
func (s *VATService) Apply(order *models.Order, client *models.Client, sellerCountry string) error {
	if order.ServiceID == 0 {
		return nil
	}
	segment := SegmentFor(client, sellerCountry)
	cc := strings.ToUpper(strings.TrimSpace(client.CountryCode))

	var rules []models.ServiceVATRule
	if err := s.DB.Where("service_id = ? AND segment = ?", order.ServiceID, segment).Find(&rules).Error; err != nil {
		return err
	}
	var exact, generic *models.ServiceVATRule
	for i := range rules {
		switch rules[i].CountryCode {
		case "":
			generic = &rules[i]
		case cc:
			if cc != "" {
				exact = &rules[i]
			}
		}
	}
	rule := exact
	if rule == nil {
		rule = generic
	}
	if rule == nil {
		return nil
	}
	if rule.Kind == models.VATRuleKindExempt {
		order.VATRate = decimal.Zero
		order.VATCode = models.CanonicalExemptionCode(rule.ExemptionCode)
	} else {
		order.VATRate = rule.Rate
		order.VATCode = ""
	}
	return nil
}
