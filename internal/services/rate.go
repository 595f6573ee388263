package services

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lingua-ledger/lingua-ledger/internal/models"
)

// Arg is one {key, value} classification argument, e.g.
// {language_pair, "EN>PL"} or {document_type, "certificate"}.
type Arg struct {
	Key   string
	Value string
}

// ResolvedRate is the outcome of a successful tariff lookup.
type ResolvedRate struct {
	RuleID   uint
	Rate     decimal.Decimal
	Currency string
}

// RateService resolves and stores unit rates from the layered rule
// hierarchy: client-scoped rules shadow global defaults, exact-currency
// rules shadow any-currency fallbacks.
type RateService struct{ DB *gorm.DB }

func NewRateService(db *gorm.DB) *RateService { return &RateService{DB: db} }

// Resolve returns the best-matching rate for (subject, unit, candidates),
// or nil when no rule applies — an empty result, not an error.
//
// Tiers, first hit wins: client+currency, client any-currency, global+
// currency, global any-currency. Within a tier every constraint of a rule
// must be satisfied by the candidates; the rule with the most constraints
// wins, ties go to the most recently inserted rule.
func (s *RateService) Resolve(clientID *uint, unitID uint, candidates []Arg, currency string) (*ResolvedRate, error) {
	if unitID == 0 {
		return nil, invalidf("unit id required")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))

	type tier struct {
		clientID *uint
		currency string
	}
	var tiers []tier
	addSubject := func(c *uint) {
		if currency != "" {
			tiers = append(tiers, tier{c, currency})
		}
		tiers = append(tiers, tier{c, ""})
	}
	if clientID != nil && *clientID != 0 {
		addSubject(clientID)
	}
	addSubject(nil)

	for _, t := range tiers {
		q := s.DB.Preload("Args").Where("unit_id = ?", unitID)
		if t.clientID != nil {
			q = q.Where("client_id = ?", *t.clientID)
		} else {
			q = q.Where("client_id IS NULL")
		}
		if t.currency != "" {
			q = q.Where("upper(currency) = ?", t.currency)
		}
		var rules []models.RateRule
		if err := q.Find(&rules).Error; err != nil {
			return nil, err
		}
		if best := bestMatch(rules, candidates); best != nil {
			return &ResolvedRate{RuleID: best.ID, Rate: best.Rate, Currency: best.Currency}, nil
		}
	}
	return nil, nil
}

// Set upserts a rule: same subject, unit, currency and normalized
// constraint set replaces the existing rule.
func (s *RateService) Set(clientID *uint, unitID uint, rate decimal.Decimal, currency string, args []Arg) error {
	if unitID == 0 {
		return invalidf("unit id required")
	}
	if rate.IsNegative() {
		return invalidf("rate must not be negative")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "PLN"
	}
	if clientID != nil && *clientID == 0 {
		clientID = nil
	}
	norm := NormalizeArgs(args)

	return s.DB.Transaction(func(tx *gorm.DB) error {
		q := tx.Preload("Args").Where("unit_id = ? AND upper(currency) = ?", unitID, currency)
		if clientID != nil {
			q = q.Where("client_id = ?", *clientID)
		} else {
			q = q.Where("client_id IS NULL")
		}
		var existing []models.RateRule
		if err := q.Find(&existing).Error; err != nil {
			return err
		}
		for i := range existing {
			if !sameArgSet(ruleConstraints(&existing[i]), norm) {
				continue
			}
			if err := tx.Where("rate_rule_id = ?", existing[i].ID).Delete(&models.RateRuleArg{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing[i]).Error; err != nil {
				return err
			}
		}
		rule := models.RateRule{ClientID: clientID, UnitID: unitID, Currency: currency, Rate: rate}
		for _, a := range norm {
			rule.Args = append(rule.Args, models.RateRuleArg{Key: a.Key, Value: a.Value})
		}
		return tx.Create(&rule).Error
	})
}

// ListRules returns the rules for one subject (nil = global defaults).
func (s *RateService) ListRules(clientID *uint) ([]models.RateRule, error) {
	q := s.DB.Preload("Args").Order("unit_id, currency, id")
	if clientID != nil && *clientID != 0 {
		q = q.Where("client_id = ?", *clientID)
	} else {
		q = q.Where("client_id IS NULL")
	}
	var rules []models.RateRule
	return rules, q.Find(&rules).Error
}

func (s *RateService) DeleteRule(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rate_rule_id = ?", id).Delete(&models.RateRuleArg{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.RateRule{}, id).Error
	})
}

// NormalizeArgs trims, drops empties, dedupes by key (case-insensitive,
// first occurrence wins), caps at the constraint limit and sorts by key for
// stable storage. Keys are stored lowercase; language_pair values are
// canonicalized.
func NormalizeArgs(args []Arg) []Arg {
	seen := make(map[string]struct{}, len(args))
	out := make([]Arg, 0, len(args))
	for _, a := range args {
		key := strings.ToLower(strings.TrimSpace(a.Key))
		val := strings.TrimSpace(a.Value)
		if key == "" || val == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if key == "language_pair" {
			val = models.CanonicalPair(val)
		}
		out = append(out, Arg{Key: key, Value: val})
		if len(out) == models.MaxRateRuleArgs {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ruleConstraints returns the rule's effective constraints. A rule without
// explicit args but with a legacy language-pair field acts as an implicit
// one-constraint rule for backward compatibility.
func ruleConstraints(r *models.RateRule) []Arg {
	if len(r.Args) == 0 && r.LegacyLanguagePair != "" {
		return []Arg{{Key: "language_pair", Value: models.CanonicalPair(r.LegacyLanguagePair)}}
	}
	cons := make([]Arg, 0, len(r.Args))
	for _, a := range r.Args {
		cons = append(cons, Arg{Key: a.Key, Value: a.Value})
	}
	return cons
}

// bestMatch picks the eligible rule with the highest specificity score.
// Score is the number of satisfied constraints; every constraint must be
// satisfied for the rule to be eligible at all, and a zero-constraint rule
// is the universal fallback. Ties break toward the highest rule ID.
func bestMatch(rules []models.RateRule, candidates []Arg) *models.RateRule {
	var best *models.RateRule
	bestScore := -1
	for i := range rules {
		cons := ruleConstraints(&rules[i])
		if !satisfied(cons, candidates) {
			continue
		}
		score := len(cons)
		if score > bestScore || (score == bestScore && best != nil && rules[i].ID > best.ID) {
			best = &rules[i]
			bestScore = score
		}
	}
	return best
}

// satisfied reports whether every constraint finds a candidate with the same
// key (case-sensitive) and value (case-insensitive).
func satisfied(cons, candidates []Arg) bool {
	for _, c := range cons {
		ok := false
		for _, cand := range candidates {
			if cand.Key == c.Key && strings.EqualFold(strings.TrimSpace(cand.Value), strings.TrimSpace(c.Value)) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func sameArgSet(a, b []Arg) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]Arg(nil), a...)
	bs := append([]Arg(nil), b...)
	sort.Slice(as, func(i, j int) bool { return as[i].Key < as[j].Key })
	sort.Slice(bs, func(i, j int) bool { return bs[i].Key < bs[j].Key })
	for i := range as {
		if !strings.EqualFold(as[i].Key, bs[i].Key) || !strings.EqualFold(as[i].Value, bs[i].Value) {
			return false
		}
	}
	return true
}
