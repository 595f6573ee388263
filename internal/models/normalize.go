package models

import "strings"

var arrowVariants = strings.NewReplacer("→", ">", "⇒", ">", "➔", ">", "->", ">", "=>", ">")

// CanonicalPair rewrites a language-pair label to its canonical ASCII form:
// directional glyphs become ">", both sides trimmed and uppercased
// ("en → pl" → "EN>PL"). Labels that are not a two-sided pair come back
// trimmed but otherwise untouched.
func CanonicalPair(s string) string {
	t := arrowVariants.Replace(strings.TrimSpace(s))
	parts := strings.Split(t, ">")
	if len(parts) != 2 {
		return strings.TrimSpace(s)
	}
	return strings.ToUpper(strings.TrimSpace(parts[0])) + ">" + strings.ToUpper(strings.TrimSpace(parts[1]))
}

var legacyExemptionCodes = map[string]string{
	"zw":         "ZW",
	"zw.":        "ZW",
	"zwol.":      "ZW",
	"zwolniony":  "ZW",
	"np":         "NP",
	"np.":        "NP",
	"nie podl.":  "NP",
	"niepodlega": "NP",
}

// CanonicalExemptionCode maps legacy tax-exemption spellings to the current
// two-letter scheme and uppercases anything already in it.
func CanonicalExemptionCode(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if c, ok := legacyExemptionCodes[strings.ToLower(t)]; ok {
		return c
	}
	return strings.ToUpper(t)
}
