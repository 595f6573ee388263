package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var trailingDigits = regexp.MustCompile(`(\d+)\s*$`)

// NextSequence derives the next running number from the numbers already in a
// partition: take the trailing digit run of each, max + 1. Numbers without a
// trailing run are ignored; an empty partition starts at 1. Gaps left by
// manual edits stay gaps.
func NextSequence(existing []string) int {
	max := 0
	for _, n := range existing {
		m := trailingDigits.FindStringSubmatch(n)
		if m == nil {
			continue
		}
		if v, err := strconv.Atoi(m[1]); err == nil && v > max {
			max = v
		}
	}
	return max + 1
}

// ExpandTemplate substitutes numbering tokens: {YYYY} and {YY} for the
// year, {MM} for the month, {NR} for the sequence and {NR4} zero-padded.
func ExpandTemplate(template string, now time.Time, seq int) string {
	r := strings.NewReplacer(
		"{YYYY}", fmt.Sprintf("%04d", now.Year()),
		"{YY}", fmt.Sprintf("%02d", now.Year()%100),
		"{MM}", fmt.Sprintf("%02d", int(now.Month())),
		"{NR4}", fmt.Sprintf("%04d", seq),
		"{NR}", strconv.Itoa(seq),
	)
	return r.Replace(template)
}
