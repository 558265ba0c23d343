package parsing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountNumber matches a money value with optional thousands separators and an
// optional two digit fraction
const amountNumber = `[0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]{2})?`

// amountPatterns are collected together; every match from every pattern is a candidate.
// The bare pattern requires a fraction so phone numbers and the like are ignored.
// Word boundaries are ASCII only, so an accented letter next to a number counts as a boundary.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btotal\s*[:\-]?\s*\$?\s*(` + amountNumber + `)\b`),
	regexp.MustCompile(`(?i)\bamount\s*[:\-]?\s*\$?\s*(` + amountNumber + `)\b`),
	regexp.MustCompile(`(?i)\b([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]{2}))\b`),
}

var hundred = decimal.NewFromInt(100)

// ParseAmountCents returns the largest money value found in text, in cents.
// Receipts list subtotal, tax and total lines; the total is usually the biggest.
// It returns nil when no candidate is found.
func ParseAmountCents(text string) *int64 {
	t := strings.ToLower(text)
	t = strings.ReplaceAll(t, "aud", "")
	t = strings.ReplaceAll(t, " ", "")

	var best *int64
	for _, pattern := range amountPatterns {
		for _, m := range pattern.FindAllStringSubmatch(t, -1) {
			cents, ok := toCents(m[1])
			if !ok {
				continue
			}
			if best == nil || cents > *best {
				best = &cents
			}
		}
	}
	return best
}

// toCents converts a matched number like "1,234.56" into 123456
func toCents(raw string) (int64, bool) {
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return 0, false
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.BigInt().IsInt64() {
		return 0, false
	}
	return cents.IntPart(), true
}
