// Package parsing derives structured expense fields from raw OCR text using
// fixed regular expressions and keyword tables. Every extractor is best
// effort: a field that cannot be determined is left nil.
package parsing

import "cloud.google.com/go/civil"

// Result holds the fields extracted from a receipt. A nil field means the
// extractor could not decide on a value.
type Result struct {
	Date        *civil.Date `json:"date"`
	AmountCents *int64      `json:"amount_cents"`
	Vendor      *string     `json:"vendor"`
	Description *string     `json:"description"` // no extractor fills this yet
	Category    *string     `json:"category"`
}

// ParseReceipt runs every extractor over text. Empty text yields an empty Result.
func ParseReceipt(text string) Result {
	if text == "" {
		return Result{}
	}

	vendor := ParseVendor(text)
	return Result{
		Date:        ParseDate(text),
		AmountCents: ParseAmountCents(text),
		Vendor:      vendor,
		Category:    InferCategory(vendor, nil),
	}
}
