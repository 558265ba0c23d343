package parsing

import (
	"regexp"
	"strings"
)

const maxVendorLines = 6

var (
	lineBreak        = regexp.MustCompile(`\r\n|[\n\r\v\f\x1c\x1d\x1e\x{85}\x{2028}\x{2029}]`)
	vendorDisallowed = regexp.MustCompile(`[^a-zA-Z0-9 &@'\-.]`)
)

// vendorIgnore holds boilerplate that never names the merchant
var vendorIgnore = []string{"tax invoice", "invoice", "receipt", "abn", "gst", "total"}

// ParseVendor returns the first line near the top of the receipt that looks
// like a business name, or nil.
func ParseVendor(text string) *string {
	lines := nonEmptyLines(text)
	if len(lines) > maxVendorLines {
		lines = lines[:maxVendorLines]
	}

	for _, line := range lines {
		cleaned := strings.TrimSpace(vendorDisallowed.ReplaceAllString(line, " "))
		if cleaned == "" || isBoilerplate(cleaned) {
			continue
		}
		if len(cleaned) >= 3 {
			vendor := strings.Join(strings.Fields(cleaned), " ")
			return &vendor
		}
	}
	return nil
}

// nonEmptyLines splits text into trimmed lines, dropping blank ones
func nonEmptyLines(text string) []string {
	var lines []string
	for _, l := range lineBreak.Split(text, -1) {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func isBoilerplate(line string) bool {
	low := strings.ToLower(line)
	for _, k := range vendorIgnore {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}
