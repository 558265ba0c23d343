package parsing

import "strings"

// Expense categories produced by InferCategory
const (
	CategoryTravel         = "Travel"
	CategoryMeals          = "Meals & Entertainment"
	CategoryOfficeSupplies = "Office Supplies"
	CategoryUtilities      = "Utilities"
)

type categoryRule struct {
	keyword  string
	category string
}

// categoryRules is checked top to bottom; the first keyword found wins
var categoryRules = []categoryRule{
	{"uber", CategoryTravel},
	{"taxi", CategoryTravel},
	{"fuel", CategoryTravel},
	{"petrol", CategoryTravel},
	{"flight", CategoryTravel},
	{"cafe", CategoryMeals},
	{"restaurant", CategoryMeals},
	{"coffee", CategoryMeals},
	{"officeworks", CategoryOfficeSupplies},
	{"staples", CategoryOfficeSupplies},
	{"paper", CategoryOfficeSupplies},
	{"electricity", CategoryUtilities},
	{"internet", CategoryUtilities},
	{"phone", CategoryUtilities},
}

// InferCategory matches the vendor and description against the keyword table.
// Either argument may be nil.
func InferCategory(vendor, description *string) *string {
	base := strings.ToLower(deref(vendor) + " " + deref(description))
	for _, rule := range categoryRules {
		if strings.Contains(base, rule.keyword) {
			category := rule.category
			return &category
		}
	}
	return nil
}

// Categories returns every label InferCategory can produce, in table order
func Categories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, rule := range categoryRules {
		if !seen[rule.category] {
			seen[rule.category] = true
			out = append(out, rule.category)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
