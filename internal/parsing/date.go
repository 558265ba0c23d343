package parsing

import (
	"regexp"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
)

// datePatterns are tried in order, day-first before year-first
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{2})[/-](\d{2})[/-](\d{4})\b`), // dd/mm/yyyy or dd-mm-yyyy
	regexp.MustCompile(`\b(\d{4})[/-](\d{2})[/-](\d{2})\b`), // yyyy-mm-dd or yyyy/mm/dd
}

// ParseDate returns the first date found in text.
//
// The first pattern with any match decides the result. A two digit leading
// group is read as day-month-year, anything else as year-month-day. If the
// matched values do not form a real calendar date ParseDate gives up and
// returns nil instead of trying the remaining patterns.
func ParseDate(text string) *civil.Date {
	for _, pattern := range datePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		var yyyy, mm, dd string
		if len(m[1]) == 2 {
			dd, mm, yyyy = m[1], m[2], m[3]
		} else {
			yyyy, mm, dd = m[1], m[2], m[3]
		}
		return buildDate(yyyy, mm, dd)
	}
	return nil
}

// buildDate returns nil for out of range components such as month 13 or day 32
func buildDate(yyyy, mm, dd string) *civil.Date {
	year, err := strconv.Atoi(yyyy)
	if err != nil {
		return nil
	}
	month, err := strconv.Atoi(mm)
	if err != nil {
		return nil
	}
	day, err := strconv.Atoi(dd)
	if err != nil {
		return nil
	}

	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if year < 1 || !d.IsValid() {
		return nil
	}
	return &d
}
