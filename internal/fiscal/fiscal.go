// Package fiscal buckets dates into Australian style fiscal years that run
// from July 1 to June 30.
package fiscal

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Range is a fiscal year
type Range struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
	Label string     `json:"label"` // e.g. FY23/24
}

// RangeFor returns the fiscal year containing d
func RangeFor(d civil.Date) Range {
	startYear := d.Year
	if d.Before(civil.Date{Year: d.Year, Month: time.July, Day: 1}) {
		startYear--
	}

	return Range{
		Start: civil.Date{Year: startYear, Month: time.July, Day: 1},
		End:   civil.Date{Year: startYear + 1, Month: time.June, Day: 30},
		Label: fmt.Sprintf("FY%02d/%02d", startYear%100, (startYear+1)%100),
	}
}

// Contains reports whether d falls inside the range, bounds included
func (r Range) Contains(d civil.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}
