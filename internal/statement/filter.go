// Package statement filters, validates, and delivers the raw statements a
// carrier workflow returns.
package statement

import (
	"fmt"
	"log"
	"time"

	"github.com/brokerops/statement-collector/internal/workflow"
)

// dateLayouts are the calendar-date formats carrier portals are known to use.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02T15:04:05Z07:00",
}

// ParseDate parses a statement date string against the known portal formats.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

// FilterByDate keeps statements dated strictly after cutoff. The cutoff is
// the last already-processed period, so an equal date is excluded. Statements
// with an unparseable date are excluded and logged, never silently included.
// Input order is preserved.
func FilterByDate(statements []workflow.Statement, cutoff time.Time) []workflow.Statement {
	var kept []workflow.Statement
	for _, s := range statements {
		d, err := ParseDate(s.Date)
		if err != nil {
			log.Printf("[filter] excluding statement with unparseable date %q: %v", s.Date, err)
			continue
		}
		if d.After(cutoff) {
			kept = append(kept, s)
		}
	}
	return kept
}
