package kpi

import (
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
)

// Period is an inclusive date range.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PreviousPeriod returns the most recent complete period of freq ending before asOf.
func PreviousPeriod(freq Frequency, asOf time.Time) Period {
	today := day(asOf)
	switch freq {
	case FrequencyWeekly:
		monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
		return Period{Start: monday.AddDate(0, 0, -7), End: monday.AddDate(0, 0, -1)}
	case FrequencyMonthly:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{Start: first.AddDate(0, -1, 0), End: first.AddDate(0, 0, -1)}
	case FrequencyQuarterly:
		qMonth := time.Month((int(today.Month())-1)/3*3 + 1)
		first := time.Date(today.Year(), qMonth, 1, 0, 0, 0, 0, time.UTC)
		return Period{Start: first.AddDate(0, -3, 0), End: first.AddDate(0, 0, -1)}
	default:
		yesterday := today.AddDate(0, 0, -1)
		return Period{Start: yesterday, End: yesterday}
	}
}

// ParsePeriod validates a YYYY-MM-DD pair.
func ParsePeriod(start, end string) (Period, error) {
	var errs validator.ValidationErrors
	s, okStart := validator.IsValidDate(start)
	if !okStart {
		errs.Add("period_start", "period_start must be in YYYY-MM-DD format")
	}
	e, okEnd := validator.IsValidDate(end)
	if !okEnd {
		errs.Add("period_end", "period_end must be in YYYY-MM-DD format")
	}
	if okStart && okEnd && e.Before(s) {
		errs.Add("period_end", "period_end must not be before period_start")
	}
	return Period{Start: s, End: e}, errs.Err()
}
