package timeentry

import (
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/shopspring/decimal"
)

// DefaultOvertimeThreshold is used when an organization has no labor policy.
var DefaultOvertimeThreshold = decimal.NewFromInt(8)

// HoursBetween returns the clock span in hours rounded to two decimals.
func HoursBetween(clockIn, clockOut time.Time) decimal.Decimal {
	seconds := int64(clockOut.Sub(clockIn) / time.Second)
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(3600)).Round(2)
}

// DeriveHoursAndCost fills the derived hour, rate and cost fields of e.
// Rates are copied from tc so later rate changes do not alter history.
// A nil tc leaves the entry unclassified with zero rates.
func DeriveHoursAndCost(e TimeEntry, tc *timecode.TimeCode, threshold decimal.Decimal) TimeEntry {
	if !threshold.IsPositive() {
		threshold = DefaultOvertimeThreshold
	}

	e.TotalHours = e.TotalHours.Round(2)
	e.BreakHours = e.BreakHours.Round(2)
	e.NetHours = e.TotalHours.Sub(e.BreakHours)

	if e.NetHours.LessThanOrEqual(threshold) {
		e.RegularHours = e.NetHours
		e.OvertimeHours = decimal.Zero
		e.IsOvertime = false
	} else {
		e.RegularHours = threshold
		e.OvertimeHours = e.NetHours.Sub(threshold)
		e.IsOvertime = true
	}

	if tc != nil {
		e.RegularRate = tc.StandardRate
		e.OvertimeRate = tc.OvertimeRate().Round(2)
	} else {
		e.RegularRate = decimal.Zero
		e.OvertimeRate = decimal.Zero
	}

	e.TotalCost = e.RegularHours.Mul(e.RegularRate).
		Add(e.OvertimeHours.Mul(e.OvertimeRate)).
		Round(2)

	return e
}
