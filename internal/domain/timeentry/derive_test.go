package timeentry

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDeriveHoursAndCost_OvertimeSplit(t *testing.T) {
	clockIn := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	clockOut := time.Date(2024, 3, 4, 19, 0, 0, 0, time.UTC)
	tc := &timecode.TimeCode{StandardRate: d("40"), OvertimeMultiplier: d("1.5")}

	e := DeriveHoursAndCost(TimeEntry{
		TotalHours: HoursBetween(clockIn, clockOut),
		BreakHours: d("1.0"),
	}, tc, d("8"))

	assert.True(t, e.TotalHours.Equal(d("11")), "total %s", e.TotalHours)
	assert.True(t, e.NetHours.Equal(d("10")), "net %s", e.NetHours)
	assert.True(t, e.RegularHours.Equal(d("8")), "regular %s", e.RegularHours)
	assert.True(t, e.OvertimeHours.Equal(d("2")), "overtime %s", e.OvertimeHours)
	assert.True(t, e.IsOvertime)
	assert.True(t, e.RegularRate.Equal(d("40")))
	assert.True(t, e.OvertimeRate.Equal(d("60")))
	// 8*40 + 2*60
	assert.True(t, e.TotalCost.Equal(d("440")), "cost %s", e.TotalCost)
}

func TestDeriveHoursAndCost_AtThresholdIsRegular(t *testing.T) {
	e := DeriveHoursAndCost(TimeEntry{TotalHours: d("8.5"), BreakHours: d("0.5")}, nil, d("8"))

	assert.True(t, e.NetHours.Equal(d("8")))
	assert.True(t, e.RegularHours.Equal(d("8")))
	assert.True(t, e.OvertimeHours.IsZero())
	assert.False(t, e.IsOvertime)
	assert.True(t, e.TotalCost.IsZero(), "unclassified entries carry no rate")
}

func TestDeriveHoursAndCost_ConfigurableThreshold(t *testing.T) {
	tc := &timecode.TimeCode{StandardRate: d("30"), OvertimeMultiplier: d("2")}
	e := DeriveHoursAndCost(TimeEntry{TotalHours: d("10"), BreakHours: decimal.Zero}, tc, d("7.5"))

	assert.True(t, e.RegularHours.Equal(d("7.5")))
	assert.True(t, e.OvertimeHours.Equal(d("2.5")))
	assert.True(t, e.TotalCost.Equal(d("375")), "7.5*30 + 2.5*60 = %s", e.TotalCost)
}

func TestDeriveHoursAndCost_NonPositiveThresholdFallsBackToDefault(t *testing.T) {
	e := DeriveHoursAndCost(TimeEntry{TotalHours: d("9")}, nil, decimal.Zero)
	assert.True(t, e.RegularHours.Equal(d("8")))
	assert.True(t, e.OvertimeHours.Equal(d("1")))
}

func TestDeriveHoursAndCost_PartsSumToNet(t *testing.T) {
	for _, total := range []string{"0", "0.25", "7.99", "8", "8.01", "12.33", "23.75"} {
		for _, brk := range []string{"0", "0.25", "1"} {
			if d(brk).GreaterThan(d(total)) {
				continue
			}
			e := DeriveHoursAndCost(TimeEntry{TotalHours: d(total), BreakHours: d(brk)}, nil, d("8"))
			assert.False(t, e.NetHours.IsNegative())
			assert.True(t, e.RegularHours.Add(e.OvertimeHours).Equal(e.NetHours),
				"total=%s break=%s regular=%s overtime=%s net=%s", total, brk, e.RegularHours, e.OvertimeHours, e.NetHours)
		}
	}
}

func TestHoursBetween_RoundsToTwoDecimals(t *testing.T) {
	in := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	out := in.Add(7*time.Hour + 20*time.Minute)
	assert.True(t, HoursBetween(in, out).Equal(d("7.33")))
}

func TestTimeEntry_CostShares(t *testing.T) {
	tc := &timecode.TimeCode{StandardRate: d("40"), OvertimeMultiplier: d("1.5")}
	e := DeriveHoursAndCost(TimeEntry{TotalHours: d("10")}, tc, d("8"))
	assert.True(t, e.RegularCost().Add(e.OvertimeCost()).Equal(e.TotalCost))
}
