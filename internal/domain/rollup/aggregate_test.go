package rollup

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/technician"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timeentry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func testCodes() map[string]timecode.TimeCode {
	return map[string]timecode.TimeCode{
		"repair": {ID: "repair", Category: timecode.CategoryDirectLabor, IsBillable: true, IsProductive: true, StandardRate: dec("40"), OvertimeMultiplier: dec("1.5")},
		"shop":   {ID: "shop", Category: timecode.CategoryIndirectLabor, IsProductive: true, StandardRate: dec("30"), OvertimeMultiplier: dec("1.5")},
		"class":  {ID: "class", Category: timecode.CategoryTraining, StandardRate: dec("25"), OvertimeMultiplier: dec("1.5")},
	}
}

func approvedEntry(id, code string, total string) timeentry.TimeEntry {
	codes := testCodes()
	var tc *timecode.TimeCode
	var codeID *string
	if code != "" {
		codeID = strPtr(code)
		if c, ok := codes[code]; ok {
			tc = &c
		}
	}
	e := timeentry.DeriveHoursAndCost(timeentry.TimeEntry{
		ID:           id,
		TechnicianID: "tech-1",
		TimeCodeID:   codeID,
		EntryDate:    monday,
		TotalHours:   dec(total),
		Status:       timeentry.StatusApproved,
		UpdatedAt:    monday.Add(20 * time.Hour),
	}, tc, dec("8"))
	return e
}

func TestBuildDaily_PartitionsByCategory(t *testing.T) {
	entries := []timeentry.TimeEntry{
		approvedEntry("e1", "repair", "5"),
		approvedEntry("e2", "shop", "2"),
		approvedEntry("e3", "class", "1"),
		approvedEntry("e4", "", "0.5"),
		approvedEntry("e5", "unknown", "0.5"),
	}

	r := BuildDaily(DirtyKey{CompanyID: "c1", TechnicianID: "tech-1", Date: monday}, entries, testCodes(), 2)

	assert.Equal(t, 5, r.EntryCount)
	assert.True(t, r.NetHoursWorked.Equal(dec("9")))
	assert.True(t, r.DirectLaborHours.Equal(dec("5")))
	assert.True(t, r.IndirectLaborHours.Equal(dec("2")))
	assert.True(t, r.TrainingHours.Equal(dec("1")))
	assert.True(t, r.AdministrativeHours.IsZero())
	assert.True(t, r.UnclassifiedHours.Equal(dec("1")))
	assert.True(t, r.BillableHours.Equal(dec("5")))
	assert.True(t, r.ProductiveHours.Equal(dec("7")))
	assert.True(t, r.UtilizationRate.Equal(dec("55.56")), "utilization %s", r.UtilizationRate)
	assert.True(t, r.EfficiencyRate.Equal(dec("77.78")), "efficiency %s", r.EfficiencyRate)
	assert.Equal(t, 2, r.WorkOrdersCompleted)
	assert.False(t, r.IsAbsent)

	categorized := r.DirectLaborHours.Add(r.IndirectLaborHours).Add(r.AdministrativeHours).Add(r.TrainingHours).Add(r.UnclassifiedHours)
	assert.True(t, categorized.Equal(r.NetHoursWorked))
}

func TestBuildDaily_ExcludesNonApprovedEntries(t *testing.T) {
	approved := approvedEntry("e1", "repair", "6")
	rejected := approvedEntry("e2", "repair", "4")
	rejected.Status = timeentry.StatusRejected
	pending := approvedEntry("e3", "shop", "3")
	pending.Status = timeentry.StatusPending

	key := DirtyKey{CompanyID: "c1", TechnicianID: "tech-1", Date: monday}
	withRejected := BuildDaily(key, []timeentry.TimeEntry{approved, rejected, pending}, testCodes(), 0)
	onlyApproved := BuildDaily(key, []timeentry.TimeEntry{approved}, testCodes(), 0)

	assert.Equal(t, onlyApproved, withRejected)
	assert.True(t, withRejected.DirectLaborHours.Equal(dec("6")))
	assert.True(t, withRejected.IndirectLaborHours.IsZero())
}

func TestBuildDaily_IsIdempotent(t *testing.T) {
	entries := []timeentry.TimeEntry{approvedEntry("e1", "repair", "10"), approvedEntry("e2", "shop", "1.25")}
	key := DirtyKey{CompanyID: "c1", TechnicianID: "tech-1", Date: monday}

	first := BuildDaily(key, entries, testCodes(), 1)
	second := BuildDaily(key, entries, testCodes(), 1)
	reversed := BuildDaily(key, []timeentry.TimeEntry{entries[1], entries[0]}, testCodes(), 1)

	assert.Equal(t, first, second)
	assert.Equal(t, first, reversed)
	assert.Equal(t, monday.Add(20*time.Hour), first.ComputedAt)
}

func TestBuildDaily_NoEntriesIsAbsent(t *testing.T) {
	r := BuildDaily(DirtyKey{CompanyID: "c1", TechnicianID: "tech-1", Date: monday.Add(9 * time.Hour)}, nil, nil, 0)

	assert.True(t, r.IsAbsent)
	assert.False(t, r.HasOvertime)
	assert.True(t, r.UtilizationRate.IsZero())
	assert.Equal(t, monday, r.Date)
	assert.Equal(t, monday, r.ComputedAt)
}

func TestBuildDaily_OvertimeCosts(t *testing.T) {
	r := BuildDaily(DirtyKey{CompanyID: "c1", TechnicianID: "tech-1", Date: monday},
		[]timeentry.TimeEntry{approvedEntry("e1", "repair", "10")}, testCodes(), 0)

	assert.True(t, r.HasOvertime)
	assert.True(t, r.OvertimeHours.Equal(dec("2")))
	assert.True(t, r.RegularCost.Equal(dec("320")))
	assert.True(t, r.OvertimeCost.Equal(dec("120")))
	assert.True(t, r.LaborCost.Equal(dec("440")))
}

func daily(day int, net string, util string) DailyRollup {
	n := dec(net)
	return DailyRollup{
		CompanyID:       "c1",
		TechnicianID:    "tech-1",
		Date:            monday.AddDate(0, 0, day),
		NetHoursWorked:  n,
		RegularHours:    decimal.Min(n, dec("8")),
		OvertimeHours:   decimal.Max(n.Sub(dec("8")), decimal.Zero),
		UtilizationRate: dec(util),
		EfficiencyRate:  dec(util),
		LaborCost:       n.Mul(dec("40")),
		IsAbsent:        n.IsZero(),
		ComputedAt:      monday.AddDate(0, 0, day).Add(18 * time.Hour),
	}
}

func TestBuildWeekly_SumsDailiesAndCountsMissingDays(t *testing.T) {
	dailies := []DailyRollup{
		daily(0, "8", "50"),
		daily(1, "10", "70"),
		daily(2, "0", "0"),
		daily(4, "6.5", "90"),
		// outside the week
		daily(7, "9", "100"),
	}

	w := BuildWeekly(WeekKey{CompanyID: "c1", TechnicianID: "tech-1", WeekStart: monday}, dailies)

	assert.True(t, w.TotalHoursWorked.Equal(dec("24.5")), "total %s", w.TotalHoursWorked)
	assert.True(t, w.OvertimeHours.Equal(dec("2")))
	assert.Equal(t, 3, w.DaysWorked)
	assert.Equal(t, 1, w.DaysAbsent)
	assert.Equal(t, 3, w.DaysMissing)
	assert.True(t, w.AvgUtilizationRate.Equal(dec("70")))
	assert.Equal(t, monday.AddDate(0, 0, 6), w.WeekEnd)
	assert.Equal(t, monday.AddDate(0, 0, 4).Add(18*time.Hour), w.ComputedAt)

	var sum decimal.Decimal
	for _, d := range dailies[:4] {
		sum = sum.Add(d.NetHoursWorked)
	}
	assert.True(t, w.TotalHoursWorked.Equal(sum))
}

func TestBuildWeekly_EmptyWeek(t *testing.T) {
	w := BuildWeekly(WeekKey{CompanyID: "c1", TechnicianID: "tech-1", WeekStart: monday}, nil)
	assert.Equal(t, 7, w.DaysMissing)
	assert.True(t, w.TotalHoursWorked.IsZero())
	assert.True(t, w.AvgUtilizationRate.IsZero())
}

func TestBuildShop_AttendanceAndOvertimeCompliance(t *testing.T) {
	techs := []technician.Technician{
		{ID: "t1", DepartmentID: strPtr("body")},
		{ID: "t2", DepartmentID: strPtr("body")},
		{ID: "t3", DepartmentID: strPtr("engine")},
		{ID: "t4", DepartmentID: strPtr("body")},
	}
	mk := func(id, net, overtime, billable string) DailyRollup {
		return DailyRollup{
			TechnicianID:   id,
			Date:           monday,
			NetHoursWorked: dec(net),
			OvertimeHours:  dec(overtime),
			RegularHours:   dec(net).Sub(dec(overtime)),
			BillableHours:  dec(billable),
		}
	}
	dailies := map[string]DailyRollup{
		"t1": mk("t1", "10", "2", "8"),
		"t2": mk("t2", "11", "3", "4"),
		"t3": mk("t3", "8", "0", "8"),
		// t4 has no daily rollup
	}
	caps := map[string]decimal.Decimal{"t1": dec("4"), "t2": dec("1")}

	all := BuildShop(ShopKey{CompanyID: "c1", Date: monday}, techs, dailies, caps)
	assert.Equal(t, 4, all.TotalTechnicians)
	assert.Equal(t, 3, all.TechniciansPresent)
	assert.Equal(t, 1, all.TechniciansAbsent)
	assert.True(t, all.AttendanceRate.Equal(dec("75")))
	assert.True(t, all.TotalHoursWorked.Equal(dec("29")))
	assert.Equal(t, 2, all.TechniciansWithOvertime)
	assert.True(t, all.AuthorizedOvertimeHours.Equal(dec("3")), "authorized %s", all.AuthorizedOvertimeHours)
	assert.True(t, all.UnauthorizedOvertimeHours.Equal(dec("2")), "unauthorized %s", all.UnauthorizedOvertimeHours)
	assert.True(t, all.UtilizationRate.Equal(dec("68.97")), "utilization %s", all.UtilizationRate)

	body := BuildShop(ShopKey{CompanyID: "c1", Date: monday, DepartmentID: "body"}, techs, dailies, caps)
	assert.Equal(t, 3, body.TotalTechnicians)
	assert.Equal(t, 2, body.TechniciansPresent)
	assert.True(t, body.AttendanceRate.Equal(dec("66.67")))
}

func TestBuildShop_NoTechnicians(t *testing.T) {
	s := BuildShop(ShopKey{CompanyID: "c1", Date: monday}, nil, nil, nil)
	assert.Zero(t, s.TotalTechnicians)
	assert.True(t, s.AttendanceRate.IsZero())
}

func TestWeekStart(t *testing.T) {
	sunday := monday.AddDate(0, 0, 6).Add(23 * time.Hour)
	assert.Equal(t, monday, WeekStart(sunday))
	assert.Equal(t, monday, WeekStart(monday))
	assert.Equal(t, monday.AddDate(0, 0, 7), WeekStart(monday.AddDate(0, 0, 8)))
}

func TestPeriod_DaysAndWeeks(t *testing.T) {
	p := Period{Start: monday.AddDate(0, 0, 5), End: monday.AddDate(0, 0, 8)}
	require.Len(t, p.Days(), 4)
	assert.Equal(t, []time.Time{monday, monday.AddDate(0, 0, 7)}, p.WeekStarts())
}

func TestRecalculateRequest_Validate(t *testing.T) {
	req := RecalculateRequest{StartDate: "2024-03-01", EndDate: "2024-03-07"}
	scope, period, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, LevelAll, scope.Level)
	assert.Len(t, period.Days(), 7)

	bad := RecalculateRequest{Level: "hourly", StartDate: "2024-03-07", EndDate: "2024-03-01"}
	_, _, err = bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level")
	assert.Contains(t, err.Error(), "end_date")

	long := RecalculateRequest{StartDate: "2024-01-01", EndDate: "2024-06-01"}
	_, _, err = long.Validate()
	assert.Error(t, err)
}

func TestBatchSummary_Merge(t *testing.T) {
	a := &BatchSummary{}
	a.Success()
	b := &BatchSummary{}
	b.Success()
	b.Failure("daily:c1:t1:2024-03-04", assert.AnError)

	a.Merge(b)
	assert.Equal(t, 2, a.Succeeded)
	require.Len(t, a.Failed, 1)
	assert.True(t, a.HasFailures())
}
