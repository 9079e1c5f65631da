package rollup

import (
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/technician"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timeentry"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// percentOf returns part/whole*100 rounded to two decimals, or zero when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// BuildDaily derives a technician-day from its approved entries. Entries
// that are not approved are ignored. An entry whose time code is missing
// from codes counts toward the totals but toward no category bucket.
// ComputedAt is the newest UpdatedAt among the sources so an unchanged
// input yields an identical row.
func BuildDaily(key DirtyKey, entries []timeentry.TimeEntry, codes map[string]timecode.TimeCode, workOrdersCompleted int) DailyRollup {
	r := DailyRollup{
		CompanyID:           key.CompanyID,
		TechnicianID:        key.TechnicianID,
		Date:                TruncateDay(key.Date),
		WorkOrdersCompleted: workOrdersCompleted,
		ComputedAt:          TruncateDay(key.Date),
	}

	for _, e := range entries {
		if e.Status != timeentry.StatusApproved {
			continue
		}
		r.EntryCount++
		r.TotalHours = r.TotalHours.Add(e.TotalHours)
		r.BreakHours = r.BreakHours.Add(e.BreakHours)
		r.NetHoursWorked = r.NetHoursWorked.Add(e.NetHours)
		r.RegularHours = r.RegularHours.Add(e.RegularHours)
		r.OvertimeHours = r.OvertimeHours.Add(e.OvertimeHours)
		r.LaborCost = r.LaborCost.Add(e.TotalCost)
		r.RegularCost = r.RegularCost.Add(e.RegularCost())
		r.OvertimeCost = r.OvertimeCost.Add(e.OvertimeCost())
		if e.UpdatedAt.After(r.ComputedAt) {
			r.ComputedAt = e.UpdatedAt
		}

		var tc timecode.TimeCode
		var classified bool
		if e.TimeCodeID != nil {
			tc, classified = codes[*e.TimeCodeID]
		}
		if !classified {
			r.UnclassifiedHours = r.UnclassifiedHours.Add(e.NetHours)
			continue
		}

		switch tc.Category {
		case timecode.CategoryDirectLabor:
			r.DirectLaborHours = r.DirectLaborHours.Add(e.NetHours)
		case timecode.CategoryIndirectLabor:
			r.IndirectLaborHours = r.IndirectLaborHours.Add(e.NetHours)
		case timecode.CategoryAdministrative:
			r.AdministrativeHours = r.AdministrativeHours.Add(e.NetHours)
		case timecode.CategoryTraining:
			r.TrainingHours = r.TrainingHours.Add(e.NetHours)
		default:
			r.UnclassifiedHours = r.UnclassifiedHours.Add(e.NetHours)
		}
		if tc.IsBillable {
			r.BillableHours = r.BillableHours.Add(e.NetHours)
		}
		if tc.IsProductive {
			r.ProductiveHours = r.ProductiveHours.Add(e.NetHours)
		}
	}

	r.UtilizationRate = percentOf(r.BillableHours, r.NetHoursWorked)
	r.EfficiencyRate = percentOf(r.ProductiveHours, r.NetHoursWorked)
	r.IsAbsent = r.NetHoursWorked.IsZero()
	r.HasOvertime = r.OvertimeHours.IsPositive()
	return r
}

// BuildWeekly sums the daily rollups inside [WeekStart, WeekStart+6]. A day
// without a daily rollup contributes zero and is counted in DaysMissing.
// Averages are taken over the days actually worked.
func BuildWeekly(key WeekKey, dailies []DailyRollup) WeeklyRollup {
	start := TruncateDay(key.WeekStart)
	end := start.AddDate(0, 0, 6)
	w := WeeklyRollup{
		CompanyID:    key.CompanyID,
		TechnicianID: key.TechnicianID,
		WeekStart:    start,
		WeekEnd:      end,
		ComputedAt:   start,
	}

	seen := make(map[string]bool, 7)
	var utilSum, effSum decimal.Decimal
	for _, d := range dailies {
		day := TruncateDay(d.Date)
		if day.Before(start) || day.After(end) || d.TechnicianID != key.TechnicianID {
			continue
		}
		dayKey := day.Format(dateLayout)
		if seen[dayKey] {
			continue
		}
		seen[dayKey] = true

		w.TotalHoursWorked = w.TotalHoursWorked.Add(d.NetHoursWorked)
		w.RegularHours = w.RegularHours.Add(d.RegularHours)
		w.OvertimeHours = w.OvertimeHours.Add(d.OvertimeHours)
		w.BillableHours = w.BillableHours.Add(d.BillableHours)
		w.ProductiveHours = w.ProductiveHours.Add(d.ProductiveHours)
		w.LaborCost = w.LaborCost.Add(d.LaborCost)
		w.OvertimeCost = w.OvertimeCost.Add(d.OvertimeCost)
		w.WorkOrdersCompleted += d.WorkOrdersCompleted
		if d.NetHoursWorked.IsPositive() {
			w.DaysWorked++
			utilSum = utilSum.Add(d.UtilizationRate)
			effSum = effSum.Add(d.EfficiencyRate)
		}
		if d.IsAbsent {
			w.DaysAbsent++
		}
		if d.ComputedAt.After(w.ComputedAt) {
			w.ComputedAt = d.ComputedAt
		}
	}

	w.DaysMissing = 7 - len(seen)
	if w.DaysWorked > 0 {
		n := decimal.NewFromInt(int64(w.DaysWorked))
		w.AvgUtilizationRate = utilSum.Div(n).Round(2)
		w.AvgEfficiencyRate = effSum.Div(n).Round(2)
	}
	return w
}

// BuildShop aggregates the technicians in scope for one date. dailies is
// keyed by technician ID; a technician without a daily rollup is absent.
// authorizedCaps holds, per technician, the total overtime hours covered by
// authorizations valid on the date. Overtime beyond the cap, or with no
// authorization at all, is reported as unauthorized.
func BuildShop(key ShopKey, technicians []technician.Technician, dailies map[string]DailyRollup, authorizedCaps map[string]decimal.Decimal) ShopRollup {
	s := ShopRollup{
		CompanyID:    key.CompanyID,
		Date:         TruncateDay(key.Date),
		DepartmentID: key.DepartmentID,
		ComputedAt:   TruncateDay(key.Date),
	}

	for _, t := range technicians {
		if !t.InDepartment(key.DepartmentID) {
			continue
		}
		s.TotalTechnicians++

		d, ok := dailies[t.ID]
		if !ok || !d.NetHoursWorked.IsPositive() {
			s.TechniciansAbsent++
			if ok && d.ComputedAt.After(s.ComputedAt) {
				s.ComputedAt = d.ComputedAt
			}
			continue
		}
		s.TechniciansPresent++

		s.TotalHoursWorked = s.TotalHoursWorked.Add(d.NetHoursWorked)
		s.BillableHours = s.BillableHours.Add(d.BillableHours)
		s.ProductiveHours = s.ProductiveHours.Add(d.ProductiveHours)
		s.RegularHours = s.RegularHours.Add(d.RegularHours)
		s.OvertimeHours = s.OvertimeHours.Add(d.OvertimeHours)
		s.LaborCost = s.LaborCost.Add(d.LaborCost)
		s.OvertimeCost = s.OvertimeCost.Add(d.OvertimeCost)
		s.WorkOrdersCompleted += d.WorkOrdersCompleted
		if d.ComputedAt.After(s.ComputedAt) {
			s.ComputedAt = d.ComputedAt
		}

		if d.OvertimeHours.IsPositive() {
			s.TechniciansWithOvertime++
			authorized := decimal.Min(d.OvertimeHours, authorizedCaps[t.ID])
			if authorized.IsNegative() {
				authorized = decimal.Zero
			}
			s.AuthorizedOvertimeHours = s.AuthorizedOvertimeHours.Add(authorized)
			s.UnauthorizedOvertimeHours = s.UnauthorizedOvertimeHours.Add(d.OvertimeHours.Sub(authorized))
		}
	}

	s.AttendanceRate = percentOf(decimal.NewFromInt(int64(s.TechniciansPresent)), decimal.NewFromInt(int64(s.TotalTechnicians)))
	s.UtilizationRate = percentOf(s.BillableHours, s.TotalHoursWorked)
	s.EfficiencyRate = percentOf(s.ProductiveHours, s.TotalHoursWorked)
	return s
}
