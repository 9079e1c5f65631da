package report

import (
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/report"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary = "Summary"
	sheetDaily   = "Daily"
	sheetShop    = "Shop"
)

var (
	summaryHeaders = []string{
		"Employee Code", "Technician", "Net Hours", "Regular Hours", "Overtime Hours",
		"Billable Hours", "Productive Hours", "Utilization %", "Efficiency %",
		"Labor Cost", "Overtime Cost", "Days Worked", "Days Absent",
	}
	dailyHeaders = []string{
		"Date", "Technician ID", "Net Hours", "Direct", "Indirect", "Administrative", "Training",
		"Unclassified", "Regular Hours", "Overtime Hours", "Billable Hours", "Productive Hours",
		"Utilization %", "Efficiency %", "Labor Cost", "Entries", "Work Orders", "Absent",
	}
	shopHeaders = []string{
		"Date", "Technicians", "Present", "Absent", "Attendance %", "Hours Worked",
		"Utilization %", "Efficiency %", "Labor Cost", "Overtime Hours",
		"Authorized OT", "Unauthorized OT", "Work Orders",
	}
)

// buildLaborWorkbook lays the summary, daily detail and shop trend out on
// three sheets. Decimals are written as floats so spreadsheets can sum them.
func buildLaborWorkbook(summary report.LaborSummary, daily []rollup.DailyRollup, shop []rollup.ShopRollup) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetDaily); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetShop); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	// Summary: one row per technician, then the totals line.
	title := fmt.Sprintf("Labor summary %s to %s", summary.PeriodStart, summary.PeriodEnd)
	if summary.DepartmentID != "" {
		title += " (department " + summary.DepartmentID + ")"
	}
	if err := f.SetCellValue(sheetSummary, "A1", title); err != nil {
		return nil, err
	}
	if err := writeHeader(f, sheetSummary, 3, summaryHeaders, headerStyle); err != nil {
		return nil, err
	}
	row := 4
	for _, t := range summary.Technicians {
		values := []interface{}{
			t.EmployeeCode, t.FullName,
			t.NetHours.InexactFloat64(), t.RegularHours.InexactFloat64(), t.OvertimeHours.InexactFloat64(),
			t.BillableHours.InexactFloat64(), t.ProductiveHours.InexactFloat64(),
			t.UtilizationRate.InexactFloat64(), t.EfficiencyRate.InexactFloat64(),
			t.LaborCost.InexactFloat64(), t.OvertimeCost.InexactFloat64(),
			t.DaysWorked, t.DaysAbsent,
		}
		if err := writeRow(f, sheetSummary, row, values); err != nil {
			return nil, err
		}
		row++
	}
	totals := []interface{}{
		"TOTAL", "",
		summary.Totals.NetHours.InexactFloat64(), "", summary.Totals.OvertimeHours.InexactFloat64(),
		summary.Totals.BillableHours.InexactFloat64(), "",
		summary.Totals.UtilizationRate.InexactFloat64(), "",
		summary.Totals.LaborCost.InexactFloat64(), summary.Totals.OvertimeCost.InexactFloat64(),
	}
	if err := writeRow(f, sheetSummary, row, totals); err != nil {
		return nil, err
	}
	if err := styleRow(f, sheetSummary, row, len(summaryHeaders), totalStyle); err != nil {
		return nil, err
	}

	if err := writeHeader(f, sheetDaily, 1, dailyHeaders, headerStyle); err != nil {
		return nil, err
	}
	for i, d := range daily {
		values := []interface{}{
			d.Date.Format("2006-01-02"), d.TechnicianID,
			d.NetHoursWorked.InexactFloat64(), d.DirectLaborHours.InexactFloat64(), d.IndirectLaborHours.InexactFloat64(),
			d.AdministrativeHours.InexactFloat64(), d.TrainingHours.InexactFloat64(), d.UnclassifiedHours.InexactFloat64(),
			d.RegularHours.InexactFloat64(), d.OvertimeHours.InexactFloat64(),
			d.BillableHours.InexactFloat64(), d.ProductiveHours.InexactFloat64(),
			d.UtilizationRate.InexactFloat64(), d.EfficiencyRate.InexactFloat64(),
			d.LaborCost.InexactFloat64(), d.EntryCount, d.WorkOrdersCompleted, d.IsAbsent,
		}
		if err := writeRow(f, sheetDaily, i+2, values); err != nil {
			return nil, err
		}
	}

	if err := writeHeader(f, sheetShop, 1, shopHeaders, headerStyle); err != nil {
		return nil, err
	}
	for i, s := range shop {
		values := []interface{}{
			s.Date.Format("2006-01-02"), s.TotalTechnicians, s.TechniciansPresent, s.TechniciansAbsent,
			s.AttendanceRate.InexactFloat64(), s.TotalHoursWorked.InexactFloat64(),
			s.UtilizationRate.InexactFloat64(), s.EfficiencyRate.InexactFloat64(),
			s.LaborCost.InexactFloat64(), s.OvertimeHours.InexactFloat64(),
			s.AuthorizedOvertimeHours.InexactFloat64(), s.UnauthorizedOvertimeHours.InexactFloat64(),
			s.WorkOrdersCompleted,
		}
		if err := writeRow(f, sheetShop, i+2, values); err != nil {
			return nil, err
		}
	}

	for _, sheet := range []string{sheetSummary, sheetDaily, sheetShop} {
		if err := f.SetColWidth(sheet, "A", "R", 15); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, style int) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, row, values); err != nil {
		return err
	}
	return styleRow(f, sheet, row, len(headers), style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func styleRow(f *excelize.File, sheet string, row, width int, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}
