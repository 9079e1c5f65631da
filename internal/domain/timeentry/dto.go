package timeentry

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var maxDailyHours = decimal.NewFromInt(24)

// ========================================
// TIME ENTRY DTOs
// ========================================

type SubmitEntryRequest struct {
	TechnicianID string           `json:"technician_id"`
	EntryDate    string           `json:"entry_date"` // YYYY-MM-DD
	TimeCodeID   *string          `json:"time_code_id,omitempty"`
	ClockIn      *time.Time       `json:"clock_in,omitempty"`
	ClockOut     *time.Time       `json:"clock_out,omitempty"`
	TotalHours   *decimal.Decimal `json:"total_hours,omitempty"`
	BreakHours   decimal.Decimal  `json:"break_hours"`
	WorkOrderID  *string          `json:"work_order_id,omitempty"`
	VehicleID    *string          `json:"vehicle_id,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
}

func (r *SubmitEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.TechnicianID) {
		errs.Add("technician_id", "technician_id is required")
	}
	if _, ok := validator.IsValidDate(r.EntryDate); !ok {
		errs.Add("entry_date", "entry_date must be in YYYY-MM-DD format")
	}
	if r.TimeCodeID != nil && validator.IsEmpty(*r.TimeCodeID) {
		errs.Add("time_code_id", "time_code_id must not be blank")
	}

	validateHours(&errs, r.ClockIn, r.ClockOut, r.TotalHours, r.BreakHours)

	return errs.Err()
}

// ResolveTotalHours prefers a directly supplied duration over the clock pair.
func (r *SubmitEntryRequest) ResolveTotalHours() decimal.Decimal {
	return resolveTotal(r.ClockIn, r.ClockOut, r.TotalHours)
}

type UpdateEntryRequest struct {
	EntryDate   *string          `json:"entry_date,omitempty"`
	TimeCodeID  *string          `json:"time_code_id,omitempty"`
	ClockIn     *time.Time       `json:"clock_in,omitempty"`
	ClockOut    *time.Time       `json:"clock_out,omitempty"`
	TotalHours  *decimal.Decimal `json:"total_hours,omitempty"`
	BreakHours  *decimal.Decimal `json:"break_hours,omitempty"`
	WorkOrderID *string          `json:"work_order_id,omitempty"`
	VehicleID   *string          `json:"vehicle_id,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// Apply merges the request onto a copy of e and validates the merged result.
func (r *UpdateEntryRequest) Apply(e TimeEntry) (TimeEntry, error) {
	var errs validator.ValidationErrors

	if r.EntryDate != nil {
		date, ok := validator.IsValidDate(*r.EntryDate)
		if !ok {
			errs.Add("entry_date", "entry_date must be in YYYY-MM-DD format")
		}
		e.EntryDate = date
	}
	if r.TimeCodeID != nil {
		if validator.IsEmpty(*r.TimeCodeID) {
			errs.Add("time_code_id", "time_code_id must not be blank")
		}
		e.TimeCodeID = r.TimeCodeID
	}

	timingChanged := r.ClockIn != nil || r.ClockOut != nil || r.TotalHours != nil
	if r.ClockIn != nil {
		e.ClockIn = r.ClockIn
	}
	if r.ClockOut != nil {
		e.ClockOut = r.ClockOut
	}
	if r.BreakHours != nil {
		e.BreakHours = *r.BreakHours
	}

	var total *decimal.Decimal
	if r.TotalHours != nil {
		total = r.TotalHours
	} else if !timingChanged {
		current := e.TotalHours
		total = &current
	}
	validateHours(&errs, e.ClockIn, e.ClockOut, total, e.BreakHours)
	if err := errs.Err(); err != nil {
		return e, err
	}

	e.TotalHours = resolveTotal(e.ClockIn, e.ClockOut, total)

	if r.WorkOrderID != nil {
		e.WorkOrderID = r.WorkOrderID
	}
	if r.VehicleID != nil {
		e.VehicleID = r.VehicleID
	}
	if r.Notes != nil {
		e.Notes = r.Notes
	}
	return e, nil
}

type RejectEntryRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectEntryRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}
	return errs.Err()
}

func validateHours(errs *validator.ValidationErrors, clockIn, clockOut *time.Time, total *decimal.Decimal, breakHours decimal.Decimal) {
	hasClockPair := clockIn != nil && clockOut != nil
	if hasClockPair && clockOut.Before(*clockIn) {
		errs.Add("clock_out", "clock_out must not be before clock_in")
		return
	}
	if total == nil && !hasClockPair {
		errs.Add("total_hours", "either total_hours or both clock_in and clock_out are required")
		return
	}

	totalHours := resolveTotal(clockIn, clockOut, total)
	if totalHours.IsNegative() {
		errs.Add("total_hours", "total_hours must not be negative")
	} else if totalHours.GreaterThan(maxDailyHours) {
		errs.Add("total_hours", "total_hours must not exceed 24")
	}
	if breakHours.IsNegative() {
		errs.Add("break_hours", "break_hours must not be negative")
	} else if breakHours.Round(2).GreaterThan(totalHours.Round(2)) {
		errs.Add("break_hours", "break_hours must not exceed total_hours")
	}
}

func resolveTotal(clockIn, clockOut *time.Time, total *decimal.Decimal) decimal.Decimal {
	if total != nil {
		return *total
	}
	if clockIn != nil && clockOut != nil {
		return HoursBetween(*clockIn, *clockOut)
	}
	return decimal.Zero
}

type TimeEntryResponse struct {
	ID              string          `json:"id"`
	TechnicianID    string          `json:"technician_id"`
	TimeCodeID      *string         `json:"time_code_id,omitempty"`
	EntryDate       string          `json:"entry_date"`
	ClockIn         *string         `json:"clock_in,omitempty"`
	ClockOut        *string         `json:"clock_out,omitempty"`
	TotalHours      decimal.Decimal `json:"total_hours"`
	BreakHours      decimal.Decimal `json:"break_hours"`
	NetHours        decimal.Decimal `json:"net_hours"`
	RegularHours    decimal.Decimal `json:"regular_hours"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	IsOvertime      bool            `json:"is_overtime"`
	RegularRate     decimal.Decimal `json:"regular_rate"`
	OvertimeRate    decimal.Decimal `json:"overtime_rate"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	WorkOrderID     *string         `json:"work_order_id,omitempty"`
	VehicleID       *string         `json:"vehicle_id,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	Status          string          `json:"status"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedAt      *string         `json:"approved_at,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

func NewTimeEntryResponse(e TimeEntry) TimeEntryResponse {
	return TimeEntryResponse{
		ID:              e.ID,
		TechnicianID:    e.TechnicianID,
		TimeCodeID:      e.TimeCodeID,
		EntryDate:       e.EntryDate.Format("2006-01-02"),
		ClockIn:         formatTime(e.ClockIn),
		ClockOut:        formatTime(e.ClockOut),
		TotalHours:      e.TotalHours,
		BreakHours:      e.BreakHours,
		NetHours:        e.NetHours,
		RegularHours:    e.RegularHours,
		OvertimeHours:   e.OvertimeHours,
		IsOvertime:      e.IsOvertime,
		RegularRate:     e.RegularRate,
		OvertimeRate:    e.OvertimeRate,
		TotalCost:       e.TotalCost,
		WorkOrderID:     e.WorkOrderID,
		VehicleID:       e.VehicleID,
		Notes:           e.Notes,
		Status:          string(e.Status),
		ApprovedBy:      e.ApprovedBy,
		ApprovedAt:      formatTime(e.ApprovedAt),
		RejectionReason: e.RejectionReason,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       e.UpdatedAt.Format(time.RFC3339),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

type TimeEntryFilter struct {
	TechnicianID *string `json:"technician_id,omitempty"`
	TimeCodeID   *string `json:"time_code_id,omitempty"`
	Status       *string `json:"status,omitempty"`
	StartDate    *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate      *string `json:"end_date,omitempty"`   // YYYY-MM-DD

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // entry_date, created_at, net_hours, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *TimeEntryFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}

	if f.Status != nil {
		validStatuses := []string{string(StatusPending), string(StatusApproved), string(StatusRejected)}
		if !validator.IsInSlice(*f.Status, validStatuses) {
			errs.Add("status", "status must be one of: pending, approved, rejected")
		}
	}

	var start, end time.Time
	var startOK, endOK bool
	if f.StartDate != nil && *f.StartDate != "" {
		if start, startOK = validator.IsValidDate(*f.StartDate); !startOK {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if end, endOK = validator.IsValidDate(*f.EndDate); !endOK {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if startOK && endOK && end.Before(start) {
		errs.Add("end_date", "end_date must not be before start_date")
	}

	if f.SortBy != "" {
		validSortFields := []string{"entry_date", "created_at", "net_hours", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs.Add("sort_by", "sort_by must be one of: entry_date, created_at, net_hours, status")
		}
	} else {
		f.SortBy = "entry_date"
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs.Add("sort_order", "sort_order must be one of: asc, desc")
		}
	} else {
		f.SortOrder = "desc"
	}

	return errs.Err()
}

type ListTimeEntryResponse struct {
	TotalCount int64               `json:"total_count"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	TotalPages int                 `json:"total_pages"`
	Entries    []TimeEntryResponse `json:"entries"`
}
