package rollup

import (
	"sync"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
)

// maxRecalculateDays bounds one on-demand recalculation.
const maxRecalculateDays = 93

type Level string

const (
	LevelDaily  Level = "daily"
	LevelWeekly Level = "weekly"
	LevelShop   Level = "shop"
	LevelAll    Level = "all"
)

// ScopeKey narrows a recalculation. Empty fields mean every technician or
// every department of the company.
type ScopeKey struct {
	Level        Level
	TechnicianID string
	DepartmentID string
}

// Period is an inclusive date range.
type Period struct {
	Start time.Time
	End   time.Time
}

// Days lists every date of the period in order.
func (p Period) Days() []time.Time {
	var days []time.Time
	for d := TruncateDay(p.Start); !d.After(TruncateDay(p.End)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// WeekStarts lists the Monday of every week that overlaps the period.
func (p Period) WeekStarts() []time.Time {
	var weeks []time.Time
	for w := WeekStart(p.Start); !w.After(TruncateDay(p.End)); w = w.AddDate(0, 0, 7) {
		weeks = append(weeks, w)
	}
	return weeks
}

type RecalculateRequest struct {
	Level        string  `json:"level"`
	TechnicianID *string `json:"technician_id,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
	StartDate    string  `json:"start_date"` // YYYY-MM-DD
	EndDate      string  `json:"end_date"`   // YYYY-MM-DD
}

// Validate checks the request and returns the parsed scope and period.
func (r *RecalculateRequest) Validate() (ScopeKey, Period, error) {
	var errs validator.ValidationErrors
	scope := ScopeKey{Level: Level(r.Level)}
	if scope.Level == "" {
		scope.Level = LevelAll
	}

	levels := []string{string(LevelDaily), string(LevelWeekly), string(LevelShop), string(LevelAll)}
	if !validator.IsInSlice(string(scope.Level), levels) {
		errs.Add("level", "level must be one of: daily, weekly, shop, all")
	}
	if r.TechnicianID != nil {
		scope.TechnicianID = *r.TechnicianID
	}
	if r.DepartmentID != nil {
		scope.DepartmentID = *r.DepartmentID
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if startOK && endOK {
		if end.Before(start) {
			errs.Add("end_date", "end_date must not be before start_date")
		} else if end.Sub(start) > maxRecalculateDays*24*time.Hour {
			errs.Add("end_date", "period must not exceed 93 days")
		}
	}

	return scope, Period{Start: start, End: end}, errs.Err()
}

// KeyFailure records one rollup key that could not be recomputed.
type KeyFailure struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// BatchSummary reports a batch recompute. Failures of individual keys never
// abort the batch. It is safe for concurrent use.
type BatchSummary struct {
	mu        sync.Mutex
	Succeeded int          `json:"succeeded"`
	Failed    []KeyFailure `json:"failed"`
}

func (b *BatchSummary) Success() {
	b.mu.Lock()
	b.Succeeded++
	b.mu.Unlock()
}

func (b *BatchSummary) Failure(key string, err error) {
	b.mu.Lock()
	b.Failed = append(b.Failed, KeyFailure{Key: key, Error: err.Error()})
	b.mu.Unlock()
}

// Merge folds other into b.
func (b *BatchSummary) Merge(other *BatchSummary) {
	if other == nil {
		return
	}
	other.mu.Lock()
	succeeded, failed := other.Succeeded, append([]KeyFailure(nil), other.Failed...)
	other.mu.Unlock()

	b.mu.Lock()
	b.Succeeded += succeeded
	b.Failed = append(b.Failed, failed...)
	b.mu.Unlock()
}

func (b *BatchSummary) HasFailures() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Failed) > 0
}

type RollupFilter struct {
	TechnicianID *string `json:"technician_id,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
	StartDate    string  `json:"start_date"` // YYYY-MM-DD
	EndDate      string  `json:"end_date"`   // YYYY-MM-DD
}

// Validate checks the filter and returns its period.
func (f *RollupFilter) Validate() (Period, error) {
	var errs validator.ValidationErrors
	start, startOK := validator.IsValidDate(f.StartDate)
	if !startOK {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	end, endOK := validator.IsValidDate(f.EndDate)
	if !endOK {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if startOK && endOK && end.Before(start) {
		errs.Add("end_date", "end_date must not be before start_date")
	}
	return Period{Start: start, End: end}, errs.Err()
}
