package scorecard

import (
	"math"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
)

type ItemRequest struct {
	MeasurementID string  `json:"measurement_id"`
	Weight        float64 `json:"weight"`
}

type BuildScorecardRequest struct {
	Name        string        `json:"name"`
	ScopeType   string        `json:"scope_type"`
	ScopeID     string        `json:"scope_id"`
	PeriodStart string        `json:"period_start"` // YYYY-MM-DD
	PeriodEnd   string        `json:"period_end"`   // YYYY-MM-DD
	Items       []ItemRequest `json:"items"`
}

// Validate checks the request and returns its scope and period.
func (r *BuildScorecardRequest) Validate() (kpi.Scope, kpi.Period, error) {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}
	scope, err := kpi.ParseScope(r.ScopeType, r.ScopeID)
	if err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}
	period, err := kpi.ParsePeriod(r.PeriodStart, r.PeriodEnd)
	if err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}
	validateItems(&errs, r.Items)
	return scope, period, errs.Err()
}

type RebuildScorecardRequest struct {
	Items []ItemRequest `json:"items"`
}

func (r *RebuildScorecardRequest) Validate() error {
	var errs validator.ValidationErrors
	validateItems(&errs, r.Items)
	return errs.Err()
}

func validateItems(errs *validator.ValidationErrors, items []ItemRequest) {
	if len(items) == 0 {
		errs.Add("items", "at least one item is required")
		return
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if validator.IsEmpty(it.MeasurementID) {
			errs.Add("items", "measurement_id is required for every item")
			return
		}
		if seen[it.MeasurementID] {
			errs.Add("items", "measurement "+it.MeasurementID+" appears more than once")
			return
		}
		seen[it.MeasurementID] = true
		if it.Weight < 0 || math.IsNaN(it.Weight) || math.IsInf(it.Weight, 0) {
			errs.Add("items", "weight must be a non-negative number")
			return
		}
	}
}

type ItemResponse struct {
	MeasurementID     string   `json:"measurement_id"`
	KPICode           string   `json:"kpi_code"`
	Weight            float64  `json:"weight"`
	ActualValue       *float64 `json:"actual_value"`
	PerformanceScore  *float64 `json:"performance_score"`
	PerformanceStatus string   `json:"performance_status"`
}

type ScorecardResponse struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	ScopeType     string         `json:"scope_type"`
	ScopeID       string         `json:"scope_id,omitempty"`
	PeriodStart   string         `json:"period_start"`
	PeriodEnd     string         `json:"period_end"`
	OverallScore  *float64       `json:"overall_score"`
	OverallStatus string         `json:"overall_status"`
	PreviousScore *float64       `json:"previous_score"`
	ScoreTrend    string         `json:"score_trend"`
	StatusPolicy  string         `json:"status_policy"`
	Status        string         `json:"status"`
	PublishedBy   *string        `json:"published_by,omitempty"`
	PublishedAt   *string        `json:"published_at,omitempty"`
	Items         []ItemResponse `json:"items"`
}

func NewScorecardResponse(sc Scorecard) ScorecardResponse {
	resp := ScorecardResponse{
		ID:            sc.ID,
		Name:          sc.Name,
		ScopeType:     string(sc.Scope.Type),
		ScopeID:       sc.Scope.ID,
		PeriodStart:   sc.PeriodStart.Format("2006-01-02"),
		PeriodEnd:     sc.PeriodEnd.Format("2006-01-02"),
		OverallScore:  sc.OverallScore,
		OverallStatus: string(sc.OverallStatus),
		PreviousScore: sc.PreviousScore,
		ScoreTrend:    string(sc.ScoreTrend),
		StatusPolicy:  string(sc.StatusPolicy),
		Status:        string(sc.Status),
		PublishedBy:   sc.PublishedBy,
		Items:         make([]ItemResponse, 0, len(sc.Items)),
	}
	if sc.PublishedAt != nil {
		s := sc.PublishedAt.Format(time.RFC3339)
		resp.PublishedAt = &s
	}
	for _, it := range sc.Items {
		resp.Items = append(resp.Items, ItemResponse{
			MeasurementID:     it.MeasurementID,
			KPICode:           it.KPICode,
			Weight:            it.Weight,
			ActualValue:       it.ActualValue,
			PerformanceScore:  it.PerformanceScore,
			PerformanceStatus: string(it.PerformanceStatus),
		})
	}
	return resp
}

type ScorecardFilter struct {
	Name      *string `json:"name,omitempty"`
	ScopeType *string `json:"scope_type,omitempty"`
	ScopeID   *string `json:"scope_id,omitempty"`
	Status    *string `json:"status,omitempty"`
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD, on period_start
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD, on period_end
}

func (f *ScorecardFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.ScopeType != nil && !kpi.ScopeType(*f.ScopeType).Valid() {
		errs.Add("scope_type", "scope_type must be one of: fleet, department, vehicle, technician")
	}
	if f.Status != nil && !validator.IsInSlice(*f.Status, []string{string(StatusDraft), string(StatusPublished)}) {
		errs.Add("status", "status must be one of: draft, published")
	}
	if f.StartDate != nil && *f.StartDate != "" {
		if _, ok := validator.IsValidDate(*f.StartDate); !ok {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if _, ok := validator.IsValidDate(*f.EndDate); !ok {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	return errs.Err()
}
