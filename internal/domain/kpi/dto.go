package kpi

import (
	"math"
	"strings"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
)

// ========================================
// DEFINITION DTOs
// ========================================

type CreateDefinitionRequest struct {
	Code              string   `json:"code" toml:"code"`
	Name              string   `json:"name" toml:"name"`
	Description       *string  `json:"description,omitempty" toml:"description"`
	Category          string   `json:"category" toml:"category"`
	Unit              string   `json:"unit" toml:"unit"`
	TargetValue       float64  `json:"target_value" toml:"target_value"`
	WarningThreshold  float64  `json:"warning_threshold" toml:"warning_threshold"`
	CriticalThreshold float64  `json:"critical_threshold" toml:"critical_threshold"`
	HigherIsBetter    bool     `json:"higher_is_better" toml:"higher_is_better"`
	BenchmarkLow      *float64 `json:"benchmark_low,omitempty" toml:"benchmark_low"`
	BenchmarkMedian   *float64 `json:"benchmark_median,omitempty" toml:"benchmark_median"`
	BenchmarkHigh     *float64 `json:"benchmark_high,omitempty" toml:"benchmark_high"`
	Frequency         string   `json:"frequency" toml:"frequency"`
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (r *CreateDefinitionRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidCode(r.Code) {
		errs.Add("code", "code must be lowercase snake_case, 2-64 characters")
	}
	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}
	if validator.IsEmpty(r.Category) {
		errs.Add("category", "category is required")
	}
	if validator.IsEmpty(r.Unit) {
		errs.Add("unit", "unit is required")
	}
	if !Frequency(r.Frequency).Valid() {
		errs.Add("frequency", "frequency must be one of: daily, weekly, monthly, quarterly")
	}
	validateThresholds(&errs, r.TargetValue, r.WarningThreshold, r.CriticalThreshold, r.HigherIsBetter)
	validateBenchmarks(&errs, r.BenchmarkLow, r.BenchmarkMedian, r.BenchmarkHigh)

	return errs.Err()
}

func (r *CreateDefinitionRequest) ToDefinition(companyID string) Definition {
	return Definition{
		CompanyID:         companyID,
		Code:              r.Code,
		Name:              strings.TrimSpace(r.Name),
		Description:       r.Description,
		Category:          r.Category,
		Unit:              r.Unit,
		TargetValue:       r.TargetValue,
		WarningThreshold:  r.WarningThreshold,
		CriticalThreshold: r.CriticalThreshold,
		HigherIsBetter:    r.HigherIsBetter,
		BenchmarkLow:      r.BenchmarkLow,
		BenchmarkMedian:   r.BenchmarkMedian,
		BenchmarkHigh:     r.BenchmarkHigh,
		Frequency:         Frequency(r.Frequency),
		IsActive:          true,
	}
}

// validateThresholds requires the warning band to sit on the losing side of the target.
func validateThresholds(errs *validator.ValidationErrors, target, warning, critical float64, higherIsBetter bool) {
	if !isFinite(target) || !isFinite(warning) || !isFinite(critical) {
		errs.Add("target_value", "target and thresholds must be finite numbers")
		return
	}
	if higherIsBetter && warning > target {
		errs.Add("warning_threshold", "warning_threshold must not exceed target_value when higher is better")
	}
	if !higherIsBetter && warning < target {
		errs.Add("warning_threshold", "warning_threshold must not be below target_value when lower is better")
	}
}

func validateBenchmarks(errs *validator.ValidationErrors, low, median, high *float64) {
	if low != nil && median != nil && *low > *median {
		errs.Add("benchmark_low", "benchmark_low must not exceed benchmark_median")
	}
	if median != nil && high != nil && *median > *high {
		errs.Add("benchmark_high", "benchmark_high must not be below benchmark_median")
	}
}

type UpdateDefinitionRequest struct {
	Name              *string  `json:"name,omitempty"`
	Description       *string  `json:"description,omitempty"`
	TargetValue       *float64 `json:"target_value,omitempty"`
	WarningThreshold  *float64 `json:"warning_threshold,omitempty"`
	CriticalThreshold *float64 `json:"critical_threshold,omitempty"`
	BenchmarkLow      *float64 `json:"benchmark_low,omitempty"`
	BenchmarkMedian   *float64 `json:"benchmark_median,omitempty"`
	BenchmarkHigh     *float64 `json:"benchmark_high,omitempty"`
	Frequency         *string  `json:"frequency,omitempty"`
	IsActive          *bool    `json:"is_active,omitempty"`
}

// Apply merges the request onto d and validates the result.
func (r *UpdateDefinitionRequest) Apply(d Definition) (Definition, error) {
	var errs validator.ValidationErrors

	if r.Name != nil {
		if validator.IsEmpty(*r.Name) {
			errs.Add("name", "name must not be blank")
		}
		d.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		d.Description = r.Description
	}
	if r.TargetValue != nil {
		d.TargetValue = *r.TargetValue
	}
	if r.WarningThreshold != nil {
		d.WarningThreshold = *r.WarningThreshold
	}
	if r.CriticalThreshold != nil {
		d.CriticalThreshold = *r.CriticalThreshold
	}
	if r.BenchmarkLow != nil {
		d.BenchmarkLow = r.BenchmarkLow
	}
	if r.BenchmarkMedian != nil {
		d.BenchmarkMedian = r.BenchmarkMedian
	}
	if r.BenchmarkHigh != nil {
		d.BenchmarkHigh = r.BenchmarkHigh
	}
	if r.Frequency != nil {
		if !Frequency(*r.Frequency).Valid() {
			errs.Add("frequency", "frequency must be one of: daily, weekly, monthly, quarterly")
		}
		d.Frequency = Frequency(*r.Frequency)
	}
	if r.IsActive != nil {
		d.IsActive = *r.IsActive
	}

	validateThresholds(&errs, d.TargetValue, d.WarningThreshold, d.CriticalThreshold, d.HigherIsBetter)
	validateBenchmarks(&errs, d.BenchmarkLow, d.BenchmarkMedian, d.BenchmarkHigh)
	return d, errs.Err()
}

type DefinitionResponse struct {
	ID                string   `json:"id"`
	Code              string   `json:"code"`
	Name              string   `json:"name"`
	Description       *string  `json:"description,omitempty"`
	Category          string   `json:"category"`
	Unit              string   `json:"unit"`
	TargetValue       float64  `json:"target_value"`
	WarningThreshold  float64  `json:"warning_threshold"`
	CriticalThreshold float64  `json:"critical_threshold"`
	HigherIsBetter    bool     `json:"higher_is_better"`
	BenchmarkLow      *float64 `json:"benchmark_low,omitempty"`
	BenchmarkMedian   *float64 `json:"benchmark_median,omitempty"`
	BenchmarkHigh     *float64 `json:"benchmark_high,omitempty"`
	Frequency         string   `json:"frequency"`
	IsActive          bool     `json:"is_active"`
	HasCalculation    bool     `json:"has_calculation"`
}

func NewDefinitionResponse(d Definition, registered bool) DefinitionResponse {
	return DefinitionResponse{
		ID:                d.ID,
		Code:              d.Code,
		Name:              d.Name,
		Description:       d.Description,
		Category:          d.Category,
		Unit:              d.Unit,
		TargetValue:       d.TargetValue,
		WarningThreshold:  d.WarningThreshold,
		CriticalThreshold: d.CriticalThreshold,
		HigherIsBetter:    d.HigherIsBetter,
		BenchmarkLow:      d.BenchmarkLow,
		BenchmarkMedian:   d.BenchmarkMedian,
		BenchmarkHigh:     d.BenchmarkHigh,
		Frequency:         string(d.Frequency),
		IsActive:          d.IsActive,
		HasCalculation:    registered,
	}
}

// ========================================
// MEASUREMENT DTOs
// ========================================

type EvaluateRequest struct {
	Code        string `json:"code"`
	ScopeType   string `json:"scope_type"`
	ScopeID     string `json:"scope_id"`
	PeriodStart string `json:"period_start"` // YYYY-MM-DD
	PeriodEnd   string `json:"period_end"`   // YYYY-MM-DD
}

// Validate checks the request and returns its scope and period.
func (r *EvaluateRequest) Validate() (Scope, Period, error) {
	var errs validator.ValidationErrors
	scope, scopeErr := ParseScope(r.ScopeType, r.ScopeID)
	if scopeErr != nil {
		errs = append(errs, scopeErr.(validator.ValidationErrors)...)
	}
	if validator.IsEmpty(r.Code) {
		errs.Add("code", "code is required")
	}
	period, periodErr := ParsePeriod(r.PeriodStart, r.PeriodEnd)
	if periodErr != nil {
		errs = append(errs, periodErr.(validator.ValidationErrors)...)
	}
	return scope, period, errs.Err()
}

// ParseScope validates a scope pair. Fleet scope ignores id; other scopes require one.
func ParseScope(scopeType, id string) (Scope, error) {
	var errs validator.ValidationErrors
	if scopeType == "" {
		scopeType = string(ScopeFleet)
	}
	scope := Scope{Type: ScopeType(scopeType), ID: strings.TrimSpace(id)}
	if !scope.Type.Valid() {
		errs.Add("scope_type", "scope_type must be one of: fleet, department, vehicle, technician")
	} else if scope.Type == ScopeFleet {
		scope.ID = ""
	} else if scope.ID == "" {
		errs.Add("scope_id", "scope_id is required for non-fleet scopes")
	}
	return scope, errs.Err()
}

type MeasurementResponse struct {
	ID                string   `json:"id"`
	KPICode           string   `json:"kpi_code"`
	ScopeType         string   `json:"scope_type"`
	ScopeID           string   `json:"scope_id,omitempty"`
	PeriodStart       string   `json:"period_start"`
	PeriodEnd         string   `json:"period_end"`
	Revision          int      `json:"revision"`
	ActualValue       *float64 `json:"actual_value"`
	TargetValue       float64  `json:"target_value"`
	Variance          *float64 `json:"variance"`
	VariancePercent   *float64 `json:"variance_percent"`
	BenchmarkValue    *float64 `json:"benchmark_value,omitempty"`
	BenchmarkVariance *float64 `json:"benchmark_variance,omitempty"`
	PerformanceStatus string   `json:"performance_status"`
	PerformanceScore  *float64 `json:"performance_score"`
	ErrorMessage      *string  `json:"error_message,omitempty"`
	CalculatedAt      string   `json:"calculated_at"`
}

func NewMeasurementResponse(m Measurement) MeasurementResponse {
	return MeasurementResponse{
		ID:                m.ID,
		KPICode:           m.KPICode,
		ScopeType:         string(m.Scope.Type),
		ScopeID:           m.Scope.ID,
		PeriodStart:       m.PeriodStart.Format("2006-01-02"),
		PeriodEnd:         m.PeriodEnd.Format("2006-01-02"),
		Revision:          m.Revision,
		ActualValue:       m.ActualValue,
		TargetValue:       m.TargetValue,
		Variance:          m.Variance,
		VariancePercent:   m.VariancePercent,
		BenchmarkValue:    m.BenchmarkValue,
		BenchmarkVariance: m.BenchmarkVariance,
		PerformanceStatus: string(m.PerformanceStatus),
		PerformanceScore:  m.PerformanceScore,
		ErrorMessage:      m.ErrorMessage,
		CalculatedAt:      m.CalculatedAt.Format(time.RFC3339),
	}
}

type HistoryFilter struct {
	Code      *string `json:"code,omitempty"`
	ScopeType *string `json:"scope_type,omitempty"`
	ScopeID   *string `json:"scope_id,omitempty"`
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD, on period_end
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD, on period_end
	// AllRevisions includes superseded revisions of each period
	AllRevisions bool `json:"all_revisions"`
	Limit        int  `json:"limit"`
}

func (f *HistoryFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.ScopeType != nil && !ScopeType(*f.ScopeType).Valid() {
		errs.Add("scope_type", "scope_type must be one of: fleet, department, vehicle, technician")
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
	if f.Limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if f.Limit == 0 {
		f.Limit = 100
	}
	if f.Limit > 500 {
		errs.Add("limit", "limit must not exceed 500")
	}
	return errs.Err()
}

type TrendResponse struct {
	KPICode   string               `json:"kpi_code"`
	Scope     Scope                `json:"scope"`
	Direction TrendDirection       `json:"direction"`
	Latest    *MeasurementResponse `json:"latest,omitempty"`
	Previous  *MeasurementResponse `json:"previous,omitempty"`
}

// EvaluationFailure is a definition/scope pair that could not be evaluated at all.
type EvaluationFailure struct {
	KPICode string `json:"kpi_code"`
	Scope   string `json:"scope"`
	Error   string `json:"error"`
}

type EvaluationSummary struct {
	Evaluated int                 `json:"evaluated"`
	Critical  int                 `json:"critical"`
	Failed    []EvaluationFailure `json:"failed"`
}
