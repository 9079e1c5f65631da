package kpi

import (
	"time"
)

type ScopeType string

const (
	ScopeFleet      ScopeType = "fleet"
	ScopeDepartment ScopeType = "department"
	ScopeVehicle    ScopeType = "vehicle"
	ScopeTechnician ScopeType = "technician"
)

var ScopeTypes = []ScopeType{ScopeFleet, ScopeDepartment, ScopeVehicle, ScopeTechnician}

func (s ScopeType) Valid() bool {
	for _, known := range ScopeTypes {
		if s == known {
			return true
		}
	}
	return false
}

// Scope is the aggregation boundary of a measurement. Fleet scope has an empty ID.
type Scope struct {
	Type ScopeType `json:"type"`
	ID   string    `json:"id"`
}

func FleetScope() Scope {
	return Scope{Type: ScopeFleet}
}

func (s Scope) String() string {
	if s.ID == "" {
		return string(s.Type)
	}
	return string(s.Type) + ":" + s.ID
}

type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

var Frequencies = []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly}

func (f Frequency) Valid() bool {
	for _, known := range Frequencies {
		if f == known {
			return true
		}
	}
	return false
}

type PerformanceStatus string

const (
	StatusExcellent PerformanceStatus = "excellent"
	StatusGood      PerformanceStatus = "good"
	StatusWarning   PerformanceStatus = "warning"
	StatusCritical  PerformanceStatus = "critical"
)

// Severity orders statuses from best (0) to worst (3).
func (s PerformanceStatus) Severity() int {
	switch s {
	case StatusExcellent:
		return 0
	case StatusGood:
		return 1
	case StatusWarning:
		return 2
	default:
		return 3
	}
}

type TrendDirection string

const (
	TrendImproving        TrendDirection = "improving"
	TrendDeclining        TrendDirection = "declining"
	TrendStable           TrendDirection = "stable"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// Definition describes one KPI. Reference data, rarely mutated.
type Definition struct {
	ID                string
	CompanyID         string
	Code              string
	Name              string
	Description       *string
	Category          string
	Unit              string
	TargetValue       float64
	WarningThreshold  float64
	CriticalThreshold float64
	HigherIsBetter    bool
	BenchmarkLow      *float64
	BenchmarkMedian   *float64
	BenchmarkHigh     *float64
	Frequency         Frequency
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Measurement is one evaluation of a definition for a scope and period.
// Rows are append-only; re-evaluating a period adds a higher Revision.
type Measurement struct {
	ID                string
	CompanyID         string
	DefinitionID      string
	KPICode           string
	Scope             Scope
	PeriodStart       time.Time
	PeriodEnd         time.Time
	Revision          int
	ActualValue       *float64
	TargetValue       float64
	Variance          *float64
	VariancePercent   *float64
	BenchmarkValue    *float64
	BenchmarkVariance *float64
	PerformanceStatus PerformanceStatus
	PerformanceScore  *float64
	ErrorMessage      *string
	CalculatedAt      time.Time
}
