package scorecard

import (
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
	TrendNew       Trend = "new"
)

// StatusPolicy decides how item statuses reduce to one overall status.
type StatusPolicy string

const (
	PolicyWorstCase StatusPolicy = "worst_case"
	PolicyMajority  StatusPolicy = "majority"
)

func (p StatusPolicy) Valid() bool {
	return p == PolicyWorstCase || p == PolicyMajority
}

// Scorecard is a weighted bundle of measurements. Immutable once published.
type Scorecard struct {
	ID            string
	CompanyID     string
	Name          string
	Scope         kpi.Scope
	PeriodStart   time.Time
	PeriodEnd     time.Time
	OverallScore  *float64
	OverallStatus kpi.PerformanceStatus
	PreviousScore *float64
	ScoreTrend    Trend
	StatusPolicy  StatusPolicy
	Status        Status
	PublishedBy   *string
	PublishedAt   *time.Time
	Items         []Item
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Item struct {
	ID                string
	ScorecardID       string
	MeasurementID     string
	KPICode           string
	Weight            float64
	ActualValue       *float64
	PerformanceScore  *float64
	PerformanceStatus kpi.PerformanceStatus
	Position          int
}

// DefaultItemWeight applies to items requested without a weight.
const DefaultItemWeight = 1.0

// NewItem snapshots a measurement into a scorecard line. A zero weight
// means the caller did not weight the item.
func NewItem(m kpi.Measurement, weight float64, position int) Item {
	if weight == 0 {
		weight = DefaultItemWeight
	}
	return Item{
		MeasurementID:     m.ID,
		KPICode:           m.KPICode,
		Weight:            weight,
		ActualValue:       m.ActualValue,
		PerformanceScore:  m.PerformanceScore,
		PerformanceStatus: m.PerformanceStatus,
		Position:          position,
	}
}
