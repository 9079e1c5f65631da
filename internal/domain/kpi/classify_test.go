package kpi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 {
	return &v
}

func TestClassify_LowerIsBetter(t *testing.T) {
	def := Definition{TargetValue: 0.65, WarningThreshold: 0.80, HigherIsBetter: false}

	tests := []struct {
		actual float64
		want   PerformanceStatus
	}{
		{0.50, StatusExcellent},
		{0.585, StatusExcellent},
		{0.60, StatusGood},
		{0.65, StatusGood},
		{0.70, StatusWarning},
		{0.80, StatusWarning},
		{0.81, StatusCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(def, tt.actual), "actual=%v", tt.actual)
	}
}

func TestClassify_HigherIsBetter(t *testing.T) {
	def := Definition{TargetValue: 90, WarningThreshold: 80, HigherIsBetter: true}

	tests := []struct {
		actual float64
		want   PerformanceStatus
	}{
		{100, StatusExcellent},
		{99, StatusExcellent},
		{95, StatusGood},
		{90, StatusGood},
		{85, StatusWarning},
		{80, StatusWarning},
		{79.9, StatusCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(def, tt.actual), "actual=%v", tt.actual)
	}
}

func TestScore(t *testing.T) {
	higher := Definition{TargetValue: 80, HigherIsBetter: true}
	assert.Equal(t, 50.0, *Score(higher, 40))
	assert.Equal(t, 100.0, *Score(higher, 120), "clamped at 100")
	assert.Equal(t, 0.0, *Score(higher, -5), "clamped at 0")

	lower := Definition{TargetValue: 0.5}
	assert.Equal(t, 50.0, *Score(lower, 1))
	assert.Equal(t, 100.0, *Score(lower, 0.25))
	assert.Equal(t, 100.0, *Score(lower, 0))

	assert.Nil(t, Score(Definition{TargetValue: 0}, 3))
}

func TestCompareTrend(t *testing.T) {
	assert.Equal(t, TrendImproving, CompareTrend(true, 10, 8))
	assert.Equal(t, TrendDeclining, CompareTrend(true, 8, 10))
	assert.Equal(t, TrendImproving, CompareTrend(false, 8, 10))
	assert.Equal(t, TrendDeclining, CompareTrend(false, 10, 8))
	assert.Equal(t, TrendStable, CompareTrend(false, 8, 8))
}

func TestNewMeasurement_DerivesVariances(t *testing.T) {
	def := Definition{ID: "d1", CompanyID: "c1", Code: "cost_per_mile", TargetValue: 0.65, WarningThreshold: 0.80, BenchmarkMedian: f64(0.72)}
	period := Period{Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)}

	m := NewMeasurement(def, FleetScope(), period, f64(0.70), nil, period.End)

	require.NotNil(t, m.ActualValue)
	assert.Equal(t, StatusWarning, m.PerformanceStatus)
	assert.InDelta(t, 0.05, *m.Variance, 1e-9)
	assert.InDelta(t, 7.6923, *m.VariancePercent, 1e-9)
	assert.InDelta(t, -0.02, *m.BenchmarkVariance, 1e-9)
	assert.InDelta(t, 92.86, *m.PerformanceScore, 1e-9)
	assert.Nil(t, m.ErrorMessage)
}

func TestNewMeasurement_FailuresAreCriticalWithNullActual(t *testing.T) {
	def := Definition{TargetValue: 90, HigherIsBetter: true}
	period := Period{}

	failed := NewMeasurement(def, FleetScope(), period, nil, errors.New("billing source unavailable"), time.Now())
	assert.Equal(t, StatusCritical, failed.PerformanceStatus)
	assert.Nil(t, failed.ActualValue)
	assert.Nil(t, failed.PerformanceScore)
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "billing source unavailable", *failed.ErrorMessage)

	missing := NewMeasurement(def, FleetScope(), period, nil, nil, time.Now())
	assert.Equal(t, StatusCritical, missing.PerformanceStatus)
	assert.Nil(t, missing.ActualValue)
	require.NotNil(t, missing.ErrorMessage)
}

func TestPreviousPeriod(t *testing.T) {
	asOf := time.Date(2024, 5, 15, 3, 0, 0, 0, time.UTC) // Wednesday

	assert.Equal(t, Period{Start: date(2024, 5, 14), End: date(2024, 5, 14)}, PreviousPeriod(FrequencyDaily, asOf))
	assert.Equal(t, Period{Start: date(2024, 5, 6), End: date(2024, 5, 12)}, PreviousPeriod(FrequencyWeekly, asOf))
	assert.Equal(t, Period{Start: date(2024, 4, 1), End: date(2024, 4, 30)}, PreviousPeriod(FrequencyMonthly, asOf))
	assert.Equal(t, Period{Start: date(2024, 1, 1), End: date(2024, 3, 31)}, PreviousPeriod(FrequencyQuarterly, asOf))

	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Period{Start: date(2023, 12, 1), End: date(2023, 12, 31)}, PreviousPeriod(FrequencyMonthly, jan))
	assert.Equal(t, Period{Start: date(2023, 10, 1), End: date(2023, 12, 31)}, PreviousPeriod(FrequencyQuarterly, jan))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("", "ignored")
	require.NoError(t, err)
	assert.Equal(t, FleetScope(), s)

	_, err = ParseScope("vehicle", "")
	assert.ErrorContains(t, err, "scope_id")

	_, err = ParseScope("galaxy", "x")
	assert.ErrorContains(t, err, "scope_type")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("b_metric", nil)
	r.Register("a_metric", nil, ScopeTechnician, ScopeDepartment)

	assert.Equal(t, []string{"a_metric", "b_metric"}, r.Codes())
	m, ok := r.Lookup("b_metric")
	require.True(t, ok)
	assert.True(t, m.Supports(ScopeFleet))
	m, _ = r.Lookup("a_metric")
	assert.False(t, m.Supports(ScopeFleet))
	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestCreateDefinitionRequest_ThresholdDirection(t *testing.T) {
	req := CreateDefinitionRequest{Code: "pm_compliance", Name: "PM", Category: "maintenance", Unit: "percent", Frequency: "monthly", TargetValue: 95, WarningThreshold: 97, HigherIsBetter: true}
	assert.ErrorContains(t, req.Validate(), "warning_threshold")

	req.WarningThreshold = 85
	assert.NoError(t, req.Validate())
}
