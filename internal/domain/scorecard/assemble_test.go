package scorecard

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 {
	return &v
}

func item(code string, weight float64, score *float64, status kpi.PerformanceStatus) Item {
	return Item{KPICode: code, Weight: weight, PerformanceScore: score, PerformanceStatus: status}
}

func TestOverallScore_WeightedAverageIsOrderIndependent(t *testing.T) {
	items := []Item{
		item("a", 3, f64(90), kpi.StatusGood),
		item("b", 1, f64(40), kpi.StatusCritical),
		item("c", 2, f64(75.5), kpi.StatusWarning),
	}
	want := (3*90.0 + 1*40.0 + 2*75.5) / 6.0

	permutations := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, p := range permutations {
		ordered := []Item{items[p[0]], items[p[1]], items[p[2]]}
		got := OverallScore(ordered)
		require.NotNil(t, got)
		assert.InDelta(t, want, *got, 0.005, "order %v", p)
	}
}

func TestOverallScore_SkipsItemsWithoutScore(t *testing.T) {
	items := []Item{
		item("a", 1, f64(80), kpi.StatusGood),
		item("b", 5, nil, kpi.StatusCritical),
	}
	got := OverallScore(items)
	require.NotNil(t, got)
	assert.Equal(t, 80.0, *got)

	assert.Nil(t, OverallScore([]Item{item("b", 1, nil, kpi.StatusCritical)}))
}

func TestOverallStatus_Policies(t *testing.T) {
	items := []Item{
		item("a", 1, nil, kpi.StatusGood),
		item("b", 1, nil, kpi.StatusGood),
		item("c", 1, nil, kpi.StatusWarning),
	}
	assert.Equal(t, kpi.StatusWarning, OverallStatus(items, PolicyWorstCase))
	assert.Equal(t, kpi.StatusGood, OverallStatus(items, PolicyMajority))

	tied := []Item{
		item("a", 1, nil, kpi.StatusExcellent),
		item("b", 1, nil, kpi.StatusCritical),
	}
	assert.Equal(t, kpi.StatusCritical, OverallStatus(tied, PolicyMajority), "ties resolve toward the worse status")
	assert.Equal(t, kpi.StatusCritical, OverallStatus(nil, PolicyMajority))
}

func TestCompareScores(t *testing.T) {
	assert.Equal(t, TrendNew, CompareScores(f64(80), nil))
	assert.Equal(t, TrendImproving, CompareScores(f64(80), f64(70)))
	assert.Equal(t, TrendDeclining, CompareScores(f64(60), f64(70)))
	assert.Equal(t, TrendStable, CompareScores(f64(70.004), f64(70)))
}

func TestAssemble_UsesPreviousScorecard(t *testing.T) {
	sc := Scorecard{
		StatusPolicy: PolicyWorstCase,
		Items: []Item{
			item("a", 1, f64(100), kpi.StatusExcellent),
			item("b", 1, f64(60), kpi.StatusWarning),
		},
	}
	prev := &Scorecard{OverallScore: f64(85)}

	out := Assemble(sc, prev)
	require.NotNil(t, out.OverallScore)
	assert.Equal(t, 80.0, *out.OverallScore)
	assert.Equal(t, kpi.StatusWarning, out.OverallStatus)
	assert.Equal(t, TrendDeclining, out.ScoreTrend)
	assert.Equal(t, 85.0, *out.PreviousScore)
	assert.Equal(t, 1, out.Items[1].Position)

	first := Assemble(sc, nil)
	assert.Equal(t, TrendNew, first.ScoreTrend)
	assert.Nil(t, first.PreviousScore)
}

func TestBuildScorecardRequest_Validate(t *testing.T) {
	req := BuildScorecardRequest{
		Name: "Monthly fleet", PeriodStart: "2024-03-01", PeriodEnd: "2024-03-31",
		Items: []ItemRequest{{MeasurementID: "m1", Weight: 2}, {MeasurementID: "m1", Weight: 1}},
	}
	_, _, err := req.Validate()
	assert.ErrorContains(t, err, "more than once")

	req.Items = []ItemRequest{{MeasurementID: "m1", Weight: -1}}
	_, _, err = req.Validate()
	assert.ErrorContains(t, err, "weight")

	req.Items = []ItemRequest{{MeasurementID: "m1", Weight: math.NaN()}}
	_, _, err = req.Validate()
	assert.ErrorContains(t, err, "weight")

	req.Items = []ItemRequest{{MeasurementID: "m1", Weight: math.Inf(1)}}
	_, _, err = req.Validate()
	assert.ErrorContains(t, err, "weight")

	req.Items = []ItemRequest{{MeasurementID: "m1", Weight: 0.5}}
	scope, period, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, kpi.FleetScope(), scope)
	assert.Equal(t, 31, int(period.End.Sub(period.Start).Hours()/24)+1)
}

func TestNewItem_UnweightedItemsAverageEqually(t *testing.T) {
	var req BuildScorecardRequest
	body := `{"name":"Monthly fleet","period_start":"2024-03-01","period_end":"2024-03-31",
		"items":[{"measurement_id":"m1"},{"measurement_id":"m2","weight":0}]}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	_, _, err := req.Validate()
	require.NoError(t, err)

	scores := map[string]float64{"m1": 90, "m2": 40}
	items := make([]Item, 0, len(req.Items))
	for i, r := range req.Items {
		m := kpi.Measurement{ID: r.MeasurementID, KPICode: r.MeasurementID, PerformanceScore: f64(scores[r.MeasurementID])}
		items = append(items, NewItem(m, r.Weight, i))
	}
	for _, it := range items {
		assert.Equal(t, DefaultItemWeight, it.Weight)
	}

	got := OverallScore(items)
	require.NotNil(t, got)
	assert.InDelta(t, 65.0, *got, 0.005)
}

func TestAssemble_FailedMeasurementAffectsStatusNotScore(t *testing.T) {
	sc := Scorecard{
		StatusPolicy: PolicyWorstCase,
		Items: []Item{
			item("cost_per_mile", 1, f64(90), kpi.StatusExcellent),
			item("attendance_rate", 1, nil, kpi.StatusCritical),
		},
	}
	got := Assemble(sc, nil)
	require.NotNil(t, got.OverallScore)
	assert.Equal(t, 90.0, *got.OverallScore)
	assert.Equal(t, kpi.StatusCritical, got.OverallStatus)
}
