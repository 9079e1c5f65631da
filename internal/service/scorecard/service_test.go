package scorecard

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/scorecard"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const companyID = "company-1"

type inlineTx struct{}

func (inlineTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memMeasurements map[string]kpi.Measurement

func (m memMeasurements) GetByID(_ context.Context, id string, _ string) (kpi.Measurement, error) {
	row, ok := m[id]
	if !ok {
		return kpi.Measurement{}, kpi.ErrMeasurementNotFound
	}
	return row, nil
}

type memScorecards struct {
	cards map[string]scorecard.Scorecard
}

func (m *memScorecards) Create(_ context.Context, sc scorecard.Scorecard) (scorecard.Scorecard, error) {
	for _, c := range m.cards {
		if c.Name == sc.Name && c.Scope == sc.Scope && c.PeriodStart.Equal(sc.PeriodStart) && c.PeriodEnd.Equal(sc.PeriodEnd) {
			return scorecard.Scorecard{}, scorecard.ErrScorecardExists
		}
	}
	m.cards[sc.ID] = sc
	return sc, nil
}

func (m *memScorecards) GetByID(_ context.Context, id, _ string) (scorecard.Scorecard, error) {
	sc, ok := m.cards[id]
	if !ok {
		return scorecard.Scorecard{}, scorecard.ErrScorecardNotFound
	}
	return sc, nil
}

func (m *memScorecards) GetPrevious(_ context.Context, _ string, name string, scope kpi.Scope, periodStart time.Time) (*scorecard.Scorecard, error) {
	var best *scorecard.Scorecard
	for _, c := range m.cards {
		if c.Name != name || c.Scope != scope || !c.PeriodEnd.Before(periodStart) {
			continue
		}
		if best == nil || c.PeriodEnd.After(best.PeriodEnd) {
			c := c
			best = &c
		}
	}
	return best, nil
}

func (m *memScorecards) ReplaceItems(_ context.Context, sc scorecard.Scorecard) (scorecard.Scorecard, error) {
	m.cards[sc.ID] = sc
	return sc, nil
}

func (m *memScorecards) MarkPublished(_ context.Context, id, _ string, by string, at time.Time) error {
	sc := m.cards[id]
	sc.Status = scorecard.StatusPublished
	sc.PublishedBy = &by
	sc.PublishedAt = &at
	m.cards[id] = sc
	return nil
}

func (m *memScorecards) List(context.Context, string, scorecard.ScorecardFilter) ([]scorecard.Scorecard, error) {
	out := make([]scorecard.Scorecard, 0, len(m.cards))
	for _, c := range m.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.Before(out[j].PeriodStart) })
	return out, nil
}

func f64(v float64) *float64 { return &v }

func measurement(id, code string, end time.Time, score float64, status kpi.PerformanceStatus) kpi.Measurement {
	return kpi.Measurement{
		ID:                id,
		CompanyID:         companyID,
		KPICode:           code,
		Scope:             kpi.FleetScope(),
		PeriodStart:       time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:         end,
		ActualValue:       f64(score / 100),
		PerformanceScore:  f64(score),
		PerformanceStatus: status,
	}
}

var (
	febEnd   = time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	marchEnd = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
)

func newService(policy scorecard.StatusPolicy) (scorecard.ScorecardService, *memScorecards) {
	ms := memMeasurements{
		"feb-cpm":   measurement("feb-cpm", "cost_per_mile", febEnd, 70, kpi.StatusWarning),
		"mar-cpm":   measurement("mar-cpm", "cost_per_mile", marchEnd, 90, kpi.StatusGood),
		"mar-pm":    measurement("mar-pm", "pm_compliance", marchEnd, 100, kpi.StatusExcellent),
		"mar-crit":  {ID: "mar-crit", KPICode: "attendance_rate", Scope: kpi.FleetScope(), PeriodEnd: marchEnd, PerformanceStatus: kpi.StatusCritical},
		"mar-truck": {ID: "mar-truck", KPICode: "cost_per_mile", Scope: kpi.Scope{Type: kpi.ScopeVehicle, ID: "TRK-1"}, PeriodEnd: marchEnd, PerformanceStatus: kpi.StatusGood},
	}
	repo := &memScorecards{cards: make(map[string]scorecard.Scorecard)}
	return NewScorecardService(inlineTx{}, repo, ms, policy), repo
}

func buildRequest(period string, items ...scorecard.ItemRequest) scorecard.BuildScorecardRequest {
	start, end := "2024-03-01", "2024-03-31"
	if period == "feb" {
		start, end = "2024-02-01", "2024-02-29"
	}
	return scorecard.BuildScorecardRequest{Name: "Fleet monthly", PeriodStart: start, PeriodEnd: end, Items: items}
}

func TestBuild_WeightedScoreAndTrend(t *testing.T) {
	svc, _ := newService(scorecard.PolicyWorstCase)
	ctx := context.Background()

	feb, err := svc.Build(ctx, companyID, buildRequest("feb", scorecard.ItemRequest{MeasurementID: "feb-cpm", Weight: 1}))
	require.NoError(t, err)
	assert.Equal(t, string(scorecard.TrendNew), feb.ScoreTrend)

	mar, err := svc.Build(ctx, companyID, buildRequest("mar",
		scorecard.ItemRequest{MeasurementID: "mar-cpm", Weight: 3},
		scorecard.ItemRequest{MeasurementID: "mar-pm", Weight: 1},
		scorecard.ItemRequest{MeasurementID: "mar-crit", Weight: 1},
	))
	require.NoError(t, err)

	require.NotNil(t, mar.OverallScore)
	assert.InDelta(t, 92.5, *mar.OverallScore, 1e-9)
	assert.Equal(t, string(kpi.StatusCritical), mar.OverallStatus)
	require.NotNil(t, mar.PreviousScore)
	assert.InDelta(t, 70, *mar.PreviousScore, 1e-9)
	assert.Equal(t, string(scorecard.TrendImproving), mar.ScoreTrend)
	assert.Equal(t, string(scorecard.StatusDraft), mar.Status)
}

func TestBuild_MajorityPolicy(t *testing.T) {
	svc, _ := newService(scorecard.PolicyMajority)

	sc, err := svc.Build(context.Background(), companyID, buildRequest("mar",
		scorecard.ItemRequest{MeasurementID: "mar-cpm", Weight: 1},
		scorecard.ItemRequest{MeasurementID: "mar-pm", Weight: 1},
	))
	require.NoError(t, err)
	// one good and one excellent: the tie goes to the worse status
	assert.Equal(t, string(kpi.StatusGood), sc.OverallStatus)
	assert.Equal(t, string(scorecard.PolicyMajority), sc.StatusPolicy)
}

func TestBuild_RejectsForeignMeasurements(t *testing.T) {
	svc, _ := newService(scorecard.PolicyWorstCase)
	ctx := context.Background()
	var verrs validator.ValidationErrors

	_, err := svc.Build(ctx, companyID, buildRequest("mar", scorecard.ItemRequest{MeasurementID: "mar-truck", Weight: 1}))
	assert.ErrorAs(t, err, &verrs)

	_, err = svc.Build(ctx, companyID, buildRequest("mar", scorecard.ItemRequest{MeasurementID: "feb-cpm", Weight: 1}))
	assert.ErrorAs(t, err, &verrs)

	_, err = svc.Build(ctx, companyID, buildRequest("mar", scorecard.ItemRequest{MeasurementID: "nope", Weight: 1}))
	assert.ErrorIs(t, err, kpi.ErrMeasurementNotFound)

	_, err = svc.Build(ctx, companyID, buildRequest("mar"))
	assert.ErrorAs(t, err, &verrs)
}

func TestBuild_DuplicateKey(t *testing.T) {
	svc, _ := newService(scorecard.PolicyWorstCase)
	ctx := context.Background()

	_, err := svc.Build(ctx, companyID, buildRequest("mar", scorecard.ItemRequest{MeasurementID: "mar-cpm", Weight: 1}))
	require.NoError(t, err)
	_, err = svc.Build(ctx, companyID, buildRequest("mar", scorecard.ItemRequest{MeasurementID: "mar-pm", Weight: 1}))
	assert.ErrorIs(t, err, scorecard.ErrScorecardExists)
}

func TestPublish_FreezesScorecard(t *testing.T) {
	svc, _ := newService(scorecard.PolicyWorstCase)
	ctx := context.Background()

	sc, err := svc.Build(ctx, companyID, buildRequest("mar", scorecard.ItemRequest{MeasurementID: "mar-cpm", Weight: 1}))
	require.NoError(t, err)

	rebuilt, err := svc.Rebuild(ctx, companyID, sc.ID, scorecard.RebuildScorecardRequest{Items: []scorecard.ItemRequest{
		{MeasurementID: "mar-cpm", Weight: 1},
		{MeasurementID: "mar-pm", Weight: 1},
	}})
	require.NoError(t, err)
	assert.Len(t, rebuilt.Items, 2)
	assert.InDelta(t, 95, *rebuilt.OverallScore, 1e-9)

	published, err := svc.Publish(ctx, companyID, sc.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, string(scorecard.StatusPublished), published.Status)
	require.NotNil(t, published.PublishedAt)

	_, err = svc.Publish(ctx, companyID, sc.ID, "manager")
	assert.ErrorIs(t, err, scorecard.ErrScorecardPublished)

	_, err = svc.Rebuild(ctx, companyID, sc.ID, scorecard.RebuildScorecardRequest{Items: []scorecard.ItemRequest{{MeasurementID: "mar-pm", Weight: 1}}})
	assert.ErrorIs(t, err, scorecard.ErrScorecardPublished)

	got, err := svc.Get(ctx, companyID, sc.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}
