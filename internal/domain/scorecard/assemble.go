package scorecard

import (
	"math"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
)

// trendTolerance treats score moves smaller than this as stable.
const trendTolerance = 0.01

// OverallScore is the weighted mean of the item scores. Items without a
// score are left out of both sums; nil when no item has a score.
func OverallScore(items []Item) *float64 {
	var weighted, weights float64
	for _, it := range items {
		if it.PerformanceScore == nil || it.Weight <= 0 {
			continue
		}
		weighted += it.Weight * *it.PerformanceScore
		weights += it.Weight
	}
	if weights == 0 {
		return nil
	}
	score := math.Round(weighted/weights*100) / 100
	return &score
}

// OverallStatus reduces item statuses by policy. Majority ties resolve
// toward the worse status. An empty card is critical.
func OverallStatus(items []Item, policy StatusPolicy) kpi.PerformanceStatus {
	if len(items) == 0 {
		return kpi.StatusCritical
	}

	if policy == PolicyMajority {
		counts := make(map[kpi.PerformanceStatus]int, 4)
		for _, it := range items {
			counts[it.PerformanceStatus]++
		}
		best := kpi.StatusExcellent
		bestCount := -1
		for _, s := range []kpi.PerformanceStatus{kpi.StatusExcellent, kpi.StatusGood, kpi.StatusWarning, kpi.StatusCritical} {
			if counts[s] >= bestCount && counts[s] > 0 {
				best, bestCount = s, counts[s]
			}
		}
		return best
	}

	worst := kpi.StatusExcellent
	for _, it := range items {
		if it.PerformanceStatus.Severity() > worst.Severity() {
			worst = it.PerformanceStatus
		}
	}
	return worst
}

// CompareScores classifies the move from previous to current.
func CompareScores(current, previous *float64) Trend {
	if previous == nil || current == nil {
		return TrendNew
	}
	diff := *current - *previous
	switch {
	case math.Abs(diff) < trendTolerance:
		return TrendStable
	case diff > 0:
		return TrendImproving
	default:
		return TrendDeclining
	}
}

// Assemble recomputes the derived fields of sc from its items and the
// preceding scorecard, if any.
func Assemble(sc Scorecard, previous *Scorecard) Scorecard {
	for i := range sc.Items {
		sc.Items[i].Position = i
	}
	sc.OverallScore = OverallScore(sc.Items)
	sc.OverallStatus = OverallStatus(sc.Items, sc.StatusPolicy)
	sc.PreviousScore = nil
	if previous != nil {
		sc.PreviousScore = previous.OverallScore
	}
	sc.ScoreTrend = CompareScores(sc.OverallScore, sc.PreviousScore)
	return sc
}
