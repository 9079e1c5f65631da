package kpi

import (
	"math"
	"time"
)

// boundaryEpsilon keeps band edges inclusive despite float rounding (90*1.1 != 99).
const boundaryEpsilon = 1e-9

// Classify maps an actual value onto a performance status. The comparison
// direction follows HigherIsBetter.
func Classify(def Definition, actual float64) PerformanceStatus {
	if def.HigherIsBetter {
		switch {
		case actual >= def.TargetValue*1.1-boundaryEpsilon:
			return StatusExcellent
		case actual >= def.TargetValue-boundaryEpsilon:
			return StatusGood
		case actual >= def.WarningThreshold-boundaryEpsilon:
			return StatusWarning
		default:
			return StatusCritical
		}
	}

	switch {
	case actual <= def.TargetValue*0.9+boundaryEpsilon:
		return StatusExcellent
	case actual <= def.TargetValue+boundaryEpsilon:
		return StatusGood
	case actual <= def.WarningThreshold+boundaryEpsilon:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// Score converts an actual into a 0-100 attainment of the target. It is nil
// when the target is zero since attainment is undefined.
func Score(def Definition, actual float64) *float64 {
	if def.TargetValue == 0 {
		return nil
	}

	var score float64
	if def.HigherIsBetter {
		score = actual / def.TargetValue * 100
	} else if actual <= 0 {
		score = 100
	} else {
		score = def.TargetValue / actual * 100
	}
	score = math.Round(math.Max(0, math.Min(100, score))*100) / 100
	return &score
}

// CompareTrend reports the direction from previous to latest.
func CompareTrend(higherIsBetter bool, latest, previous float64) TrendDirection {
	switch {
	case latest == previous:
		return TrendStable
	case (latest > previous) == higherIsBetter:
		return TrendImproving
	default:
		return TrendDeclining
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// NewMeasurement derives a measurement from a calculation outcome. A nil
// actual or a calculation error produces a critical row with no actual.
func NewMeasurement(def Definition, scope Scope, period Period, actual *float64, calcErr error, calculatedAt time.Time) Measurement {
	m := Measurement{
		CompanyID:      def.CompanyID,
		DefinitionID:   def.ID,
		KPICode:        def.Code,
		Scope:          scope,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		TargetValue:    def.TargetValue,
		BenchmarkValue: def.BenchmarkMedian,
		CalculatedAt:   calculatedAt,
	}

	if calcErr != nil || actual == nil || math.IsNaN(*actual) || math.IsInf(*actual, 0) {
		msg := "no source data for period"
		if calcErr != nil {
			msg = calcErr.Error()
		} else if actual != nil {
			msg = "calculation produced a non-finite value"
		}
		m.PerformanceStatus = StatusCritical
		m.ErrorMessage = &msg
		return m
	}

	value := round4(*actual)
	m.ActualValue = &value

	variance := round4(value - def.TargetValue)
	m.Variance = &variance
	if def.TargetValue != 0 {
		pct := round4(variance / def.TargetValue * 100)
		m.VariancePercent = &pct
	}
	if def.BenchmarkMedian != nil {
		bv := round4(value - *def.BenchmarkMedian)
		m.BenchmarkVariance = &bv
	}

	m.PerformanceStatus = Classify(def, value)
	m.PerformanceScore = Score(def, value)
	return m
}
