package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/hygieia/backend/internal/config"
	"github.com/hygieia/backend/internal/models"
)

// correlationEngine computes pairwise and one-day-lagged relationships
// between the metric series of a unified dataset.
type correlationEngine struct {
	cfg config.AnalysisConfig
}

func newCorrelationEngine(cfg config.AnalysisConfig) *correlationEngine {
	return &correlationEngine{cfg: cfg}
}

// pairSample is two series aligned on shared dates.
type pairSample struct {
	x, y []float64
}

// ComputeInsights returns the top-K ranked correlation insights. Pairs with
// fewer aligned points than the minimum sample size emit nothing, and
// constant series are excluded outright: zero variance makes the
// coefficient undefined, which must never be reported as 0 or NaN.
func (e *correlationEngine) ComputeInsights(dataset models.UnifiedDataset) []models.Insight {
	kinds := dataset.Kinds()
	insights := make([]models.Insight, 0)

	for i := 0; i < len(kinds); i++ {
		for j := i + 1; j < len(kinds); j++ {
			kindA, kindB := kinds[i], kinds[j]
			seriesA, seriesB := dataset.Get(kindA), dataset.Get(kindB)

			best, ok := e.bestOfLags(seriesA, seriesB)
			if !ok {
				continue
			}
			best.ID = uuid.New().String()
			best.KindA = kindA
			best.KindB = kindB
			best.Title = pairTitle(kindA, kindB, best.LagDays)
			best.Description = describeCorrelation(kindA, kindB, best.Correlation, best.LagDays)
			insights = append(insights, best)
		}
	}

	// Rank by |r| x confidence, ties broken by sample size then kind names
	// for a deterministic order.
	sort.Slice(insights, func(i, j int) bool {
		si := math.Abs(insights[i].Correlation) * insights[i].Confidence
		sj := math.Abs(insights[j].Correlation) * insights[j].Confidence
		if si != sj {
			return si > sj
		}
		if insights[i].SampleSize != insights[j].SampleSize {
			return insights[i].SampleSize > insights[j].SampleSize
		}
		if insights[i].KindA != insights[j].KindA {
			return insights[i].KindA < insights[j].KindA
		}
		return insights[i].KindB < insights[j].KindB
	})

	if len(insights) > e.cfg.TopInsights {
		insights = insights[:e.cfg.TopInsights]
	}
	return insights
}

// bestOfLags evaluates the same-day and one-day-lagged alignments of a pair
// and keeps the stronger finding.
func (e *correlationEngine) bestOfLags(a, b models.MetricSeries) (models.Insight, bool) {
	var best models.Insight
	found := false

	for _, lag := range []int{0, 1} {
		sample := alignPair(a, b, lag)
		n := len(sample.x)
		if n < e.cfg.MinSamplesForCorrelation {
			continue
		}
		if isConstant(sample.x) || isConstant(sample.y) {
			continue
		}

		r := stat.Correlation(sample.x, sample.y, nil)
		if math.IsNaN(r) {
			continue
		}
		conf := e.confidence(r, n)

		candidate := models.Insight{
			Correlation: r,
			Confidence:  conf,
			SampleSize:  n,
			LagDays:     lag,
			Direction:   direction(r),
		}
		if !found || math.Abs(candidate.Correlation)*candidate.Confidence >
			math.Abs(best.Correlation)*best.Confidence {
			best = candidate
			found = true
		}
	}
	return best, found
}

// confidence is a design heuristic, not a p-value: monotonic in both the
// aligned sample size and the coefficient magnitude, capped at 1. The exact
// shape is tunable; only the monotonicity is relied upon.
func (e *correlationEngine) confidence(r float64, n int) float64 {
	sampleWeight := float64(n) / float64(n+10)
	return clamp01(math.Abs(r) * sampleWeight)
}

// alignPair inner-joins two series on shared dates. With lag 1, day d of
// the first series is paired with day d+1 of the second, capturing
// "yesterday's A affects today's B".
func alignPair(a, b models.MetricSeries, lag int) pairSample {
	byDateB := b.ByDate()
	var sample pairSample
	for _, p := range a.Points {
		dateB := p.Date
		if lag > 0 {
			dateB = models.NextDay(p.Date)
			if dateB == "" {
				continue
			}
		}
		if vb, ok := byDateB[dateB]; ok {
			sample.x = append(sample.x, p.Value)
			sample.y = append(sample.y, vb)
		}
	}
	return sample
}

func isConstant(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] != v[0] {
			return false
		}
	}
	return true
}

func direction(r float64) models.Direction {
	switch {
	case r > 0:
		return models.DirectionPositive
	case r < 0:
		return models.DirectionNegative
	default:
		return models.DirectionNeutral
	}
}

func pairTitle(a, b models.MetricKind, lag int) string {
	if lag > 0 {
		return fmt.Sprintf("%s and next-day %s", kindLabel(a), kindLabel(b))
	}
	return fmt.Sprintf("%s and %s", kindLabel(a), kindLabel(b))
}

func describeCorrelation(a, b models.MetricKind, r float64, lag int) string {
	strength := "somewhat"
	if math.Abs(r) > 0.7 {
		strength = "strongly"
	} else if math.Abs(r) > 0.5 {
		strength = "moderately"
	}

	sign := "positively"
	if r < 0 {
		sign = "negatively"
	}

	if lag > 0 {
		return fmt.Sprintf("Your %s is %s %s correlated with next-day %s (r=%.2f)",
			kindLabel(a), strength, sign, kindLabel(b), r)
	}
	return fmt.Sprintf("Your %s and %s are %s %s correlated (r=%.2f)",
		kindLabel(a), kindLabel(b), strength, sign, r)
}

// kindLabel renders a metric kind for human-readable text.
func kindLabel(k models.MetricKind) string {
	switch k {
	case models.MetricSleep:
		return "sleep"
	case models.MetricSteps:
		return "activity"
	case models.MetricHeartRate:
		return "resting heart rate"
	case models.MetricCalories:
		return "calorie burn"
	default:
		return string(k)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
