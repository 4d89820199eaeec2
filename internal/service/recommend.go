package service

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/hygieia/backend/internal/config"
	"github.com/hygieia/backend/internal/models"
)

// recommender turns detected patterns into actionable recommendations.
// One recommendation per qualifying pattern; patterns that do not qualify
// on the available data simply emit nothing.
type recommender struct {
	cfg config.AnalysisConfig
}

func newRecommender(cfg config.AnalysisConfig) *recommender {
	return &recommender{cfg: cfg}
}

const (
	optimalSleepHours  = 8.0
	sleepTargetBandHrs = 0.5
)

// Recommend derives recommendations from the dataset and the already
// computed insights, warnings and predictions. Pattern order is fixed so
// the output is deterministic.
func (r *recommender) Recommend(dataset models.UnifiedDataset, insights []models.Insight, warnings []models.Warning, predictions []models.Prediction) []models.Recommendation {
	recs := make([]models.Recommendation, 0)

	if rec, ok := r.peakPerformance(dataset, insights); ok {
		recs = append(recs, rec)
	}
	if rec, ok := r.sleepDebt(dataset); ok {
		recs = append(recs, rec)
	}
	if rec, ok := r.sleepConsistency(dataset); ok {
		recs = append(recs, rec)
	}
	if rec, ok := r.recoveryMode(warnings, predictions); ok {
		recs = append(recs, rec)
	}
	return recs
}

// peakPerformance qualifies when sleep and activity correlate strongly.
// The target duration is the mean sleep on the user's top-quartile-activity
// days; impact quantifies the historical average activity lift for hitting
// that range.
func (r *recommender) peakPerformance(dataset models.UnifiedDataset, insights []models.Insight) (models.Recommendation, bool) {
	var pairInsight *models.Insight
	for i := range insights {
		in := insights[i]
		if (in.KindA == models.MetricSleep && in.KindB == models.MetricSteps) ||
			(in.KindA == models.MetricSteps && in.KindB == models.MetricSleep) {
			pairInsight = &insights[i]
			break
		}
	}
	if pairInsight == nil || math.Abs(pairInsight.Correlation) < r.cfg.StrongCorrelation {
		return models.Recommendation{}, false
	}

	sleepByDate := dataset.Get(models.MetricSleep).ByDate()
	stepsSeries := dataset.Get(models.MetricSteps)
	if len(sleepByDate) == 0 || stepsSeries.Len() == 0 {
		return models.Recommendation{}, false
	}

	stepValues := stepsSeries.Values()
	q75, err := stats.Percentile(stepValues, 75)
	if err != nil {
		return models.Recommendation{}, false
	}
	overallSteps, err := stats.Mean(stepValues)
	if err != nil || overallSteps == 0 {
		return models.Recommendation{}, false
	}

	// Mean sleep on top-quartile-activity days.
	var topSleep []float64
	for _, p := range stepsSeries.Points {
		if p.Value >= q75 {
			if sleep, ok := sleepByDate[p.Date]; ok {
				topSleep = append(topSleep, sleep)
			}
		}
	}
	if len(topSleep) == 0 {
		return models.Recommendation{}, false
	}
	target, err := stats.Mean(topSleep)
	if err != nil {
		return models.Recommendation{}, false
	}

	// Historical activity on days the user hit the target sleep range.
	var inRangeSteps []float64
	for _, p := range stepsSeries.Points {
		if sleep, ok := sleepByDate[p.Date]; ok && math.Abs(sleep-target) <= sleepTargetBandHrs {
			inRangeSteps = append(inRangeSteps, p.Value)
		}
	}
	impact := "Historically your most active days follow this sleep duration"
	if len(inRangeSteps) > 0 {
		inRangeMean, err := stats.Mean(inRangeSteps)
		if err == nil {
			lift := (inRangeMean/overallSteps - 1) * 100
			if lift > 0 {
				impact = fmt.Sprintf("On days you slept %.1f±%.1fh you averaged %.0f%% more steps than usual", target, sleepTargetBandHrs, lift)
			}
		}
	}

	priority := models.PriorityMedium
	if math.Abs(pairInsight.Correlation) > 0.7 {
		priority = models.PriorityHigh
	}

	return models.Recommendation{
		Kind:     "performance",
		Priority: priority,
		Title:    "Peak Performance Formula",
		Action:   fmt.Sprintf("Aim for %.1f hours of sleep before days you want to be most active", target),
		Reason:   fmt.Sprintf("Your top activity days average %.1fh sleep (sleep-activity r=%.2f)", target, pairInsight.Correlation),
		Impact:   impact,
	}, true
}

// sleepDebt qualifies when the trailing week runs meaningfully short of the
// user's own average.
func (r *recommender) sleepDebt(dataset models.UnifiedDataset) (models.Recommendation, bool) {
	values := dataset.Get(models.MetricSleep).Values()
	if len(values) < 7 {
		return models.Recommendation{}, false
	}

	recent := values[len(values)-7:]
	recentMean, err := stats.Mean(recent)
	if err != nil {
		return models.Recommendation{}, false
	}
	overallMean, err := stats.Mean(values)
	if err != nil {
		return models.Recommendation{}, false
	}
	if recentMean >= overallMean-0.5 {
		return models.Recommendation{}, false
	}

	debt := 0.0
	for _, v := range recent {
		if v < optimalSleepHours {
			debt += optimalSleepHours - v
		}
	}

	return models.Recommendation{
		Kind:     "sleep",
		Priority: models.PriorityHigh,
		Title:    "Sleep Debt Recovery",
		Action:   "Go to bed 30 minutes earlier tonight",
		Reason:   fmt.Sprintf("You've averaged %.1fh this week vs your %.1fh norm, accumulating %.1fh of debt", recentMean, overallMean, debt),
		Impact:   "Recovering the debt typically restores next-day readiness and energy",
	}, true
}

// sleepConsistency qualifies when nightly variability exceeds an hour.
func (r *recommender) sleepConsistency(dataset models.UnifiedDataset) (models.Recommendation, bool) {
	values := dataset.Get(models.MetricSleep).Values()
	if len(values) < 7 {
		return models.Recommendation{}, false
	}
	sd, err := stats.StandardDeviation(values)
	if err != nil || sd <= 1.0 {
		return models.Recommendation{}, false
	}

	return models.Recommendation{
		Kind:     "consistency",
		Priority: models.PriorityMedium,
		Title:    "Sleep Consistency",
		Action:   "Set a consistent bedtime within 30 minutes daily",
		Reason:   fmt.Sprintf("Your sleep varies by ±%.1fh nightly; consistency improves every downstream metric", sd),
		Impact:   "Better sleep quality and more stable energy levels",
	}, true
}

// recoveryMode qualifies on a high-severity warning or a declining
// recovery-related trend.
func (r *recommender) recoveryMode(warnings []models.Warning, predictions []models.Prediction) (models.Recommendation, bool) {
	triggered := false
	reason := ""
	for _, w := range warnings {
		if w.Severity == models.SeverityHigh {
			triggered = true
			reason = w.Message
			break
		}
	}
	if !triggered {
		for _, p := range predictions {
			if p.Trend == models.TrendDeclining && (p.Kind == models.MetricHeartRate || p.Kind == models.MetricSleep) {
				triggered = true
				reason = p.Prediction
				break
			}
		}
	}
	if !triggered {
		return models.Recommendation{}, false
	}

	return models.Recommendation{
		Kind:     "recovery",
		Priority: models.PriorityHigh,
		Title:    "Recovery Mode",
		Action:   "Take a rest day or do light stretching only",
		Reason:   reason,
		Impact:   "Prevents overtraining and protects next week's performance",
	}, true
}
