package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/hygieia/backend/internal/config"
	"github.com/hygieia/backend/internal/models"
)

// anomalyDetector flags sustained deviations from a personal baseline.
type anomalyDetector struct {
	cfg config.AnalysisConfig
}

func newAnomalyDetector(cfg config.AnalysisConfig) *anomalyDetector {
	return &anomalyDetector{cfg: cfg}
}

// Detect returns at most one warning per metric kind. A warning is emitted
// only when the deviation persists for the configured minimum run of
// consecutive days; single-day spikes are suppressed to reduce false
// positives. Kinds whose baseline window is too small produce nothing
// rather than a warning built on an unreliable baseline.
func (d *anomalyDetector) Detect(dataset models.UnifiedDataset) []models.Warning {
	warnings := make([]models.Warning, 0)
	for _, kind := range dataset.Kinds() {
		if w, ok := d.detectKind(dataset.Get(kind)); ok {
			warnings = append(warnings, w)
		}
	}

	sort.Slice(warnings, func(i, j int) bool {
		if warnings[i].Severity != warnings[j].Severity {
			return warnings[i].Severity.AtLeast(warnings[j].Severity)
		}
		if warnings[i].RunLength != warnings[j].RunLength {
			return warnings[i].RunLength > warnings[j].RunLength
		}
		return warnings[i].Kind < warnings[j].Kind
	})
	return warnings
}

func (d *anomalyDetector) detectKind(series models.MetricSeries) (models.Warning, bool) {
	values := series.Values()
	n := len(values)
	exclude := d.cfg.BaselineExcludeDays

	// Baseline: trailing window ending before the most recent days being
	// evaluated, so the anomaly cannot contaminate its own reference.
	baseEnd := n - exclude
	baseStart := baseEnd - d.cfg.BaselineDays
	if baseStart < 0 {
		baseStart = 0
	}
	if baseEnd-baseStart < d.cfg.MinBaselineSamples {
		return models.Warning{}, false
	}
	baseline := values[baseStart:baseEnd]

	mean, err := stats.Mean(baseline)
	if err != nil {
		return models.Warning{}, false
	}
	sd, err := stats.StandardDeviation(baseline)
	if err != nil || sd == 0 {
		// Zero spread makes sigma deviation undefined; skip rather than
		// report every fluctuation as infinitely anomalous.
		return models.Warning{}, false
	}

	// Walk back from the most recent day counting the consecutive run of
	// same-direction deviations beyond mean +/- k*sigma.
	run := 0
	elevated := false
	sigmaSum := 0.0
	for i := n - 1; i >= 0; i-- {
		dev := (values[i] - mean) / sd
		if math.Abs(dev) <= d.cfg.SigmaThreshold {
			break
		}
		if run == 0 {
			elevated = dev > 0
		} else if (dev > 0) != elevated {
			break
		}
		run++
		sigmaSum += math.Abs(dev)
	}

	if run < d.cfg.MinAnomalyRun {
		return models.Warning{}, false
	}
	avgSigma := sigmaSum / float64(run)

	w := models.Warning{
		ID:             uuid.New().String(),
		Kind:           series.Kind,
		Severity:       d.severity(run, avgSigma),
		RunLength:      run,
		DeviationSigma: avgSigma,
		Elevated:       elevated,
	}
	w.Title = anomalyTitle(series.Kind, elevated)
	recent := values[n-run:]
	recentMean, _ := stats.Mean(recent)
	w.Message = fmt.Sprintf("Your %s has been %s for %d consecutive days (%.1f vs %.1f baseline)",
		kindLabel(series.Kind), deviationWord(elevated), run, recentMean, mean)
	w.Recommendation = anomalyRecommendation(series.Kind, elevated)
	return w, true
}

// severity escalates with run length and deviation magnitude.
func (d *anomalyDetector) severity(run int, avgSigma float64) models.Severity {
	k := d.cfg.SigmaThreshold
	switch {
	case run >= d.cfg.MinAnomalyRun+2 || avgSigma >= 1.5*k:
		return models.SeverityHigh
	case avgSigma < 1.25*k && run == d.cfg.MinAnomalyRun:
		return models.SeverityLow
	default:
		return models.SeverityMedium
	}
}

func anomalyTitle(kind models.MetricKind, elevated bool) string {
	switch kind {
	case models.MetricHeartRate:
		if elevated {
			return "Elevated Resting Heart Rate"
		}
		return "Unusually Low Resting Heart Rate"
	case models.MetricSleep:
		if elevated {
			return "Unusually Long Sleep"
		}
		return "Sleep Debt Accumulation"
	case models.MetricSteps:
		if elevated {
			return "Activity Spike"
		}
		return "Activity Drop"
	case models.MetricCalories:
		if elevated {
			return "Elevated Calorie Burn"
		}
		return "Reduced Calorie Burn"
	default:
		if elevated {
			return fmt.Sprintf("Elevated %s", kindLabel(kind))
		}
		return fmt.Sprintf("Deflated %s", kindLabel(kind))
	}
}

func anomalyRecommendation(kind models.MetricKind, elevated bool) string {
	switch kind {
	case models.MetricHeartRate:
		return "Consider rest and monitor symptoms; sustained elevation can signal stress or early illness"
	case models.MetricSleep:
		if elevated {
			return "Extra sleep can be recovery; check whether recent strain explains it"
		}
		return "Prioritize 7-8 hours nightly with an earlier, consistent bedtime"
	case models.MetricSteps:
		if elevated {
			return "Balance the extra load with adequate recovery"
		}
		return "Plan short walks to get movement back to your usual level"
	default:
		return "Keep an eye on this metric over the next few days"
	}
}

func deviationWord(elevated bool) string {
	if elevated {
		return "elevated"
	}
	return "below baseline"
}
