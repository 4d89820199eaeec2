package service

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/hygieia/backend/internal/config"
	"github.com/hygieia/backend/internal/models"
)

// predictor produces short-horizon trend forecasts per metric kind.
type predictor struct {
	cfg config.AnalysisConfig
}

func newPredictor(cfg config.AnalysisConfig) *predictor {
	return &predictor{cfg: cfg}
}

// Predict emits one prediction per metric kind with sufficient history.
// Confidence falls as the trailing-window variability rises; the horizon
// tag grows with the amount of history backing the trend.
func (p *predictor) Predict(dataset models.UnifiedDataset) []models.Prediction {
	predictions := make([]models.Prediction, 0)
	for _, kind := range dataset.Kinds() {
		if pred, ok := p.predictKind(dataset.Get(kind)); ok {
			predictions = append(predictions, pred)
		}
	}
	return predictions
}

func (p *predictor) predictKind(series models.MetricSeries) (models.Prediction, bool) {
	values := series.Values()
	if len(values) < p.cfg.MinHistoryForPrediction {
		return models.Prediction{}, false
	}

	window := values
	if len(window) > p.cfg.TrendWindowDays {
		window = window[len(window)-p.cfg.TrendWindowDays:]
	}

	xs := make([]float64, len(window))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, window, nil, false)

	mean, err := stats.Mean(window)
	if err != nil || mean == 0 {
		return models.Prediction{}, false
	}
	sd, err := stats.StandardDeviation(window)
	if err != nil {
		return models.Prediction{}, false
	}
	cv := sd / math.Abs(mean)

	trend := p.classify(series.Kind, slope, mean)

	pred := models.Prediction{
		Kind:  series.Kind,
		Trend: trend,
		Slope: slope,
		// Lower variability means a steadier trend and a higher-confidence
		// forecast. Heuristic shape, capped at 1.
		Confidence: clamp01(1 / (1 + cv)),
		Timeframe:  horizonFor(len(values)),
	}
	pred.Title = predictionTitle(series.Kind)
	pred.Prediction, pred.Impact, pred.Prevention = predictionText(series.Kind, trend, slope, mean)
	return pred, true
}

// classify compares the relative per-day slope against the dead-band.
// Whether a rising value is an improvement depends on the kind: a falling
// resting heart rate is good news.
func (p *predictor) classify(kind models.MetricKind, slope, mean float64) models.Trend {
	relative := slope / math.Abs(mean)
	if math.Abs(relative) < p.cfg.TrendDeadband {
		return models.TrendStable
	}
	rising := slope > 0
	if rising == improvesWhenHigher(kind) {
		return models.TrendImproving
	}
	return models.TrendDeclining
}

func improvesWhenHigher(kind models.MetricKind) bool {
	return kind != models.MetricHeartRate
}

// horizonFor picks the forecast window the history can support.
func horizonFor(historyLen int) models.Timeframe {
	switch {
	case historyLen >= 28:
		return models.TimeframeNext14Days
	case historyLen >= 14:
		return models.TimeframeNext7Days
	default:
		return models.TimeframeNext3Days
	}
}

func predictionTitle(kind models.MetricKind) string {
	switch kind {
	case models.MetricSleep:
		return "Sleep Quality Forecast"
	case models.MetricSteps:
		return "Activity Performance Window"
	case models.MetricHeartRate:
		return "Recovery Trajectory"
	case models.MetricCalories:
		return "Energy Expenditure Outlook"
	default:
		return fmt.Sprintf("%s Forecast", kindLabel(kind))
	}
}

func predictionText(kind models.MetricKind, trend models.Trend, slope, mean float64) (prediction, impact, prevention string) {
	label := kindLabel(kind)
	pctPerDay := math.Abs(slope/mean) * 100

	switch trend {
	case models.TrendImproving:
		prediction = fmt.Sprintf("Your %s is trending in the right direction (about %.1f%% per day); expect the improvement to continue", label, pctPerDay)
		impact = "Sustained energy levels and better day-to-day performance"
		prevention = "Maintain your current habits; they are working"
	case models.TrendDeclining:
		prediction = fmt.Sprintf("Your %s is trending the wrong way (about %.1f%% per day); without a change the slide is likely to continue", label, pctPerDay)
		impact = "Risk of reduced performance and slower recovery"
		prevention = fmt.Sprintf("Prioritize recovery and watch your %s over the coming days", label)
	default:
		prediction = fmt.Sprintf("Your %s is holding steady around %.1f", label, mean)
		impact = "Stable baseline for the days ahead"
		prevention = "No change needed; keep your routine consistent"
	}
	return prediction, impact, prevention
}
