package service

import (
	"testing"

	"github.com/hygieia/backend/internal/models"
)

func TestPredictImprovingSleep(t *testing.T) {
	p := newPredictor(testAnalysisConfig())

	// Steadily climbing sleep over ten days.
	sleep := seriesOf(models.MetricSleep, []float64{6.0, 6.2, 6.4, 6.6, 6.8, 7.0, 7.2, 7.4, 7.6, 7.8})
	predictions := p.Predict(datasetOf(sleep))

	if len(predictions) != 1 {
		t.Fatalf("Expected 1 prediction, got %d", len(predictions))
	}
	pred := predictions[0]
	if pred.Trend != models.TrendImproving {
		t.Errorf("Expected improving trend, got %s", pred.Trend)
	}
	if pred.Slope <= 0 {
		t.Errorf("Expected positive slope, got %f", pred.Slope)
	}
	if pred.Confidence <= 0 || pred.Confidence > 1 {
		t.Errorf("Confidence out of range: %f", pred.Confidence)
	}
}

func TestPredictDecliningHeartRateIsImproving(t *testing.T) {
	p := newPredictor(testAnalysisConfig())

	// Falling resting heart rate is a good sign.
	hr := seriesOf(models.MetricHeartRate, []float64{68, 67, 66, 65, 64, 63, 62, 61})
	predictions := p.Predict(datasetOf(hr))

	if len(predictions) != 1 {
		t.Fatalf("Expected 1 prediction, got %d", len(predictions))
	}
	if predictions[0].Trend != models.TrendImproving {
		t.Errorf("Expected falling heart rate to classify as improving, got %s", predictions[0].Trend)
	}
}

func TestPredictRisingHeartRateIsDeclining(t *testing.T) {
	p := newPredictor(testAnalysisConfig())

	hr := seriesOf(models.MetricHeartRate, []float64{60, 61, 62, 63, 64, 65, 66, 67})
	predictions := p.Predict(datasetOf(hr))

	if len(predictions) != 1 {
		t.Fatalf("Expected 1 prediction, got %d", len(predictions))
	}
	if predictions[0].Trend != models.TrendDeclining {
		t.Errorf("Expected rising heart rate to classify as declining, got %s", predictions[0].Trend)
	}
}

func TestPredictStableWithinDeadband(t *testing.T) {
	p := newPredictor(testAnalysisConfig())

	// Tiny wobble around 7.5 hours; relative slope below the dead-band.
	sleep := seriesOf(models.MetricSleep, []float64{7.5, 7.52, 7.49, 7.51, 7.5, 7.48, 7.51, 7.5})
	predictions := p.Predict(datasetOf(sleep))

	if len(predictions) != 1 {
		t.Fatalf("Expected 1 prediction, got %d", len(predictions))
	}
	if predictions[0].Trend != models.TrendStable {
		t.Errorf("Expected stable trend, got %s", predictions[0].Trend)
	}
}

func TestPredictRequiresMinimumHistory(t *testing.T) {
	p := newPredictor(testAnalysisConfig())

	// Six days of history; the minimum is seven.
	sleep := seriesOf(models.MetricSleep, []float64{6, 6.5, 7, 7.5, 8, 8.5})
	predictions := p.Predict(datasetOf(sleep))

	if len(predictions) != 0 {
		t.Errorf("Expected no prediction below the history minimum, got %d", len(predictions))
	}
}

func TestHorizonGrowsWithHistory(t *testing.T) {
	if got := horizonFor(7); got != models.TimeframeNext3Days {
		t.Errorf("Expected 3-day horizon for a week of history, got %s", got)
	}
	if got := horizonFor(14); got != models.TimeframeNext7Days {
		t.Errorf("Expected 7-day horizon for two weeks, got %s", got)
	}
	if got := horizonFor(30); got != models.TimeframeNext14Days {
		t.Errorf("Expected 14-day horizon for a month, got %s", got)
	}
}

func TestPredictConfidenceFallsWithVolatility(t *testing.T) {
	p := newPredictor(testAnalysisConfig())

	steady := seriesOf(models.MetricSteps, []float64{9000, 9100, 9200, 9300, 9400, 9500, 9600, 9700})
	volatile := seriesOf(models.MetricSteps, []float64{3000, 15000, 4000, 14000, 5000, 16000, 2000, 17000})

	steadyPred := p.Predict(datasetOf(steady))
	volatilePred := p.Predict(datasetOf(volatile))
	if len(steadyPred) != 1 || len(volatilePred) != 1 {
		t.Fatal("Expected one prediction each")
	}
	if steadyPred[0].Confidence <= volatilePred[0].Confidence {
		t.Errorf("Expected steadier series to yield higher confidence: %f vs %f",
			steadyPred[0].Confidence, volatilePred[0].Confidence)
	}
}
