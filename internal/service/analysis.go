package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hygieia/backend/internal/config"
	"github.com/hygieia/backend/internal/logger"
	"github.com/hygieia/backend/internal/models"
)

// analysisService orchestrates the correlation, anomaly and prediction
// engines over one dataset snapshot, then derives recommendations from
// their combined output.
type analysisService struct {
	correlations *correlationEngine
	anomalies    *anomalyDetector
	predictions  *predictor
	recommender  *recommender
	log          logger.Logger
}

// NewAnalysisService wires the analysis engines with shared tunables.
func NewAnalysisService(cfg config.AnalysisConfig, log logger.Logger) AnalysisService {
	return &analysisService{
		correlations: newCorrelationEngine(cfg),
		anomalies:    newAnomalyDetector(cfg),
		predictions:  newPredictor(cfg),
		recommender:  newRecommender(cfg),
		log:          log,
	}
}

// Analyze validates every series, runs the three engines concurrently over
// the immutable dataset, then sequences the dependent steps: warnings are
// enriched with correlation context, and the recommender consumes all three
// outputs. A malformed series fails the whole pass; partial analysis over
// corrupt data is worse than no analysis.
func (s *analysisService) Analyze(ctx context.Context, dataset models.UnifiedDataset) (*models.AnalysisResult, error) {
	start := time.Now()

	for _, kind := range dataset.Kinds() {
		series := dataset.Get(kind)
		if err := series.Validate(); err != nil {
			return nil, fmt.Errorf("series %s: %w", kind, err)
		}
	}

	var (
		insights    []models.Insight
		warnings    []models.Warning
		predictions []models.Prediction
	)

	// The engines only read the dataset, so they can run in parallel.
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		insights = s.correlations.ComputeInsights(dataset)
		return nil
	})
	g.Go(func() error {
		warnings = s.anomalies.Detect(dataset)
		return nil
	})
	g.Go(func() error {
		predictions = s.predictions.Predict(dataset)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	warnings = withCorrelationContext(warnings, insights)
	recommendations := s.recommender.Recommend(dataset, insights, warnings, predictions)

	s.log.WithContext(ctx).Info("analysis completed",
		logger.String("user_id", dataset.UserID),
		logger.Int("insights", len(insights)),
		logger.Int("warnings", len(warnings)),
		logger.Int("recommendations", len(recommendations)),
		logger.Int("predictions", len(predictions)),
		logger.Duration("duration", time.Since(start)),
	)

	return &models.AnalysisResult{
		Insights:        insights,
		Warnings:        warnings,
		Recommendations: recommendations,
		Predictions:     predictions,
		ComputedAt:      time.Now().UTC(),
	}, nil
}

// withCorrelationContext appends a cross-reference to each warning whose
// metric kind appears in a correlation insight, so the reader sees why the
// deviation matters beyond the metric itself.
func withCorrelationContext(warnings []models.Warning, insights []models.Insight) []models.Warning {
	for i := range warnings {
		for _, in := range insights {
			var other models.MetricKind
			switch warnings[i].Kind {
			case in.KindA:
				other = in.KindB
			case in.KindB:
				other = in.KindA
			default:
				continue
			}
			warnings[i].Message = fmt.Sprintf("%s. This metric has previously correlated with your %s",
				warnings[i].Message, kindLabel(other))
			break
		}
	}
	return warnings
}
