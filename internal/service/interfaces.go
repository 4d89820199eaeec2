package service

import (
	"context"

	"github.com/hygieia/backend/internal/models"
)

// DataUnifier merges per-source raw readings into one canonical series per
// metric kind.
type DataUnifier interface {
	Unify(ctx context.Context, userID string, readings []models.MetricReading) (models.UnifiedDataset, error)
}

// AnalysisService runs the correlation, anomaly and prediction engines over
// an immutable dataset snapshot and derives recommendations.
type AnalysisService interface {
	Analyze(ctx context.Context, dataset models.UnifiedDataset) (*models.AnalysisResult, error)
}

// StoryService chains analysis output into a short causal narrative.
type StoryService interface {
	BuildStory(ctx context.Context, dataset models.UnifiedDataset, analysis *models.AnalysisResult) models.HealthStory
}

// TrainingService fits per-user regression models and persists the best
// candidate per target metric.
type TrainingService interface {
	Train(ctx context.Context, dataset models.UnifiedDataset) (*models.TrainingResult, error)
}

// ChatService answers free-text questions from trained models, falling back
// to rule-based insight generation.
type ChatService interface {
	Ask(ctx context.Context, userID, question string) (models.ChatAnswer, error)
}
