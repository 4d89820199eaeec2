package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hygieia/backend/internal/config"
	"github.com/hygieia/backend/internal/logger"
	"github.com/hygieia/backend/internal/models"
)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		MinSamplesForCorrelation: 5,
		TopInsights:              8,
		BaselineDays:             30,
		BaselineExcludeDays:      3,
		MinBaselineSamples:       7,
		SigmaThreshold:           2.0,
		MinAnomalyRun:            3,
		MinHistoryForPrediction:  7,
		TrendWindowDays:          14,
		TrendDeadband:            0.01,
		StrongCorrelation:        0.5,
	}
}

func testTrainingConfig() config.TrainingConfig {
	return config.TrainingConfig{
		MinAlignedRows: 10,
		ValidationFrac: 0.2,
		ForestTrees:    10,
		ForestDepth:    3,
		RidgeAlpha:     1.0,
		Seed:           42,
	}
}

// day returns the canonical date string i days after Jan 1 2025.
func day(i int) string {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.DayKey(base.AddDate(0, 0, i))
}

// seriesOf builds a daily series from consecutive values starting Jan 1 2025.
func seriesOf(kind models.MetricKind, values []float64) models.MetricSeries {
	points := make([]models.MetricPoint, len(values))
	for i, v := range values {
		points[i] = models.MetricPoint{Date: day(i), Value: v}
	}
	return models.MetricSeries{Kind: kind, Points: points}
}

func datasetOf(series ...models.MetricSeries) models.UnifiedDataset {
	d := models.UnifiedDataset{
		UserID: "user-1",
		Series: make(map[models.MetricKind]models.MetricSeries, len(series)),
	}
	for _, s := range series {
		d.Series[s.Kind] = s
	}
	return d
}

// mockReadingRepo is an in-memory ReadingRepository for service tests.
type mockReadingRepo struct {
	mu       sync.Mutex
	readings map[string][]models.MetricReading
}

func newMockReadingRepo() *mockReadingRepo {
	return &mockReadingRepo{readings: make(map[string][]models.MetricReading)}
}

func (m *mockReadingRepo) SaveReadings(ctx context.Context, userID string, readings []models.MetricReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings[userID] = append(m.readings[userID], readings...)
	return nil
}

func (m *mockReadingRepo) GetReadings(ctx context.Context, userID string) ([]models.MetricReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.MetricReading(nil), m.readings[userID]...), nil
}

func (m *mockReadingRepo) GetReadingsByKind(ctx context.Context, userID string, kind models.MetricKind) ([]models.MetricReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MetricReading
	for _, rd := range m.readings[userID] {
		if rd.Kind == kind {
			out = append(out, rd)
		}
	}
	return out, nil
}

// mockModelRepo is an in-memory ModelRepository for service tests.
// saveHook, when set, runs inside Save and can be used to block a training
// run at a known point.
type mockModelRepo struct {
	mu       sync.Mutex
	models   map[string]*models.TrainedModel
	saveHook func()
}

func newMockModelRepo() *mockModelRepo {
	return &mockModelRepo{models: make(map[string]*models.TrainedModel)}
}

func modelSlot(userID string, target models.MetricKind) string {
	return fmt.Sprintf("%s/%s", userID, target)
}

func (m *mockModelRepo) Save(ctx context.Context, model *models.TrainedModel) error {
	if m.saveHook != nil {
		m.saveHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models[modelSlot(model.UserID, model.Target)] = model
	return nil
}

func (m *mockModelRepo) Load(ctx context.Context, userID string, target models.MetricKind) (*models.TrainedModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.models[modelSlot(userID, target)], nil
}

func (m *mockModelRepo) ListTargets(ctx context.Context, userID string) ([]models.MetricKind, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var targets []models.MetricKind
	for _, model := range m.models {
		if model.UserID == userID {
			targets = append(targets, model.Target)
		}
	}
	return targets, nil
}

func (m *mockModelRepo) Delete(ctx context.Context, userID string, target models.MetricKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.models, modelSlot(userID, target))
	return nil
}

func testLogger() logger.Logger {
	return logger.NewSlogLogger(logger.Config{Level: logger.LevelError, Format: "text"})
}
