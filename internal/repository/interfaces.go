package repository

import (
	"context"

	"github.com/hygieia/backend/internal/models"
)

// ReadingRepository defines the interface for raw metric reading access.
// Readings are per-source, per-day values; unification happens above this
// layer.
type ReadingRepository interface {
	SaveReadings(ctx context.Context, userID string, readings []models.MetricReading) error
	GetReadings(ctx context.Context, userID string) ([]models.MetricReading, error)
	GetReadingsByKind(ctx context.Context, userID string, kind models.MetricKind) ([]models.MetricReading, error)
}

// ModelRepository defines the interface for trained-model persistence.
// Each (user, target metric) slot holds at most one model; Save replaces
// the slot atomically, so a concurrent Load never observes a partial write.
type ModelRepository interface {
	Save(ctx context.Context, model *models.TrainedModel) error
	// Load returns (nil, nil) when no model exists for the slot.
	Load(ctx context.Context, userID string, target models.MetricKind) (*models.TrainedModel, error)
	ListTargets(ctx context.Context, userID string) ([]models.MetricKind, error)
	Delete(ctx context.Context, userID string, target models.MetricKind) error
}
