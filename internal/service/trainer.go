package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hygieia/backend/internal/config"
	"github.com/hygieia/backend/internal/logger"
	"github.com/hygieia/backend/internal/ml"
	"github.com/hygieia/backend/internal/models"
	"github.com/hygieia/backend/internal/repository"
)

// trainingService fits the regressor variants per target metric and keeps
// the best scorer. One training run per user at a time; a second request
// while one is running is rejected, not queued.
type trainingService struct {
	modelRepo repository.ModelRepository
	cfg       config.TrainingConfig
	log       logger.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewTrainingService creates the per-user model trainer.
func NewTrainingService(modelRepo repository.ModelRepository, cfg config.TrainingConfig, log logger.Logger) TrainingService {
	return &trainingService{
		modelRepo: modelRepo,
		cfg:       cfg,
		log:       log,
		inflight:  make(map[string]struct{}),
	}
}

// alignedRows is the dataset inner-joined on dates shared by every metric
// kind, in chronological order. Column order follows kinds.
type alignedRows struct {
	kinds []models.MetricKind
	rows  [][]float64 // one row per shared date, one column per kind
}

// Train aligns the dataset, then for each target metric fits every model
// variant on the remaining kinds as features and persists the one with the
// best validation R². Too little aligned data is a reported outcome with
// Trained false, not an error; only infrastructure failures return errors.
func (s *trainingService) Train(ctx context.Context, dataset models.UnifiedDataset) (*models.TrainingResult, error) {
	if err := s.acquire(dataset.UserID); err != nil {
		return nil, err
	}
	defer s.release(dataset.UserID)

	start := time.Now()
	log := s.log.WithContext(ctx).With(logger.String("user_id", dataset.UserID))

	aligned := alignDataset(dataset)
	if len(aligned.kinds) < 2 || len(aligned.rows) < s.cfg.MinAlignedRows {
		log.Info("training skipped, not enough aligned data",
			logger.Int("aligned_rows", len(aligned.rows)),
			logger.Int("kinds", len(aligned.kinds)),
		)
		return &models.TrainingResult{
			Trained:     false,
			DataPoints:  len(aligned.rows),
			Performance: map[models.MetricKind]float64{},
		}, nil
	}

	result := &models.TrainingResult{
		Trained:     true,
		DataPoints:  len(aligned.rows),
		Performance: make(map[models.MetricKind]float64, len(aligned.kinds)),
	}

	for ti, target := range aligned.kinds {
		features, X, y := aligned.carveTarget(ti)

		model, err := s.fitBest(target, features, X, y)
		if err != nil {
			return nil, fmt.Errorf("training target %s: %w", target, err)
		}
		model.UserID = dataset.UserID

		if err := s.modelRepo.Save(ctx, model); err != nil {
			return nil, fmt.Errorf("persisting model for %s: %w", target, err)
		}

		result.TargetsTrained = append(result.TargetsTrained, target)
		result.Performance[target] = model.Score
		log.Info("model trained",
			logger.String("target", string(target)),
			logger.String("model_type", string(model.ModelType)),
			logger.Float64("score", model.Score),
		)
	}

	log.Info("training completed",
		logger.Int("targets", len(result.TargetsTrained)),
		logger.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// fitBest fits every variant and keeps the highest validation R². The
// scaler is fitted on all rows before splitting, matching how inference
// standardizes candidate inputs.
func (s *trainingService) fitBest(target models.MetricKind, features []models.MetricKind, X [][]float64, y []float64) (*models.TrainedModel, error) {
	scaler, err := ml.FitScaler(X)
	if err != nil {
		return nil, err
	}
	scaled := ml.TransformMatrix(X, scaler)
	split := ml.TrainValidationSplit(scaled, y, s.cfg.ValidationFrac, s.cfg.Seed)

	candidates := []ml.Regressor{
		ml.NewLinearModel(),
		ml.NewRidgeModel(s.cfg.RidgeAlpha),
		ml.NewForestModel(s.cfg.ForestTrees, s.cfg.ForestDepth, s.cfg.Seed),
	}

	var best ml.Regressor
	bestScore := 0.0
	for _, cand := range candidates {
		if err := cand.Fit(split.TrainX, split.TrainY); err != nil {
			// A singular linear solve on degenerate data should not sink
			// the variants that can still fit.
			continue
		}
		score := ml.Score(cand, split.ValX, split.ValY)
		if best == nil || score > bestScore {
			best = cand
			bestScore = score
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no model variant could be fitted")
	}

	params, err := ml.Marshal(best)
	if err != nil {
		return nil, fmt.Errorf("serializing %s model: %w", best.Type(), err)
	}

	return &models.TrainedModel{
		Target:       target,
		ModelType:    best.Type(),
		Features:     features,
		Params:       params,
		Scaler:       scaler,
		Score:        bestScore,
		TrainingRows: len(split.TrainY),
		TrainedAt:    time.Now().UTC(),
	}, nil
}

// acquire marks a user's training run as in flight, rejecting overlap.
func (s *trainingService) acquire(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[userID]; busy {
		return &models.TrainingInProgressError{UserID: userID}
	}
	s.inflight[userID] = struct{}{}
	return nil
}

func (s *trainingService) release(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, userID)
}

// alignDataset inner-joins every series on their shared dates. Kinds and
// dates are sorted so the matrix layout is deterministic.
func alignDataset(dataset models.UnifiedDataset) alignedRows {
	kinds := dataset.Kinds()
	if len(kinds) == 0 {
		return alignedRows{}
	}

	byKind := make(map[models.MetricKind]map[string]float64, len(kinds))
	for _, kind := range kinds {
		byKind[kind] = dataset.Get(kind).ByDate()
	}

	var shared []string
	for date := range byKind[kinds[0]] {
		onAll := true
		for _, kind := range kinds[1:] {
			if _, ok := byKind[kind][date]; !ok {
				onAll = false
				break
			}
		}
		if onAll {
			shared = append(shared, date)
		}
	}
	sort.Strings(shared)

	rows := make([][]float64, len(shared))
	for i, date := range shared {
		row := make([]float64, len(kinds))
		for j, kind := range kinds {
			row[j] = byKind[kind][date]
		}
		rows[i] = row
	}
	return alignedRows{kinds: kinds, rows: rows}
}

// carveTarget splits the aligned matrix into the target column as labels
// and the remaining columns as features, preserving kind order.
func (a alignedRows) carveTarget(targetIdx int) (features []models.MetricKind, X [][]float64, y []float64) {
	features = make([]models.MetricKind, 0, len(a.kinds)-1)
	for j, kind := range a.kinds {
		if j != targetIdx {
			features = append(features, kind)
		}
	}

	X = make([][]float64, len(a.rows))
	y = make([]float64, len(a.rows))
	for i, row := range a.rows {
		feat := make([]float64, 0, len(row)-1)
		for j, v := range row {
			if j == targetIdx {
				y[i] = v
			} else {
				feat = append(feat, v)
			}
		}
		X[i] = feat
	}
	return features, X, y
}
