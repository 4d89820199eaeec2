package models

import "time"

// ModelType tags which regressor variant a trained model holds.
type ModelType string

const (
	ModelLinear       ModelType = "linear"
	ModelRidge        ModelType = "ridge"
	ModelTreeEnsemble ModelType = "forest"
)

// ScalerParams holds per-feature standardization parameters fitted on the
// training split. Applied to candidate inputs at inference time.
type ScalerParams struct {
	Means   []float64 `json:"means"`
	Stddevs []float64 `json:"stddevs"`
}

// TrainedModel is the persisted record for one (user, target metric) slot.
// Overwritten atomically on retraining; a reader never observes a partial
// write.
type TrainedModel struct {
	UserID       string       `json:"user_id"`
	Target       MetricKind   `json:"target"`
	ModelType    ModelType    `json:"model_type"`
	Features     []MetricKind `json:"features"` // column order of the feature matrix
	Params       []byte       `json:"params"`   // model-type-specific fitted parameters (JSON)
	Scaler       ScalerParams `json:"scaler"`
	Score        float64      `json:"score"` // validation R²
	TrainingRows int          `json:"training_rows"`
	TrainedAt    time.Time    `json:"trained_at"`
}

// TrainingResult reports the outcome of one training run.
type TrainingResult struct {
	Trained        bool                   `json:"trained"`
	DataPoints     int                    `json:"data_points"`
	TargetsTrained []MetricKind           `json:"targets_trained"`
	Performance    map[MetricKind]float64 `json:"performance"` // target -> validation R²
}

// ChatAnswer is the inference engine's reply. Confidence 0 is a valid,
// surfaced outcome meaning no evidence.
type ChatAnswer struct {
	Response   string  `json:"response"`
	Confidence float64 `json:"confidence"`
	ModelBased bool    `json:"model_based"`
}

// ChatRequest is the free-text question payload.
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}
