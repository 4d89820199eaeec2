// Package ml implements the small closed set of per-user regressors the
// model trainer chooses between. Each variant satisfies the same
// fit/predict contract; selection is by validation R², not inheritance.
package ml

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/hygieia/backend/internal/models"
)

// Regressor is the uniform contract all model variants implement.
type Regressor interface {
	// Fit trains the model on a feature matrix (rows = samples) and labels.
	Fit(X [][]float64, y []float64) error
	// Predict evaluates the fitted model on one feature vector.
	Predict(x []float64) float64
	// Type tags the variant for persistence.
	Type() models.ModelType
}

// Score returns the R² of reg's predictions against y. Can be negative when
// the model underperforms the mean predictor.
func Score(reg Regressor, X [][]float64, y []float64) float64 {
	estimates := make([]float64, len(y))
	for i, row := range X {
		estimates[i] = reg.Predict(row)
	}
	return stat.RSquaredFrom(estimates, y, nil)
}

// Marshal serializes a fitted regressor's parameters.
func Marshal(reg Regressor) ([]byte, error) {
	return json.Marshal(reg)
}

// Unmarshal reconstructs a fitted regressor from its persisted type tag and
// parameters.
func Unmarshal(modelType models.ModelType, params []byte) (Regressor, error) {
	switch modelType {
	case models.ModelLinear:
		var m LinearModel
		if err := json.Unmarshal(params, &m); err != nil {
			return nil, fmt.Errorf("failed to decode linear model: %w", err)
		}
		return &m, nil
	case models.ModelRidge:
		var m RidgeModel
		if err := json.Unmarshal(params, &m); err != nil {
			return nil, fmt.Errorf("failed to decode ridge model: %w", err)
		}
		return &m, nil
	case models.ModelTreeEnsemble:
		var m ForestModel
		if err := json.Unmarshal(params, &m); err != nil {
			return nil, fmt.Errorf("failed to decode forest model: %w", err)
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("unknown model type %q", modelType)
	}
}
