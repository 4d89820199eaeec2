package ml

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/hygieia/backend/internal/models"
)

// FitScaler computes per-column standardization parameters over a feature
// matrix. Columns with zero spread get a unit stddev so transforming them
// is a no-op shift.
func FitScaler(X [][]float64) (models.ScalerParams, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return models.ScalerParams{}, fmt.Errorf("cannot fit scaler on empty matrix")
	}
	cols := len(X[0])
	params := models.ScalerParams{
		Means:   make([]float64, cols),
		Stddevs: make([]float64, cols),
	}
	for j := 0; j < cols; j++ {
		col := make([]float64, len(X))
		for i := range X {
			col[i] = X[i][j]
		}
		mean, err := stats.Mean(col)
		if err != nil {
			return models.ScalerParams{}, fmt.Errorf("scaler mean for column %d: %w", j, err)
		}
		sd, err := stats.StandardDeviation(col)
		if err != nil {
			return models.ScalerParams{}, fmt.Errorf("scaler stddev for column %d: %w", j, err)
		}
		if sd == 0 {
			sd = 1
		}
		params.Means[j] = mean
		params.Stddevs[j] = sd
	}
	return params, nil
}

// TransformMatrix standardizes every row of X in a new matrix.
func TransformMatrix(X [][]float64, params models.ScalerParams) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = TransformRow(row, params)
	}
	return out
}

// TransformRow standardizes one feature vector.
func TransformRow(row []float64, params models.ScalerParams) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		if j < len(params.Means) {
			out[j] = (v - params.Means[j]) / params.Stddevs[j]
		} else {
			out[j] = v
		}
	}
	return out
}
