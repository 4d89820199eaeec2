package ml

import "math/rand"

// Split holds a train/validation partition of a dataset.
type Split struct {
	TrainX [][]float64
	TrainY []float64
	ValX   [][]float64
	ValY   []float64
}

// TrainValidationSplit shuffles the rows with the given seed and holds out
// validationFrac of them. When the dataset is too small to hold anything
// out, validation falls back to the training rows, mirroring the behavior
// of small-sample training in the rest of the pipeline.
func TrainValidationSplit(X [][]float64, y []float64, validationFrac float64, seed int64) Split {
	n := len(X)
	holdout := int(float64(n) * validationFrac)
	if holdout < 1 || n-holdout < 2 {
		return Split{TrainX: X, TrainY: y, ValX: X, ValY: y}
	}

	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(n)

	split := Split{
		TrainX: make([][]float64, 0, n-holdout),
		TrainY: make([]float64, 0, n-holdout),
		ValX:   make([][]float64, 0, holdout),
		ValY:   make([]float64, 0, holdout),
	}
	for i, j := range idx {
		if i < holdout {
			split.ValX = append(split.ValX, X[j])
			split.ValY = append(split.ValY, y[j])
		} else {
			split.TrainX = append(split.TrainX, X[j])
			split.TrainY = append(split.TrainY, y[j])
		}
	}
	return split
}
