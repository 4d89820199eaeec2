package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hygieia/backend/internal/models"
)

// LinearModel is ordinary least squares with an intercept term.
type LinearModel struct {
	Intercept float64   `json:"intercept"`
	Coef      []float64 `json:"coef"`
}

// NewLinearModel returns an unfitted OLS model.
func NewLinearModel() *LinearModel {
	return &LinearModel{}
}

func (m *LinearModel) Type() models.ModelType { return models.ModelLinear }

// Fit solves the least-squares problem over the design matrix with a
// prepended bias column.
func (m *LinearModel) Fit(X [][]float64, y []float64) error {
	rows, cols, err := checkShape(X, y)
	if err != nil {
		return err
	}

	a := designMatrix(X, rows, cols)
	b := mat.NewVecDense(rows, append([]float64(nil), y...))

	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		return fmt.Errorf("least squares solve failed: %w", err)
	}

	m.Intercept = beta.AtVec(0)
	m.Coef = make([]float64, cols)
	for j := 0; j < cols; j++ {
		m.Coef[j] = beta.AtVec(j + 1)
	}
	return nil
}

func (m *LinearModel) Predict(x []float64) float64 {
	pred := m.Intercept
	for j, c := range m.Coef {
		if j < len(x) {
			pred += c * x[j]
		}
	}
	return pred
}

// RidgeModel is L2-regularized least squares. The intercept is not
// penalized.
type RidgeModel struct {
	Alpha     float64   `json:"alpha"`
	Intercept float64   `json:"intercept"`
	Coef      []float64 `json:"coef"`
}

// NewRidgeModel returns an unfitted ridge model with penalty alpha.
func NewRidgeModel(alpha float64) *RidgeModel {
	return &RidgeModel{Alpha: alpha}
}

func (m *RidgeModel) Type() models.ModelType { return models.ModelRidge }

// Fit solves the regularized normal equations (AᵀA + αI)β = Aᵀy, with the
// penalty zeroed on the bias term.
func (m *RidgeModel) Fit(X [][]float64, y []float64) error {
	rows, cols, err := checkShape(X, y)
	if err != nil {
		return err
	}

	a := designMatrix(X, rows, cols)
	b := mat.NewVecDense(rows, append([]float64(nil), y...))

	p := cols + 1
	var ata mat.Dense
	ata.Mul(a.T(), a)
	for j := 1; j < p; j++ {
		ata.Set(j, j, ata.At(j, j)+m.Alpha)
	}

	var atb mat.VecDense
	atb.MulVec(a.T(), b)

	var beta mat.VecDense
	if err := beta.SolveVec(&ata, &atb); err != nil {
		return fmt.Errorf("ridge solve failed: %w", err)
	}

	m.Intercept = beta.AtVec(0)
	m.Coef = make([]float64, cols)
	for j := 0; j < cols; j++ {
		m.Coef[j] = beta.AtVec(j + 1)
	}
	return nil
}

func (m *RidgeModel) Predict(x []float64) float64 {
	pred := m.Intercept
	for j, c := range m.Coef {
		if j < len(x) {
			pred += c * x[j]
		}
	}
	return pred
}

// designMatrix builds the rows×(cols+1) matrix with a leading bias column.
func designMatrix(X [][]float64, rows, cols int) *mat.Dense {
	a := mat.NewDense(rows, cols+1, nil)
	for i := 0; i < rows; i++ {
		a.Set(i, 0, 1)
		for j := 0; j < cols; j++ {
			a.Set(i, j+1, X[i][j])
		}
	}
	return a
}

func checkShape(X [][]float64, y []float64) (rows, cols int, err error) {
	rows = len(X)
	if rows == 0 || rows != len(y) {
		return 0, 0, fmt.Errorf("feature matrix has %d rows, labels have %d", rows, len(y))
	}
	cols = len(X[0])
	if cols == 0 {
		return 0, 0, fmt.Errorf("feature matrix has no columns")
	}
	for i := range X {
		if len(X[i]) != cols {
			return 0, 0, fmt.Errorf("ragged feature matrix at row %d", i)
		}
	}
	return rows, cols, nil
}
