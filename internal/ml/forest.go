package ml

import (
	"math"
	"math/rand"
	"sort"

	"github.com/hygieia/backend/internal/models"
)

// ForestModel is a small random-forest regressor: bagged variance-reduction
// trees with bounded depth. It is the flexible counterpart to the linear
// variants; with the handful of features a personal dataset has, every tree
// considers all features at each split.
type ForestModel struct {
	NumTrees int         `json:"num_trees"`
	MaxDepth int         `json:"max_depth"`
	MinLeaf  int         `json:"min_leaf"`
	Seed     int64       `json:"seed"`
	Trees    []*TreeNode `json:"trees"`
}

// TreeNode is one node of a regression tree. Exported fields keep the
// fitted forest JSON-serializable for the model store.
type TreeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

// NewForestModel returns an unfitted forest. The seed makes training
// reproducible for a given dataset.
func NewForestModel(numTrees, maxDepth int, seed int64) *ForestModel {
	return &ForestModel{
		NumTrees: numTrees,
		MaxDepth: maxDepth,
		MinLeaf:  2,
		Seed:     seed,
	}
}

func (m *ForestModel) Type() models.ModelType { return models.ModelTreeEnsemble }

// Fit grows NumTrees trees on bootstrap resamples of the training set.
func (m *ForestModel) Fit(X [][]float64, y []float64) error {
	if _, _, err := checkShape(X, y); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(m.Seed))
	n := len(X)
	m.Trees = make([]*TreeNode, 0, m.NumTrees)

	for t := 0; t < m.NumTrees; t++ {
		sampleX := make([][]float64, n)
		sampleY := make([]float64, n)
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			sampleX[i] = X[j]
			sampleY[i] = y[j]
		}
		m.Trees = append(m.Trees, m.growTree(sampleX, sampleY, 0))
	}
	return nil
}

// Predict averages the per-tree predictions.
func (m *ForestModel) Predict(x []float64) float64 {
	if len(m.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, tree := range m.Trees {
		sum += tree.predict(x)
	}
	return sum / float64(len(m.Trees))
}

func (n *TreeNode) predict(x []float64) float64 {
	for !n.Leaf {
		if n.Feature < len(x) && x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func (m *ForestModel) growTree(X [][]float64, y []float64, depth int) *TreeNode {
	if depth >= m.MaxDepth || len(y) < 2*m.MinLeaf || constant(y) {
		return &TreeNode{Leaf: true, Value: meanOf(y)}
	}

	feature, threshold, ok := m.bestSplit(X, y)
	if !ok {
		return &TreeNode{Leaf: true, Value: meanOf(y)}
	}

	var leftX, rightX [][]float64
	var leftY, rightY []float64
	for i := range X {
		if X[i][feature] <= threshold {
			leftX = append(leftX, X[i])
			leftY = append(leftY, y[i])
		} else {
			rightX = append(rightX, X[i])
			rightY = append(rightY, y[i])
		}
	}
	if len(leftY) < m.MinLeaf || len(rightY) < m.MinLeaf {
		return &TreeNode{Leaf: true, Value: meanOf(y)}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      m.growTree(leftX, leftY, depth+1),
		Right:     m.growTree(rightX, rightY, depth+1),
	}
}

// bestSplit scans every feature and every midpoint between adjacent
// observed values, keeping the split that minimizes weighted child
// variance.
func (m *ForestModel) bestSplit(X [][]float64, y []float64) (feature int, threshold float64, ok bool) {
	bestScore := math.Inf(1)
	cols := len(X[0])

	for f := 0; f < cols; f++ {
		values := make([]float64, len(X))
		for i := range X {
			values[i] = X[i][f]
		}
		for _, thr := range candidateThresholds(values) {
			var leftY, rightY []float64
			for i := range X {
				if X[i][f] <= thr {
					leftY = append(leftY, y[i])
				} else {
					rightY = append(rightY, y[i])
				}
			}
			if len(leftY) < m.MinLeaf || len(rightY) < m.MinLeaf {
				continue
			}
			score := float64(len(leftY))*varianceOf(leftY) + float64(len(rightY))*varianceOf(rightY)
			if score < bestScore {
				bestScore = score
				feature = f
				threshold = thr
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func candidateThresholds(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var out []float64
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			out = append(out, (sorted[i]+sorted[i-1])/2)
		}
	}
	return out
}

func meanOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func varianceOf(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	mean := meanOf(v)
	sum := 0.0
	for _, x := range v {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(v))
}

func constant(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] != v[0] {
			return false
		}
	}
	return true
}
