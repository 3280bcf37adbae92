package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RBFRegressor scores the RBF-network artifact: inputs are standardized,
// a Gaussian kernel row is computed against every fitted center, and the
// prediction is the weighted kernel sum plus bias. All state is read-only
// after construction.
type RBFRegressor struct {
	version string
	centers *mat.Dense    // k x NumFeatures, standardized space
	weights *mat.VecDense // k
	bias    float64
	means   []float64
	scales  []float64
	gamma   float64
}

// NewRBFRegressor compiles a validated artifact into a scorer
func NewRBFRegressor(a *Artifact) *RBFRegressor {
	k := len(a.Centers)
	centers := mat.NewDense(k, NumFeatures, nil)
	for i, c := range a.Centers {
		centers.SetRow(i, c)
	}

	return &RBFRegressor{
		version: a.ModelVersion,
		centers: centers,
		weights: mat.NewVecDense(k, a.Weights),
		bias:    a.Bias,
		means:   a.Means,
		scales:  a.Scales,
		gamma:   1.0 / (2.0 * a.LengthScale * a.LengthScale),
	}
}

// Version returns the fitted artifact's version identifier
func (r *RBFRegressor) Version() string {
	return r.version
}

// Predict scores a single feature row
func (r *RBFRegressor) Predict(f Features) (float64, error) {
	out, err := r.PredictBatch([]Features{f})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// PredictBatch scores one row per location in a single kernel-matrix
// multiply
func (r *RBFRegressor) PredictBatch(batch []Features) ([]float64, error) {
	n := len(batch)
	if n == 0 {
		return nil, nil
	}

	k, _ := r.centers.Dims()

	// Kernel matrix: K[i][j] = exp(-gamma * ||x_i - c_j||^2)
	kernel := mat.NewDense(n, k, nil)
	row := make([]float64, NumFeatures)
	for i, f := range batch {
		vec := f.Vector()
		for d := 0; d < NumFeatures; d++ {
			row[d] = (vec[d] - r.means[d]) / r.scales[d]
		}
		for j := 0; j < k; j++ {
			center := r.centers.RawRowView(j)
			var d2 float64
			for d := 0; d < NumFeatures; d++ {
				diff := row[d] - center[d]
				d2 += diff * diff
			}
			kernel.Set(i, j, math.Exp(-r.gamma*d2))
		}
	}

	y := mat.NewVecDense(n, nil)
	y.MulVec(kernel, r.weights)

	out := make([]float64, n)
	for i := range out {
		out[i] = y.AtVec(i) + r.bias
	}
	return out, nil
}
