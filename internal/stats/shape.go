package stats

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Shape describes the principal directions of a 2D sample cloud: the
// eigenvector basis of its covariance matrix, the variance along each axis,
// and the fraction of total variance explained by the dominant axis.
//
// The variance ratio lies in (0.5, 1.0] for 2D data; values near 1 mean the
// two measures are nearly linearly dependent.
type Shape struct {
	// Basis holds the eigenvectors as columns, in the same order as
	// Variances.
	Basis [2][2]float64
	// Variances are the eigenvalues of the sample covariance matrix.
	Variances [2]float64
	// VarianceRatio is max(Variances) / sum(Variances).
	VarianceRatio float64
}

// ComputeShape centers both dimensions on their means, forms the 2x2 sample
// covariance matrix with the n-1 divisor, and eigen-decomposes it. At least
// two samples are required for the covariance to be defined.
func ComputeShape(x, y []float64) (Shape, error) {
	if len(x) != len(y) {
		return Shape{}, fmt.Errorf("length mismatch: %d x values, %d y values", len(x), len(y))
	}
	n := len(x)
	if n < 2 {
		return Shape{}, fmt.Errorf("need at least 2 samples for covariance, got %d", n)
	}

	meanX := KahanSum(x) / float64(n)
	meanY := KahanSum(y) / float64(n)

	var cxx, cxy, cyy float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cxx += dx * dx
		cxy += dx * dy
		cyy += dy * dy
	}
	nf := float64(n - 1)
	cov := mat.NewSymDense(2, []float64{
		cxx / nf, cxy / nf,
		cxy / nf, cyy / nf,
	})

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return Shape{}, fmt.Errorf("eigen decomposition of covariance matrix failed")
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	values := eig.Values(nil)

	shape := Shape{
		Variances: [2]float64{values[0], values[1]},
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			shape.Basis[i][j] = vectors.At(i, j)
		}
	}

	total := values[0] + values[1]
	max := values[0]
	if values[1] > max {
		max = values[1]
	}
	shape.VarianceRatio = max / total
	return shape, nil
}
