package typegraph

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// MaxSpectralDistance is returned for any degenerate comparison: an empty
// graph on either side, or a failed eigen-decomposition. Assuming the worst
// case keeps the selection loop well-defined without raising.
const MaxSpectralDistance = 1.0

// SpectralDistance compares the structure of two graphs by their Laplacian
// spectra. Both graphs are projected to undirected weighted form, their
// combinatorial Laplacians zero-padded to the larger order, and the sorted
// eigenvalue vectors compared:
//
//	||eig(a) - eig(b)||_2 / (max(|eig|, 1.0) * sqrt(n))
//
// The result is symmetric, near zero for identical graphs, and exactly
// MaxSpectralDistance when either graph has no nodes.
func SpectralDistance(a, b *Graph) float64 {
	if a == nil || b == nil || a.Order() == 0 || b.Order() == 0 {
		return MaxSpectralDistance
	}

	n := a.Order()
	if b.Order() > n {
		n = b.Order()
	}

	ea, ok := laplacianEigenvalues(a, n)
	if !ok {
		return MaxSpectralDistance
	}
	eb, ok := laplacianEigenvalues(b, n)
	if !ok {
		return MaxSpectralDistance
	}

	var sumSq float64
	maxAbs := 1.0
	for i := 0; i < n; i++ {
		d := ea[i] - eb[i]
		sumSq += d * d
		if v := math.Abs(ea[i]); v > maxAbs {
			maxAbs = v
		}
		if v := math.Abs(eb[i]); v > maxAbs {
			maxAbs = v
		}
	}
	return math.Sqrt(sumSq) / (maxAbs * math.Sqrt(float64(n)))
}

// laplacianEigenvalues returns the sorted eigenvalues of g's undirected
// combinatorial Laplacian, zero-padded to order n. ok is false when the
// decomposition fails or panics inside the numeric kernel.
func laplacianEigenvalues(g *Graph, n int) (vals []float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			vals, ok = nil, false
		}
	}()

	lap := paddedLaplacian(g, n)

	var eig mat.EigenSym
	if !eig.Factorize(lap, false) {
		return nil, false
	}
	vals = eig.Values(nil)
	sort.Float64s(vals)
	return vals, true
}

// paddedLaplacian builds the combinatorial Laplacian L = D - W of the
// undirected weighted projection of g, embedded in an n x n matrix with
// zero rows for padding nodes. Edge weight is the summed frequency over both
// directions and all parallel kinds; self-loops are ignored.
func paddedLaplacian(g *Graph, n int) *mat.SymDense {
	types := g.Types()
	index := make(map[string]int, len(types))
	for i, t := range types {
		index[t] = i
	}

	weights := make(map[[2]int]float64)
	for _, key := range g.EdgeKeys() {
		if key.Source == key.Target {
			continue
		}
		i, j := index[key.Source], index[key.Target]
		if i > j {
			i, j = j, i
		}
		weights[[2]int{i, j}] += float64(g.EdgeFrequency(key.Source, key.Target))
	}

	lap := mat.NewSymDense(n, nil)
	for pair, w := range weights {
		i, j := pair[0], pair[1]
		lap.SetSym(i, j, -w)
		lap.SetSym(i, i, lap.At(i, i)+w)
		lap.SetSym(j, j, lap.At(j, j)+w)
	}
	return lap
}
