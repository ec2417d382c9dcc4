package kinematics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// savgolWeights computes local-polynomial (Savitzky-Golay) weights for the
// given sample offsets (seconds, relative to the evaluation point). A
// polynomial of the given order is fit by least squares; the returned rows
// evaluate the fit and its first derivative at offset zero:
//
//	value(0)  = Σ w0[k]·y[k]
//	deriv(0)  = Σ w1[k]·y[k]
//
// Offsets need not be symmetric, which is what makes the shrinking boundary
// windows work without extrapolation.
func savgolWeights(offsets []float64, order int) (w0, w1 []float64, err error) {
	n := len(offsets)
	if n < order+1 {
		return nil, nil, fmt.Errorf("savgol: window of %d samples cannot support order %d", n, order)
	}

	// Vandermonde design matrix: A[k][m] = x_k^m.
	a := mat.NewDense(n, order+1, nil)
	for k, x := range offsets {
		pow := 1.0
		for m := 0; m <= order; m++ {
			a.Set(k, m, pow)
			pow *= x
		}
	}

	// W = (AᵀA)⁻¹Aᵀ maps samples to polynomial coefficients. Row 0 is the
	// fitted value at x=0, row 1 the fitted first derivative.
	var ata mat.Dense
	ata.Mul(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, nil, fmt.Errorf("savgol: singular design matrix: %w", err)
	}
	var w mat.Dense
	w.Mul(&inv, a.T())

	w0 = make([]float64, n)
	w1 = make([]float64, n)
	for k := 0; k < n; k++ {
		w0[k] = w.At(0, k)
		if order >= 1 {
			w1[k] = w.At(1, k)
		}
	}
	return w0, w1, nil
}

// savgolDerivative computes the smoothing first derivative of y sampled at
// times t, using a window of halfWidth frames either side and the given
// polynomial order. Frames near the boundary use the subset of the window
// that exists, with the order reduced to fit when necessary; no frame is
// extrapolated.
func savgolDerivative(t, y []float64, halfWidth, order int) ([]float64, error) {
	n := len(y)
	if len(t) != n {
		return nil, fmt.Errorf("savgol: time and value lengths differ (%d vs %d)", len(t), n)
	}
	if n < 2 {
		return nil, fmt.Errorf("savgol: need at least 2 samples, got %d", n)
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lo := i - halfWidth
		if lo < 0 {
			lo = 0
		}
		hi := i + halfWidth
		if hi > n-1 {
			hi = n - 1
		}
		w := hi - lo + 1
		ord := order
		if w < ord+1 {
			ord = w - 1
		}
		if ord < 1 {
			// Two-sample fallback at degenerate boundaries.
			if i == 0 {
				out[i] = (y[1] - y[0]) / (t[1] - t[0])
			} else {
				out[i] = (y[i] - y[i-1]) / (t[i] - t[i-1])
			}
			continue
		}

		offsets := make([]float64, w)
		for k := 0; k < w; k++ {
			offsets[k] = t[lo+k] - t[i]
		}
		_, w1, err := savgolWeights(offsets, ord)
		if err != nil {
			return nil, err
		}
		var d float64
		for k := 0; k < w; k++ {
			d += w1[k] * y[lo+k]
		}
		out[i] = d
	}
	return out, nil
}
