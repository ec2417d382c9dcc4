package kinematics

import (
	"fmt"
	"math"
)

// biquad holds second-order Butterworth low-pass coefficients in direct
// form I, normalised so a0 = 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// newLowPass designs a 2nd-order Butterworth low-pass via the bilinear
// transform. cutoff and rate in Hz; cutoff must sit strictly below Nyquist.
func newLowPass(cutoff, rate float64) (biquad, error) {
	if cutoff <= 0 {
		return biquad{}, fmt.Errorf("butterworth: cutoff must be positive, got %g Hz", cutoff)
	}
	if cutoff >= rate/2 {
		return biquad{}, fmt.Errorf("butterworth: cutoff %g Hz at or above Nyquist (%g Hz)", cutoff, rate/2)
	}
	k := math.Tan(math.Pi * cutoff / rate)
	norm := 1 / (1 + math.Sqrt2*k + k*k)
	b0 := k * k * norm
	return biquad{
		b0: b0,
		b1: 2 * b0,
		b2: b0,
		a1: 2 * (k*k - 1) * norm,
		a2: (1 - math.Sqrt2*k + k*k) * norm,
	}, nil
}

// apply runs the filter over x in one direction.
func (f biquad) apply(x []float64) []float64 {
	y := make([]float64, len(x))
	var x1, x2, y1, y2 float64
	// Prime the delay line as if the signal had been at x[0] forever, so
	// a constant input passes through without a startup transient.
	if len(x) > 0 {
		x1, x2 = x[0], x[0]
		y1, y2 = x[0], x[0]
	}
	for i, xi := range x {
		yi := f.b0*xi + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		y[i] = yi
		x2, x1 = x1, xi
		y2, y1 = y1, yi
	}
	return y
}

// zeroPhaseLowPass filters x forward and backward through a 2nd-order
// Butterworth low-pass, giving zero phase distortion and an effective
// 4th-order magnitude response. The ends are extended by reflection before
// filtering so the dual pass does not drag boundary samples toward zero.
func zeroPhaseLowPass(x []float64, cutoff, rate float64) ([]float64, error) {
	f, err := newLowPass(cutoff, rate)
	if err != nil {
		return nil, err
	}
	n := len(x)
	if n == 0 {
		return nil, nil
	}

	pad := 3 * 2 // three time constants of a 2nd-order section
	if pad > n-1 {
		pad = n - 1
	}

	ext := make([]float64, 0, n+2*pad)
	for i := pad; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := n - 2; i >= n-1-pad; i-- {
		ext = append(ext, 2*x[n-1]-x[i])
	}

	y := f.apply(ext)
	reverse(y)
	y = f.apply(y)
	reverse(y)

	return y[pad : pad+n], nil
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
