package kinematics

import (
	"math"
	"testing"
)

func TestSavgolWeightsReproduceValue(t *testing.T) {
	offsets := []float64{-2, -1, 0, 1, 2}
	w0, w1, err := savgolWeights(offsets, 2)
	if err != nil {
		t.Fatalf("savgolWeights: %v", err)
	}
	// Evaluate against y = 3 + 2x + x^2: value(0)=3, deriv(0)=2.
	var v, d float64
	for k, x := range offsets {
		y := 3 + 2*x + x*x
		v += w0[k] * y
		d += w1[k] * y
	}
	if math.Abs(v-3) > 1e-10 {
		t.Fatalf("fitted value = %v, want 3", v)
	}
	if math.Abs(d-2) > 1e-10 {
		t.Fatalf("fitted derivative = %v, want 2", d)
	}
}

func TestSavgolWeightsRejectTinyWindow(t *testing.T) {
	if _, _, err := savgolWeights([]float64{-1, 0, 1}, 3); err == nil {
		t.Fatal("3-sample window should not support a cubic")
	}
}

func TestSavgolDerivativeExactOnCubic(t *testing.T) {
	// A cubic is in the model space of an order-3 fit, so the smoothing
	// derivative must be exact everywhere, boundaries included.
	n := 50
	ts := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i) / 240
		ts[i] = x
		ys[i] = 1 + 4*x - 2*x*x + 0.5*x*x*x
	}
	d, err := savgolDerivative(ts, ys, 10, 3)
	if err != nil {
		t.Fatalf("savgolDerivative: %v", err)
	}
	for i, x := range ts {
		want := 4 - 4*x + 1.5*x*x
		if math.Abs(d[i]-want) > 1e-6 {
			t.Fatalf("frame %d: derivative = %v, want %v", i, d[i], want)
		}
	}
}

func TestSavgolDerivativeBoundaryShrink(t *testing.T) {
	// Short series forces the boundary path; a quadratic with
	// order-reduced windows still recovers a linear trend exactly.
	ts := []float64{0, 1, 2, 3}
	ys := []float64{0, 2, 4, 6}
	d, err := savgolDerivative(ts, ys, 5, 2)
	if err != nil {
		t.Fatalf("savgolDerivative: %v", err)
	}
	for i := range d {
		if math.Abs(d[i]-2) > 1e-9 {
			t.Fatalf("frame %d: derivative = %v, want 2", i, d[i])
		}
	}
}

func TestSavgolDerivativeTwoSamples(t *testing.T) {
	d, err := savgolDerivative([]float64{0, 0.5}, []float64{1, 3}, 4, 3)
	if err != nil {
		t.Fatalf("savgolDerivative: %v", err)
	}
	for i := range d {
		if math.Abs(d[i]-4) > 1e-9 {
			t.Fatalf("frame %d: derivative = %v, want 4", i, d[i])
		}
	}
}
