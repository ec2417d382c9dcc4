package kinematics

import (
	"math"
	"testing"
)

func TestQuatNormalize(t *testing.T) {
	q := Quat{W: 2}
	n := q.Normalize()
	if !n.IsUnit(UnitNormTolerance) {
		t.Fatalf("normalized quaternion not unit: norm=%v", n.Norm())
	}
	if n != Identity() {
		t.Fatalf("expected identity after normalizing scaled identity, got %+v", n)
	}

	var zero Quat
	if got := zero.Normalize(); got != Identity() {
		t.Fatalf("zero quaternion should normalize to identity, got %+v", got)
	}
}

func TestQuatMulInverse(t *testing.T) {
	q := FromAxisAngle(0, 0, 1, math.Pi/3)
	p := q.Mul(q.Inv())
	if math.Abs(p.W-1) > 1e-12 || math.Abs(p.X) > 1e-12 || math.Abs(p.Y) > 1e-12 || math.Abs(p.Z) > 1e-12 {
		t.Fatalf("q*q^-1 should be identity, got %+v", p)
	}
}

func TestQuatHemisphere(t *testing.T) {
	q := FromAxisAngle(0, 0, 1, math.Pi/4)
	neg := q.Neg()
	ref := Identity()
	if got := neg.Hemisphere(ref); got.Dot(ref) < 0 {
		t.Fatalf("hemisphere did not flip into positive half: dot=%v", got.Dot(ref))
	}
	if got := q.Hemisphere(ref); got != q {
		t.Fatalf("positive-dot quaternion should pass through unchanged")
	}
}

func TestQuatLogRecoversAngle(t *testing.T) {
	cases := []struct {
		name  string
		angle float64
	}{
		{"small", 1e-9},
		{"quarter", math.Pi / 2},
		{"near-pi", math.Pi - 1e-3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := FromAxisAngle(0, 1, 0, tc.angle)
			v := q.Log()
			got := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
			if math.Abs(got-tc.angle) > 1e-8 {
				t.Fatalf("log magnitude = %v, want %v", got, tc.angle)
			}
			if tc.angle > 1e-6 && math.Abs(v[1]-tc.angle) > 1e-8 {
				t.Fatalf("log axis should align with y, got %v", v)
			}
		})
	}
}

func TestQuatLogDoubleCover(t *testing.T) {
	// q and -q name the same rotation. Hemisphere alignment before Log
	// keeps the recovered angle on the short arc.
	q := FromAxisAngle(1, 0, 0, math.Pi/6)
	aligned := q.Neg().Hemisphere(q)
	v := aligned.Log()
	got := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if math.Abs(got-math.Pi/6) > 1e-9 {
		t.Fatalf("short-arc angle = %v, want %v", got, math.Pi/6)
	}
}

func TestRotVecNorm(t *testing.T) {
	q := FromAxisAngle(0, 0, 1, 1.25)
	if got := q.RotVecNorm(); math.Abs(got-1.25) > 1e-9 {
		t.Fatalf("RotVecNorm = %v, want 1.25", got)
	}
}
