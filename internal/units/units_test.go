package units

import (
	"math"
	"testing"
)

func TestIsValidAngleUnit(t *testing.T) {
	for _, u := range []string{Degrees, Radians} {
		if !IsValidAngleUnit(u) {
			t.Errorf("expected %q to be valid", u)
		}
	}
	if IsValidAngleUnit("grad") {
		t.Error("expected grad to be invalid")
	}
}

func TestIsValidLengthUnit(t *testing.T) {
	if !IsValidLengthUnit(Millimetres) || !IsValidLengthUnit(Metres) {
		t.Error("expected mm and m to be valid")
	}
	if IsValidLengthUnit("ft") {
		t.Error("expected ft to be invalid")
	}
}

func TestRadDegRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.5, math.Pi, -2.2} {
		if got := DegToRad(RadToDeg(v)); math.Abs(got-v) > 1e-12 {
			t.Errorf("round trip %v -> %v", v, got)
		}
	}
	if RadToDeg(math.Pi) != 180 {
		t.Errorf("RadToDeg(pi) = %v, want 180", RadToDeg(math.Pi))
	}
}

func TestToMillimetres(t *testing.T) {
	if got := ToMillimetres(1.5, Metres); got != 1500 {
		t.Errorf("ToMillimetres(1.5, m) = %v, want 1500", got)
	}
	if got := ToMillimetres(42, Millimetres); got != 42 {
		t.Errorf("ToMillimetres(42, mm) = %v, want 42", got)
	}
	// Unknown units pass through
	if got := ToMillimetres(7, "furlong"); got != 7 {
		t.Errorf("unknown unit should pass through, got %v", got)
	}
}

func TestToDegrees(t *testing.T) {
	if got := ToDegrees(math.Pi/2, Radians); math.Abs(got-90) > 1e-12 {
		t.Errorf("ToDegrees(pi/2, rad) = %v, want 90", got)
	}
	if got := ToDegrees(90, Degrees); got != 90 {
		t.Errorf("ToDegrees(90, deg) = %v, want 90", got)
	}
}
