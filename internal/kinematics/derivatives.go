package kinematics

import (
	"fmt"
	"math"

	"github.com/Drorhaz/Gaga-mocap-Kinematics-sub000/internal/monitoring"
	"github.com/Drorhaz/Gaga-mocap-Kinematics-sub000/internal/units"
)

// DerivParams configures the angular/linear derivative stage.
type DerivParams struct {
	// SmoothingWindowSec is the span of the local-polynomial smoothing
	// derivative. Converted to an odd frame count at the recording's rate.
	SmoothingWindowSec float64 `koanf:"smoothing_window_sec"`

	// PolyOrder is the order of the fitted local polynomial. The window
	// must cover at least PolyOrder+1 frames.
	PolyOrder int `koanf:"poly_order"`
}

// DefaultDerivParams returns the documented defaults: 175 ms window,
// cubic fit.
func DefaultDerivParams() DerivParams {
	return DerivParams{
		SmoothingWindowSec: 0.175,
		PolyOrder:          3,
	}
}

// Validate checks the parameters independent of any recording.
func (p DerivParams) Validate() error {
	if p.SmoothingWindowSec <= 0 {
		return fmt.Errorf("smoothing_window_sec must be positive, got %g", p.SmoothingWindowSec)
	}
	if p.PolyOrder < 1 {
		return fmt.Errorf("poly_order must be at least 1, got %d", p.PolyOrder)
	}
	return nil
}

// windowFrames converts the window span to an odd frame count at the given
// sample rate, enforcing the order+1 minimum.
func (p DerivParams) windowFrames(rate float64) (int, error) {
	w := int(math.Round(p.SmoothingWindowSec * rate))
	if w%2 == 0 {
		w++
	}
	if w < p.PolyOrder+1 {
		return 0, fmt.Errorf("window of %d frames at %.1f Hz cannot support order %d", w, rate, p.PolyOrder)
	}
	return w, nil
}

// JointDerivatives holds the derived channels for one joint. Angular
// channels are degrees and deg/s; linear channels millimetres and mm/s.
// Magnitude channels feed the anomaly classifier directly.
type JointDerivatives struct {
	Index      int
	Name       string
	OK         bool
	SkipReason string

	// Angular channels (present when the joint resolved).
	RotVecDeg   []float64    // rotation-vector norm per frame
	OmegaDeg    [][3]float64 // angular velocity, deg/s
	AlphaDeg    [][3]float64 // angular acceleration, deg/s²
	OmegaMagDeg []float64
	AlphaMagDeg []float64

	// Linear channels (present when the joint has a position stream).
	VelMM    [][3]float64 // mm/s
	AccMM    [][3]float64 // mm/s²
	VelMagMM []float64
	AccMagMM []float64
}

// DerivResult is the derivative-engine output for a recording.
type DerivResult struct {
	Joints       []JointDerivatives
	WindowFrames int
	PolyOrder    int
}

// Derive computes angular velocity via the quaternion log map and angular
// acceleration / linear derivatives via the smoothing derivative. Joints
// skipped by the resolver stay skipped here with the reason carried
// forward.
func Derive(skel *Skeleton, rec *Recording, pose *PoseResult, params DerivParams) (*DerivResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	rate := rec.SampleRate()
	win, err := params.windowFrames(rate)
	if err != nil {
		return nil, err
	}
	half := win / 2

	res := &DerivResult{
		Joints:       make([]JointDerivatives, len(skel.Joints)),
		WindowFrames: win,
		PolyOrder:    params.PolyOrder,
	}

	for j := range skel.Joints {
		jd := JointDerivatives{Index: j, Name: skel.Joints[j].Name}
		rj := &pose.Joints[j]

		if rj.OK {
			if err := deriveAngular(&jd, rec.Time, rj.Relative, half, params.PolyOrder); err != nil {
				jd.SkipReason = err.Error()
				monitoring.Eventf("derivatives", jd.Name, "angular channels skipped: %v", err)
			} else {
				jd.OK = true
			}
		} else {
			jd.SkipReason = rj.SkipReason
		}

		if rec.Pos[j] != nil {
			if err := deriveLinear(&jd, rec.Time, rec.Pos[j], half, params.PolyOrder); err != nil {
				monitoring.Eventf("derivatives", jd.Name, "linear channels skipped: %v", err)
			} else if !jd.OK {
				// Position-only joints still produce usable channels.
				jd.OK = true
				jd.SkipReason = ""
			}
		}

		res.Joints[j] = jd
	}
	return res, nil
}

// deriveAngular fills the angular channels from a resolved rotation series.
// Velocity uses the manifold log map, ω[i] = log(q[i]⁻¹⊗q[i+1])/Δt, which
// has none of the gimbal singularities of Euler-angle differentiation.
func deriveAngular(jd *JointDerivatives, t []float64, q []Quat, half, order int) error {
	n := len(q)
	jd.RotVecDeg = make([]float64, n)
	for i := range q {
		jd.RotVecDeg[i] = units.RadToDeg(q[i].RotVecNorm())
	}

	omega := make([][3]float64, n)
	for i := 0; i < n-1; i++ {
		dt := t[i+1] - t[i]
		v := q[i].Inv().Mul(q[i+1]).Log()
		omega[i] = [3]float64{
			units.RadToDeg(v[0] / dt),
			units.RadToDeg(v[1] / dt),
			units.RadToDeg(v[2] / dt),
		}
	}
	// The last frame has no forward interval; it repeats the final rate
	// so every channel stays frame-aligned.
	omega[n-1] = omega[n-2]
	jd.OmegaDeg = omega
	jd.OmegaMagDeg = magnitude3(omega)

	alpha, err := derivative3(t, omega, half, order)
	if err != nil {
		return err
	}
	jd.AlphaDeg = alpha
	jd.AlphaMagDeg = magnitude3(alpha)
	return nil
}

// deriveLinear fills the linear channels from root-relative positions.
func deriveLinear(jd *JointDerivatives, t []float64, pos [][3]float64, half, order int) error {
	vel, err := derivative3(t, pos, half, order)
	if err != nil {
		return err
	}
	acc, err := derivative3(t, vel, half, order)
	if err != nil {
		return err
	}
	jd.VelMM = vel
	jd.AccMM = acc
	jd.VelMagMM = magnitude3(vel)
	jd.AccMagMM = magnitude3(acc)
	return nil
}

// derivative3 applies the smoothing derivative independently per axis.
func derivative3(t []float64, v [][3]float64, half, order int) ([][3]float64, error) {
	n := len(v)
	out := make([][3]float64, n)
	axis := make([]float64, n)
	for a := 0; a < 3; a++ {
		for i := range v {
			axis[i] = v[i][a]
		}
		d, err := savgolDerivative(t, axis, half, order)
		if err != nil {
			return nil, err
		}
		for i := range d {
			out[i][a] = d[i]
		}
	}
	return out, nil
}

func magnitude3(v [][3]float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = math.Sqrt(v[i][0]*v[i][0] + v[i][1]*v[i][1] + v[i][2]*v[i][2])
	}
	return out
}
