package kinematics

import (
	"fmt"
	"math"
)

// Recording is the immutable sample table for one capture: a strictly
// monotonic time column plus per-joint rotation and/or position series laid
// out [joint][frame]. Derived channels are always new arrays; a Recording
// is never mutated after Validate.
type Recording struct {
	// ID identifies the recording for provenance and failure records.
	ID string

	// SubjectID ties the recording to the captured subject; the scoring
	// stage checks it against the calibration's subject for identity
	// mismatch.
	SubjectID string

	// Time holds per-frame timestamps in seconds, strictly increasing.
	Time []float64

	// Rot[j][i] is the raw global-frame rotation of joint j at frame i.
	// A joint with no rotation stream has a nil inner slice.
	Rot [][]Quat

	// Pos[j][i] is the root-relative position of joint j at frame i in
	// millimetres. A joint with no position stream has a nil inner slice.
	Pos [][][3]float64
}

// Frames returns the number of samples.
func (r *Recording) Frames() int { return len(r.Time) }

// SampleRate returns the mean sampling rate in Hz.
func (r *Recording) SampleRate() float64 {
	if len(r.Time) < 2 {
		return 0
	}
	span := r.Time[len(r.Time)-1] - r.Time[0]
	if span <= 0 {
		return 0
	}
	return float64(len(r.Time)-1) / span
}

// Dt returns the mean frame interval in seconds.
func (r *Recording) Dt() float64 {
	rate := r.SampleRate()
	if rate == 0 {
		return 0
	}
	return 1 / rate
}

// Validate checks the sample table against the skeleton. Violations are
// MalformedInputError: they describe shape problems that no downstream
// stage may paper over.
func (r *Recording) Validate(skel *Skeleton) error {
	if r.ID == "" {
		return &MalformedInputError{Field: "recording", Reason: "empty recording ID"}
	}
	if len(r.Time) < 2 {
		return &MalformedInputError{Field: "time", Reason: fmt.Sprintf("need at least 2 samples, got %d", len(r.Time))}
	}
	for i := 1; i < len(r.Time); i++ {
		if !(r.Time[i] > r.Time[i-1]) {
			return &MalformedInputError{
				Field:  "time",
				Reason: fmt.Sprintf("not strictly increasing at frame %d (%g -> %g)", i, r.Time[i-1], r.Time[i]),
			}
		}
	}
	if len(r.Rot) != len(skel.Joints) {
		return &MalformedInputError{
			Field:  "rotations",
			Reason: fmt.Sprintf("have %d joint series, skeleton has %d joints", len(r.Rot), len(skel.Joints)),
		}
	}
	if len(r.Pos) != len(skel.Joints) {
		return &MalformedInputError{
			Field:  "positions",
			Reason: fmt.Sprintf("have %d joint series, skeleton has %d joints", len(r.Pos), len(skel.Joints)),
		}
	}
	n := len(r.Time)
	for j := range skel.Joints {
		if r.Rot[j] != nil && len(r.Rot[j]) != n {
			return &MalformedInputError{
				Field:  "rotations",
				Reason: fmt.Sprintf("joint %q has %d rotation samples, want %d", skel.Joints[j].Name, len(r.Rot[j]), n),
			}
		}
		if r.Pos[j] != nil && len(r.Pos[j]) != n {
			return &MalformedInputError{
				Field:  "positions",
				Reason: fmt.Sprintf("joint %q has %d position samples, want %d", skel.Joints[j].Name, len(r.Pos[j]), n),
			}
		}
		if skel.Joints[j].HasRotation && r.Rot[j] == nil {
			return &MalformedInputError{
				Field:  "rotations",
				Reason: fmt.Sprintf("joint %q declared with rotation stream but none supplied", skel.Joints[j].Name),
			}
		}
	}
	return nil
}

// hasDegenerateRotation reports whether joint j's rotation series carries no
// usable signal (all-NaN components or zero quaternions throughout).
func (r *Recording) hasDegenerateRotation(j int) bool {
	series := r.Rot[j]
	if series == nil {
		return true
	}
	for _, q := range series {
		if math.IsNaN(q.W) || math.IsNaN(q.X) || math.IsNaN(q.Y) || math.IsNaN(q.Z) {
			continue
		}
		if q.Norm() > 0 {
			return false
		}
	}
	return true
}
