package kinematics

import (
	"fmt"

	"github.com/Drorhaz/Gaga-mocap-Kinematics-sub000/internal/monitoring"
)

// ResolverParams configures the continuity and pose resolution stage.
type ResolverParams struct {
	// UnitNormTolerance is the allowed post-normalisation deviation from
	// unit norm before a sample counts as corrupt.
	UnitNormTolerance float64 `koanf:"unit_norm_tolerance"`

	// ApplyZeroPose re-expresses relative rotations against each joint's
	// static reference pose when one is defined.
	ApplyZeroPose bool `koanf:"apply_zero_pose"`
}

// DefaultResolverParams returns the documented defaults for pose resolution.
func DefaultResolverParams() ResolverParams {
	return ResolverParams{
		UnitNormTolerance: UnitNormTolerance,
		ApplyZeroPose:     true,
	}
}

// ContinuityFlips counts sign flips applied during the three hemisphere
// passes. High counts flag a noisy raw stream even when the output is clean.
type ContinuityFlips struct {
	RawChild  int `json:"raw_child"`
	RawParent int `json:"raw_parent"`
	Composed  int `json:"composed"`
}

// Total returns the combined flip count across all passes.
func (f ContinuityFlips) Total() int { return f.RawChild + f.RawParent + f.Composed }

// ResolvedJoint is the resolver output for one joint. A joint that could
// not be resolved has OK=false, a nil Relative series, and a reason; it is
// never silently replaced by an identity rotation.
type ResolvedJoint struct {
	Index      int
	Name       string
	OK         bool
	SkipReason string
	Flips      ContinuityFlips

	// Relative holds parent-relative (optionally zeroed) rotations:
	// unit norm within tolerance, consecutive dot products >= 0.
	Relative []Quat
}

// PoseResult is the resolver output for a whole recording.
type PoseResult struct {
	Joints []ResolvedJoint
}

// Resolve computes continuity-enforced, parent-relative rotations for every
// joint in the skeleton. Per-joint failures are flagged and skipped; the
// stage fails as a whole only if no joint resolves.
func Resolve(skel *Skeleton, rec *Recording, params ResolverParams) (*PoseResult, error) {
	res := &PoseResult{Joints: make([]ResolvedJoint, len(skel.Joints))}
	resolved := 0

	for j := range skel.Joints {
		rj := resolveJoint(skel, rec, j, params)
		if rj.OK {
			resolved++
		} else {
			monitoring.Eventf("resolver", rj.Name, "joint skipped: %s", rj.SkipReason)
		}
		res.Joints[j] = rj
	}

	if resolved == 0 {
		return nil, &DegenerateSignalError{Subject: "recording " + rec.ID, Reason: "no joint produced a resolvable rotation series"}
	}
	return res, nil
}

func resolveJoint(skel *Skeleton, rec *Recording, j int, params ResolverParams) ResolvedJoint {
	joint := skel.Joints[j]
	rj := ResolvedJoint{Index: j, Name: joint.Name}

	if rec.Rot[j] == nil {
		rj.SkipReason = "no rotation stream"
		return rj
	}
	if rec.hasDegenerateRotation(j) {
		rj.SkipReason = "rotation stream is degenerate (zero or NaN throughout)"
		return rj
	}

	// Pass (a): hemisphere-align the raw child series.
	child := normalizeSeries(rec.Rot[j])
	rj.Flips.RawChild = enforceContinuity(child)

	var relative []Quat
	if joint.Parent == RootParent {
		relative = child
	} else {
		p := joint.Parent
		if rec.Rot[p] == nil || rec.hasDegenerateRotation(p) {
			rj.SkipReason = fmt.Sprintf("parent joint %q has no usable rotation stream", skel.Joints[p].Name)
			return rj
		}
		// Pass (b): hemisphere-align the raw parent series before
		// composing, so the inverse is taken on a continuous signal.
		parent := normalizeSeries(rec.Rot[p])
		rj.Flips.RawParent = enforceContinuity(parent)

		relative = make([]Quat, len(child))
		for i := range child {
			relative[i] = parent[i].Inv().Mul(child[i])
		}
	}

	if params.ApplyZeroPose && joint.ZeroPose != nil {
		zeroInv := joint.ZeroPose.Normalize().Inv()
		for i := range relative {
			relative[i] = zeroInv.Mul(relative[i])
		}
	}

	// Composition of two unit quaternions drifts by at most a few ulps,
	// but the output guarantee is checked, not assumed.
	for i := range relative {
		relative[i] = relative[i].Normalize()
		if !relative[i].IsUnit(params.UnitNormTolerance) {
			rj.SkipReason = fmt.Sprintf("frame %d not unit norm after normalisation", i)
			return rj
		}
	}

	// Pass (c): the composed series can land on alternating sheets even
	// when both inputs were continuous; align it again.
	rj.Flips.Composed = enforceContinuity(relative)

	rj.OK = true
	rj.Relative = relative
	return rj
}

// normalizeSeries copies and renormalises a quaternion series. The input
// recording is never mutated.
func normalizeSeries(in []Quat) []Quat {
	out := make([]Quat, len(in))
	for i, q := range in {
		out[i] = q.Normalize()
	}
	return out
}

// enforceContinuity applies the shortest-path rule in place: for i>0,
// negate q[i] whenever dot(q[i-1], q[i]) < 0. Returns the flip count.
// After this pass no consecutive pair has a negative dot product.
func enforceContinuity(qs []Quat) int {
	flips := 0
	for i := 1; i < len(qs); i++ {
		if qs[i-1].Dot(qs[i]) < 0 {
			qs[i] = qs[i].Neg()
			flips++
		}
	}
	return flips
}
