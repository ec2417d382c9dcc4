package kinematics

import "math"

// UnitNormTolerance is the allowed deviation from unit norm for resolved
// rotations. Inputs further out are renormalised; outputs are guaranteed
// within this bound.
const UnitNormTolerance = 1e-6

// Quat is a rotation quaternion with scalar part W. The raw capture
// convention is scalar-first, right-handed.
type Quat struct {
	W, X, Y, Z float64
}

// Identity returns the identity rotation.
func Identity() Quat { return Quat{W: 1} }

// Mul returns the Hamilton product q ⊗ r (apply r, then q).
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}
}

// Conj returns the conjugate of q.
func (q Quat) Conj() Quat { return Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z} }

// Inv returns the inverse rotation. For unit quaternions this equals the
// conjugate; non-unit inputs are handled via the squared norm.
func (q Quat) Inv() Quat {
	nn := q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z
	if nn == 0 {
		return Quat{}
	}
	c := q.Conj()
	return Quat{W: c.W / nn, X: c.X / nn, Y: c.Y / nn, Z: c.Z / nn}
}

// Dot returns the 4-component dot product of q and r. A negative dot means
// q and r sit on opposite sheets of the double cover.
func (q Quat) Dot(r Quat) float64 {
	return q.W*r.W + q.X*r.X + q.Y*r.Y + q.Z*r.Z
}

// Norm returns the 4-norm of q.
func (q Quat) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalize rescales q to unit norm. The zero quaternion normalises to
// identity so callers can detect it separately via Norm.
func (q Quat) Normalize() Quat {
	n := q.Norm()
	if n == 0 {
		return Identity()
	}
	return Quat{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}
}

// Neg returns -q, the other representative of the same rotation.
func (q Quat) Neg() Quat { return Quat{W: -q.W, X: -q.X, Y: -q.Y, Z: -q.Z} }

// IsUnit reports whether q is unit norm within tol.
func (q Quat) IsUnit(tol float64) bool {
	return math.Abs(q.Norm()-1) <= tol
}

// Hemisphere chooses the sign of q so that it is on the same sheet as ref,
// i.e. the representative with the shorter 4-space path from ref.
func (q Quat) Hemisphere(ref Quat) Quat {
	if q.Dot(ref) < 0 {
		return q.Neg()
	}
	return q
}

// Log returns the rotation vector (axis × angle, radians) of a unit
// quaternion. The returned vector has magnitude equal to the rotation angle
// in [0, π] once the input is hemisphere-aligned; callers that need
// continuity across samples must align first.
func (q Quat) Log() [3]float64 {
	// Clamp against floating drift before acos.
	w := q.W
	if w > 1 {
		w = 1
	} else if w < -1 {
		w = -1
	}
	s := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if s < 1e-12 {
		// Angle ~0: first-order expansion, axis direction from vector part.
		return [3]float64{2 * q.X, 2 * q.Y, 2 * q.Z}
	}
	angle := 2 * math.Atan2(s, w)
	k := angle / s
	return [3]float64{k * q.X, k * q.Y, k * q.Z}
}

// FromAxisAngle builds a unit quaternion rotating by angle radians about the
// given axis. A zero axis yields identity.
func FromAxisAngle(ax, ay, az, angle float64) Quat {
	n := math.Sqrt(ax*ax + ay*ay + az*az)
	if n == 0 {
		return Identity()
	}
	s := math.Sin(angle/2) / n
	return Quat{W: math.Cos(angle / 2), X: ax * s, Y: ay * s, Z: az * s}
}

// RotVecNorm returns the magnitude (radians) of the rotation encoded by q.
func (q Quat) RotVecNorm() float64 {
	v := q.Log()
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
