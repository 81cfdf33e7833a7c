// Package orient derives bone orientations from landmark triples.
package orient

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/f3rmion/posekit/internal/pose"
)

// Mode selects how a landmark triple becomes a rotation.
type Mode string

const (
	// ModeSimilarity is the stock approximation. Output is repeatable, not a
	// rigid-body alignment; existing renders depend on it.
	ModeSimilarity Mode = "similarity"
	// ModeAligned rotates the rest bone axis onto the observed pivot->distal segment.
	ModeAligned Mode = "aligned"
)

// ParseMode validates a mode name. The empty string selects ModeSimilarity.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSimilarity:
		return ModeSimilarity, nil
	case ModeAligned:
		return ModeAligned, nil
	default:
		return "", fmt.Errorf("unknown rotation mode %q (want %s or %s)", s, ModeSimilarity, ModeAligned)
	}
}

// RestAxis is the direction a bone points along in its rest frame.
var RestAxis = r3.Vector{X: 0, Y: 1, Z: 0}

// Rotation computes the orientation of a bone from its proximal (a), pivot (b)
// and distal (c) landmarks.
func (m Mode) Rotation(a, b, c pose.Landmark) pose.Rotation {
	if m == ModeAligned {
		return Aligned(b, c)
	}
	return Similarity(a, b, c)
}

// Similarity returns w = 0.5 + 0.5(v1.v2), xyz = 0.5(v1 x v2), normalized, with
// v1 = unit(a-b) and v2 = unit(c-b). Zero magnitude yields the identity.
func Similarity(a, b, c pose.Landmark) pose.Rotation {
	pivot := vec(b)
	v1 := unit(vec(a).Sub(pivot))
	v2 := unit(vec(c).Sub(pivot))

	cross := v1.Cross(v2)
	w := 0.5 + 0.5*v1.Dot(v2)
	x := cross.X * 0.5
	y := cross.Y * 0.5
	z := cross.Z * 0.5

	mag := math.Sqrt(w*w + x*x + y*y + z*z)
	if mag == 0 {
		return pose.IdentityRotation
	}
	return pose.Rotation{w / mag, x / mag, y / mag, z / mag}
}

// Aligned returns the shortest-arc rotation taking RestAxis onto the segment
// b->c, with image coordinates flipped to a y-up world frame.
func Aligned(b, c pose.Landmark) pose.Rotation {
	d := r3.Vector{X: c.X - b.X, Y: b.Y - c.Y, Z: c.Z - b.Z}
	if d.Norm() == 0 {
		return pose.IdentityRotation
	}
	return pose.RotationFromQuat(Between(RestAxis, d))
}

// Between returns the unit quaternion rotating from onto to.
func Between(from, to r3.Vector) quat.Number {
	u, v := unit(from), unit(to)
	if u.Norm() == 0 || v.Norm() == 0 {
		return quat.Number{Real: 1}
	}

	dot := u.Dot(v)
	if dot < -1+1e-12 {
		// Antiparallel: turn pi about X, or about Y when u lies along X.
		x := r3.Vector{X: 1}
		axis := unit(x.Sub(u.Mul(u.Dot(x))))
		if axis.Norm() < 1e-9 {
			y := r3.Vector{Y: 1}
			axis = unit(y.Sub(u.Mul(u.Dot(y))))
		}
		return quat.Number{Imag: axis.X, Jmag: axis.Y, Kmag: axis.Z}
	}

	cross := u.Cross(v)
	q := quat.Number{Real: 1 + dot, Imag: cross.X, Jmag: cross.Y, Kmag: cross.Z}
	return quat.Scale(1/quat.Abs(q), q)
}

// Rotate applies a unit quaternion to a vector.
func Rotate(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	out := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: out.Imag, Y: out.Jmag, Z: out.Kmag}
}

func vec(l pose.Landmark) r3.Vector {
	return r3.Vector{X: l.X, Y: l.Y, Z: l.Z}
}

// unit divides by the norm component-wise; zero vectors are returned unchanged.
func unit(v r3.Vector) r3.Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return r3.Vector{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}
