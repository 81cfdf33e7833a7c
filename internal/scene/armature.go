package scene

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// RotationMode selects which rotation fields of a bone are live.
type RotationMode string

const (
	ModeQuaternion RotationMode = "QUATERNION"
	ModeXYZ        RotationMode = "XYZ"
	ModeXZY        RotationMode = "XZY"
	ModeYXZ        RotationMode = "YXZ"
	ModeYZX        RotationMode = "YZX"
	ModeZXY        RotationMode = "ZXY"
	ModeZYX        RotationMode = "ZYX"
)

// Valid reports whether m is a known rotation mode.
func (m RotationMode) Valid() bool {
	switch m {
	case ModeQuaternion, ModeXYZ, ModeXZY, ModeYXZ, ModeYZX, ModeZXY, ModeZYX:
		return true
	}
	return false
}

// IsEuler reports whether m is one of the Euler orders.
func (m RotationMode) IsEuler() bool {
	return m.Valid() && m != ModeQuaternion
}

// Constraint is a named bone constraint.
type Constraint struct {
	Name      string  `yaml:"name" json:"name"`
	Type      string  `yaml:"type" json:"type"`
	Influence float64 `yaml:"influence" json:"influence"`
}

// Bone is an armature bone: a rest segment plus a pose transform.
type Bone struct {
	Name   string
	Parent string

	// Head and Tail are the rest positions in armature space.
	Head Vec3
	Tail Vec3

	RotationMode RotationMode
	Quaternion   Quat
	Euler        Vec3
	Location     Vec3
	Scale        Vec3

	Props       Properties
	Constraints []Constraint
}

// Length returns the rest length of the bone.
func (b *Bone) Length() float64 {
	return vec(b.Tail).Sub(vec(b.Head)).Len()
}

// ClearTransform resets the pose to rest. The rotation mode is kept.
func (b *Bone) ClearTransform() {
	b.Location = Vec3{}
	b.Quaternion = IdentityQuat
	b.Euler = Vec3{}
	b.Scale = Vec3{1, 1, 1}
}

// RotationValues returns the live rotation: 4 values in quaternion mode, 3 otherwise.
func (b *Bone) RotationValues() []float64 {
	if b.RotationMode == ModeQuaternion {
		return b.Quaternion[:]
	}
	return b.Euler[:]
}

// Armature is an ordered set of bones where parents precede children.
type Armature struct {
	bones []*Bone
	index map[string]int
}

// NewArmature creates an empty armature.
func NewArmature() *Armature {
	return &Armature{index: make(map[string]int)}
}

// AddBone appends b. Its parent, if any, must already be present.
func (a *Armature) AddBone(b *Bone) error {
	if b == nil || strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("bone name is required")
	}
	if _, ok := a.index[b.Name]; ok {
		return fmt.Errorf("duplicate bone %q", b.Name)
	}
	if b.Parent != "" {
		if _, ok := a.index[b.Parent]; !ok {
			return fmt.Errorf("bone %q: parent %q must be defined first", b.Name, b.Parent)
		}
	}
	if b.RotationMode == "" {
		b.RotationMode = ModeQuaternion
	}
	if !b.RotationMode.Valid() {
		return fmt.Errorf("bone %q: unknown rotation mode %q", b.Name, b.RotationMode)
	}
	if b.Scale == (Vec3{}) {
		b.Scale = Vec3{1, 1, 1}
	}
	if b.Quaternion == (Quat{}) {
		b.Quaternion = IdentityQuat
	}
	a.index[b.Name] = len(a.bones)
	a.bones = append(a.bones, b)
	return nil
}

// Bone looks up a bone by name.
func (a *Armature) Bone(name string) (*Bone, bool) {
	i, ok := a.index[name]
	if !ok {
		return nil, false
	}
	return a.bones[i], true
}

// Bones returns the bones in armature order.
func (a *Armature) Bones() []*Bone {
	return append([]*Bone(nil), a.bones...)
}

// Len returns the number of bones.
func (a *Armature) Len() int { return len(a.bones) }

// ClearTransforms resets every bone to its rest pose.
func (a *Armature) ClearTransforms() {
	for _, b := range a.bones {
		b.ClearTransform()
	}
}

// Ancestors returns the chain of parent names from the root down to b's parent.
func (a *Armature) Ancestors(name string) []string {
	var chain []string
	b, ok := a.Bone(name)
	for ok && b.Parent != "" {
		chain = append(chain, b.Parent)
		b, ok = a.Bone(b.Parent)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// PosedBone is a bone's head and tail after forward kinematics, in armature space.
type PosedBone struct {
	Name   string
	Parent string
	Head   Vec3
	Tail   Vec3
	Matrix mgl64.Mat4
}

// Pose evaluates forward kinematics for every bone:
// pose(b) = pose(parent) * rest(parent)^-1 * rest(b) * T(loc) R(rot) S(scale).
func (a *Armature) Pose() []PosedBone {
	out := make([]PosedBone, len(a.bones))
	poseByName := make(map[string]mgl64.Mat4, len(a.bones))
	restByName := make(map[string]mgl64.Mat4, len(a.bones))

	for i, b := range a.bones {
		rest := b.RestMatrix()
		m := rest.Mul4(b.BasisMatrix())
		if b.Parent != "" {
			parentPose := poseByName[b.Parent]
			parentRest := restByName[b.Parent]
			m = parentPose.Mul4(parentRest.Inv()).Mul4(m)
		}
		poseByName[b.Name] = m
		restByName[b.Name] = rest

		head := m.Mul4x1(mgl64.Vec4{0, 0, 0, 1})
		tail := m.Mul4x1(mgl64.Vec4{0, b.Length(), 0, 1})
		out[i] = PosedBone{
			Name:   b.Name,
			Parent: b.Parent,
			Head:   Vec3{head.X(), head.Y(), head.Z()},
			Tail:   Vec3{tail.X(), tail.Y(), tail.Z()},
			Matrix: m,
		}
	}
	return out
}

// RestMatrix places the bone's local frame at its head with +Y along the
// bone and zero roll.
func (b *Bone) RestMatrix() mgl64.Mat4 {
	dir := vec(b.Tail).Sub(vec(b.Head))
	rot := mgl64.Ident4()
	if dir.Len() > 0 {
		rot = mgl64.QuatBetweenVectors(mgl64.Vec3{0, 1, 0}, dir).Mat4()
	}
	return mgl64.Translate3D(b.Head[0], b.Head[1], b.Head[2]).Mul4(rot)
}

// BasisMatrix is the pose transform T(loc) R(rot) S(scale) in the bone's rest frame.
func (b *Bone) BasisMatrix() mgl64.Mat4 {
	t := mgl64.Translate3D(b.Location[0], b.Location[1], b.Location[2])
	s := mgl64.Scale3D(b.Scale[0], b.Scale[1], b.Scale[2])
	return t.Mul4(b.RotationQuat().Mat4()).Mul4(s)
}

// RotationQuat returns the live rotation as a unit quaternion.
func (b *Bone) RotationQuat() mgl64.Quat {
	if b.RotationMode == ModeQuaternion || b.RotationMode == "" {
		q := mgl64.Quat{W: b.Quaternion[0], V: mgl64.Vec3{b.Quaternion[1], b.Quaternion[2], b.Quaternion[3]}}
		if q.Len() == 0 {
			return mgl64.QuatIdent()
		}
		return q.Normalize()
	}
	return EulerQuat(b.Euler, b.RotationMode)
}

// EulerQuat composes an Euler triple applying axes in the order named by mode,
// so XYZ yields Rz * Ry * Rx.
func EulerQuat(e Vec3, mode RotationMode) mgl64.Quat {
	q := mgl64.QuatIdent()
	for _, axis := range string(mode) {
		var r mgl64.Quat
		switch axis {
		case 'X':
			r = mgl64.QuatRotate(e[0], mgl64.Vec3{1, 0, 0})
		case 'Y':
			r = mgl64.QuatRotate(e[1], mgl64.Vec3{0, 1, 0})
		case 'Z':
			r = mgl64.QuatRotate(e[2], mgl64.Vec3{0, 0, 1})
		default:
			continue
		}
		q = r.Mul(q)
	}
	return q
}

// WorldMatrix returns the object's transform: T(location) * R(XYZ Euler).
func (o *Object) WorldMatrix() mgl64.Mat4 {
	t := mgl64.Translate3D(o.Location[0], o.Location[1], o.Location[2])
	return t.Mul4(EulerQuat(o.Rotation, ModeXYZ).Mat4())
}

// FieldOfView returns the horizontal field of view of a camera in radians.
func (o *Object) FieldOfView() float64 {
	lens, sensor := o.Lens, o.SensorWidth
	if lens <= 0 {
		lens = DefaultLens
	}
	if sensor <= 0 {
		sensor = DefaultSensorWidth
	}
	return 2 * math.Atan(sensor/(2*lens))
}

func vec(v Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], v[2]}
}
