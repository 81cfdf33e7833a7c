// Package pose provides the core types shared by extraction and application:
// landmarks, the bone table and the pose document.
package pose

// MinVisibility is the confidence a landmark needs before anything is derived from it.
const MinVisibility = 0.5

// LandmarkCount is the number of points in the body landmark topology.
const LandmarkCount = 33

// Landmark is one detected anatomical point.
// X and Y are normalized to the image (origin top-left), Z is relative depth.
type Landmark struct {
	X          float64 `json:"x" yaml:"x"`
	Y          float64 `json:"y" yaml:"y"`
	Z          float64 `json:"z" yaml:"z"`
	Visibility float64 `json:"visibility" yaml:"visibility"`
}

// Visible reports whether the landmark passes the rotation threshold (>= 0.5).
func (l Landmark) Visible() bool {
	return l.Visibility >= MinVisibility
}

// Side tells which half of the body a landmark or bone belongs to.
type Side string

const (
	SideCenter Side = "center"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// Rotation is an orientation stored as [w, x, y, z].
type Rotation [4]float64

// IdentityRotation is the rotation applied when no orientation can be derived.
var IdentityRotation = Rotation{1, 0, 0, 0}

// Location is a translation in scene units.
type Location [3]float64

// BoneMapping binds a rig bone to the three landmarks its orientation is derived from.
type BoneMapping struct {
	Name      string `yaml:"name" json:"name"`           // Rig bone name (e.g., "spine1", "hand.L")
	Landmarks [3]int `yaml:"landmarks" json:"landmarks"` // Proximal, pivot, distal landmark indices
}

// Proximal returns the landmark index the first vector points to.
func (b BoneMapping) Proximal() int { return b.Landmarks[0] }

// Pivot returns the joint landmark index both vectors start from.
func (b BoneMapping) Pivot() int { return b.Landmarks[1] }

// Distal returns the landmark index the second vector points to.
func (b BoneMapping) Distal() int { return b.Landmarks[2] }

// IKTarget is a bone whose position is driven directly from a single landmark.
type IKTarget struct {
	Bone     string `yaml:"bone" json:"bone"`         // Rig bone name (e.g., "foot.L")
	Landmark int    `yaml:"landmark" json:"landmark"` // Source landmark index
}

// LocationRemap maps normalized image space to scene world units:
// x = (lx-0.5)*Scale, y = (0.5-ly)*Scale, z = lz*DepthScale + DepthOffset.
type LocationRemap struct {
	Scale       float64 `yaml:"scale" json:"scale"`
	DepthScale  float64 `yaml:"depth_scale" json:"depth_scale"`
	DepthOffset float64 `yaml:"depth_offset" json:"depth_offset"`
}

// DefaultLocationRemap returns the remap used by the stock rig.
func DefaultLocationRemap() LocationRemap {
	return LocationRemap{Scale: 4, DepthScale: 2, DepthOffset: 1}
}

// Apply remaps a landmark into scene coordinates.
func (r LocationRemap) Apply(l Landmark) Location {
	return Location{
		(l.X - 0.5) * r.Scale,
		(0.5 - l.Y) * r.Scale,
		l.Z*r.DepthScale + r.DepthOffset,
	}
}

// Invert recovers the normalized landmark position from a remapped location.
func (r LocationRemap) Invert(loc Location) (x, y, z float64) {
	return loc[0]/r.Scale + 0.5, 0.5 - loc[1]/r.Scale, (loc[2] - r.DepthOffset) / r.DepthScale
}
