package introspect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/f3rmion/posekit/internal/scene"
)

// PathPrefix roots every bone's full_path.
const PathPrefix = "/rig/Pose/root/"

// RigSnapshot is the read-only dump of a rig written to rig_data.json.
type RigSnapshot struct {
	Name             string           `json:"name"`
	CustomProperties scene.Properties `json:"custom_properties"`
	Bones            Bones            `json:"bones"`
}

// BoneSnapshot describes one pose bone.
type BoneSnapshot struct {
	Name             string             `json:"name"`
	Parent           *string            `json:"parent"`
	Head             scene.Vec3         `json:"head"`
	Tail             scene.Vec3         `json:"tail"`
	RotationMode     scene.RotationMode `json:"rotation_mode"`
	Location         scene.Vec3         `json:"location"`
	Rotation         []float64          `json:"rotation"`
	Scale            scene.Vec3         `json:"scale"`
	CustomProperties scene.Properties   `json:"custom_properties"`
	Constraints      []scene.Constraint `json:"constraints"`
	FullPath         string             `json:"full_path"`
}

// Bones encodes as a JSON object keyed by bone name, in armature order.
type Bones []BoneSnapshot

// MarshalJSON writes the bones as an object in slice order.
func (b Bones) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, bone := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(bone.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(bone)
		if err != nil {
			return nil, fmt.Errorf("bone %s: %w", bone.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a bone object, keeping key order.
func (b *Bones) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("bones must be an object")
	}
	var out Bones
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var bone BoneSnapshot
		if err := dec.Decode(&bone); err != nil {
			return fmt.Errorf("bone %s: %w", name, err)
		}
		if bone.Name == "" {
			bone.Name = name
		}
		out = append(out, bone)
	}
	*b = out
	return nil
}

// Bone finds a bone by name.
func (s *RigSnapshot) Bone(name string) (BoneSnapshot, bool) {
	for _, b := range s.Bones {
		if b.Name == name {
			return b, true
		}
	}
	return BoneSnapshot{}, false
}

// Encode writes the snapshot as JSON indented with four spaces.
func (s *RigSnapshot) Encode(w io.Writer) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding rig snapshot: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Snapshot captures rig as it is posed right now.
func Snapshot(rig *scene.Object) (*RigSnapshot, error) {
	if rig == nil || rig.Armature == nil {
		return nil, fmt.Errorf("object is not an armature")
	}
	arm := rig.Armature

	snap := &RigSnapshot{
		Name:             rig.Name,
		CustomProperties: PublicProperties(rig.Props),
	}
	posed := arm.Pose()
	for i, b := range arm.Bones() {
		snap.Bones = append(snap.Bones, snapshotBone(arm, b, posed[i]))
	}
	return snap, nil
}

// SnapshotBone captures a single bone of arm.
func SnapshotBone(arm *scene.Armature, name string) (BoneSnapshot, bool) {
	for i, pb := range arm.Pose() {
		if pb.Name == name {
			return snapshotBone(arm, arm.Bones()[i], pb), true
		}
	}
	return BoneSnapshot{}, false
}

func snapshotBone(arm *scene.Armature, b *scene.Bone, pb scene.PosedBone) BoneSnapshot {
	var parent *string
	if b.Parent != "" {
		p := b.Parent
		parent = &p
	}
	constraints := append([]scene.Constraint{}, b.Constraints...)
	return BoneSnapshot{
		Name:             b.Name,
		Parent:           parent,
		Head:             pb.Head,
		Tail:             pb.Tail,
		RotationMode:     b.RotationMode,
		Location:         b.Location,
		Rotation:         b.RotationValues(),
		Scale:            b.Scale,
		CustomProperties: PublicProperties(b.Props),
		Constraints:      constraints,
		FullPath:         FullPath(arm, b.Name),
	}
}

// FullPath returns /rig/Pose/root/<ancestors>/<bone>.
func FullPath(arm *scene.Armature, name string) string {
	parts := append(arm.Ancestors(name), name)
	return PathPrefix + strings.Join(parts, "/")
}

// PublicProperties drops editor metadata such as _RNA_UI: every key starting with "_".
func PublicProperties(p scene.Properties) scene.Properties {
	out := scene.Properties{}
	for k, v := range p {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}
