package pose

import (
	"fmt"
	"strings"
)

// BoneTable holds the landmark bindings for one rig.
type BoneTable struct {
	Bones     []BoneMapping  `yaml:"bones" json:"bones"`
	IKTargets []IKTarget     `yaml:"ik_targets" json:"ik_targets"`
	Remap     *LocationRemap `yaml:"location_remap,omitempty" json:"location_remap,omitempty"`
}

// LocationRemap returns the table's remap, falling back to the default one.
func (t *BoneTable) LocationRemap() LocationRemap {
	if t.Remap == nil {
		return DefaultLocationRemap()
	}
	return *t.Remap
}

// Bone returns the mapping for a bone name.
func (t *BoneTable) Bone(name string) (BoneMapping, bool) {
	for _, b := range t.Bones {
		if b.Name == name {
			return b, true
		}
	}
	return BoneMapping{}, false
}

// Validate checks names and landmark indices.
func (t *BoneTable) Validate() error {
	if len(t.Bones) == 0 && len(t.IKTargets) == 0 {
		return fmt.Errorf("bone table is empty")
	}

	seen := make(map[string]struct{}, len(t.Bones))
	for i, b := range t.Bones {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			return fmt.Errorf("bone %d name is required", i)
		}
		if strings.HasSuffix(name, LocationSuffix) {
			return fmt.Errorf("bone %q must not end in %q", name, LocationSuffix)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate bone: %s", name)
		}
		seen[name] = struct{}{}
		for _, idx := range b.Landmarks {
			if idx < 0 || idx >= LandmarkCount {
				return fmt.Errorf("bone %s: landmark %d out of range [0,%d)", name, idx, LandmarkCount)
			}
		}
	}

	targets := make(map[string]struct{}, len(t.IKTargets))
	for i, ik := range t.IKTargets {
		name := strings.TrimSpace(ik.Bone)
		if name == "" {
			return fmt.Errorf("ik target %d bone is required", i)
		}
		if _, dup := targets[name]; dup {
			return fmt.Errorf("duplicate ik target: %s", name)
		}
		targets[name] = struct{}{}
		if ik.Landmark < 0 || ik.Landmark >= LandmarkCount {
			return fmt.Errorf("ik target %s: landmark %d out of range [0,%d)", name, ik.Landmark, LandmarkCount)
		}
	}

	if t.Remap != nil {
		if t.Remap.Scale == 0 || t.Remap.DepthScale == 0 {
			return fmt.Errorf("location remap scales must be non-zero")
		}
	}

	return nil
}
