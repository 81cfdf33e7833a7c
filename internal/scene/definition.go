package scene

import (
	"fmt"
	"strings"
)

// Definition is the declarative form of a scene, as read from a rig file.
type Definition struct {
	Camera  string          `yaml:"camera"`
	Render  *RenderSettings `yaml:"render,omitempty"`
	Objects []ObjectDef     `yaml:"objects"`
}

// ObjectDef declares one object.
type ObjectDef struct {
	Name        string     `yaml:"name"`
	Type        ObjectType `yaml:"type"`
	Location    Vec3       `yaml:"location"`
	Rotation    Vec3       `yaml:"rotation"`
	Properties  Properties `yaml:"properties,omitempty"`
	Lens        float64    `yaml:"lens,omitempty"`
	SensorWidth float64    `yaml:"sensor_width,omitempty"`
	Bones       []BoneDef  `yaml:"bones,omitempty"`
}

// BoneDef declares one armature bone at rest.
type BoneDef struct {
	Name         string       `yaml:"name"`
	Parent       string       `yaml:"parent,omitempty"`
	Head         Vec3         `yaml:"head"`
	Tail         Vec3         `yaml:"tail"`
	RotationMode RotationMode `yaml:"rotation_mode,omitempty"`
	Properties   Properties   `yaml:"properties,omitempty"`
	Constraints  []Constraint `yaml:"constraints,omitempty"`
}

// Build validates def and creates a scene backed by path.
func Build(def *Definition, path string) (*Scene, error) {
	if def == nil {
		return nil, fmt.Errorf("scene definition is nil")
	}

	s := New(path)
	if def.Camera != "" {
		s.Camera = def.Camera
	}
	if def.Render != nil {
		s.Settings = *def.Render
		if s.Settings.ResolutionX <= 0 || s.Settings.ResolutionY <= 0 {
			return nil, fmt.Errorf("render resolution must be positive, got %dx%d",
				s.Settings.ResolutionX, s.Settings.ResolutionY)
		}
	}

	for i, od := range def.Objects {
		o, err := buildObject(od)
		if err != nil {
			return nil, fmt.Errorf("object %d (%s): %w", i, od.Name, err)
		}
		if err := s.AddObject(o); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func buildObject(od ObjectDef) (*Object, error) {
	typ := ObjectType(strings.ToUpper(string(od.Type)))
	switch typ {
	case TypeArmature, TypeCamera, TypeEmpty:
	case "":
		typ = TypeEmpty
	default:
		return nil, fmt.Errorf("unknown object type %q", od.Type)
	}

	o := NewObject(od.Name, typ)
	o.Location = od.Location
	o.Rotation = od.Rotation
	o.Props = od.Properties.Clone()
	if typ == TypeCamera {
		if od.Lens > 0 {
			o.Lens = od.Lens
		}
		if od.SensorWidth > 0 {
			o.SensorWidth = od.SensorWidth
		}
	}

	if len(od.Bones) > 0 && typ != TypeArmature {
		return nil, fmt.Errorf("only armatures have bones")
	}
	for _, bd := range od.Bones {
		b := &Bone{
			Name:         bd.Name,
			Parent:       bd.Parent,
			Head:         bd.Head,
			Tail:         bd.Tail,
			RotationMode: RotationMode(strings.ToUpper(string(bd.RotationMode))),
			Props:        bd.Properties.Clone(),
			Constraints:  append([]Constraint(nil), bd.Constraints...),
		}
		b.ClearTransform()
		if err := o.Armature.AddBone(b); err != nil {
			return nil, err
		}
	}
	return o, nil
}
