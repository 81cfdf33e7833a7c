// Package scene models the host application state the pose applier and the
// rig introspector operate on: named objects, armature bones and render
// settings.
package scene

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when a named object is not in the scene.
var ErrObjectNotFound = errors.New("object not found")

// ObjectType is the kind of a scene object.
type ObjectType string

const (
	TypeArmature ObjectType = "ARMATURE"
	TypeCamera   ObjectType = "CAMERA"
	TypeEmpty    ObjectType = "EMPTY"
)

// Vec3 is a location, Euler triple or scale.
type Vec3 [3]float64

// Quat is a rotation stored as [w, x, y, z].
type Quat [4]float64

// IdentityQuat is the unrotated quaternion.
var IdentityQuat = Quat{1, 0, 0, 0}

// Properties are user-defined key/value pairs on objects and bones.
type Properties map[string]any

// Clone returns a shallow copy.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Default camera optics: a 50mm lens on a 36mm sensor.
const (
	DefaultLens        = 50.0
	DefaultSensorWidth = 36.0
)

// Object is a named scene object.
type Object struct {
	ID       string
	Name     string
	Type     ObjectType
	Location Vec3
	// Rotation is an XYZ Euler triple in radians.
	Rotation Vec3
	Props    Properties

	// Armature is set for ARMATURE objects.
	Armature *Armature

	// Lens and SensorWidth are in millimetres; used by CAMERA objects.
	Lens        float64
	SensorWidth float64
}

// NewObject creates an object with a fresh id.
func NewObject(name string, typ ObjectType) *Object {
	o := &Object{
		ID:   uuid.NewString(),
		Name: name,
		Type: typ,
	}
	switch typ {
	case TypeArmature:
		o.Armature = NewArmature()
	case TypeCamera:
		o.Lens = DefaultLens
		o.SensorWidth = DefaultSensorWidth
	}
	return o
}

// RenderSettings mirror the output options of a still render.
type RenderSettings struct {
	ResolutionX     int    `yaml:"resolution_x" json:"resolution_x"`
	ResolutionY     int    `yaml:"resolution_y" json:"resolution_y"`
	FileFormat      string `yaml:"file_format" json:"file_format"`
	FilmTransparent bool   `yaml:"film_transparent" json:"film_transparent"`
	Filepath        string `yaml:"filepath" json:"filepath"`
}

// DefaultRenderSettings returns a 512x512 opaque PNG render to //render.png.
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		ResolutionX: 512,
		ResolutionY: 512,
		FileFormat:  "PNG",
		Filepath:    "//render.png",
	}
}

// Renderer produces a still image of the scene as seen by its active camera.
type Renderer interface {
	Render(ctx context.Context, s *Scene, path string) error
}

// Scene is an in-memory scene document.
type Scene struct {
	// Path is the file the scene was loaded from; "//" paths resolve against its directory.
	Path string
	// Camera names the object used as the active camera.
	Camera   string
	Settings RenderSettings

	objects  []*Object
	index    map[string]int
	renderer Renderer
}

// New creates an empty scene backed by path.
func New(path string) *Scene {
	return &Scene{
		Path:     path,
		Camera:   "camera",
		Settings: DefaultRenderSettings(),
		index:    make(map[string]int),
	}
}

// AddObject appends o. Object names are unique.
func (s *Scene) AddObject(o *Object) error {
	if o == nil || strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("object name is required")
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[o.Name]; ok {
		return fmt.Errorf("duplicate object %q", o.Name)
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	s.index[o.Name] = len(s.objects)
	s.objects = append(s.objects, o)
	return nil
}

// Object looks up an object by name.
func (s *Scene) Object(name string) (*Object, error) {
	i, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrObjectNotFound, name)
	}
	return s.objects[i], nil
}

// Objects returns the objects in insertion order.
func (s *Scene) Objects() []*Object {
	return append([]*Object(nil), s.objects...)
}

// ActiveCamera returns the object named by s.Camera.
func (s *Scene) ActiveCamera() (*Object, error) {
	return s.Object(s.Camera)
}

// ResolvePath expands a leading "//" against the scene document's directory.
func (s *Scene) ResolvePath(p string) string {
	if !strings.HasPrefix(p, "//") {
		return p
	}
	dir := "."
	if s.Path != "" {
		dir = filepath.Dir(s.Path)
	}
	return filepath.Join(dir, filepath.FromSlash(p[2:]))
}

// SetRenderer attaches the renderer used by Render.
func (s *Scene) SetRenderer(r Renderer) {
	s.renderer = r
}

// Render writes a still to the resolved Settings.Filepath and returns that path.
func (s *Scene) Render(ctx context.Context) (string, error) {
	if s.renderer == nil {
		return "", fmt.Errorf("no renderer attached to scene")
	}
	if _, err := s.ActiveCamera(); err != nil {
		return "", fmt.Errorf("active camera: %w", err)
	}
	out := s.ResolvePath(s.Settings.Filepath)
	if err := s.renderer.Render(ctx, s, out); err != nil {
		return "", fmt.Errorf("rendering %s: %w", out, err)
	}
	return out, nil
}
