// Package apply poses the scene rig from a pose document and renders it.
package apply

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/f3rmion/posekit/internal/pose"
	"github.com/f3rmion/posekit/internal/scene"
)

// ErrUnknownBones is returned in strict mode when the document names bones
// the rig does not have.
var ErrUnknownBones = errors.New("pose document names unknown bones")

const (
	RigName    = "rig"
	CameraName = "camera"

	// DefaultOutput is where Apply renders when no output path is given.
	DefaultOutput = "//rendered_pose.png"
)

// Camera placement shared by pose renders and T-pose renders.
var (
	CameraLocation = scene.Vec3{0, -5, 1.7}
	CameraRotation = scene.Vec3{1.5708, 0, 0}
)

// Saver persists a scene after it changed.
type Saver interface {
	Save(ctx context.Context, s *scene.Scene) error
}

// Options configure an Applier.
type Options struct {
	Strict bool
}

// Applier applies pose documents to one scene.
type Applier struct {
	scene  *scene.Scene
	saver  Saver
	strict bool
	logger *zap.Logger
}

// Result describes one application.
type Result struct {
	RunID      string
	OutputPath string
	Applied    []string
	Ignored    []string
}

// New creates an Applier for s. A nil saver leaves the scene unsaved.
func New(s *scene.Scene, saver Saver, opts Options, logger *zap.Logger) *Applier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{scene: s, saver: saver, strict: opts.Strict, logger: logger}
}

// Stage looks up the rig and camera, failing before anything is touched.
func Stage(s *scene.Scene) (rig, camera *scene.Object, err error) {
	rig, err = s.Object(RigName)
	if err != nil {
		return nil, nil, err
	}
	if rig.Type != scene.TypeArmature || rig.Armature == nil {
		return nil, nil, fmt.Errorf("object %q is a %s, not an armature", RigName, rig.Type)
	}
	camera, err = s.Object(CameraName)
	if err != nil {
		return nil, nil, err
	}
	return rig, camera, nil
}

// SetupRender places the camera and configures a 512x512 transparent PNG
// render to output.
func SetupRender(s *scene.Scene, camera *scene.Object, output string) {
	camera.Location = CameraLocation
	camera.Rotation = CameraRotation
	s.Camera = camera.Name
	s.Settings = scene.RenderSettings{
		ResolutionX:     512,
		ResolutionY:     512,
		FileFormat:      "PNG",
		FilmTransparent: true,
		Filepath:        output,
	}
}

// Apply resets the rig, applies doc and renders to outputPath. Unknown bones
// are skipped unless the Applier is strict.
func (a *Applier) Apply(ctx context.Context, doc *pose.Document, outputPath string) (*Result, error) {
	if doc == nil {
		doc = pose.NewDocument()
	}
	if outputPath == "" {
		outputPath = DefaultOutput
	}

	rig, camera, err := Stage(a.scene)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString()}
	log := a.logger.With(zap.String("run_id", res.RunID))

	entries := doc.Entries()
	for _, e := range entries {
		if _, ok := rig.Armature.Bone(e.Bone()); !ok {
			res.Ignored = append(res.Ignored, e.Key)
		}
	}
	if a.strict && len(res.Ignored) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBones, strings.Join(res.Ignored, ", "))
	}

	rig.Armature.ClearTransforms()

	for _, e := range entries {
		bone, ok := rig.Armature.Bone(e.Bone())
		if !ok {
			log.Debug("bone not in rig", zap.String("key", e.Key))
			continue
		}
		if e.IsLocation() {
			copy(bone.Location[:], e.Values)
		} else {
			bone.RotationMode = scene.ModeQuaternion
			copy(bone.Quaternion[:], e.Values)
		}
		res.Applied = append(res.Applied, e.Key)
	}

	SetupRender(a.scene, camera, outputPath)
	out, err := a.scene.Render(ctx)
	if err != nil {
		return nil, err
	}
	res.OutputPath = out

	if a.saver != nil {
		if err := a.saver.Save(ctx, a.scene); err != nil {
			return nil, fmt.Errorf("saving scene: %w", err)
		}
	}

	log.Info("pose applied",
		zap.String("output", out),
		zap.Int("applied", len(res.Applied)),
		zap.Int("ignored", len(res.Ignored)))
	return res, nil
}
