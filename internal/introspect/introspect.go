// Package introspect renders the rig's rest pose and dumps its bone hierarchy.
package introspect

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/f3rmion/posekit/internal/apply"
	"github.com/f3rmion/posekit/internal/fsutil"
	"github.com/f3rmion/posekit/internal/scene"
)

// Default output locations, relative to the scene document.
const (
	DefaultRenderPath = "//t_pose_render.png"
	DefaultJSONPath   = "//rig_data.json"
)

// Options override the output locations.
type Options struct {
	RenderPath string
	JSONPath   string
}

// Result reports where the outputs went.
type Result struct {
	RenderPath string
	JSONPath   string
	Snapshot   *RigSnapshot
}

// Introspector dumps one scene's rig.
type Introspector struct {
	scene  *scene.Scene
	saver  apply.Saver
	logger *zap.Logger
}

// New creates an Introspector. A nil saver leaves the scene unsaved.
func New(s *scene.Scene, saver apply.Saver, logger *zap.Logger) *Introspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Introspector{scene: s, saver: saver, logger: logger}
}

// Run clears the pose, renders the T-pose and writes the rig snapshot.
func (in *Introspector) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.RenderPath == "" {
		opts.RenderPath = DefaultRenderPath
	}
	if opts.JSONPath == "" {
		opts.JSONPath = DefaultJSONPath
	}

	rig, camera, err := apply.Stage(in.scene)
	if err != nil {
		return nil, err
	}

	rig.Armature.ClearTransforms()
	apply.SetupRender(in.scene, camera, opts.RenderPath)
	renderPath, err := in.scene.Render(ctx)
	if err != nil {
		return nil, err
	}
	in.logger.Info("T-pose rendered", zap.String("path", renderPath))

	snap, err := Snapshot(rig)
	if err != nil {
		return nil, err
	}
	jsonPath := in.scene.ResolvePath(opts.JSONPath)
	if err := fsutil.WriteAtomic(jsonPath, snap.Encode); err != nil {
		return nil, fmt.Errorf("writing rig data: %w", err)
	}
	in.logger.Info("rig data written", zap.String("path", jsonPath), zap.Int("bones", len(snap.Bones)))

	if in.saver != nil {
		if err := in.saver.Save(ctx, in.scene); err != nil {
			return nil, fmt.Errorf("saving scene: %w", err)
		}
	}

	return &Result{RenderPath: renderPath, JSONPath: jsonPath, Snapshot: snap}, nil
}
