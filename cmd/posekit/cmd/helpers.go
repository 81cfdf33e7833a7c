package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/f3rmion/posekit/internal/config"
	"github.com/f3rmion/posekit/internal/detector"
	"github.com/f3rmion/posekit/internal/pose"
	"github.com/f3rmion/posekit/internal/render"
	"github.com/f3rmion/posekit/internal/scene"
	"github.com/f3rmion/posekit/internal/store"
)

// stringFlagOr returns the flag value when it was set on the command line.
func stringFlagOr(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

func boolFlagOr(cmd *cobra.Command, name string, fallback bool) bool {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetBool(name)
		return v
	}
	return fallback
}

func intFlagOr(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

func loadBoneTable(cmd *cobra.Command) (*pose.BoneTable, error) {
	return config.BoneTableOrDefault(stringFlagOr(cmd, "bones", cfg.Extract.Bones))
}

func newDetector() (detector.Detector, error) {
	return detector.New(detector.Config{
		Kind:          cfg.Detector.Kind,
		SidecarSuffix: cfg.Detector.SidecarSuffix,
		Endpoint:      cfg.Detector.Endpoint,
		Token:         cfg.Detector.Token,
		Timeout:       cfg.Detector.Timeout,
		MinConfidence: cfg.Detector.MinConfidence,
	}, logger())
}

// openScene opens the configured scene document and loads it with the
// software renderer attached. Callers close the returned store.
func openScene(ctx context.Context) (*store.Store, *scene.Scene, error) {
	st, err := store.OpenExisting(ctx, cfg.Scene.Path, logger())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w (create one with 'posekit scene init')", err)
		}
		return nil, nil, err
	}
	s, err := st.Load(ctx)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("loading scene (create one with 'posekit scene init'): %w", err)
	}
	s.SetRenderer(render.New(logger()))
	return st, s, nil
}
