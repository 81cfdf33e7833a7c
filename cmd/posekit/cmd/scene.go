package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/f3rmion/posekit/internal/config"
	"github.com/f3rmion/posekit/internal/scene"
	"github.com/f3rmion/posekit/internal/store"
)

var sceneCmd = &cobra.Command{
	Use:   "scene",
	Short: "Create and inspect scene documents",
}

var sceneInitCmd = &cobra.Command{
	Use:   "init [scene.db]",
	Short: "Create a scene document from a rig definition",
	Long: `Create a scene document holding the rig and camera described by a rig
definition YAML (default: the built-in rig). The path defaults to the
configured scene document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSceneInit,
}

var sceneShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Summarize the objects in a scene document",
	Args:  cobra.NoArgs,
	RunE:  runSceneShow,
}

func init() {
	rootCmd.AddCommand(sceneCmd)
	sceneCmd.AddCommand(sceneInitCmd, sceneShowCmd)
	sceneInitCmd.Flags().String("rig", "", "rig definition YAML (default: built-in rig)")
	sceneInitCmd.Flags().Bool("force", false, "overwrite an existing scene document")
}

func runSceneInit(cmd *cobra.Command, args []string) error {
	path := cfg.Scene.Path
	if len(args) > 0 {
		path = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("scene document already exists: %s\nUse --force to overwrite", path)
	}

	def, err := config.RigDefinitionOrDefault(stringFlagOr(cmd, "rig", cfg.Scene.Rig))
	if err != nil {
		return err
	}
	s, err := scene.Build(def, path)
	if err != nil {
		return fmt.Errorf("building scene: %w", err)
	}

	st, err := store.Open(cmd.Context(), path, logger())
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(cmd.Context(), s); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Scene saved to %s\n", st.Path())
	return nil
}

func runSceneShow(cmd *cobra.Command, _ []string) error {
	st, s, err := openScene(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scene: %s\n", st.Path())
	fmt.Fprintf(out, "  Camera: %s\n", s.Camera)
	fmt.Fprintf(out, "  Render: %dx%d %s transparent=%t -> %s\n\n",
		s.Settings.ResolutionX, s.Settings.ResolutionY, s.Settings.FileFormat,
		s.Settings.FilmTransparent, s.Settings.Filepath)

	for _, o := range s.Objects() {
		fmt.Fprintf(out, "%-12s %-9s loc=%v rot=%v", o.Name, o.Type, o.Location, o.Rotation)
		switch o.Type {
		case scene.TypeArmature:
			fmt.Fprintf(out, " bones=%d", o.Armature.Len())
		case scene.TypeCamera:
			fmt.Fprintf(out, " lens=%gmm sensor=%gmm", o.Lens, o.SensorWidth)
		}
		fmt.Fprintln(out)
	}
	return nil
}
