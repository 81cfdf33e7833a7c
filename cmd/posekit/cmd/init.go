package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/f3rmion/posekit/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize posekit configuration",
	Long: `Initialize posekit configuration files in your config directory.

This creates template YAML files for:
  - posekit.yaml  (logging, detector, extraction and scene settings)
  - bones.yaml    (landmark triples per rig bone, IK targets)
  - rig.yaml      (rig hierarchy and camera for 'posekit scene init')

Edit bones.yaml and rig.yaml to drive your own rig.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "overwrite existing configuration")
	initCmd.Flags().String("dir", "", "target directory (default is $HOME/.config/posekit)")
}

func runInit(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		d, err := config.GetConfigDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dir = d
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initializing posekit configuration in %s\n\n", dir)

	written, err := config.WriteTemplates(dir, force)
	for _, p := range written {
		fmt.Fprintf(out, "  Created %s\n", filepath.Base(p))
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Run 'posekit scene init' to create a scene document")
	fmt.Fprintln(out, "  2. Run 'posekit extract <image> <pose.json>' to extract a pose")
	fmt.Fprintln(out, "  3. Run 'posekit apply <pose.json>' to render it")
	return nil
}
