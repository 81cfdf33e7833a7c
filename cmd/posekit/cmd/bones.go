package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/f3rmion/posekit/internal/pose"
)

var bonesCmd = &cobra.Command{
	Use:   "bones",
	Short: "Print the bone table",
	Long: `Print which landmarks drive each rig bone and which landmarks become IK
target locations.`,
	Args: cobra.NoArgs,
	RunE: runBones,
}

func init() {
	rootCmd.AddCommand(bonesCmd)
	bonesCmd.Flags().String("bones", "", "bone table YAML (default: built-in table)")
}

func runBones(cmd *cobra.Command, _ []string) error {
	table, err := loadBoneTable(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Bones (%d):\n", len(table.Bones))
	for _, b := range table.Bones {
		names := make([]string, len(b.Landmarks))
		for i, idx := range b.Landmarks {
			names[i] = pose.LandmarkName(idx)
		}
		fmt.Fprintf(out, "  %-16s %2d %2d %2d  %s\n", b.Name,
			b.Landmarks[0], b.Landmarks[1], b.Landmarks[2], strings.Join(names, " > "))
	}

	fmt.Fprintf(out, "\nIK targets (%d):\n", len(table.IKTargets))
	for _, ik := range table.IKTargets {
		fmt.Fprintf(out, "  %-16s %2d  %s\n", pose.LocationKey(ik.Bone), ik.Landmark, pose.LandmarkName(ik.Landmark))
	}

	r := table.LocationRemap()
	fmt.Fprintf(out, "\nLocation remap: x=(lx-0.5)*%g y=(0.5-ly)*%g z=lz*%g+%g\n",
		r.Scale, r.Scale, r.DepthScale, r.DepthOffset)
	return nil
}
