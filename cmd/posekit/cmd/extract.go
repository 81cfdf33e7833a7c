package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/f3rmion/posekit/internal/extract"
	"github.com/f3rmion/posekit/internal/orient"
)

var extractCmd = &cobra.Command{
	Use:   "extract <image> <output.json>",
	Short: "Detect a pose in an image and write a pose document",
	Long: `Detect body landmarks in an image and convert them into bone rotations
and IK target locations for the rig.

Writes the pose document to <output.json> and a skeleton overlay to
<output>_skeleton.png. Bones whose landmarks are not confidently visible
are left out; with --strict any omission is an error.`,
	Args: cobra.ExactArgs(2),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().String("bones", "", "bone table YAML (default: built-in table)")
	extractCmd.Flags().String("rotation", "", "rotation mode: similarity or aligned")
	extractCmd.Flags().Bool("strict", false, "fail when any bone or IK target is omitted")
}

func newExtractor(cmd *cobra.Command) (*extract.Extractor, func() error, error) {
	table, err := loadBoneTable(cmd)
	if err != nil {
		return nil, nil, err
	}
	mode, err := orient.ParseMode(stringFlagOr(cmd, "rotation", cfg.Extract.Rotation))
	if err != nil {
		return nil, nil, err
	}
	det, err := newDetector()
	if err != nil {
		return nil, nil, err
	}
	ex, err := extract.New(det, extract.Options{
		Table:  table,
		Mode:   mode,
		Strict: boolFlagOr(cmd, "strict", cfg.Extract.Strict),
	}, logger())
	if err != nil {
		det.Close()
		return nil, nil, err
	}
	return ex, det.Close, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	ex, closeFn, err := newExtractor(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := ex.Extract(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Skeleton visualization saved to %s\n", res.SkeletonPath)
	fmt.Fprintf(out, "Pose data saved to %s\n", res.JSONPath)
	if len(res.Omitted) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d entries omitted (run with --log-level debug for details)\n", len(res.Omitted))
	}
	return nil
}
