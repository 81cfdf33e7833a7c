package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/f3rmion/posekit/internal/apply"
	"github.com/f3rmion/posekit/internal/pose"
)

var applyCmd = &cobra.Command{
	Use:   "apply <pose.json> [output.png]",
	Short: "Pose the scene rig from a pose document and render it",
	Long: `Reset the rig in the scene document, apply the rotations and IK target
locations from a pose document and render the result.

The output path defaults to //rendered_pose.png; a leading // is relative
to the scene document's directory. Bones the rig does not have are
ignored unless --strict is given.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().Bool("strict", false, "fail when the document names bones the rig does not have")
}

func runApply(cmd *cobra.Command, args []string) error {
	doc, err := pose.ReadDocument(args[0])
	if err != nil {
		return err
	}
	output := apply.DefaultOutput
	if len(args) > 1 {
		output = args[1]
	}

	st, s, err := openScene(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	strict := boolFlagOr(cmd, "strict", cfg.Apply.Strict)
	res, err := apply.New(s, st, apply.Options{Strict: strict}, logger()).Apply(cmd.Context(), doc, output)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rendered image saved to %s\n", res.OutputPath)
	return nil
}
