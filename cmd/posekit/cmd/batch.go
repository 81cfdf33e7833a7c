package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/f3rmion/posekit/internal/extract"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract poses from every image in a directory",
	Long: `Run extraction over every image directly inside <dir> using a pool of
workers. Each image writes <name>.json and <name>_skeleton.png into --out.

By default the first failure stops the run; --keep-going reports failures
per image and carries on.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().String("out", "", "output directory (default: next to each image)")
	batchCmd.Flags().Int("workers", 0, "concurrent extractions (default from config)")
	batchCmd.Flags().Bool("keep-going", false, "continue past per-image failures")
	batchCmd.Flags().String("bones", "", "bone table YAML (default: built-in table)")
	batchCmd.Flags().String("rotation", "", "rotation mode: similarity or aligned")
	batchCmd.Flags().Bool("strict", false, "fail when any bone or IK target is omitted")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ex, closeFn, err := newExtractor(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	keepGoing, _ := cmd.Flags().GetBool("keep-going")
	outDir, _ := cmd.Flags().GetString("out")

	items, err := ex.Batch(cmd.Context(), args[0], extract.BatchOptions{
		OutDir:     outDir,
		Workers:    intFlagOr(cmd, "workers", cfg.Batch.Workers),
		Extensions: cfg.Batch.Extensions,
		KeepGoing:  keepGoing,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, it := range items {
		if it.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", it.Image, it.Err)
			continue
		}
		fmt.Fprintf(out, "Pose data saved to %s\n", it.Result.JSONPath)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(items))
	}
	return nil
}
