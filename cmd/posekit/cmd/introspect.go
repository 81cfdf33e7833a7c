package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/f3rmion/posekit/internal/introspect"
)

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Render the rig's T-pose and dump its bone hierarchy",
	Long: `Clear every pose transform on the scene rig, render the T-pose and
write a JSON snapshot of the rig: custom properties plus, per bone, the
parent, head and tail, rotation, location, scale, properties, constraints
and full path.`,
	Args: cobra.NoArgs,
	RunE: runIntrospect,
}

func init() {
	rootCmd.AddCommand(introspectCmd)
	introspectCmd.Flags().String("render", introspect.DefaultRenderPath, "T-pose render output")
	introspectCmd.Flags().String("json", introspect.DefaultJSONPath, "rig data output")
}

func runIntrospect(cmd *cobra.Command, _ []string) error {
	st, s, err := openScene(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	renderPath, _ := cmd.Flags().GetString("render")
	jsonPath, _ := cmd.Flags().GetString("json")

	res, err := introspect.New(s, st, logger()).Run(cmd.Context(), introspect.Options{
		RenderPath: renderPath,
		JSONPath:   jsonPath,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "T-pose render saved to %s\n", res.RenderPath)
	fmt.Fprintf(out, "Rig data saved to %s\n", res.JSONPath)
	return nil
}
