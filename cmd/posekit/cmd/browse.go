package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/f3rmion/posekit/internal/apply"
	"github.com/f3rmion/posekit/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the scene rig in the TUI",
	Long: `Load the scene document and browse the rig's bones in an interactive
terminal UI.

Controls:
  ↑/↓ or j/k    Select bone
  /             Filter by name
  c             Clear filter
  y             Copy the bone's JSON snapshot
  q or Esc      Quit`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	st, s, err := openScene(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	rig, _, err := apply.Stage(s)
	if err != nil {
		return err
	}
	m, err := tui.NewInspector(rig, st.Path())
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
