package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/cfdcheck/cmd/cfdcheck/tui"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Interactive what-if explorer",
	Long: `Open a terminal UI that re-ranks the bottlenecks as you change the mesh
size, core count, RAM and GPU of the resolved profile.

Keys:
  ↑/↓ or k/j   double / halve the cell count
  →/← or l/h   add / remove a core
  ] [          double / halve RAM
  } {          add / remove a memory channel
  g            cycle GPU memory (none, 8, 16, 24, 48, 80 GB)
  r            reset to the starting profile
  L            toggle the log pane (1-4 sets its level)
  q            quit`,
	Args: cobra.NoArgs,
	RunE: runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, _ []string) error {
	p, err := resolveProfile(cmd.Context(), cfg, cmd.Flags())
	if err != nil {
		return err
	}

	// Route log lines to the in-memory buffer shown by the log pane.
	if err := initLogging(true); err != nil {
		return err
	}

	return tui.Run(tui.Options{Profile: p})
}
