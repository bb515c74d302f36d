package gui

import (
	"github.com/spf13/cobra"
)

func NewGUICommand(unixSocketPath *string, groupID string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gui",
		Short:   "Show the battery status in the menu bar",
		GroupID: groupID,
		Long: `Show the battery status in the menu bar.

The menu bar item talks to the battmoji daemon, which must be running.`,
		Run: func(_ *cobra.Command, _ []string) {
			Run(*unixSocketPath)
		},
	}

	return cmd
}
