package main

import (
	"github.com/spf13/cobra"

	"github.com/charlie0129/battmoji/pkg/tui"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Watch the status and animation in the terminal",
		GroupID: gBasic,
		Long: `Watch the menu bar status and the falling emoji animation in the terminal.

Press 'a' to play the animation, 'r' to refresh and 'q' to quit.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return tui.Run(newClient())
		},
	}
}
