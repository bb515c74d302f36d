package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/battmoji/pkg/config"
	"github.com/charlie0129/battmoji/pkg/powerinfo"
	"github.com/charlie0129/battmoji/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print version",
		GroupID: gBasic,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewEmojiCommand() *cobra.Command {
	list := false

	cmd := &cobra.Command{
		Use:     "emoji [glyph]",
		Short:   "Get or set the menu bar emoji",
		GroupID: gBasic,
		Long: `Get or set the emoji shown in the menu bar and used by the animation.

Without an argument the current emoji is printed. Any single-line glyph is accepted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, e := range config.DefaultEmojis {
					cmd.Println(e)
				}
				return nil
			}

			c := newClient()
			if len(args) == 0 {
				emoji, err := c.GetEmoji()
				if err != nil {
					return fmt.Errorf("failed to get emoji: %w", err)
				}
				cmd.Println(emoji)
				return nil
			}

			emoji, err := config.ValidateEmoji(args[0])
			if err != nil {
				return err
			}
			ret, err := c.SetEmoji(emoji)
			if err != nil {
				return fmt.Errorf("failed to set emoji: %w", err)
			}
			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}
			logrus.Infof("successfully set emoji to %s", emoji)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List the suggested emojis.")

	return cmd
}

func NewAnimateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "animate",
		Short:   "Play the falling emoji animation",
		GroupID: gBasic,
		Long: `Play the falling emoji animation.

Nothing happens if an animation is already playing.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			started, err := newClient().StartAnimation()
			if err != nil {
				return fmt.Errorf("failed to start animation: %w", err)
			}
			if started {
				logrus.Info("animation started")
			} else {
				logrus.Info("animation is already playing")
			}
			return nil
		},
	}
}

func NewRefreshCommand() *cobra.Command {
	history := false

	cmd := &cobra.Command{
		Use:     "refresh",
		Short:   "Read the power source now",
		GroupID: gAdvanced,
		Long: `Make the daemon read the power source now instead of waiting for the next change.

Recent refreshes are listed with --history.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient()

			if history {
				refreshes, err := c.GetRefreshes()
				if err != nil {
					return fmt.Errorf("failed to get refreshes: %w", err)
				}
				for _, r := range refreshes {
					cmd.Println(r)
				}
				return nil
			}

			st, err := c.Refresh()
			if err != nil {
				return fmt.Errorf("failed to refresh: %w", err)
			}
			cmd.Printf("%s %d%%\n", powerinfo.StatusText(*st), st.Percentage)
			return nil
		},
	}

	cmd.Flags().BoolVar(&history, "history", false, "List recent refreshes, newest first.")

	return cmd
}
