package main

import (
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/battmoji/pkg/daemon"
	"github.com/charlie0129/battmoji/pkg/version"
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	opts := daemon.Options{}

	cmd := &cobra.Command{
		Use:     "daemon",
		Short:   "Run battmoji daemon in the foreground",
		GroupID: gAdvanced,
		Long: `Run battmoji daemon in the foreground.

The daemon reads the power source, serves the status on a unix socket and
plays the falling emoji animation. Send SIGHUP to reload the config and SIGUSR2
to play the animation.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("battmoji daemon starting")

			if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
				return pkgerrors.Wrapf(err, "failed to create config directory")
			}

			opts.ConfigPath = configPath
			opts.SocketPath = unixSocketPath
			return daemon.Run(opts)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&opts.AllowNonRoot, "always-allow-non-root-access", false,
		"Always allow other users to access the daemon.")
	f.StringVar(&opts.ProbeFile, "probe-file", "",
		"Read power sources from this JSON file instead of the battery.")
	f.BoolVar(&opts.WatchConfig, "watch-config", true,
		"Reload the config when the file changes.")

	return cmd
}
