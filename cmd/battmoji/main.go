package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/battmoji/pkg/client"
	"github.com/charlie0129/battmoji/pkg/gui"
	"github.com/charlie0129/battmoji/pkg/version"
)

var (
	logLevel       = "info"
	unixSocketPath = filepath.Join(os.TempDir(), "battmoji.sock")
	configPath     = defaultConfigPath()
)

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	gInstallation = "Installation:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
		gInstallation,
	}
)

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "battmoji.json"
	}
	return filepath.Join(dir, "battmoji", "config.json")
}

func newClient() *client.Client {
	return client.NewClient(unixSocketPath)
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: battmoji daemon is not running")
		fmt.Fprintln(os.Stderr, "  - Start it in the foreground with 'battmoji daemon'")
		fmt.Fprintln(os.Stderr, "  - Or install it with 'battmoji install' so it starts at login")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - The daemon belongs to another user")
		fmt.Fprintln(os.Stderr, "  - Restart it with the '--always-allow-non-root-access' flag to allow other users")
	}
}

func main() {
	// battmoji does not need many CPUs.
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(2)
	}
	// The menu bar must run on the main thread.
	runtime.LockOSThread()

	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

// getVersion returns the versions of this binary and of the running daemon.
func getVersion() (string, string, error) {
	daemonVersion, err := newClient().GetVersion()
	return version.Version, daemonVersion, err
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "battmoji",
		Short: "battmoji shows your battery in the menu bar, with an emoji",
		Long: `battmoji shows your battery in the menu bar, with an emoji.

The daemon watches the power source and keeps the status line up to date.
The menu bar item, the terminal viewer and this CLI are clients of the daemon.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			// The daemon is not running yet when it starts.
			if cmd.Name() == "daemon" {
				return nil
			}

			if clientVersion, daemonVersion, err := getVersion(); err == nil {
				if daemonVersion != clientVersion {
					logrus.WithFields(logrus.Fields{
						"clientVersion": clientVersion,
						"daemonVersion": daemonVersion,
					}).Warn("Version mismatch between client and daemon. Reinstall the daemon with 'battmoji install' to use the same version.")
				}
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "battmoji daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewEmojiCommand(),
		NewAnimateCommand(),
		NewRefreshCommand(),
		NewWatchCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
		gui.NewGUICommand(&unixSocketPath, gBasic),
	)

	return cmd
}
