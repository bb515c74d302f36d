package main

import (
	"fmt"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/battmoji/pkg/config"
	"github.com/charlie0129/battmoji/pkg/utils/launchagent"
)

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	allowNonRootAccess := false

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Start battmoji at login",
		GroupID: gInstallation,
		Long: `Install battmoji daemon as a launchd agent of the current user.

This makes battmoji run in the background and start automatically at login.

By default, only the current user can access the daemon. Use the --allow-non-root-access flag to let other users read the status as well.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
				return pkgerrors.Wrapf(err, "failed to create config directory")
			}

			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			conf.SetAllowNonRootAccess(allowNonRootAccess)
			if allowNonRootAccess {
				logrus.Info("other users are allowed to access the battmoji daemon.")
			}

			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			err = launchagent.Install(launchagent.Options{
				ConfigPath: configPath,
				SocketPath: unixSocketPath,
			})
			if err != nil {
				return fmt.Errorf("failed to install daemon: %w", err)
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("`launchd' will use current binary (%s) at login so please make sure you do not move this binary. Once this binary is moved or deleted, you will need to run ``battmoji install'' again.\n", exePath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&allowNonRootAccess, "allow-non-root-access", false, "Allow other users to access battmoji daemon.")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "uninstall",
		Short:   "Stop starting battmoji at login",
		GroupID: gInstallation,
		Long: `Uninstall battmoji daemon from launchd.

This stops the daemon and removes the launchd agent.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := launchagent.Uninstall("")
			if err != nil {
				return fmt.Errorf("failed to uninstall daemon: %w", err)
			}

			fmt.Println("successfully uninstalled")

			cmd.Printf("Your config is kept in %s, in case you want to use `battmoji' again. If you want a complete uninstall, you can remove both config file and battmoji itself manually.\n", configPath)

			return nil
		},
	}

	return cmd
}
