package launchagent

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Uninstall unloads the agent of the user with home directory home and
// removes it. A missing agent is not an error.
func Uninstall(home string) error {
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return fmt.Errorf("failed to get the home directory: %w", err)
		}
	}
	plistPath := PlistPath(home)

	// if the file doesn't exist, we don't need to remove it
	if _, err := os.Stat(plistPath); err != nil {
		if os.IsNotExist(err) {
			logrus.Infof("%s does not exist, nothing to uninstall", plistPath)
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", plistPath, err)
	}

	logrus.Infof("stopping battmoji daemon")
	if err := launchctl("unload", plistPath); err != nil {
		return fmt.Errorf("failed to unload %s: %w", plistPath, err)
	}

	logrus.Infof("removing launch agent")
	if err := os.Remove(plistPath); err != nil {
		return fmt.Errorf("failed to remove %s: %w", plistPath, err)
	}
	return nil
}
