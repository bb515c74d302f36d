// Package launchagent starts the daemon at login through a per-user
// LaunchAgent.
package launchagent

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const Label = "cc.chlc.battmoji"

//go:embed agent.plist
var plistTemplate string

// Options describe the agent to install.
type Options struct {
	// Executable defaults to the running binary.
	Executable string
	ConfigPath string
	SocketPath string
	// HomeDir defaults to the user's home directory.
	HomeDir string
}

// launchctl runs /bin/launchctl. Replaced in tests.
var launchctl = func(args ...string) error {
	out, err := exec.Command("/bin/launchctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("launchctl %s: %w: %s", strings.Join(args, " "), err, bytes.TrimSpace(out))
	}
	return nil
}

// PlistPath is where the agent of the user with home directory home lives.
func PlistPath(home string) string {
	return filepath.Join(home, "Library", "LaunchAgents", Label+".plist")
}

// LogPath is where the daemon started by the agent writes its output.
func LogPath(home string) string {
	return filepath.Join(home, "Library", "Logs", "battmoji.log")
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// Render returns the plist for opts. Paths must be absolute.
func Render(opts Options) string {
	return strings.NewReplacer(
		"{{LABEL}}", Label,
		"{{EXECUTABLE}}", escape(opts.Executable),
		"{{CONFIG}}", escape(opts.ConfigPath),
		"{{SOCKET}}", escape(opts.SocketPath),
		"{{LOG}}", escape(LogPath(opts.HomeDir)),
	).Replace(plistTemplate)
}

func (o *Options) complete() error {
	if o.Executable == "" {
		exePath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get the path to the current executable: %w", err)
		}
		o.Executable = exePath
	}
	if o.HomeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get the home directory: %w", err)
		}
		o.HomeDir = home
	}

	for _, p := range []*string{&o.Executable, &o.ConfigPath, &o.SocketPath} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("failed to get the absolute path of %s: %w", *p, err)
		}
		*p = abs
	}
	return nil
}

// Install writes the agent and loads it, which starts the daemon.
func Install(opts Options) error {
	if err := opts.complete(); err != nil {
		return err
	}
	logrus.Infof("current executable path: %s", opts.Executable)

	plistPath := PlistPath(opts.HomeDir)
	for _, dir := range []string{filepath.Dir(plistPath), filepath.Dir(LogPath(opts.HomeDir))} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if _, err := os.Stat(plistPath); err == nil {
		logrus.Warnf("%s already exists, replacing it", plistPath)
		// Ignore the error, the agent may not be loaded.
		_ = launchctl("unload", plistPath)
	}

	logrus.Infof("writing launch agent to %s", plistPath)
	if err := os.WriteFile(plistPath, []byte(Render(opts)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", plistPath, err)
	}

	logrus.Infof("starting battmoji daemon")
	if err := launchctl("load", plistPath); err != nil {
		return fmt.Errorf("failed to load %s: %w", plistPath, err)
	}
	return nil
}
