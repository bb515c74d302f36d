package launchagent

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func fakeLaunchctl(t *testing.T) *[][]string {
	t.Helper()
	var calls [][]string
	orig := launchctl
	launchctl = func(args ...string) error {
		calls = append(calls, args)
		return nil
	}
	t.Cleanup(func() { launchctl = orig })
	return &calls
}

func TestRender(t *testing.T) {
	got := Render(Options{
		Executable: "/opt/bin/battmoji",
		ConfigPath: "/Users/a&b/config.json",
		SocketPath: "/tmp/battmoji.sock",
		HomeDir:    "/Users/a&b",
	})

	for _, want := range []string{
		"<string>cc.chlc.battmoji</string>",
		"<string>/opt/bin/battmoji</string>",
		"<string>daemon</string>",
		"<string>/Users/a&amp;b/config.json</string>",
		"<string>/tmp/battmoji.sock</string>",
		"<string>/Users/a&amp;b/Library/Logs/battmoji.log</string>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("plist missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "{{") {
		t.Errorf("plist has unreplaced placeholders:\n%s", got)
	}
}

func TestInstallUninstall(t *testing.T) {
	calls := fakeLaunchctl(t)
	home := t.TempDir()
	plist := PlistPath(home)

	opts := Options{
		Executable: "/opt/bin/battmoji",
		ConfigPath: "/etc/battmoji.json",
		SocketPath: "/tmp/battmoji.sock",
		HomeDir:    home,
	}
	if err := Install(opts); err != nil {
		t.Fatalf("Install: %v", err)
	}
	b, err := os.ReadFile(plist)
	if err != nil {
		t.Fatalf("plist not written: %v", err)
	}
	if string(b) != Render(opts) {
		t.Errorf("unexpected plist contents:\n%s", b)
	}
	if _, err := os.Stat(filepath.Dir(LogPath(home))); err != nil {
		t.Errorf("log dir not created: %v", err)
	}

	// Reinstalling unloads the old agent first.
	if err := Install(opts); err != nil {
		t.Fatalf("second Install: %v", err)
	}

	if err := Uninstall(home); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if _, err := os.Stat(plist); !os.IsNotExist(err) {
		t.Errorf("plist still exists: %v", err)
	}

	want := [][]string{
		{"load", plist},
		{"unload", plist},
		{"load", plist},
		{"unload", plist},
	}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("launchctl calls = %v, want %v", *calls, want)
	}

	// Nothing left to uninstall.
	if err := Uninstall(home); err != nil {
		t.Errorf("Uninstall without an agent: %v", err)
	}
	if len(*calls) != len(want) {
		t.Errorf("launchctl called without an agent: %v", *calls)
	}
}
