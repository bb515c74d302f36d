package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/charlie0129/battmoji/pkg/config"
	"github.com/charlie0129/battmoji/pkg/powerinfo"
	"github.com/charlie0129/battmoji/pkg/utils/ptr"
)

func testStatusData() *statusData {
	return &statusData{
		status: "🌟 1:30",
		state: &powerinfo.PowerState{
			Percentage:           55,
			Health:               "Good",
			TimeRemainingMinutes: ptr.To(90),
		},
		config: &config.RawFileConfig{Emoji: ptr.To("🌟")},
	}
}

func TestWriteStatusText(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	if err := writeStatus(&buf, testStatusData(), "text"); err != nil {
		t.Fatalf("writeStatus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"🌟 1:30",
		"Current charge: 55%",
		"State: 🔋 On Battery",
		"Power Source: Battery",
		"Time Remaining: 1h 30m",
		"Playing: ✘",
		"Emoji: 🌟",
		"Screen size: 1440x900",
		"Poll interval: @every 10s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteStatusStructured(t *testing.T) {
	tests := []struct {
		format    string
		unmarshal func([]byte, any) error
	}{
		{"json", json.Unmarshal},
		{"yaml", yaml.Unmarshal},
		{"YAML", yaml.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeStatus(&buf, testStatusData(), tt.format); err != nil {
				t.Fatalf("writeStatus: %v", err)
			}

			var got statusOutput
			if err := tt.unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("failed to parse output: %v\n%s", err, buf.String())
			}
			if got.Status != "🌟 1:30" || got.Battery.Percentage != 55 || len(got.Details) != 3 {
				t.Errorf("unexpected output %+v", got)
			}
			if ptr.Deref(got.Configuration.Emoji, "") != "🌟" || ptr.Deref(got.Configuration.ScreenHeight, 0) != 900 {
				t.Errorf("configuration defaults not filled in: %+v", got.Configuration)
			}
		})
	}
}

func TestWriteStatusUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := writeStatus(&buf, testStatusData(), "xml"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}
