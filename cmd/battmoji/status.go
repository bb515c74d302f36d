package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/charlie0129/battmoji/pkg/config"
	"github.com/charlie0129/battmoji/pkg/powerinfo"
)

type statusData struct {
	status  string
	state   *powerinfo.PowerState
	running bool
	config  *config.RawFileConfig
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	c := newClient()

	status, err := c.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	state, err := c.GetPowerState()
	if err != nil {
		return nil, fmt.Errorf("failed to get power state: %w", err)
	}

	frame, err := c.GetAnimation()
	if err != nil {
		return nil, fmt.Errorf("failed to get animation: %w", err)
	}

	conf, err := c.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		status:  status,
		state:   state,
		running: frame.Running,
		config:  conf,
	}, nil
}

// statusOutput is the machine-readable form of the status command.
type statusOutput struct {
	Status        string                `json:"status" yaml:"status"`
	Battery       powerinfo.PowerState  `json:"battery" yaml:"battery"`
	Details       []powerinfo.DetailRow `json:"details" yaml:"details"`
	Animating     bool                  `json:"animating" yaml:"animating"`
	Configuration config.RawFileConfig  `json:"configuration" yaml:"configuration"`
}

func newStatusOutput(data *statusData) (statusOutput, error) {
	// Fill in defaults for keys the config file leaves unset.
	conf, err := config.NewRawFileConfigFromConfig(config.NewFileFromConfig(data.config, ""))
	if err != nil {
		return statusOutput{}, err
	}
	return statusOutput{
		Status:        data.status,
		Battery:       *data.state,
		Details:       powerinfo.Details(*data.state),
		Animating:     data.running,
		Configuration: *conf,
	}, nil
}

func writeStatus(w io.Writer, data *statusData, format string) error {
	switch strings.ToLower(format) {
	case "json":
		out, err := newStatusOutput(data)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		out, err := newStatusOutput(data)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case "", "text":
		writeStatusText(w, data)
		return nil
	default:
		return fmt.Errorf("unknown output format %q, use text, json or yaml", format)
	}
}

func writeStatusText(w io.Writer, data *statusData) {
	conf := config.NewFileFromConfig(data.config, "")
	st := *data.state

	fmt.Fprintln(w, bold("Menu bar:"))
	fmt.Fprintf(w, "  %s\n", bold("%s", data.status))
	fmt.Fprintln(w)

	fmt.Fprintln(w, bold("Battery status:"))
	fmt.Fprintf(w, "  Current charge: %s\n", bold("%d%%", st.Percentage))
	fmt.Fprintf(w, "  State: %s %s\n", powerinfo.Icon(st), powerinfo.StatusText(st))
	for _, row := range powerinfo.Details(st) {
		fmt.Fprintf(w, "  %s: %s\n", row.Label, row.Value)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, bold("Animation:"))
	fmt.Fprintln(w, "  Playing: "+bool2Text(data.running))
	fmt.Fprintln(w)

	fmt.Fprintln(w, bold("Configuration:"))
	fmt.Fprintf(w, "  Emoji: %s\n", conf.Emoji())
	fmt.Fprintf(w, "  Screen size: %gx%g\n", conf.ScreenWidth(), conf.ScreenHeight())
	fmt.Fprintf(w, "  Poll interval: %s\n", conf.PollInterval())
	fmt.Fprintln(w, "  Allow non-root access: "+bool2Text(conf.AllowNonRootAccess()))
}

func NewStatusCommand() *cobra.Command {
	output := "text"

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of battmoji",
		Long:    `Get the menu bar status, battery info, and configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}
			return writeStatus(cmd.OutOrStdout(), data, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", output, "Output format (text, json, yaml).")

	return cmd
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
