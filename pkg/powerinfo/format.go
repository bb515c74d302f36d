package powerinfo

import "fmt"

// FormatStatus renders the menu bar indicator. On battery with a known
// remaining time it shows "{emoji} h:mm", otherwise "{emoji} pct%".
func FormatStatus(s PowerState, emoji string) string {
	if s.OnBattery() && s.TimeRemainingMinutes != nil {
		m := *s.TimeRemainingMinutes
		return fmt.Sprintf("%s %d:%02d", emoji, m/60, m%60)
	}
	return fmt.Sprintf("%s %d%%", emoji, s.Percentage)
}

// FormatDuration renders minutes as "{hours}h {minutes}m".
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// StatusText is the one-line state shown under the percentage in the
// details view.
func StatusText(s PowerState) string {
	switch {
	case s.Charging:
		return "Charging"
	case s.PluggedIn:
		return "Connected to Power"
	default:
		return "On Battery"
	}
}

// Icon is the large glyph shown next to the percentage in the details view.
func Icon(s PowerState) string {
	if s.Charging {
		return "⚡️"
	}
	return "🔋"
}

// DetailRow is one label/value line of the details view.
type DetailRow struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Details lists the rows of the details view in display order. Time rows
// only appear when the corresponding estimate is known.
func Details(s PowerState) []DetailRow {
	source := "Battery"
	if s.PluggedIn {
		source = "Power Adapter"
	}

	rows := []DetailRow{
		{Label: "Power Source", Value: source},
		{Label: "Battery Health", Value: s.Health},
	}
	if s.TimeRemainingMinutes != nil {
		rows = append(rows, DetailRow{Label: "Time Remaining", Value: FormatDuration(*s.TimeRemainingMinutes)})
	}
	if s.TimeToFullMinutes != nil {
		rows = append(rows, DetailRow{Label: "Time to Full", Value: FormatDuration(*s.TimeToFullMinutes)})
	}
	return rows
}
