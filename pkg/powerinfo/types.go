package powerinfo

// Keys of a raw power source description. They match the IOKit
// power source dictionary keys so descriptions read on macOS can be
// passed through unchanged.
const (
	PowerSourceStateKey = "Power Source State"
	CurrentCapacityKey  = "Current Capacity"
	IsChargingKey       = "Is Charging"
	BatteryHealthKey    = "BatteryHealth"
	TimeToFullChargeKey = "Time to Full Charge"
	TimeToEmptyKey      = "Time to Empty"
)

// Values of PowerSourceStateKey.
const (
	ACPowerValue      = "AC Power"
	BatteryPowerValue = "Battery Power"
)

// DefaultHealth is reported when the source does not describe its health.
const DefaultHealth = "Good"

// Description is the raw key/value description of one power source as
// reported by a probe. Any key may be missing or carry a value of an
// unexpected type.
type Description map[string]any

// PowerState is an immutable snapshot of the power source. It is replaced
// as a whole on every refresh and never mutated in place.
//
// TimeRemainingMinutes and TimeToFullMinutes are never both set.
// TimeToFullMinutes is only set while charging; TimeRemainingMinutes is
// only set while running on battery and not charging.
type PowerState struct {
	PluggedIn            bool   `json:"pluggedIn" yaml:"pluggedIn"`
	Percentage           int    `json:"percentage" yaml:"percentage"`
	Charging             bool   `json:"charging" yaml:"charging"`
	Health               string `json:"health" yaml:"health"`
	TimeRemainingMinutes *int   `json:"timeRemainingMinutes,omitempty" yaml:"timeRemainingMinutes,omitempty"`
	TimeToFullMinutes    *int   `json:"timeToFullMinutes,omitempty" yaml:"timeToFullMinutes,omitempty"`
}

// DefaultState is the state reported before the first successful refresh.
func DefaultState() PowerState {
	return PowerState{
		PluggedIn:  false,
		Percentage: 0,
		Charging:   false,
		Health:     DefaultHealth,
	}
}

// OnBattery reports whether the machine is running from its battery.
func (s PowerState) OnBattery() bool {
	return !s.Charging && !s.PluggedIn
}
