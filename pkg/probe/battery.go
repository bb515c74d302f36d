package probe

import (
	"math"

	"github.com/distatus/battery"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battmoji/pkg/powerinfo"
)

// Battery reads power sources through github.com/distatus/battery.
type Battery struct {
	getAll func() ([]*battery.Battery, error)
}

func NewBattery() *Battery {
	return &Battery{getAll: battery.GetAll}
}

func (p *Battery) Sources() ([]powerinfo.Description, error) {
	batteries, err := p.getAll()
	if err != nil {
		if len(batteries) == 0 {
			return nil, err
		}
		// Partial errors: keep whatever could be read.
		logrus.WithError(err).Warn("some batteries could not be read")
	}

	descs := make([]powerinfo.Description, 0, len(batteries))
	for _, b := range batteries {
		if b == nil {
			continue
		}
		descs = append(descs, Describe(b))
	}

	logrus.WithField("sources", len(descs)).Trace("probed power sources")
	return descs, nil
}

// Describe converts a battery reading into a raw description. Time
// estimates are derived from the charge rate and are -1 when unknown.
func Describe(b *battery.Battery) powerinfo.Description {
	d := powerinfo.Description{}

	charging := false
	onBattery := false
	// An unknown state says nothing about the power source, so the key is
	// left out and the default applies.
	unknown := false
	switch b.State {
	case battery.Unknown:
		unknown = true
	case battery.Charging:
		charging = true
	case battery.Discharging, battery.Empty:
		onBattery = true
	}

	switch {
	case unknown:
	case onBattery:
		d[powerinfo.PowerSourceStateKey] = powerinfo.BatteryPowerValue
	default:
		d[powerinfo.PowerSourceStateKey] = powerinfo.ACPowerValue
	}
	d[powerinfo.IsChargingKey] = charging

	if b.Full > 0 {
		d[powerinfo.CurrentCapacityKey] = int(math.Round(b.Current / b.Full * 100))
	}
	if b.Full > 0 && b.Design > 0 {
		d[powerinfo.BatteryHealthKey] = health(b.Full / b.Design)
	}

	timeToFull, timeToEmpty := -1, -1
	// Some platforms report a negative rate while discharging.
	rate := math.Abs(b.ChargeRate)
	if rate > 0 {
		if charging && b.Full > b.Current {
			timeToFull = int(math.Round((b.Full - b.Current) / rate * 60))
		}
		if onBattery || unknown {
			timeToEmpty = int(math.Round(b.Current / rate * 60))
		}
	}
	d[powerinfo.TimeToFullChargeKey] = timeToFull
	d[powerinfo.TimeToEmptyKey] = timeToEmpty

	return d
}

// health maps full-charge capacity over design capacity to the condition
// names macOS uses.
func health(ratio float64) string {
	switch {
	case ratio >= 0.8:
		return "Good"
	case ratio >= 0.6:
		return "Fair"
	default:
		return "Poor"
	}
}
