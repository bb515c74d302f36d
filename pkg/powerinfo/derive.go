package powerinfo

import (
	"math"

	"github.com/charlie0129/battmoji/pkg/utils/ptr"
)

// Derive builds a PowerState from a raw description. Every field falls back
// to its default independently, so a partially malformed description still
// yields a usable state.
func Derive(desc Description) PowerState {
	s := DefaultState()

	if v, ok := desc[PowerSourceStateKey].(string); ok {
		s.PluggedIn = v == ACPowerValue
	}
	if v, ok := intValue(desc[CurrentCapacityKey]); ok {
		s.Percentage = clampPercentage(v)
	}
	if v, ok := desc[IsChargingKey].(bool); ok {
		s.Charging = v
	}
	if v, ok := desc[BatteryHealthKey].(string); ok {
		s.Health = v
	}

	switch {
	case s.Charging:
		s.TimeToFullMinutes = positiveMinutes(desc[TimeToFullChargeKey])
	case !s.PluggedIn:
		s.TimeRemainingMinutes = positiveMinutes(desc[TimeToEmptyKey])
	}

	return s
}

// positiveMinutes returns nil for missing, malformed, or non-positive values.
func positiveMinutes(v any) *int {
	m, ok := intValue(v)
	if !ok || m <= 0 {
		return nil
	}
	return ptr.To(m)
}

func clampPercentage(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// intValue accepts any Go numeric kind. Descriptions decoded from JSON carry
// float64, descriptions built in-process usually carry int.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(math.Round(f)), true
}
