package shared

import "math"

// Seconds per simulated day and the offset that places tick 0 at noon.
const (
	SecondsPerDay  = 86400.0
	NoonOffsetS    = 43200.0
	SecondsPerHour = 3600.0
)

// SimClock tracks simulated time. The simulation advances in discrete ticks of
// fixed duration DTSeconds; tick 0 corresponds to 12:00 on day 1.
type SimClock struct {
	Tick      int64
	DTSeconds float64
}

// NewSimClock creates a clock at tick 0 with the given tick duration.
func NewSimClock(dtSeconds float64) SimClock {
	return SimClock{Tick: 0, DTSeconds: dtSeconds}
}

// NowSeconds returns the simulated seconds elapsed since tick 0.
func (c SimClock) NowSeconds() float64 {
	return float64(c.Tick) * c.DTSeconds
}

// Day returns the current simulated day, starting at 1. Day boundaries fall at
// midnight, so the first day rolls over after twelve simulated hours.
func (c SimClock) Day() int {
	return 1 + int(math.Floor((NoonOffsetS+c.NowSeconds())/SecondsPerDay))
}

// TimeOfDay returns the current time as fractional hours in [0, 24).
func (c SimClock) TimeOfDay() float64 {
	return math.Mod(12.0+c.NowSeconds()/SecondsPerHour, 24.0)
}

// HoursToTicks converts a duration in hours to whole ticks, rounding up so a
// deadline never lands earlier than the duration it encodes.
func (c SimClock) HoursToTicks(hours float64) int64 {
	return c.SecondsToTicks(hours * SecondsPerHour)
}

// SecondsToTicks converts a duration in seconds to whole ticks, rounding up.
func (c SimClock) SecondsToTicks(seconds float64) int64 {
	if seconds <= 0 {
		return 0
	}
	ticks := int64(math.Ceil(seconds / c.DTSeconds))
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}
