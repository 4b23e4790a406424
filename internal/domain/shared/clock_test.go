package shared_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

func TestClockStartsAtNoonOnDayOne(t *testing.T) {
	// Arrange
	clock := shared.NewSimClock(60)

	// Assert
	assert.Equal(t, 1, clock.Day())
	assert.InDelta(t, 12.0, clock.TimeOfDay(), 1e-9)
	assert.Zero(t, clock.NowSeconds())
}

func TestDayRollsOverAtMidnight(t *testing.T) {
	// Arrange: half-day ticks put midnight on every odd tick.
	clock := shared.NewSimClock(shared.SecondsPerDay / 2)

	// Act / Assert
	clock.Tick = 1
	assert.Equal(t, 2, clock.Day())
	clock.Tick = 2
	assert.Equal(t, 2, clock.Day())
	clock.Tick = 3
	assert.Equal(t, 3, clock.Day())
}

func TestTimeOfDayWrapsAroundTheClock(t *testing.T) {
	// Arrange
	clock := shared.NewSimClock(shared.SecondsPerHour)

	// Act
	clock.Tick = 13

	// Assert: 12:00 plus 13 hours is 01:00.
	assert.InDelta(t, 1.0, clock.TimeOfDay(), 1e-9)
}

func TestSecondsToTicksRoundsUp(t *testing.T) {
	// Arrange
	clock := shared.NewSimClock(60)

	// Assert
	assert.EqualValues(t, 0, clock.SecondsToTicks(0))
	assert.EqualValues(t, 0, clock.SecondsToTicks(-5))
	assert.EqualValues(t, 1, clock.SecondsToTicks(1))
	assert.EqualValues(t, 1, clock.SecondsToTicks(60))
	assert.EqualValues(t, 2, clock.SecondsToTicks(61))
	assert.EqualValues(t, 2, clock.HoursToTicks(0.02))
}
