package cargo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
)

func TestStatusTransitionsAreMonotonic(t *testing.T) {
	// Arrange
	pkg := &cargo.Package{ID: "pkg-1", Status: cargo.StatusWaitingPickup}

	// Act
	require.NoError(t, pkg.MarkInTransit())
	require.NoError(t, pkg.MarkDelivered(10))

	// Assert
	assert.Equal(t, cargo.StatusDelivered, pkg.Status)
	assert.EqualValues(t, 10, pkg.DeliveredTick)
	assert.Error(t, pkg.MarkInTransit())
	assert.Error(t, pkg.MarkExpired())
}

func TestExpiredPackageCannotBePickedUp(t *testing.T) {
	// Arrange
	pkg := &cargo.Package{ID: "pkg-1", Status: cargo.StatusWaitingPickup}
	require.NoError(t, pkg.MarkExpired())

	// Act
	err := pkg.MarkInTransit()

	// Assert
	assert.Error(t, err)
	assert.Equal(t, cargo.StatusExpired, pkg.Status)
}

func TestDeliveredOnTimeComparesAgainstDeadline(t *testing.T) {
	// Arrange
	pkg := &cargo.Package{DeliveryDeadlineTick: 100}

	// Assert
	assert.True(t, pkg.DeliveredOnTime(100))
	assert.False(t, pkg.DeliveredOnTime(101))
}

func TestValueMultipliers(t *testing.T) {
	assert.Equal(t, 1.0, cargo.PriorityLow.ValueMultiplier())
	assert.Equal(t, 1.0, cargo.PriorityMedium.ValueMultiplier())
	assert.Equal(t, 1.5, cargo.PriorityHigh.ValueMultiplier())
	assert.Equal(t, 2.0, cargo.PriorityUrgent.ValueMultiplier())

	assert.Equal(t, 1.0, cargo.UrgencyStandard.ValueMultiplier())
	assert.Equal(t, 1.3, cargo.UrgencyExpress.ValueMultiplier())
	assert.Equal(t, 1.8, cargo.UrgencySameDay.ValueMultiplier())
}

func TestParseRejectsUnknownDiscriminators(t *testing.T) {
	_, err := cargo.ParsePriority("CRITICAL")
	assert.Error(t, err)
	_, err = cargo.ParseUrgency("OVERNIGHT")
	assert.Error(t, err)
	_, err = cargo.ParseStatus("LOST")
	assert.Error(t, err)

	priority, err := cargo.ParsePriority("URGENT")
	require.NoError(t, err)
	assert.Equal(t, cargo.PriorityUrgent, priority)
}

func TestWeightFollowsSize(t *testing.T) {
	pkg := &cargo.Package{Size: 10}
	assert.InDelta(t, 1.0, pkg.WeightTonnes(), 1e-9)
}
