package cargo

import (
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// Priority classifies how important a package is to its sender.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Urgency classifies how fast a package must move.
type Urgency string

const (
	UrgencyStandard Urgency = "STANDARD"
	UrgencyExpress  Urgency = "EXPRESS"
	UrgencySameDay  Urgency = "SAME_DAY"
)

// Status is the package lifecycle state. Transitions are monotonic:
// WAITING_PICKUP -> IN_TRANSIT -> DELIVERED, or WAITING_PICKUP -> EXPIRED.
type Status string

const (
	StatusWaitingPickup Status = "WAITING_PICKUP"
	StatusInTransit     Status = "IN_TRANSIT"
	StatusDelivered     Status = "DELIVERED"
	StatusExpired       Status = "EXPIRED"
)

// Size bounds for a single package, in abstract size units.
const (
	MinSize = 1
	MaxSize = 30
)

// TonnesPerSizeUnit converts package size units to cargo weight. Both the
// truck's fuel consumption and its proposal evaluation share this constant so
// the two estimates agree.
const TonnesPerSizeUnit = 0.1

// ValueMultiplier returns the price factor a priority adds to the base value.
func (p Priority) ValueMultiplier() float64 {
	switch p {
	case PriorityHigh:
		return 1.5
	case PriorityUrgent:
		return 2.0
	default:
		return 1.0
	}
}

// ValueMultiplier returns the price factor an urgency adds to the base value.
func (u Urgency) ValueMultiplier() float64 {
	switch u {
	case UrgencyExpress:
		return 1.3
	case UrgencySameDay:
		return 1.8
	default:
		return 1.0
	}
}

// ParsePriority validates a string discriminator from the wire or a save file.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return Priority(s), nil
	}
	return "", shared.NewValidationError("priority", "unknown value "+s)
}

// ParseUrgency validates a string discriminator from the wire or a save file.
func ParseUrgency(s string) (Urgency, error) {
	switch Urgency(s) {
	case UrgencyStandard, UrgencyExpress, UrgencySameDay:
		return Urgency(s), nil
	}
	return "", shared.NewValidationError("urgency", "unknown value "+s)
}

// ParseStatus validates a string discriminator from the wire or a save file.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusWaitingPickup, StatusInTransit, StatusDelivered, StatusExpired:
		return Status(s), nil
	}
	return "", shared.NewValidationError("status", "unknown value "+s)
}

// Package is a transport job between two sites.
type Package struct {
	ID          shared.PackageID
	Origin      shared.SiteID
	Destination shared.SiteID

	Size        int
	ValueDucats float64
	Priority    Priority
	Urgency     Urgency

	SpawnTick            int64
	PickupDeadlineTick   int64
	DeliveryDeadlineTick int64

	Status Status

	// DeliveredTick records when the package arrived; zero until delivery.
	DeliveredTick int64
}

// WeightTonnes returns the package's cargo weight.
func (p *Package) WeightTonnes() float64 {
	return float64(p.Size) * TonnesPerSizeUnit
}

// MarkInTransit records a pickup. Only WAITING_PICKUP packages can be picked
// up.
func (p *Package) MarkInTransit() error {
	if p.Status != StatusWaitingPickup {
		return shared.NewInvariantError("package %s cannot be picked up from status %s", p.ID, p.Status)
	}
	p.Status = StatusInTransit
	return nil
}

// MarkDelivered records a delivery at the given tick. Late packages are still
// delivered; the lateness shows up in the broker's payment.
func (p *Package) MarkDelivered(tick int64) error {
	if p.Status != StatusInTransit {
		return shared.NewInvariantError("package %s cannot be delivered from status %s", p.ID, p.Status)
	}
	p.Status = StatusDelivered
	p.DeliveredTick = tick
	return nil
}

// MarkExpired records a missed pickup deadline.
func (p *Package) MarkExpired() error {
	if p.Status != StatusWaitingPickup {
		return shared.NewInvariantError("package %s cannot expire from status %s", p.ID, p.Status)
	}
	p.Status = StatusExpired
	return nil
}

// DeliveredOnTime reports whether a delivery at the given tick met the
// deadline.
func (p *Package) DeliveredOnTime(tick int64) bool {
	return tick <= p.DeliveryDeadlineTick
}

// Payload serializes the package with string discriminators, the single
// format used by signals, snapshots, and save files.
func (p *Package) Payload() map[string]interface{} {
	return map[string]interface{}{
		"id":                     string(p.ID),
		"origin_site":            string(p.Origin),
		"destination_site":       string(p.Destination),
		"size":                   p.Size,
		"value":                  p.ValueDucats,
		"priority":               string(p.Priority),
		"urgency":                string(p.Urgency),
		"status":                 string(p.Status),
		"spawn_tick":             p.SpawnTick,
		"pickup_deadline_tick":   p.PickupDeadlineTick,
		"delivery_deadline_tick": p.DeliveryDeadlineTick,
	}
}
