package cargo

import (
	"math"
	"math/rand"

	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// GenerationConfig bounds the parameters a site draws for new packages.
type GenerationConfig struct {
	SizeMin int
	SizeMax int

	ValueMin float64
	ValueMax float64

	// Deadline offsets from the spawn tick, in simulated hours.
	PickupDeadlineMinHours   float64
	PickupDeadlineMaxHours   float64
	DeliveryDeadlineMinHours float64
	DeliveryDeadlineMaxHours float64

	PriorityWeights map[Priority]float64
	UrgencyWeights  map[Urgency]float64
}

// DefaultGenerationConfig returns the standard package generation ranges.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		SizeMin:                  MinSize,
		SizeMax:                  MaxSize,
		ValueMin:                 50,
		ValueMax:                 500,
		PickupDeadlineMinHours:   2,
		PickupDeadlineMaxHours:   8,
		DeliveryDeadlineMinHours: 6,
		DeliveryDeadlineMaxHours: 24,
		PriorityWeights: map[Priority]float64{
			PriorityLow:    0.3,
			PriorityMedium: 0.4,
			PriorityHigh:   0.2,
			PriorityUrgent: 0.1,
		},
		UrgencyWeights: map[Urgency]float64{
			UrgencyStandard: 0.6,
			UrgencyExpress:  0.3,
			UrgencySameDay:  0.1,
		},
	}
}

// Statistics accumulates a site's package history.
type Statistics struct {
	Generated      int     `json:"generated"`
	PickedUp       int     `json:"picked_up"`
	Delivered      int     `json:"delivered"`
	Expired        int     `json:"expired"`
	ValueGenerated float64 `json:"value_generated"`
	ValueDelivered float64 `json:"value_delivered"`
}

// Site is a building that spawns packages as a Poisson source and receives
// deliveries addressed to it.
type Site struct {
	graph.Header

	Name         string
	ActivityRate float64 // packages per simulated hour

	DestinationWeights map[shared.SiteID]float64
	Generation         GenerationConfig

	activePackages []shared.PackageID
	stats          Statistics

	occupantOrder []shared.AgentID
	occupants     map[shared.AgentID]struct{}
}

var _ graph.Occupiable = (*Site)(nil)

// NewSite creates a site. A negative activity rate is treated as zero.
func NewSite(id shared.BuildingID, name string, activityRate float64) *Site {
	if activityRate < 0 {
		activityRate = 0
	}
	return &Site{
		Header:             graph.NewHeader(id),
		Name:               name,
		ActivityRate:       activityRate,
		DestinationWeights: make(map[shared.SiteID]float64),
		Generation:         DefaultGenerationConfig(),
		occupants:          make(map[shared.AgentID]struct{}),
	}
}

func (s *Site) Kind() graph.BuildingKind { return graph.KindSite }

// SiteID returns the site reference for package origin/destination fields.
func (s *Site) SiteID() shared.SiteID { return shared.SiteIDOf(s.BuildingID()) }

// Sites do not limit how many trucks load or unload at once.
func (s *Site) Capacity() int { return 0 }

func (s *Site) Occupants() []shared.AgentID {
	out := make([]shared.AgentID, len(s.occupantOrder))
	copy(out, s.occupantOrder)
	return out
}

func (s *Site) HasOccupant(agent shared.AgentID) bool {
	_, ok := s.occupants[agent]
	return ok
}

func (s *Site) Enter(agent shared.AgentID) error {
	if _, ok := s.occupants[agent]; ok {
		return nil
	}
	s.occupants[agent] = struct{}{}
	s.occupantOrder = append(s.occupantOrder, agent)
	s.MarkDirty()
	return nil
}

func (s *Site) Leave(agent shared.AgentID) {
	if _, ok := s.occupants[agent]; !ok {
		return
	}
	delete(s.occupants, agent)
	for i, id := range s.occupantOrder {
		if id == agent {
			s.occupantOrder = append(s.occupantOrder[:i], s.occupantOrder[i+1:]...)
			break
		}
	}
	s.MarkDirty()
}

// ShouldSpawn decides by Poisson thinning whether a package spawns this tick.
// With rate lambda packages/hour the spawn probability over dt seconds is
// 1 - exp(-(lambda/3600)*dt). A zero rate never spawns.
func (s *Site) ShouldSpawn(dtSeconds float64, rng *rand.Rand) bool {
	if s.ActivityRate <= 0 || dtSeconds <= 0 {
		return false
	}
	probability := 1 - math.Exp(-(s.ActivityRate/shared.SecondsPerHour)*dtSeconds)
	return rng.Float64() < probability
}

// SelectDestination draws a destination from the configured weights,
// restricted to the available sites. Falls back to a uniform draw when no
// configured weight applies; an empty candidate list selects nothing.
func (s *Site) SelectDestination(available []shared.SiteID, rng *rand.Rand) (shared.SiteID, bool) {
	if len(available) == 0 {
		return "", false
	}
	total := 0.0
	for _, candidate := range available {
		if w := s.DestinationWeights[candidate]; w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return available[rng.Intn(len(available))], true
	}
	draw := rng.Float64() * total
	for _, candidate := range available {
		w := s.DestinationWeights[candidate]
		if w <= 0 {
			continue
		}
		draw -= w
		if draw <= 0 {
			return candidate, true
		}
	}
	return available[len(available)-1], true
}

// GeneratePackage draws a new package addressed to the given destination.
// Deadlines are adjusted so delivery follows pickup by at least a random
// 30 minutes to 1 hour.
func (s *Site) GeneratePackage(clock shared.SimClock, destination shared.SiteID, rng *rand.Rand) *Package {
	cfg := s.Generation

	size := shared.IntBetween(rng, cfg.SizeMin, cfg.SizeMax)
	baseValue := shared.UniformBetween(rng, cfg.ValueMin, cfg.ValueMax)
	priority := drawPriority(cfg.PriorityWeights, rng)
	urgency := drawUrgency(cfg.UrgencyWeights, rng)
	value := baseValue * priority.ValueMultiplier() * urgency.ValueMultiplier()

	pickupOffset := clock.HoursToTicks(shared.UniformBetween(rng, cfg.PickupDeadlineMinHours, cfg.PickupDeadlineMaxHours))
	deliveryOffset := clock.HoursToTicks(shared.UniformBetween(rng, cfg.DeliveryDeadlineMinHours, cfg.DeliveryDeadlineMaxHours))

	pickupDeadline := clock.Tick + pickupOffset
	deliveryDeadline := clock.Tick + deliveryOffset
	if deliveryDeadline <= pickupDeadline {
		gap := clock.SecondsToTicks(shared.UniformBetween(rng, 1800, 3600))
		deliveryDeadline = pickupDeadline + gap
	}

	pkg := &Package{
		ID:                   shared.NewPackageID(),
		Origin:               s.SiteID(),
		Destination:          destination,
		Size:                 size,
		ValueDucats:          value,
		Priority:             priority,
		Urgency:              urgency,
		SpawnTick:            clock.Tick,
		PickupDeadlineTick:   pickupDeadline,
		DeliveryDeadlineTick: deliveryDeadline,
		Status:               StatusWaitingPickup,
	}

	s.activePackages = append(s.activePackages, pkg.ID)
	s.stats.Generated++
	s.stats.ValueGenerated += value
	s.MarkDirty()
	return pkg
}

func drawPriority(weights map[Priority]float64, rng *rand.Rand) Priority {
	order := []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	total := 0.0
	for _, p := range order {
		total += weights[p]
	}
	if total <= 0 {
		return PriorityMedium
	}
	draw := rng.Float64() * total
	for _, p := range order {
		draw -= weights[p]
		if draw <= 0 {
			return p
		}
	}
	return order[len(order)-1]
}

func drawUrgency(weights map[Urgency]float64, rng *rand.Rand) Urgency {
	order := []Urgency{UrgencyStandard, UrgencyExpress, UrgencySameDay}
	total := 0.0
	for _, u := range order {
		total += weights[u]
	}
	if total <= 0 {
		return UrgencyStandard
	}
	draw := rng.Float64() * total
	for _, u := range order {
		draw -= weights[u]
		if draw <= 0 {
			return u
		}
	}
	return order[len(order)-1]
}

// ActivePackages returns the packages waiting for pickup at this site.
func (s *Site) ActivePackages() []shared.PackageID {
	out := make([]shared.PackageID, len(s.activePackages))
	copy(out, s.activePackages)
	return out
}

// HoldsPackage reports whether the package is still waiting at this site.
func (s *Site) HoldsPackage(id shared.PackageID) bool {
	for _, p := range s.activePackages {
		if p == id {
			return true
		}
	}
	return false
}

// RemoveActivePackage drops a package from the waiting list after a pickup or
// an expiry.
func (s *Site) RemoveActivePackage(id shared.PackageID) {
	for i, p := range s.activePackages {
		if p == id {
			s.activePackages = append(s.activePackages[:i], s.activePackages[i+1:]...)
			s.MarkDirty()
			return
		}
	}
}

// RestoreActivePackage reattaches a package during state import.
func (s *Site) RestoreActivePackage(id shared.PackageID) {
	if !s.HoldsPackage(id) {
		s.activePackages = append(s.activePackages, id)
	}
}

// Stats returns a copy of the site's running statistics.
func (s *Site) Stats() Statistics { return s.stats }

// RestoreStats overwrites the statistics during state import.
func (s *Site) RestoreStats(stats Statistics) { s.stats = stats }

// RecordPickup updates statistics when a truck loads a package here.
func (s *Site) RecordPickup() {
	s.stats.PickedUp++
	s.MarkDirty()
}

// RecordDelivery updates statistics when a package addressed here arrives.
func (s *Site) RecordDelivery(value float64) {
	s.stats.Delivered++
	s.stats.ValueDelivered += value
	s.MarkDirty()
}

// RecordExpiry updates statistics when a waiting package misses its pickup
// deadline.
func (s *Site) RecordExpiry() {
	s.stats.Expired++
	s.MarkDirty()
}

func (s *Site) Payload() map[string]interface{} {
	weights := make(map[string]float64, len(s.DestinationWeights))
	for site, w := range s.DestinationWeights {
		weights[string(site)] = w
	}
	active := make([]string, 0, len(s.activePackages))
	for _, p := range s.activePackages {
		active = append(active, string(p))
	}
	occupants := make([]string, 0, len(s.occupantOrder))
	for _, a := range s.occupantOrder {
		occupants = append(occupants, string(a))
	}
	return map[string]interface{}{
		"type":                string(graph.KindSite),
		"id":                  string(s.BuildingID()),
		"name":                s.Name,
		"activity_rate":       s.ActivityRate,
		"destination_weights": weights,
		"active_packages":     active,
		"occupants":           occupants,
		"statistics": map[string]interface{}{
			"generated":       s.stats.Generated,
			"picked_up":       s.stats.PickedUp,
			"delivered":       s.stats.Delivered,
			"expired":         s.stats.Expired,
			"value_generated": s.stats.ValueGenerated,
			"value_delivered": s.stats.ValueDelivered,
		},
	}
}
