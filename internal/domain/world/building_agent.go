package world

import (
	"github.com/mbeckers/freightsim-go/internal/domain/agent"
	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// BuildingAgent is the thin agent wrapper around a building. Buildings do not
// act on the world, but sites report their running statistics through the
// agent phases so consumers get site.stats_update events without polling.
type BuildingAgent struct {
	agent.Base

	buildingID shared.BuildingID
	lastStats  cargo.Statistics
	hasBase    bool
}

var _ Agent = (*BuildingAgent)(nil)

// NewBuildingAgent creates an agent observing one building.
func NewBuildingAgent(id shared.AgentID, building shared.BuildingID) *BuildingAgent {
	return &BuildingAgent{
		Base:       agent.NewBase(id, KindBuilding),
		buildingID: building,
	}
}

// BuildingID returns the observed building.
func (b *BuildingAgent) BuildingID() shared.BuildingID { return b.buildingID }

func (b *BuildingAgent) Perceive(w *World) {}

// Decide emits a stats event whenever the observed site's statistics changed
// since the previous tick.
func (b *BuildingAgent) Decide(w *World) {
	building, ok := w.Graph.Building(b.buildingID)
	if !ok {
		return
	}
	site, ok := building.(*cargo.Site)
	if !ok {
		return
	}
	stats := site.Stats()
	if b.hasBase && stats == b.lastStats {
		return
	}
	b.lastStats = stats
	b.hasBase = true
	w.EmitEvent(EventSiteStatsUpdate, map[string]interface{}{
		"site_id":         string(site.SiteID()),
		"name":            site.Name,
		"generated":       stats.Generated,
		"picked_up":       stats.PickedUp,
		"delivered":       stats.Delivered,
		"expired":         stats.Expired,
		"value_generated": stats.ValueGenerated,
		"value_delivered": stats.ValueDelivered,
	})
}

func (b *BuildingAgent) SerializeDiff() (map[string]interface{}, bool) {
	return nil, false
}

func (b *BuildingAgent) SerializeFull() map[string]interface{} {
	return map[string]interface{}{
		"id":          string(b.ID()),
		"kind":        b.Kind(),
		"building_id": string(b.buildingID),
	}
}
