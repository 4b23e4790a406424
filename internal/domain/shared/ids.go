package shared

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeID identifies a node in the road graph. IDs are dense integers assigned
// by the graph (generator or import) and stable for the node's lifetime.
type NodeID int

// EdgeID identifies a directed edge in the road graph.
type EdgeID int

// BuildingID identifies a building attached to a graph node. Unique across the
// entire graph, not just within a node.
type BuildingID string

// AgentID identifies an agent owned by the world.
type AgentID string

// PackageID identifies a package for its whole lifecycle.
type PackageID string

// SiteID identifies a site building. A site's SiteID equals its BuildingID;
// the separate type keeps package origin/destination references honest.
type SiteID string

// NewBuildingID generates a fresh building identifier with a kind prefix so
// IDs stay readable in logs and save files.
func NewBuildingID(kind string) BuildingID {
	return BuildingID(fmt.Sprintf("%s-%s", kind, uuid.NewString()[:8]))
}

// NewPackageID generates a fresh package identifier.
func NewPackageID() PackageID {
	return PackageID("pkg-" + uuid.NewString()[:8])
}

// NewAgentID generates a fresh agent identifier with a kind prefix.
func NewAgentID(kind string) AgentID {
	return AgentID(fmt.Sprintf("%s-%s", kind, uuid.NewString()[:8]))
}

// BuildingIDOf converts a site reference back to its building identifier.
func BuildingIDOf(site SiteID) BuildingID {
	return BuildingID(site)
}

// SiteIDOf converts a site building's identifier to a site reference.
func SiteIDOf(building BuildingID) SiteID {
	return SiteID(building)
}
