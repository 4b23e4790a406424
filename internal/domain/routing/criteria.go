package routing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// Criteria is the abstract node predicate Dijkstra searches halt on. Matches
// returns whether the node qualifies together with the matched item (a
// building, an edge count, or a sub-criteria item for composites).
type Criteria interface {
	Matches(g *graph.Graph, node shared.NodeID) (bool, interface{})

	// CacheKey identifies the criteria family for the match cache. Exclusion
	// sets are deliberately not part of the key; cached entries are
	// re-validated against current exclusions on every cache hit.
	CacheKey() string
}

// BuildingOfType matches nodes carrying at least one building of the wanted
// kind, optionally skipping excluded building ids (facilities already found
// full, for example).
type BuildingOfType struct {
	Kind    graph.BuildingKind
	Exclude map[shared.BuildingID]struct{}
}

var _ Criteria = (*BuildingOfType)(nil)

// NewBuildingOfType creates the criteria with an empty exclusion set.
func NewBuildingOfType(kind graph.BuildingKind) *BuildingOfType {
	return &BuildingOfType{Kind: kind, Exclude: make(map[shared.BuildingID]struct{})}
}

// Excluding returns a copy with the given buildings added to the exclusions.
func (c *BuildingOfType) Excluding(ids ...shared.BuildingID) *BuildingOfType {
	out := &BuildingOfType{Kind: c.Kind, Exclude: make(map[shared.BuildingID]struct{}, len(c.Exclude)+len(ids))}
	for id := range c.Exclude {
		out.Exclude[id] = struct{}{}
	}
	for _, id := range ids {
		out.Exclude[id] = struct{}{}
	}
	return out
}

func (c *BuildingOfType) Matches(g *graph.Graph, nodeID shared.NodeID) (bool, interface{}) {
	node, ok := g.Node(nodeID)
	if !ok || !node.HasBuilding(c.Kind) {
		return false, nil
	}
	for _, b := range node.Buildings(c.Kind) {
		if _, excluded := c.Exclude[b.BuildingID()]; excluded {
			continue
		}
		return true, b
	}
	return false, nil
}

func (c *BuildingOfType) CacheKey() string {
	return "building:" + string(c.Kind)
}

// EdgeCountInRange matches nodes whose outgoing edge count lies in [Min, Max].
// Used by the map tooling to find dead ends and hubs.
type EdgeCountInRange struct {
	Min int
	Max int
}

var _ Criteria = (*EdgeCountInRange)(nil)

func (c *EdgeCountInRange) Matches(g *graph.Graph, nodeID shared.NodeID) (bool, interface{}) {
	count := len(g.Outgoing(nodeID))
	if count >= c.Min && count <= c.Max {
		return true, count
	}
	return false, nil
}

func (c *EdgeCountInRange) CacheKey() string {
	return fmt.Sprintf("edge_count:%d:%d", c.Min, c.Max)
}

// CompositeOp selects how a composite combines its parts.
type CompositeOp string

const (
	CompositeAnd CompositeOp = "AND"
	CompositeOr  CompositeOp = "OR"
)

// Composite combines criteria with AND or OR. For AND, the matched item comes
// from the first part; for OR, from the first matching part.
type Composite struct {
	Op    CompositeOp
	Parts []Criteria
}

var _ Criteria = (*Composite)(nil)

func (c *Composite) Matches(g *graph.Graph, nodeID shared.NodeID) (bool, interface{}) {
	if len(c.Parts) == 0 {
		return false, nil
	}
	switch c.Op {
	case CompositeAnd:
		var first interface{}
		for i, part := range c.Parts {
			ok, item := part.Matches(g, nodeID)
			if !ok {
				return false, nil
			}
			if i == 0 {
				first = item
			}
		}
		return true, first
	default:
		for _, part := range c.Parts {
			if ok, item := part.Matches(g, nodeID); ok {
				return true, item
			}
		}
		return false, nil
	}
}

func (c *Composite) CacheKey() string {
	keys := make([]string, len(c.Parts))
	for i, part := range c.Parts {
		keys[i] = part.CacheKey()
	}
	sort.Strings(keys)
	return string(c.Op) + "(" + strings.Join(keys, ",") + ")"
}
