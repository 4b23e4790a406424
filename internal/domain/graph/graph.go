package graph

import (
	"fmt"
	"sort"

	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// Node is a junction in the road network. Buildings attach to nodes; the
// type-keyed index keeps "has X?" and "how many X?" O(1).
type Node struct {
	ID shared.NodeID
	X  float64
	Y  float64

	buildingsByKind map[BuildingKind][]Building
	countByKind     map[BuildingKind]int
}

// Buildings returns the node's buildings of the given kind in attach order.
func (n *Node) Buildings(kind BuildingKind) []Building {
	return n.buildingsByKind[kind]
}

// BuildingCount returns how many buildings of the given kind are attached.
func (n *Node) BuildingCount(kind BuildingKind) int {
	return n.countByKind[kind]
}

// HasBuilding reports whether at least one building of the kind is attached.
func (n *Node) HasBuilding(kind BuildingKind) bool {
	return n.countByKind[kind] > 0
}

// AllBuildings returns every building attached to the node, grouped by kind.
func (n *Node) AllBuildings() []Building {
	var out []Building
	for _, kind := range []BuildingKind{KindParking, KindGasStation, KindSite} {
		out = append(out, n.buildingsByKind[kind]...)
	}
	return out
}

// Edge is a directed road segment between two nodes.
type Edge struct {
	ID          shared.EdgeID
	From        shared.NodeID
	To          shared.NodeID
	LengthM     float64
	MaxSpeedKPH float64
	RoadClass   string
	Lanes       int
	Mode        string
}

// Graph is the directed road network. It is created once by the generator or
// an import, mutated only via admin actions between runs, and never mutated
// during a tick.
type Graph struct {
	nodes map[shared.NodeID]*Node
	edges map[shared.EdgeID]*Edge

	outgoing map[shared.NodeID][]shared.EdgeID
	incoming map[shared.NodeID][]shared.EdgeID

	// Global building lookups: id -> building and id -> node it sits on.
	buildings     map[shared.BuildingID]Building
	buildingNodes map[shared.BuildingID]shared.NodeID

	// Per-kind attach order, for stable iteration across ticks.
	buildingOrder map[BuildingKind][]shared.BuildingID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:         make(map[shared.NodeID]*Node),
		edges:         make(map[shared.EdgeID]*Edge),
		outgoing:      make(map[shared.NodeID][]shared.EdgeID),
		incoming:      make(map[shared.NodeID][]shared.EdgeID),
		buildings:     make(map[shared.BuildingID]Building),
		buildingNodes: make(map[shared.BuildingID]shared.NodeID),
		buildingOrder: make(map[BuildingKind][]shared.BuildingID),
	}
}

// AddNode inserts a node. Adding an existing id is an error.
func (g *Graph) AddNode(id shared.NodeID, x, y float64) (*Node, error) {
	if _, exists := g.nodes[id]; exists {
		return nil, shared.NewInvariantError("node %d already exists", id)
	}
	node := &Node{
		ID:              id,
		X:               x,
		Y:               y,
		buildingsByKind: make(map[BuildingKind][]Building),
		countByKind:     make(map[BuildingKind]int),
	}
	g.nodes[id] = node
	return node, nil
}

// AddEdge inserts a directed edge. Both endpoints must exist and the length
// must be positive.
func (g *Graph) AddEdge(id shared.EdgeID, from, to shared.NodeID, lengthM, maxSpeedKPH float64, roadClass string, lanes int, mode string) (*Edge, error) {
	if _, exists := g.edges[id]; exists {
		return nil, shared.NewInvariantError("edge %d already exists", id)
	}
	if _, ok := g.nodes[from]; !ok {
		return nil, shared.NewNotFoundError("node", fmt.Sprint(from))
	}
	if _, ok := g.nodes[to]; !ok {
		return nil, shared.NewNotFoundError("node", fmt.Sprint(to))
	}
	if lengthM <= 0 {
		return nil, shared.NewValidationError("length_m", "must be positive")
	}
	if maxSpeedKPH <= 0 {
		return nil, shared.NewValidationError("max_speed_kph", "must be positive")
	}
	edge := &Edge{
		ID:          id,
		From:        from,
		To:          to,
		LengthM:     lengthM,
		MaxSpeedKPH: maxSpeedKPH,
		RoadClass:   roadClass,
		Lanes:       lanes,
		Mode:        mode,
	}
	g.edges[id] = edge
	g.outgoing[from] = append(g.outgoing[from], id)
	g.incoming[to] = append(g.incoming[to], id)
	return edge, nil
}

// RemoveNode deletes a node together with all incident edges and detaches its
// buildings.
func (g *Graph) RemoveNode(id shared.NodeID) error {
	node, ok := g.nodes[id]
	if !ok {
		return shared.NewNotFoundError("node", fmt.Sprint(id))
	}
	incident := append([]shared.EdgeID{}, g.outgoing[id]...)
	incident = append(incident, g.incoming[id]...)
	for _, edgeID := range incident {
		g.removeEdgeUnchecked(edgeID)
	}
	for _, b := range node.AllBuildings() {
		g.detachBuilding(b.BuildingID())
	}
	delete(g.outgoing, id)
	delete(g.incoming, id)
	delete(g.nodes, id)
	return nil
}

// RemoveEdge deletes a directed edge.
func (g *Graph) RemoveEdge(id shared.EdgeID) error {
	if _, ok := g.edges[id]; !ok {
		return shared.NewNotFoundError("edge", fmt.Sprint(id))
	}
	g.removeEdgeUnchecked(id)
	return nil
}

func (g *Graph) removeEdgeUnchecked(id shared.EdgeID) {
	edge, ok := g.edges[id]
	if !ok {
		return
	}
	g.outgoing[edge.From] = removeEdgeID(g.outgoing[edge.From], id)
	g.incoming[edge.To] = removeEdgeID(g.incoming[edge.To], id)
	delete(g.edges, id)
}

func removeEdgeID(list []shared.EdgeID, id shared.EdgeID) []shared.EdgeID {
	for i, e := range list {
		if e == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Node returns the node with the given id.
func (g *Graph) Node(id shared.NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id shared.EdgeID) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Outgoing returns the edges leaving a node.
func (g *Graph) Outgoing(id shared.NodeID) []shared.EdgeID {
	return g.outgoing[id]
}

// Incoming returns the edges arriving at a node.
func (g *Graph) Incoming(id shared.NodeID) []shared.EdgeID {
	return g.incoming[id]
}

// EdgeBetween finds a directed edge from one node to another. When parallel
// edges exist the first attached wins.
func (g *Graph) EdgeBetween(from, to shared.NodeID) (*Edge, bool) {
	for _, edgeID := range g.outgoing[from] {
		edge := g.edges[edgeID]
		if edge.To == to {
			return edge, true
		}
	}
	return nil, false
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// NodeIDs returns all node ids sorted ascending.
func (g *Graph) NodeIDs() []shared.NodeID {
	ids := make([]shared.NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// EdgeIDs returns all edge ids sorted ascending.
func (g *Graph) EdgeIDs() []shared.EdgeID {
	ids := make([]shared.EdgeID, 0, len(g.edges))
	for id := range g.edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AttachBuilding places a building on a node. Building ids are unique across
// the whole graph.
func (g *Graph) AttachBuilding(nodeID shared.NodeID, b Building) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return shared.NewNotFoundError("node", fmt.Sprint(nodeID))
	}
	id := b.BuildingID()
	if _, exists := g.buildings[id]; exists {
		return shared.NewInvariantError("building %s already attached", id)
	}
	kind := b.Kind()
	node.buildingsByKind[kind] = append(node.buildingsByKind[kind], b)
	node.countByKind[kind]++
	g.buildings[id] = b
	g.buildingNodes[id] = nodeID
	g.buildingOrder[kind] = append(g.buildingOrder[kind], id)
	return nil
}

// DetachBuilding removes a building from the graph.
func (g *Graph) DetachBuilding(id shared.BuildingID) error {
	if _, ok := g.buildings[id]; !ok {
		return shared.NewNotFoundError("building", string(id))
	}
	g.detachBuilding(id)
	return nil
}

func (g *Graph) detachBuilding(id shared.BuildingID) {
	b, ok := g.buildings[id]
	if !ok {
		return
	}
	kind := b.Kind()
	if node, ok := g.nodes[g.buildingNodes[id]]; ok {
		list := node.buildingsByKind[kind]
		for i, attached := range list {
			if attached.BuildingID() == id {
				node.buildingsByKind[kind] = append(list[:i], list[i+1:]...)
				node.countByKind[kind]--
				break
			}
		}
	}
	order := g.buildingOrder[kind]
	for i, bid := range order {
		if bid == id {
			g.buildingOrder[kind] = append(order[:i], order[i+1:]...)
			break
		}
	}
	delete(g.buildings, id)
	delete(g.buildingNodes, id)
}

// Building returns a building by id.
func (g *Graph) Building(id shared.BuildingID) (Building, bool) {
	b, ok := g.buildings[id]
	return b, ok
}

// BuildingNode returns the node a building is attached to.
func (g *Graph) BuildingNode(id shared.BuildingID) (shared.NodeID, bool) {
	n, ok := g.buildingNodes[id]
	return n, ok
}

// BuildingsOfKind returns every building of a kind in stable attach order.
func (g *Graph) BuildingsOfKind(kind BuildingKind) []Building {
	order := g.buildingOrder[kind]
	out := make([]Building, 0, len(order))
	for _, id := range order {
		out = append(out, g.buildings[id])
	}
	return out
}

// DirtyBuildings returns the buildings whose dirty flag is set, in stable
// order across kinds.
func (g *Graph) DirtyBuildings() []Building {
	var out []Building
	for _, kind := range []BuildingKind{KindParking, KindGasStation, KindSite} {
		for _, id := range g.buildingOrder[kind] {
			if b := g.buildings[id]; b.Dirty() {
				out = append(out, b)
			}
		}
	}
	return out
}
