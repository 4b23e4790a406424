package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// NodeRecord is the serialized form of one graph node.
type NodeRecord struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// EdgeRecord is the serialized form of one directed edge.
type EdgeRecord struct {
	ID          int     `json:"id"`
	From        int     `json:"from"`
	To          int     `json:"to"`
	LengthM     float64 `json:"length_m"`
	MaxSpeedKPH float64 `json:"max_speed_kph"`
	RoadClass   string  `json:"road_class,omitempty"`
	Lanes       int     `json:"lanes,omitempty"`
	Mode        string  `json:"mode,omitempty"`
}

// BuildingRecord is the serialized form of one building. Type discriminates
// the variant; the variant-specific fields are omitted for the others.
type BuildingRecord struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	NodeID int    `json:"node_id"`

	// parking, gas_station
	Capacity int `json:"capacity,omitempty"`

	// gas_station
	CostFactor float64 `json:"cost_factor,omitempty"`
	Revenue    float64 `json:"revenue,omitempty"`

	// site
	Name               string             `json:"name,omitempty"`
	ActivityRate       float64            `json:"activity_rate,omitempty"`
	DestinationWeights map[string]float64 `json:"destination_weights,omitempty"`
	ActivePackages     []string           `json:"active_packages,omitempty"`
	Statistics         *cargo.Statistics  `json:"statistics,omitempty"`
}

// MapDocument is the wire and file form of a complete road network. It is the
// graph portion of a save-state document and the whole of a map export.
type MapDocument struct {
	Nodes     []NodeRecord     `json:"nodes"`
	Edges     []EdgeRecord     `json:"edges"`
	Buildings []BuildingRecord `json:"buildings"`
}

// ExportMap serializes a graph. Nodes and edges are ordered by id and
// buildings by per-kind attach order, so exporting the same graph twice
// yields identical documents.
func ExportMap(g *graph.Graph) MapDocument {
	doc := MapDocument{
		Nodes:     []NodeRecord{},
		Edges:     []EdgeRecord{},
		Buildings: []BuildingRecord{},
	}
	for _, id := range g.NodeIDs() {
		node, _ := g.Node(id)
		doc.Nodes = append(doc.Nodes, NodeRecord{ID: int(id), X: node.X, Y: node.Y})
	}
	for _, id := range g.EdgeIDs() {
		edge, _ := g.Edge(id)
		doc.Edges = append(doc.Edges, EdgeRecord{
			ID:          int(edge.ID),
			From:        int(edge.From),
			To:          int(edge.To),
			LengthM:     edge.LengthM,
			MaxSpeedKPH: edge.MaxSpeedKPH,
			RoadClass:   edge.RoadClass,
			Lanes:       edge.Lanes,
			Mode:        edge.Mode,
		})
	}
	for _, kind := range []graph.BuildingKind{graph.KindParking, graph.KindGasStation, graph.KindSite} {
		for _, b := range g.BuildingsOfKind(kind) {
			nodeID, _ := g.BuildingNode(b.BuildingID())
			doc.Buildings = append(doc.Buildings, buildingRecord(b, nodeID))
		}
	}
	return doc
}

func buildingRecord(b graph.Building, nodeID shared.NodeID) BuildingRecord {
	record := BuildingRecord{
		ID:     string(b.BuildingID()),
		Type:   string(b.Kind()),
		NodeID: int(nodeID),
	}
	switch v := b.(type) {
	case *graph.Parking:
		record.Capacity = v.Capacity()
	case *graph.GasStation:
		record.Capacity = v.Capacity()
		record.CostFactor = v.CostFactor()
		record.Revenue = v.Revenue()
	case *cargo.Site:
		record.Name = v.Name
		record.ActivityRate = v.ActivityRate
		// Empty collections stay nil so the omitempty tags round-trip: an
		// exported record and its decoded copy must compare equal.
		if len(v.DestinationWeights) > 0 {
			weights := make(map[string]float64, len(v.DestinationWeights))
			for site, w := range v.DestinationWeights {
				weights[string(site)] = w
			}
			record.DestinationWeights = weights
		}
		if packages := v.ActivePackages(); len(packages) > 0 {
			active := make([]string, 0, len(packages))
			for _, p := range packages {
				active = append(active, string(p))
			}
			record.ActivePackages = active
		}
		stats := v.Stats()
		record.Statistics = &stats
	}
	return record
}

// ImportMap rebuilds a graph from a document. The document is applied in
// order: nodes, then edges, then buildings.
func ImportMap(doc MapDocument) (*graph.Graph, error) {
	g := graph.New()
	for _, n := range doc.Nodes {
		if _, err := g.AddNode(shared.NodeID(n.ID), n.X, n.Y); err != nil {
			return nil, fmt.Errorf("importing node %d: %w", n.ID, err)
		}
	}
	for _, e := range doc.Edges {
		_, err := g.AddEdge(shared.EdgeID(e.ID), shared.NodeID(e.From), shared.NodeID(e.To),
			e.LengthM, e.MaxSpeedKPH, e.RoadClass, e.Lanes, e.Mode)
		if err != nil {
			return nil, fmt.Errorf("importing edge %d: %w", e.ID, err)
		}
	}
	for _, record := range doc.Buildings {
		b, err := buildBuilding(record)
		if err != nil {
			return nil, err
		}
		if err := g.AttachBuilding(shared.NodeID(record.NodeID), b); err != nil {
			return nil, fmt.Errorf("attaching building %s: %w", record.ID, err)
		}
	}
	return g, nil
}

func buildBuilding(record BuildingRecord) (graph.Building, error) {
	id := shared.BuildingID(record.ID)
	switch graph.BuildingKind(record.Type) {
	case graph.KindParking:
		return graph.NewParking(id, record.Capacity), nil
	case graph.KindGasStation:
		station := graph.NewGasStation(id, record.Capacity, record.CostFactor)
		station.RestoreRevenue(record.Revenue)
		return station, nil
	case graph.KindSite:
		site := cargo.NewSite(id, record.Name, record.ActivityRate)
		for ref, w := range record.DestinationWeights {
			site.DestinationWeights[shared.SiteID(ref)] = w
		}
		for _, p := range record.ActivePackages {
			site.RestoreActivePackage(shared.PackageID(p))
		}
		if record.Statistics != nil {
			site.RestoreStats(*record.Statistics)
		}
		return site, nil
	}
	return nil, shared.NewValidationError("type", "unknown building type "+record.Type)
}

// EncodeMap renders a map document as indented JSON.
func EncodeMap(doc MapDocument) ([]byte, error) {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding map: %w", err)
	}
	return raw, nil
}

// DecodeMap parses a map document from JSON.
func DecodeMap(raw []byte) (MapDocument, error) {
	var doc MapDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return MapDocument{}, shared.NewIOError("decode map", err)
	}
	return doc, nil
}
