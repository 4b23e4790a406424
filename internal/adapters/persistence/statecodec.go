package persistence

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mbeckers/freightsim-go/internal/domain/broker"
	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/truck"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// PackageRecord is the serialized form of one active package. Enums are
// string discriminators and parsed strictly on restore.
type PackageRecord struct {
	ID                   string  `json:"id"`
	OriginSite           string  `json:"origin_site"`
	DestinationSite      string  `json:"destination_site"`
	Size                 int     `json:"size"`
	ValueDucats          float64 `json:"value_ducats"`
	Priority             string  `json:"priority"`
	Urgency              string  `json:"urgency"`
	Status               string  `json:"status"`
	SpawnTick            int64   `json:"spawn_tick"`
	PickupDeadlineTick   int64   `json:"pickup_deadline_tick"`
	DeliveryDeadlineTick int64   `json:"delivery_deadline_tick"`
	DeliveredTick        int64   `json:"delivered_tick,omitempty"`
}

// BuildingAgentRecord serializes the agent wrapper around a site.
type BuildingAgentRecord struct {
	AgentID    string `json:"agent_id"`
	BuildingID string `json:"building_id"`
}

// AgentRecord is the tagged union of serialized agent variants.
type AgentRecord struct {
	Type     string               `json:"type"`
	Truck    *truck.Snapshot      `json:"truck,omitempty"`
	Broker   *broker.Snapshot     `json:"broker,omitempty"`
	Building *BuildingAgentRecord `json:"building,omitempty"`
}

// Metadata carries the world-level scalars of a save state.
type Metadata struct {
	Tick            int64   `json:"tick"`
	DTSeconds       float64 `json:"dt_s"`
	NowSeconds      float64 `json:"now_s"`
	GlobalFuelPrice float64 `json:"global_fuel_price"`
	CurrentDay      int     `json:"current_day"`
	Seed            int64   `json:"seed"`
}

// StateDocument is the complete save-state format: graph, agents, packages,
// metadata. Map export and import use the Graph portion alone.
type StateDocument struct {
	Graph    MapDocument     `json:"graph"`
	Agents   []AgentRecord   `json:"agents"`
	Packages []PackageRecord `json:"packages"`
	Metadata Metadata        `json:"metadata"`
}

// ExportState serializes the whole world. Agents appear in insertion order
// and packages in creation order, so two exports of the same world are
// byte-identical.
func ExportState(w *world.World, seed int64) StateDocument {
	doc := StateDocument{
		Graph:    ExportMap(w.Graph),
		Agents:   []AgentRecord{},
		Packages: []PackageRecord{},
		Metadata: Metadata{
			Tick:            w.Clock.Tick,
			DTSeconds:       w.Clock.DTSeconds,
			NowSeconds:      w.Clock.NowSeconds(),
			GlobalFuelPrice: w.GlobalFuelPrice,
			CurrentDay:      w.Clock.Day(),
			Seed:            seed,
		},
	}
	for _, a := range w.Agents() {
		switch v := a.(type) {
		case *truck.Truck:
			snapshot := v.Snapshot()
			doc.Agents = append(doc.Agents, AgentRecord{Type: world.KindTruck, Truck: &snapshot})
		case *broker.Broker:
			snapshot := v.Snapshot()
			doc.Agents = append(doc.Agents, AgentRecord{Type: world.KindBroker, Broker: &snapshot})
		case *world.BuildingAgent:
			doc.Agents = append(doc.Agents, AgentRecord{Type: world.KindBuilding, Building: &BuildingAgentRecord{
				AgentID:    string(v.ID()),
				BuildingID: string(v.BuildingID()),
			}})
		}
	}
	for _, p := range w.Packages() {
		doc.Packages = append(doc.Packages, PackageRecord{
			ID:                   string(p.ID),
			OriginSite:           string(p.Origin),
			DestinationSite:      string(p.Destination),
			Size:                 p.Size,
			ValueDucats:          p.ValueDucats,
			Priority:             string(p.Priority),
			Urgency:              string(p.Urgency),
			Status:               string(p.Status),
			SpawnTick:            p.SpawnTick,
			PickupDeadlineTick:   p.PickupDeadlineTick,
			DeliveryDeadlineTick: p.DeliveryDeadlineTick,
			DeliveredTick:        p.DeliveredTick,
		})
	}
	return doc
}

// ImportState rebuilds a world from a save document. The graph comes first,
// then packages, then agents; truck occupancy is re-established from each
// truck's recorded building.
func ImportState(doc StateDocument) (*world.World, error) {
	g, err := ImportMap(doc.Graph)
	if err != nil {
		return nil, fmt.Errorf("importing graph: %w", err)
	}
	dt := doc.Metadata.DTSeconds
	if dt <= 0 {
		return nil, shared.NewValidationError("dt_s", "must be positive")
	}

	w := world.New(g, dt, doc.Metadata.Seed)
	w.RestoreClock(doc.Metadata.Tick, dt)
	w.RestoreFuelPrice(doc.Metadata.GlobalFuelPrice)

	for _, record := range doc.Packages {
		pkg, err := restorePackage(record)
		if err != nil {
			return nil, err
		}
		if err := w.AddPackage(pkg); err != nil {
			return nil, fmt.Errorf("restoring package %s: %w", record.ID, err)
		}
	}

	for _, record := range doc.Agents {
		if err := restoreAgent(w, record); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func restorePackage(record PackageRecord) (*cargo.Package, error) {
	priority, err := cargo.ParsePriority(record.Priority)
	if err != nil {
		return nil, fmt.Errorf("restoring package %s: %w", record.ID, err)
	}
	urgency, err := cargo.ParseUrgency(record.Urgency)
	if err != nil {
		return nil, fmt.Errorf("restoring package %s: %w", record.ID, err)
	}
	status, err := cargo.ParseStatus(record.Status)
	if err != nil {
		return nil, fmt.Errorf("restoring package %s: %w", record.ID, err)
	}
	return &cargo.Package{
		ID:                   shared.PackageID(record.ID),
		Origin:               shared.SiteID(record.OriginSite),
		Destination:          shared.SiteID(record.DestinationSite),
		Size:                 record.Size,
		ValueDucats:          record.ValueDucats,
		Priority:             priority,
		Urgency:              urgency,
		Status:               status,
		SpawnTick:            record.SpawnTick,
		PickupDeadlineTick:   record.PickupDeadlineTick,
		DeliveryDeadlineTick: record.DeliveryDeadlineTick,
		DeliveredTick:        record.DeliveredTick,
	}, nil
}

func restoreAgent(w *world.World, record AgentRecord) error {
	switch record.Type {
	case world.KindTruck:
		if record.Truck == nil {
			return shared.NewValidationError("truck", "missing truck payload")
		}
		t := truck.FromSnapshot(*record.Truck)
		if err := w.AddAgent(t); err != nil {
			return fmt.Errorf("restoring truck %s: %w", record.Truck.ID, err)
		}
		return reoccupyBuilding(w, t)
	case world.KindBroker:
		if record.Broker == nil {
			return shared.NewValidationError("broker", "missing broker payload")
		}
		if err := w.AddAgent(broker.FromSnapshot(*record.Broker)); err != nil {
			return fmt.Errorf("restoring broker %s: %w", record.Broker.ID, err)
		}
		return nil
	case world.KindBuilding:
		if record.Building == nil {
			return shared.NewValidationError("building", "missing building payload")
		}
		ba := world.NewBuildingAgent(shared.AgentID(record.Building.AgentID), shared.BuildingID(record.Building.BuildingID))
		if err := w.AddAgent(ba); err != nil {
			return fmt.Errorf("restoring building agent %s: %w", record.Building.AgentID, err)
		}
		return nil
	}
	return shared.NewValidationError("type", "unknown agent type "+record.Type)
}

func reoccupyBuilding(w *world.World, t *truck.Truck) error {
	buildingID, ok := t.CurrentBuilding()
	if !ok {
		return nil
	}
	b, ok := w.Graph.Building(buildingID)
	if !ok {
		return shared.NewNotFoundError("building", string(buildingID))
	}
	occ, ok := b.(graph.Occupiable)
	if !ok {
		return shared.NewInvariantError("building %s is not occupiable", buildingID)
	}
	if err := occ.Enter(t.ID()); err != nil {
		return fmt.Errorf("re-entering building %s: %w", buildingID, err)
	}
	return nil
}

// EncodeState renders a save document as indented JSON.
func EncodeState(doc StateDocument) ([]byte, error) {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return raw, nil
}

// DecodeState parses a save document from JSON.
func DecodeState(raw []byte) (StateDocument, error) {
	var doc StateDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return StateDocument{}, shared.NewIOError("decode state", err)
	}
	return doc, nil
}

// SaveStateFile writes the save document to a server-side path.
func SaveStateFile(path string, doc StateDocument) error {
	raw, err := EncodeState(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return shared.NewIOError("write state file", err)
	}
	return nil
}

// LoadStateFile reads a save document from a server-side path.
func LoadStateFile(path string) (StateDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return StateDocument{}, shared.NewIOError("read state file", err)
	}
	return DecodeState(raw)
}

// LoadStateBase64 reads a save document from an inline base64 payload.
func LoadStateBase64(data string) (StateDocument, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return StateDocument{}, shared.NewIOError("decode base64 state", err)
	}
	return DecodeState(raw)
}
