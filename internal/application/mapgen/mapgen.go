package mapgen

import (
	"fmt"
	"math/rand"

	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/pkg/utils"
)

// Config drives the procedural map generator. The generator owns a scoped
// RNG seeded from Seed, so the same config always yields the same map.
type Config struct {
	Seed     int64
	NumNodes int

	SiteCount       int
	ParkingCount    int
	GasStationCount int

	WidthM  float64
	HeightM float64
}

// DefaultConfig derives facility counts from the node count.
func DefaultConfig(seed int64, numNodes int) Config {
	if numNodes < 2 {
		numNodes = 2
	}
	return Config{
		Seed:            seed,
		NumNodes:        numNodes,
		SiteCount:       utils.Min(numNodes, 2+numNodes/5),
		ParkingCount:    1 + numNodes/4,
		GasStationCount: 1 + numNodes/6,
		WidthM:          50000,
		HeightM:         50000,
	}
}

// normalized fills unset optional fields with the defaults.
func (c Config) normalized() Config {
	d := DefaultConfig(c.Seed, c.NumNodes)
	if c.SiteCount <= 0 {
		c.SiteCount = d.SiteCount
	}
	if c.ParkingCount <= 0 {
		c.ParkingCount = d.ParkingCount
	}
	if c.GasStationCount <= 0 {
		c.GasStationCount = d.GasStationCount
	}
	if c.WidthM <= 0 {
		c.WidthM = d.WidthM
	}
	if c.HeightM <= 0 {
		c.HeightM = d.HeightM
	}
	return c
}

// Road class speed table. The class is drawn per edge; the speed follows it.
var roadClasses = []struct {
	name     string
	speedKPH float64
	weight   float64
}{
	{"motorway", 120, 0.15},
	{"trunk", 100, 0.2},
	{"primary", 80, 0.35},
	{"secondary", 50, 0.3},
}

// Generate builds a connected road network with sites, parkings, and gas
// stations scattered over it.
func Generate(cfg Config) (*graph.Graph, error) {
	cfg = cfg.normalized()
	if cfg.NumNodes < 2 {
		return nil, shared.NewValidationError("num_nodes", "must be at least 2")
	}
	if cfg.SiteCount > cfg.NumNodes {
		return nil, shared.NewValidationError("site_count", "cannot exceed num_nodes")
	}

	rng := shared.NewRand(cfg.Seed)
	g := graph.New()

	nodes := make([]*graph.Node, 0, cfg.NumNodes)
	for i := 0; i < cfg.NumNodes; i++ {
		node, err := g.AddNode(shared.NodeID(i), rng.Float64()*cfg.WidthM, rng.Float64()*cfg.HeightM)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	nextEdge := 0
	addRoad := func(a, b *graph.Node) error {
		if _, exists := g.EdgeBetween(a.ID, b.ID); exists {
			return nil
		}
		length := utils.Euclidean(a.X, a.Y, b.X, b.Y)
		if length < 100 {
			length = 100
		}
		class := drawRoadClass(rng)
		lanes := 1 + rng.Intn(3)
		for _, pair := range [][2]*graph.Node{{a, b}, {b, a}} {
			_, err := g.AddEdge(shared.EdgeID(nextEdge), pair[0].ID, pair[1].ID,
				length, class.speedKPH, class.name, lanes, "road")
			if err != nil {
				return err
			}
			nextEdge++
		}
		return nil
	}

	// Spanning chain first so the network is connected, then extra roads to
	// the nearest neighbors for alternative routes.
	for i := 1; i < len(nodes); i++ {
		nearest := nodes[rng.Intn(i)]
		best := utils.Euclidean(nodes[i].X, nodes[i].Y, nearest.X, nearest.Y)
		for j := 0; j < i; j++ {
			if d := utils.Euclidean(nodes[i].X, nodes[i].Y, nodes[j].X, nodes[j].Y); d < best {
				best = d
				nearest = nodes[j]
			}
		}
		if err := addRoad(nodes[i], nearest); err != nil {
			return nil, err
		}
	}
	for _, node := range nodes {
		for _, neighbor := range nearestNodes(node, nodes, 2) {
			if err := addRoad(node, neighbor); err != nil {
				return nil, err
			}
		}
	}

	if err := placeBuildings(g, nodes, cfg, rng); err != nil {
		return nil, err
	}
	return g, nil
}

func drawRoadClass(rng *rand.Rand) struct {
	name     string
	speedKPH float64
	weight   float64
} {
	total := 0.0
	for _, c := range roadClasses {
		total += c.weight
	}
	draw := rng.Float64() * total
	for _, c := range roadClasses {
		draw -= c.weight
		if draw <= 0 {
			return c
		}
	}
	return roadClasses[len(roadClasses)-1]
}

func nearestNodes(from *graph.Node, nodes []*graph.Node, k int) []*graph.Node {
	type candidate struct {
		node *graph.Node
		dist float64
	}
	candidates := make([]candidate, 0, len(nodes)-1)
	for _, n := range nodes {
		if n.ID == from.ID {
			continue
		}
		candidates = append(candidates, candidate{n, utils.Euclidean(from.X, from.Y, n.X, n.Y)})
	}
	for i := 0; i < utils.Min(k, len(candidates)); i++ {
		best := i
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].dist < candidates[best].dist {
				best = j
			}
		}
		candidates[i], candidates[best] = candidates[best], candidates[i]
	}
	out := make([]*graph.Node, 0, k)
	for i := 0; i < utils.Min(k, len(candidates)); i++ {
		out = append(out, candidates[i].node)
	}
	return out
}

func placeBuildings(g *graph.Graph, nodes []*graph.Node, cfg Config, rng *rand.Rand) error {
	// Sites first, on distinct nodes drawn without replacement.
	perm := rng.Perm(len(nodes))
	sites := make([]*cargo.Site, 0, cfg.SiteCount)
	for i := 0; i < cfg.SiteCount; i++ {
		node := nodes[perm[i]]
		// Sequential ids keep the generator fully reproducible for a seed.
		site := cargo.NewSite(
			shared.BuildingID(fmt.Sprintf("site-%d", i+1)),
			fmt.Sprintf("Site %d", i+1),
			shared.UniformBetween(rng, 0.5, 3.0),
		)
		if err := g.AttachBuilding(node.ID, site); err != nil {
			return err
		}
		sites = append(sites, site)
	}
	for _, site := range sites {
		for _, other := range sites {
			if other == site {
				continue
			}
			site.DestinationWeights[other.SiteID()] = shared.UniformBetween(rng, 0.5, 2.0)
		}
	}

	for i := 0; i < cfg.ParkingCount; i++ {
		node := nodes[rng.Intn(len(nodes))]
		parking := graph.NewParking(shared.BuildingID(fmt.Sprintf("parking-%d", i+1)), 2+rng.Intn(4))
		if err := g.AttachBuilding(node.ID, parking); err != nil {
			return err
		}
	}
	for i := 0; i < cfg.GasStationCount; i++ {
		node := nodes[rng.Intn(len(nodes))]
		station := graph.NewGasStation(
			shared.BuildingID(fmt.Sprintf("gas_station-%d", i+1)),
			1+rng.Intn(3),
			shared.UniformBetween(rng, 0.9, 1.2),
		)
		if err := g.AttachBuilding(node.ID, station); err != nil {
			return err
		}
	}
	return nil
}
