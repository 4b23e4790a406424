package routing

import (
	"sort"

	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// Match is the result of a closest-node search.
type Match struct {
	Node      shared.NodeID
	Item      interface{}
	CostHours float64
	Path      []shared.NodeID
}

// cachedMatch remembers a previously found match for a (criteria, start)
// pair. Items are not cached: they are re-resolved on hit so exclusions and
// graph changes are honored.
type cachedMatch struct {
	node      shared.NodeID
	costHours float64
}

type matchCache struct {
	entries map[string]map[shared.NodeID][]cachedMatch
}

func newMatchCache() *matchCache {
	return &matchCache{entries: make(map[string]map[shared.NodeID][]cachedMatch)}
}

func (c *matchCache) lookup(key string, start shared.NodeID) []cachedMatch {
	byStart, ok := c.entries[key]
	if !ok {
		return nil
	}
	return byStart[start]
}

func (c *matchCache) store(key string, start shared.NodeID, match cachedMatch) {
	byStart, ok := c.entries[key]
	if !ok {
		byStart = make(map[shared.NodeID][]cachedMatch)
		c.entries[key] = byStart
	}
	list := byStart[start]
	for _, existing := range list {
		if existing.node == match.node {
			return
		}
	}
	list = append(list, match)
	sort.Slice(list, func(i, j int) bool { return list[i].costHours < list[j].costHours })
	byStart[start] = list
}

// FindClosestNode runs a Dijkstra shortest-path tree from start and halts at
// the first settled node matching the criteria. Prior matches for the same
// criteria family are cached per start node and re-validated on hit, so
// repeated searches (a truck probing one full parking after another) avoid
// re-expansion.
func (s *Service) FindClosestNode(start shared.NodeID, criteria Criteria, maxSpeedKPH float64) (*Match, bool) {
	if _, ok := s.g.Node(start); !ok {
		return nil, false
	}

	key := criteria.CacheKey()
	for _, cached := range s.cache.lookup(key, start) {
		if ok, item := criteria.Matches(s.g, cached.node); ok {
			path := s.FindRoute(start, cached.node, maxSpeedKPH)
			if len(path) == 0 {
				continue
			}
			return &Match{Node: cached.node, Item: item, CostHours: cached.costHours, Path: path}, true
		}
	}

	match, ok := s.dijkstraFirstMatch(start, criteria, maxSpeedKPH)
	if !ok {
		return nil, false
	}
	s.cache.store(key, start, cachedMatch{node: match.Node, costHours: match.CostHours})
	return match, true
}

func (s *Service) dijkstraFirstMatch(start shared.NodeID, criteria Criteria, maxSpeedKPH float64) (*Match, bool) {
	dist := map[shared.NodeID]float64{start: 0}
	cameFrom := map[shared.NodeID]shared.NodeID{}
	settled := map[shared.NodeID]struct{}{}

	open := newOpenSet()
	open.push(start, 0)

	for !open.empty() {
		current, cost, _ := open.pop()
		if _, done := settled[current]; done {
			continue
		}
		settled[current] = struct{}{}

		if ok, item := criteria.Matches(s.g, current); ok {
			return &Match{
				Node:      current,
				Item:      item,
				CostHours: cost,
				Path:      reconstructPath(cameFrom, start, current),
			}, true
		}

		for _, edgeID := range s.g.Outgoing(current) {
			edge, _ := s.g.Edge(edgeID)
			edgeCost := edgeCostHours(edge, maxSpeedKPH)
			tentative := cost + edgeCost
			if known, seen := dist[edge.To]; seen && tentative >= known {
				continue
			}
			dist[edge.To] = tentative
			cameFrom[edge.To] = current
			open.push(edge.To, tentative)
		}
	}
	return nil, false
}
