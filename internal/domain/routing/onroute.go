package routing

import (
	"math"

	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// RouteMatch is the result of a waypoint-aware search: the waypoint that
// minimizes the total start -> waypoint -> destination time, the matched
// item, and the path from start to the waypoint.
type RouteMatch struct {
	Waypoint        shared.NodeID
	Item            interface{}
	Path            []shared.NodeID
	TotalCostHours  float64
	DetourCostHours float64
}

// FindClosestNodeOnRoute finds the matching waypoint with the lowest total
// start -> waypoint -> destination travel time.
//
// Phase A runs Dijkstra on the reverse graph from the destination, yielding
// the remaining time from every node to the destination. Phase B runs forward
// Dijkstra from start, scoring each matching settled node by g(v) plus the
// precomputed remainder; the search stops early once the cheapest open node
// alone exceeds the best total found.
func (s *Service) FindClosestNodeOnRoute(start, destination shared.NodeID, criteria Criteria, maxSpeedKPH float64) (*RouteMatch, bool) {
	if _, ok := s.g.Node(start); !ok {
		return nil, false
	}
	if _, ok := s.g.Node(destination); !ok {
		return nil, false
	}

	distToDest := s.reverseDijkstra(destination, maxSpeedKPH)
	if _, reachable := distToDest[start]; !reachable {
		return nil, false
	}

	directCost := distToDest[start]

	best := (*RouteMatch)(nil)
	bestTotal := math.Inf(1)

	dist := map[shared.NodeID]float64{start: 0}
	cameFrom := map[shared.NodeID]shared.NodeID{}
	settled := map[shared.NodeID]struct{}{}

	open := newOpenSet()
	open.push(start, 0)

	for !open.empty() {
		if minOpen, ok := open.peekPriority(); ok && minOpen > bestTotal {
			break
		}
		current, cost, _ := open.pop()
		if _, done := settled[current]; done {
			continue
		}
		settled[current] = struct{}{}

		if remainder, reachable := distToDest[current]; reachable {
			if ok, item := criteria.Matches(s.g, current); ok {
				total := cost + remainder
				if total < bestTotal {
					bestTotal = total
					best = &RouteMatch{
						Waypoint:        current,
						Item:            item,
						Path:            reconstructPath(cameFrom, start, current),
						TotalCostHours:  total,
						DetourCostHours: total - directCost,
					}
				}
			}
		}

		for _, edgeID := range s.g.Outgoing(current) {
			edge, _ := s.g.Edge(edgeID)
			tentative := cost + edgeCostHours(edge, maxSpeedKPH)
			if known, seen := dist[edge.To]; seen && tentative >= known {
				continue
			}
			dist[edge.To] = tentative
			cameFrom[edge.To] = current
			open.push(edge.To, tentative)
		}
	}

	if best == nil {
		return nil, false
	}
	return best, true
}

// reverseDijkstra computes travel time from every reachable node to the
// target by walking incoming edges.
func (s *Service) reverseDijkstra(target shared.NodeID, maxSpeedKPH float64) map[shared.NodeID]float64 {
	dist := map[shared.NodeID]float64{target: 0}
	settled := map[shared.NodeID]struct{}{}

	open := newOpenSet()
	open.push(target, 0)

	for !open.empty() {
		current, cost, _ := open.pop()
		if _, done := settled[current]; done {
			continue
		}
		settled[current] = struct{}{}

		for _, edgeID := range s.g.Incoming(current) {
			edge, _ := s.g.Edge(edgeID)
			tentative := cost + edgeCostHours(edge, maxSpeedKPH)
			if known, seen := dist[edge.From]; seen && tentative >= known {
				continue
			}
			dist[edge.From] = tentative
			open.push(edge.From, tentative)
		}
	}
	return dist
}
