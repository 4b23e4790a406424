package routing

import (
	"math"

	"github.com/mbeckers/freightsim-go/internal/domain/graph"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// Service answers route queries over the world's road graph. Edge traversal
// cost is time in hours: length / (1000 * min(edge speed, agent speed)).
type Service struct {
	g     *graph.Graph
	cache *matchCache
}

// NewService creates a routing service bound to a graph.
func NewService(g *graph.Graph) *Service {
	return &Service{g: g, cache: newMatchCache()}
}

// Graph exposes the bound graph for criteria evaluation by callers.
func (s *Service) Graph() *graph.Graph { return s.g }

// InvalidateCache drops all cached criteria matches. Called after admin graph
// mutations between runs.
func (s *Service) InvalidateCache() {
	s.cache = newMatchCache()
}

// edgeCostHours computes the traversal time of an edge for an agent capped at
// maxSpeedKPH.
func edgeCostHours(edge *graph.Edge, maxSpeedKPH float64) float64 {
	speed := edge.MaxSpeedKPH
	if maxSpeedKPH > 0 && maxSpeedKPH < speed {
		speed = maxSpeedKPH
	}
	if speed <= 0 {
		return math.Inf(1)
	}
	return edge.LengthM / (1000.0 * speed)
}

// EstimateTravelTime returns the fastest travel time in hours between two
// nodes, or +Inf when no route exists.
func (s *Service) EstimateTravelTime(start, goal shared.NodeID, maxSpeedKPH float64) float64 {
	if start == goal {
		return 0
	}
	_, cost := s.aStar(start, goal, maxSpeedKPH)
	return cost
}

// FindRoute runs A* and returns the full node sequence including start. The
// result is empty when either endpoint is unknown or the goal is unreachable.
func (s *Service) FindRoute(start, goal shared.NodeID, maxSpeedKPH float64) []shared.NodeID {
	if _, ok := s.g.Node(start); !ok {
		return nil
	}
	if _, ok := s.g.Node(goal); !ok {
		return nil
	}
	if start == goal {
		return []shared.NodeID{start}
	}
	path, _ := s.aStar(start, goal, maxSpeedKPH)
	return path
}

// aStar searches start -> goal and returns the path plus its cost in hours.
// The heuristic is straight-line distance at the agent's speed cap, which
// never overestimates the true travel time.
func (s *Service) aStar(start, goal shared.NodeID, maxSpeedKPH float64) ([]shared.NodeID, float64) {
	goalNode, ok := s.g.Node(goal)
	if !ok {
		return nil, math.Inf(1)
	}
	if _, ok := s.g.Node(start); !ok {
		return nil, math.Inf(1)
	}

	heuristic := func(id shared.NodeID) float64 {
		node, ok := s.g.Node(id)
		if !ok || maxSpeedKPH <= 0 {
			return 0
		}
		dx := node.X - goalNode.X
		dy := node.Y - goalNode.Y
		return math.Sqrt(dx*dx+dy*dy) / (maxSpeedKPH * 1000.0)
	}

	gScore := map[shared.NodeID]float64{start: 0}
	cameFrom := map[shared.NodeID]shared.NodeID{}
	closed := map[shared.NodeID]struct{}{}

	open := newOpenSet()
	open.push(start, heuristic(start))

	for !open.empty() {
		current, _, _ := open.pop()
		if _, done := closed[current]; done {
			continue
		}
		closed[current] = struct{}{}

		if current == goal {
			return reconstructPath(cameFrom, start, goal), gScore[goal]
		}

		for _, edgeID := range s.g.Outgoing(current) {
			edge, _ := s.g.Edge(edgeID)
			cost := edgeCostHours(edge, maxSpeedKPH)
			if math.IsInf(cost, 1) {
				continue
			}
			tentative := gScore[current] + cost
			if known, seen := gScore[edge.To]; seen && tentative >= known {
				continue
			}
			gScore[edge.To] = tentative
			cameFrom[edge.To] = current
			open.push(edge.To, tentative+heuristic(edge.To))
		}
	}
	return nil, math.Inf(1)
}

func reconstructPath(cameFrom map[shared.NodeID]shared.NodeID, start, goal shared.NodeID) []shared.NodeID {
	path := []shared.NodeID{goal}
	current := goal
	for current != start {
		prev, ok := cameFrom[current]
		if !ok {
			return nil
		}
		path = append(path, prev)
		current = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
