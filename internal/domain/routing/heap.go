package routing

import (
	"container/heap"

	"github.com/mbeckers/freightsim-go/internal/domain/shared"
)

// pqItem is an open-set entry. The insertion counter breaks priority ties so
// expansion order is deterministic across runs.
type pqItem struct {
	node     shared.NodeID
	priority float64
	counter  int
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].counter < pq[j].counter
}

func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// openSet wraps the heap with the tie-breaking counter.
type openSet struct {
	pq      priorityQueue
	counter int
}

func newOpenSet() *openSet {
	return &openSet{}
}

func (o *openSet) push(node shared.NodeID, priority float64) {
	heap.Push(&o.pq, pqItem{node: node, priority: priority, counter: o.counter})
	o.counter++
}

func (o *openSet) pop() (shared.NodeID, float64, bool) {
	if o.pq.Len() == 0 {
		return 0, 0, false
	}
	item := heap.Pop(&o.pq).(pqItem)
	return item.node, item.priority, true
}

func (o *openSet) peekPriority() (float64, bool) {
	if o.pq.Len() == 0 {
		return 0, false
	}
	return o.pq[0].priority, true
}

func (o *openSet) empty() bool { return o.pq.Len() == 0 }
