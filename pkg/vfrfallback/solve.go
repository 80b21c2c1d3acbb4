// pkg/vfrfallback/solve.go
package vfrfallback

import (
	"container/heap"
	"errors"

	"github.com/tsailer/vfrnav-public-sub008/pkg/perf"
	"github.com/tsailer/vfrnav-public-sub008/pkg/routegraph"
)

// ErrNoPath is returned by Solve when Dest is unreachable from Dep over
// the VFR graph — spec.md §4.I's counterpart to routegraph.ErrNoPath.
var ErrNoPath = errors.New("vfrfallback: no path found")

// Leg is one traversed edge of a solved Path.
type Leg struct {
	Edge     routegraph.Edge
	From, To int
}

// Path is the result of Solve: an ordered sequence of legs from Dep to
// Dest, plus the single cruise row the whole VFR leg is flown at
// (spec.md §4.I step 6's "materialize at a single cruise level in the
// middle of the active performance rows").
type Path struct {
	Legs        []Leg
	CruiseIndex int
	TotalMetric float32
}

type searchNode struct {
	vertex  int
	cost    float32
	prev    *searchNode
	viaEdge routegraph.Edge
}

type nodeHeap []*searchNode

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)         { *h = append(*h, x.(*searchNode)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Solve runs a plain Dijkstra over g (built by Build, hence already
// undirected and airspace-penalized) from g.Dep to g.Dest — spec.md
// §4.I step 5. table supplies the performance rows the single cruise
// level is drawn from; the middle row is used, per step 6.
func Solve(g *routegraph.Graph, table *perf.Table) (*Path, error) {
	start := &searchNode{vertex: g.Dep}
	best := map[int]float32{g.Dep: 0}

	pq := &nodeHeap{start}
	heap.Init(pq)

	var goal *searchNode
	for pq.Len() > 0 {
		n := heap.Pop(pq).(*searchNode)
		if c, ok := best[n.vertex]; ok && n.cost > c {
			continue
		}
		if n.vertex == g.Dest {
			goal = n
			break
		}
		for _, e := range g.Neighbors(n.vertex) {
			cost := n.cost + e.Metric
			if c, ok := best[e.To]; ok && cost >= c {
				continue
			}
			best[e.To] = cost
			heap.Push(pq, &searchNode{vertex: e.To, cost: cost, prev: n, viaEdge: e})
		}
	}

	if goal == nil {
		return nil, ErrNoPath
	}

	var legs []Leg
	for n := goal; n.prev != nil; n = n.prev {
		legs = append([]Leg{{Edge: n.viaEdge, From: n.prev.vertex, To: n.vertex}}, legs...)
	}

	cruiseIndex := 0
	if len(table.Rows) > 0 {
		cruiseIndex = len(table.Rows) / 2
	}

	return &Path{Legs: legs, CruiseIndex: cruiseIndex, TotalMetric: goal.cost}, nil
}
