// pkg/routegraph/solve.go
package routegraph

import (
	"container/heap"
	"errors"

	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
	"github.com/tsailer/vfrnav-public-sub008/pkg/perf"
)

// ErrNoPath is returned by Solve when the destination is unreachable —
// spec.md §4.C's "enroute-error" failure.
var ErrNoPath = errors.New("routegraph: no path found")

// Leg is one traversed edge of a solved Path, paired with the cruise row
// index it was flown at.
type Leg struct {
	Edge        Edge
	From, To    int
	CruiseIndex int
}

// Path is the result of Solve: an ordered sequence of legs from Dep to
// Dest, plus the initial climb and final descent cruise indices.
type Path struct {
	Legs          []Leg
	InitialCruise int
	FinalCruise   int
	TotalMetric   float32
}

// state is one node of the product-space search graph: (vertex, cruise
// row index), plus the bitset of crossing vertices already passed
// through, per spec.md §4.C's crossing-enforcement alternative.
type state struct {
	vertex, cruise int
	crossings      uint64
}

type searchNode struct {
	s       state
	cost    float32
	prev    *searchNode
	viaEdge Edge
}

type nodeHeap []*searchNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.s.cruise != b.s.cruise {
		return a.s.cruise < b.s.cruise
	}
	if a.viaEdge.Ident != b.viaEdge.Ident {
		return a.viaEdge.Ident < b.viaEdge.Ident
	}
	return a.s.vertex < b.s.vertex
}
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(*searchNode)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// CrossingVertex names a duplicated-graph crossing anchor that the
// search must pass through before Dest is considered reachable, and the
// bit it occupies in state.crossings.
type CrossingVertex struct {
	VertexIndex int
	Bit         uint
}

// SolveOptions carries the knobs Solve's edge relaxation needs beyond
// the Graph and Performance Table themselves.
type SolveOptions struct {
	WindEnabled bool // set: lateral cost is DistanceNM·row MetricPerNM·TAS/GS; clear: the edge's own Metric
	Crossings   []CrossingVertex
}

// Solve runs the Dijkstra search of spec.md §4.C over the product space
// (vertex, cruise-row-index). table supplies per-row metrics and
// level-change penalties; g.Dep/g.Dest are the search endpoints.
func Solve(g *Graph, table *perf.Table, opts SolveOptions) (*Path, error) {
	if len(table.Rows) == 0 {
		return nil, errors.New("routegraph: empty performance table")
	}

	var requiredMask uint64
	for _, c := range opts.Crossings {
		requiredMask |= 1 << c.Bit
	}
	crossingBit := make(map[int]uint, len(opts.Crossings))
	for _, c := range opts.Crossings {
		crossingBit[c.VertexIndex] = c.Bit
	}

	// The search starts at Dep on the ground sentinel row; the initial
	// climb to the first cruise row is priced by a level-change
	// relaxation out of this node.
	start := &searchNode{s: state{vertex: g.Dep, cruise: perf.GroundIndex}}

	best := make(map[state]float32)
	best[start.s] = 0

	pq := &nodeHeap{start}
	heap.Init(pq)

	var goal *searchNode

	for pq.Len() > 0 {
		n := heap.Pop(pq).(*searchNode)
		if c, ok := best[n.s]; ok && c < n.cost {
			continue
		}

		if n.s.vertex == g.Dest && n.s.cruise == perf.GroundIndex && n.s.crossings == requiredMask {
			goal = n
			break
		}

		// level changes at the same vertex
		for i := -1; i < len(table.Rows); i++ {
			if i == n.s.cruise {
				continue
			}
			lc := table.LevelChangeBetween(n.s.cruise, i)
			if isForbiddenChange(lc) {
				continue
			}
			ns := state{vertex: n.s.vertex, cruise: i, crossings: n.s.crossings}
			cost := n.cost + lc.MetricPenalty
			relax(best, pq, n, ns, cost, Edge{To: n.s.vertex, Kind: EdgeLevelChange, Ident: "LVL", Metric: lc.MetricPenalty})
		}

		if n.s.cruise >= 0 {
			row := table.Rows[n.s.cruise]
			for _, e := range g.Neighbors(n.s.vertex) {
				if !e.Band.Permits(row.Level) {
					continue
				}
				metric := e.Metric
				if opts.WindEnabled {
					mid := geo.Mid2LL(g.Vertices[n.s.vertex].Location, g.Vertices[e.To].Location)
					metric = e.DistanceNM * row.MetricPerNM * windFactor(row, e, mid)
				}
				crossings := n.s.crossings
				if bit, ok := crossingBit[e.To]; ok {
					crossings |= 1 << bit
				}
				ns := state{vertex: e.To, cruise: n.s.cruise, crossings: crossings}
				relax(best, pq, n, ns, n.cost+metric, e)
			}
		} else {
			// from the ground sentinel, only level changes (the initial
			// climb) are available; lateral edges require a cruise row.
		}
	}

	if goal == nil {
		return nil, ErrNoPath
	}

	return reconstruct(goal), nil
}

// isForbiddenChange reports a NaN metric penalty — spec.md §3.3's
// "NaNs are treated as forbidden" invariant.
func isForbiddenChange(lc perf.LevelChange) bool {
	return lc.MetricPenalty != lc.MetricPenalty
}

func windFactor(row perf.Cruise, e Edge, at geo.Point2LL) float32 {
	dir, speed := row.Wind(at)
	if speed == 0 {
		return 1
	}
	windAngle := geo.Radians(dir) - geo.Radians(e.TrueCourseDeg)
	headwind := speed * geo.Cos(windAngle)
	gs := row.TAS - headwind
	if gs <= 0 {
		return 1e6 // effectively forbidden: cannot make headway
	}
	return row.TAS / gs
}

func relax(best map[state]float32, pq *nodeHeap, from *searchNode, to state, cost float32, via Edge) {
	if prior, ok := best[to]; ok && prior <= cost {
		return
	}
	best[to] = cost
	n := &searchNode{s: to, cost: cost, viaEdge: via, prev: from}
	heap.Push(pq, n)
}

func reconstruct(goal *searchNode) *Path {
	var legs []Leg
	for n := goal; n.prev != nil; n = n.prev {
		legs = append([]Leg{{Edge: n.viaEdge, From: n.prev.s.vertex, To: n.s.vertex, CruiseIndex: n.s.cruise}}, legs...)
	}
	p := &Path{Legs: legs, TotalMetric: goal.cost, InitialCruise: perf.GroundIndex, FinalCruise: perf.GroundIndex}
	for _, l := range legs {
		if l.CruiseIndex != perf.GroundIndex {
			p.InitialCruise = l.CruiseIndex
			break
		}
	}
	for i := len(legs) - 1; i >= 0; i-- {
		if legs[i].CruiseIndex != perf.GroundIndex {
			p.FinalCruise = legs[i].CruiseIndex
			break
		}
	}
	return p
}
