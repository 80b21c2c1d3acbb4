// pkg/routegraph/graph.go
package routegraph

import (
	"strings"

	"github.com/tsailer/vfrnav-public-sub008/pkg/aero"
	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
	"github.com/tsailer/vfrnav-public-sub008/pkg/util"
)

// EdgeKind tags the provenance of a Routing Graph edge (spec.md §3.2).
type EdgeKind int

const (
	EdgeAirway EdgeKind = iota
	EdgeDCT
	EdgeSID
	EdgeSTAR
	EdgeAnchor
	EdgeLevelChange // not a real graph edge; tags a level-change transition in a solved Path
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeAirway:
		return "airway"
	case EdgeDCT:
		return "directto"
	case EdgeSID:
		return "sid"
	case EdgeSTAR:
		return "star"
	case EdgeAnchor:
		return "anchor"
	default:
		return "levelchange"
	}
}

// LevelBand is an inclusive [Lower,Upper] flight-level range; Lower>Upper
// denotes an empty band (spec.md §4.E's "restrict band... or remove if
// empty").
type LevelBand struct {
	Lower, Upper int
}

func (b LevelBand) Empty() bool       { return b.Lower > b.Upper }
func (b LevelBand) Permits(fl int) bool { return !b.Empty() && fl >= b.Lower && fl <= b.Upper }
func (b LevelBand) Overlaps(o LevelBand) bool {
	return !b.Empty() && !o.Empty() && b.Lower <= o.Upper && o.Lower <= b.Upper
}

// Vertex is one node of the Routing Graph (spec.md §3.2).
type Vertex struct {
	Index    int
	Kind     aero.VertexKind
	Ident    string
	Location geo.Point2LL
}

// Edge is one directed connection out of a Vertex (spec.md §3.2).
type Edge struct {
	To            int
	Kind          EdgeKind
	Ident         string
	Band          LevelBand
	DistanceNM    float32
	TrueCourseDeg float32
	Metric        float32
}

// Graph is the annotated directed multigraph of spec.md §3.2/§4.B.
type Graph struct {
	Vertices []Vertex
	out      [][]Edge

	identIndex map[string][]int

	Dep, Dest int
}

func NewGraph() *Graph {
	return &Graph{identIndex: make(map[string][]int)}
}

// AddVertex appends a new vertex and returns its index. Idents are not
// deduplicated — crossing-constraint vertex duplication (spec.md §4.B
// step 6) relies on being able to add a second vertex sharing the same
// identifier.
func (g *Graph) AddVertex(kind aero.VertexKind, ident string, loc geo.Point2LL) int {
	idx := len(g.Vertices)
	g.Vertices = append(g.Vertices, Vertex{Index: idx, Kind: kind, Ident: ident, Location: loc})
	g.out = append(g.out, nil)
	key := strings.ToUpper(ident)
	g.identIndex[key] = append(g.identIndex[key], idx)
	return idx
}

// AddEdge appends a directed edge from u to v.
func (g *Graph) AddEdge(u, v int, kind EdgeKind, ident string, band LevelBand, distanceNM, trueCourseDeg, metric float32) {
	g.out[u] = append(g.out[u], Edge{
		To: v, Kind: kind, Ident: ident, Band: band,
		DistanceNM: distanceNM, TrueCourseDeg: trueCourseDeg, Metric: metric,
	})
}

// Neighbors returns a defensive copy of u's outbound edges: g.out[u] is
// Graph's own backing storage, and the solver must not be able to
// corrupt it by mutating what it gets back.
func (g *Graph) Neighbors(u int) []Edge { return util.DuplicateSlice(g.out[u]) }

///////////////////////////////////////////////////////////////////////////
// mutators used by the Diagnostic Mapper (spec.md §4.B)

// ForbidEdge removes the first edge from u to v carrying the given
// identifier.
func (g *Graph) ForbidEdge(u, v int, ident string) bool {
	edges := g.out[u]
	for i, e := range edges {
		if e.To == v && e.Ident == ident {
			g.out[u] = append(edges[:i], edges[i+1:]...)
			return true
		}
	}
	return false
}

// RestrictEdgeLevels narrows the level band of the edge (u,v,ident); the
// edge is removed outright if the new band is empty.
func (g *Graph) RestrictEdgeLevels(u, v int, ident string, newBand LevelBand) bool {
	if newBand.Empty() {
		return g.ForbidEdge(u, v, ident)
	}
	for i := range g.out[u] {
		e := &g.out[u][i]
		if e.To == v && e.Ident == ident {
			e.Band = newBand
			return true
		}
	}
	return false
}

// ScaleEdgeMetric multiplies the metric of the edge (u,v,ident) by factor.
func (g *Graph) ScaleEdgeMetric(u, v int, ident string, factor float32) bool {
	for i := range g.out[u] {
		e := &g.out[u][i]
		if e.To == v && e.Ident == ident {
			e.Metric *= factor
			return true
		}
	}
	return false
}

// RestrictAirwayByName narrows the level band of every edge named ident
// of kind EdgeAirway, regardless of endpoints — the Diagnostic Mapper's
// "Y closed between F_a and F_b" mutation (spec.md §4.E), which names
// only the airway, not a specific edge.
func (g *Graph) RestrictAirwayByName(ident string, newBand LevelBand) int {
	return g.mutateNamed(ident, EdgeAirway, newBand)
}

// RaiseAirwayLowerBound raises the lower bound of every edge named ident
// of kind EdgeAirway to at least minFL — "Route Z requires FLxxx+"
// (spec.md §4.E).
func (g *Graph) RaiseAirwayLowerBound(ident string, minFL int) int {
	n := 0
	for u := range g.out {
		for i := range g.out[u] {
			e := &g.out[u][i]
			if e.Kind == EdgeAirway && e.Ident == ident && e.Band.Lower < minFL {
				e.Band.Lower = minFL
				n++
			}
		}
	}
	return n
}

// ForbidNamed removes every edge of kind carrying the given identifier —
// the generalization of RestrictAirwayByName's "remove if empty" branch,
// used directly by the Diagnostic Mapper for SID/STAR invalidation
// (spec.md §4.E's "X not a valid SID/STAR for A").
func (g *Graph) ForbidNamed(ident string, kind EdgeKind) int {
	return g.mutateNamed(ident, kind, LevelBand{1, 0})
}

// ForbidIdentPair removes the DCT edge(s) between the vertices nearest to
// identA and identB, in both directions — the Diagnostic Mapper's "DCT
// not allowed from P1 to P2" mutation (spec.md §4.E).
func (g *Graph) ForbidIdentPair(identA, identB string) int {
	va, ok := g.FindByIdentNearest(identA, geo.Point2LL{})
	if !ok {
		return 0
	}
	vb, ok := g.FindByIdentNearest(identB, va.Location)
	if !ok {
		return 0
	}
	n := 0
	if g.ForbidEdge(va.Index, vb.Index, "DCT") {
		n++
	}
	if g.ForbidEdge(vb.Index, va.Index, "DCT") {
		n++
	}
	return n
}

func (g *Graph) mutateNamed(ident string, kind EdgeKind, newBand LevelBand) int {
	n := 0
	for u := range g.out {
		filtered := g.out[u][:0]
		for _, e := range g.out[u] {
			if e.Kind == kind && e.Ident == ident {
				n++
				if newBand.Empty() {
					continue
				}
				e.Band = newBand
			}
			filtered = append(filtered, e)
		}
		g.out[u] = filtered
	}
	return n
}

// RemoveAllDCTInside removes every DCT edge whose midpoint falls inside
// rect and whose band overlaps band. Neither the construction pipeline
// nor the Diagnostic Mapper calls it; applyExclusion filters DCT edges
// itself.
func (g *Graph) RemoveAllDCTInside(rect geo.Rect, band LevelBand) int {
	return g.removeInside(rect, band, EdgeDCT)
}

// RemoveAirwayInside removes every airway edge whose midpoint falls
// inside rect and whose band overlaps band.
func (g *Graph) RemoveAirwayInside(rect geo.Rect, band LevelBand) int {
	return g.removeInside(rect, band, EdgeAirway)
}

func (g *Graph) removeInside(rect geo.Rect, band LevelBand, kind EdgeKind) int {
	n := 0
	for u := range g.out {
		filtered := g.out[u][:0]
		from := g.Vertices[u].Location
		for _, e := range g.out[u] {
			if e.Kind == kind && e.Band.Overlaps(band) {
				mid := geo.Mid2LL(from, g.Vertices[e.To].Location)
				if rect.Inside([2]float32(mid)) {
					n++
					continue
				}
			}
			filtered = append(filtered, e)
		}
		g.out[u] = filtered
	}
	return n
}

// DeleteEdgesIncident removes every edge, in either direction, touching
// the vertex named ident — the Diagnostic Mapper's "Point P closed"
// mutation (spec.md §4.E).
func (g *Graph) DeleteEdgesIncident(ident string) int {
	n := 0
	targets := g.identIndex[strings.ToUpper(ident)]
	isTarget := make(map[int]bool, len(targets))
	for _, idx := range targets {
		isTarget[idx] = true
	}
	for u := range g.out {
		if isTarget[u] {
			n += len(g.out[u])
			g.out[u] = nil
			continue
		}
		filtered := g.out[u][:0]
		for _, e := range g.out[u] {
			if isTarget[e.To] {
				n++
				continue
			}
			filtered = append(filtered, e)
		}
		g.out[u] = filtered
	}
	return n
}

///////////////////////////////////////////////////////////////////////////
// query

// FindAirport returns the vertex index for the airport with the given
// ICAO ident, if present.
func (g *Graph) FindAirport(icao string) (int, bool) {
	for _, idx := range g.identIndex[strings.ToUpper(icao)] {
		if g.Vertices[idx].Kind == aero.VertexAirport {
			return idx, true
		}
	}
	return 0, false
}

// FindByIdentNearest resolves ident against every vertex kind, airports
// included, preferring the vertex nearest ref when several
// share the identifier — spec.md §4.B's ident-lookup fallback.
func (g *Graph) FindByIdentNearest(ident string, ref geo.Point2LL) (Vertex, bool) {
	candidates := g.identIndex[strings.ToUpper(ident)]
	if len(candidates) == 0 {
		return Vertex{}, false
	}
	best := g.Vertices[candidates[0]]
	bestDist := geo.NMDistance2LL(ref, best.Location)
	for _, idx := range candidates[1:] {
		v := g.Vertices[idx]
		if d := geo.NMDistance2LL(ref, v.Location); d < bestDist {
			best, bestDist = v, d
		}
	}
	return best, true
}
