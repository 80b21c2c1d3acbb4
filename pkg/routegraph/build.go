// pkg/routegraph/build.go
package routegraph

import (
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tsailer/vfrnav-public-sub008/pkg/aero"
	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
)

// ProcedureAnchor is one endpoint's SID/STAR configuration (spec.md
// §3.1's "procedure anchors" block).
type ProcedureAnchor struct {
	Fix                   *aero.Fix
	LimitNM               float32
	Penalty               float32
	Offset                float32
	MinimumDistanceNM     float32
	OnlyProcedure         bool
	UseDatabaseProcedures bool
	AllowedNames          []string // empty means "all"
}

func (a ProcedureAnchor) nameAllowed(name string) bool {
	if len(a.AllowedNames) == 0 {
		return true
	}
	for _, n := range a.AllowedNames {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// Crossing is a required enroute crossing constraint (spec.md §3.1/§4.B
// step 6).
type Crossing struct {
	Coord    geo.Point2LL
	Ident    string
	RadiusNM float32
	Band     LevelBand
}

// ExcludedRegion is one excluded airspace or rectangle (spec.md §3.1/§4.B
// step 5).
type ExcludedRegion struct {
	Rect     *geo.Rect
	Airspace *aero.AirspaceVolume
	Band     LevelBand

	AirwayLengthLimitNM float32
	DCTLimitNM          float32
	DCTOffset           float32
	DCTScale            float32
}

func (r ExcludedRegion) bounds() geo.Rect {
	if r.Rect != nil {
		return *r.Rect
	}
	if r.Airspace != nil && r.Airspace.PolygonBounds != nil {
		return *r.Airspace.PolygonBounds
	}
	return geo.Rect{}
}

func (r ExcludedRegion) containsSegment(a, b geo.Point2LL, altFt float32) bool {
	if r.Airspace != nil {
		return r.Airspace.IntersectsSegment(a, b)
	}
	if r.Rect != nil {
		return geo.Overlaps(*r.Rect, geo.RectFromP2LLs([]geo.Point2LL{a, b}))
	}
	return false
}

// BuildParams is the subset of Configuration (spec.md §3.1) the Routing
// Graph construction pipeline consumes.
type BuildParams struct {
	Departure, Destination aero.Airport

	DepAnchor, DestAnchor ProcedureAnchor

	Crossings []Crossing

	DCTLimitNM   float32
	DCTPenalty   float32
	DCTOffset    float32
	POGOWhitelist map[[2]string]bool // (dep,dest) ICAO pairs exempt from the direct-dep-to-dest ban

	ExcludedRegions []ExcludedRegion

	BaseFL, TopFL int
}

// Builder holds the aeronautical database handle and the build
// parameters that Build runs the whole construction pipeline from. It
// has no incremental mutators: changed parameters take a fresh Build.
type Builder struct {
	Provider aero.Provider
	Params   BuildParams
}

func NewBuilder(provider aero.Provider, params BuildParams) *Builder {
	return &Builder{Provider: provider, Params: params}
}

// Build executes the construction pipeline of spec.md §4.B.
func (b *Builder) Build() (*Graph, error) {
	p := b.Params
	g := NewGraph()

	bbox := boundingBox(p)

	// step 1: load vertices. The four provider lookups are independent
	// reads, so they run concurrently (mirroring wxingest's concurrent
	// grid-tile fetch) and are merged into g in a fixed order afterward
	// so vertex indices stay deterministic regardless of fetch order.
	var airports []aero.Airport
	var navaids []aero.Navaid
	var fixes []aero.Fix
	var mapElements []aero.MapElement
	var eg errgroup.Group
	eg.Go(func() error { airports = b.Provider.AirportsInRect(bbox); return nil })
	eg.Go(func() error { navaids = b.Provider.NavaidsInRect(bbox); return nil })
	eg.Go(func() error { fixes = b.Provider.FixesInRect(bbox); return nil })
	eg.Go(func() error { mapElements = b.Provider.MapElementsInRect(bbox); return nil })
	eg.Wait() // Provider lookups never error; this only waits for completion

	for _, a := range airports {
		g.AddVertex(aero.VertexAirport, a.ICAO, a.Location)
	}
	for _, n := range navaids {
		g.AddVertex(aero.VertexNavaid, n.Ident, n.Location)
	}
	for _, f := range fixes {
		g.AddVertex(aero.VertexIntersection, f.Ident, f.Location)
	}
	for _, m := range mapElements {
		g.AddVertex(aero.VertexMapElement, m.Ident, m.Location)
	}

	depIdx, ok := g.FindAirport(p.Departure.ICAO)
	if !ok {
		depIdx = g.AddVertex(aero.VertexAirport, p.Departure.ICAO, p.Departure.Location)
	}
	destIdx, ok := g.FindAirport(p.Destination.ICAO)
	if !ok {
		destIdx = g.AddVertex(aero.VertexAirport, p.Destination.ICAO, p.Destination.Location)
	}
	g.Dep, g.Dest = depIdx, destIdx

	// step 2: procedure edges
	addProcedureEdges(g, b.Provider, depIdx, p.Departure, p.DepAnchor, EdgeSID, true)
	addProcedureEdges(g, b.Provider, destIdx, p.Destination, p.DestAnchor, EdgeSTAR, false)

	// step 3: airway overlay
	overlayAirways(g, b.Provider, bbox)

	// step 4: DCT overlay
	overlayDCT(g, p)

	// step 5: exclusions
	for _, region := range p.ExcludedRegions {
		applyExclusion(g, region)
	}

	// step 6: crossing constraints
	for _, c := range p.Crossings {
		applyCrossing(g, c)
	}

	return g, nil
}

func boundingBox(p BuildParams) geo.Rect {
	r := geo.RectFromP2LLs([]geo.Point2LL{p.Departure.Location, p.Destination.Location})
	for _, c := range p.Crossings {
		r = r.Union([2]float32(c.Coord))
	}
	return r.Expand(100 / geo.NMPerLatitude)
}

// addProcedureEdges wires the endpoint's SID/STAR attachment, resolving
// spec.md §9's siddb/stardb Open Question per SPEC_FULL.md §6.B: the
// anchor-only edge is added when UseDatabaseProcedures is false, and
// database procedures are added in addition to it otherwise, unless
// OnlyProcedure then forbids the anchor-only fallback.
func addProcedureEdges(g *Graph, provider aero.Provider, endpointIdx int, ap aero.Airport, anchor ProcedureAnchor, kind EdgeKind, outbound bool) {
	procedures := ap.SIDs
	if kind == EdgeSTAR {
		procedures = ap.STARs
	}

	addedDatabaseProcedure := false
	if anchor.UseDatabaseProcedures {
		for _, proc := range procedures {
			if !anchor.nameAllowed(proc.Name) {
				continue
			}
			termIdx, terminal, ok := findVertexByIdent(g, proc.TerminalFix, ap.Location)
			if !ok {
				continue
			}
			dist := geo.NMDistance2LL(ap.Location, terminal)
			if outbound {
				g.AddEdge(endpointIdx, termIdx, kind, proc.Name, LevelBand{0, 999}, dist, 0, dist)
			} else {
				g.AddEdge(termIdx, endpointIdx, kind, proc.Name, LevelBand{0, 999}, dist, 0, dist)
			}
			addedDatabaseProcedure = true
		}
	}

	if anchor.Fix == nil {
		return
	}
	if anchor.OnlyProcedure && addedDatabaseProcedure {
		return
	}
	termIdx, ok := findOrAddVertex(g, aero.VertexProcedureAnchor, anchor.Fix.Ident, anchor.Fix.Location)
	if !ok {
		return
	}
	dist := geo.NMDistance2LL(ap.Location, anchor.Fix.Location)
	if anchor.MinimumDistanceNM > 0 && dist < anchor.MinimumDistanceNM {
		return
	}
	metric := dist*anchor.Penalty + anchor.Offset
	if outbound {
		g.AddEdge(endpointIdx, termIdx, EdgeAnchor, anchor.Fix.Ident, LevelBand{0, 999}, dist, 0, metric)
	} else {
		g.AddEdge(termIdx, endpointIdx, EdgeAnchor, anchor.Fix.Ident, LevelBand{0, 999}, dist, 0, metric)
	}
}

func findVertexByIdent(g *Graph, ident string, ref geo.Point2LL) (int, geo.Point2LL, bool) {
	v, ok := g.FindByIdentNearest(ident, ref)
	if !ok {
		return 0, geo.Point2LL{}, false
	}
	return v.Index, v.Location, true
}

func findOrAddVertex(g *Graph, kind aero.VertexKind, ident string, loc geo.Point2LL) (int, bool) {
	if v, ok := g.FindByIdentNearest(ident, loc); ok {
		return v.Index, true
	}
	return g.AddVertex(kind, ident, loc), true
}

func overlayAirways(g *Graph, provider aero.Provider, bbox geo.Rect) {
	for _, aw := range provider.AirwaysInRect(bbox) {
		for i := 0; i+1 < len(aw.Fixes); i++ {
			a, b := aw.Fixes[i], aw.Fixes[i+1]
			uIdx, uOk := findOrAddVertex(g, aero.VertexIntersection, a.Ident, a.Location)
			vIdx, vOk := findOrAddVertex(g, aero.VertexIntersection, b.Ident, b.Location)
			if !uOk || !vOk {
				continue
			}
			dist := geo.NMDistance2LL(a.Location, b.Location)
			course := geo.InitialBearing2LL(a.Location, b.Location)
			band := LevelBand{a.LowerFL, b.UpperFL}
			if band.Empty() {
				band = LevelBand{a.LowerFL, a.UpperFL}
			}
			if a.Direction != aero.AirwayDirectionBackward {
				g.AddEdge(uIdx, vIdx, EdgeAirway, aw.Name, band, dist, course, dist)
			}
			if a.Direction != aero.AirwayDirectionForward {
				g.AddEdge(vIdx, uIdx, EdgeAirway, aw.Name, band, dist, geo.NormalizeHeading(course+180), dist)
			}
		}
	}
}

// overlayDCT adds directed DCT edges between every pair of non-numeric
// vertices within the effective limit, suppressing a direct dep→dest
// edge outside the POGO whitelist (spec.md §4.B step 4).
func overlayDCT(g *Graph, p BuildParams) {
	for _, u := range g.Vertices {
		if isNumericIdent(u.Ident) {
			continue
		}
		for _, v := range g.Vertices {
			if v.Index == u.Index || isNumericIdent(v.Ident) {
				continue
			}
			if u.Index == g.Dep && v.Index == g.Dest && !pogoAllowed(p, g) {
				continue
			}
			dist := geo.NMDistance2LL(u.Location, v.Location)
			limit, scale, offset := effectiveDCTParams(p, u.Location, v.Location)
			if dist > limit {
				continue
			}
			course := geo.InitialBearing2LL(u.Location, v.Location)
			metric := dist*p.DCTPenalty*scale + p.DCTOffset + offset
			g.AddEdge(u.Index, v.Index, EdgeDCT, "DCT", LevelBand{0, 999}, dist, course, metric)
		}
	}
}

func isNumericIdent(ident string) bool {
	if ident == "" {
		return false
	}
	for _, r := range ident {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pogoAllowed(p BuildParams, g *Graph) bool {
	key := [2]string{strings.ToUpper(g.Vertices[g.Dep].Ident), strings.ToUpper(g.Vertices[g.Dest].Ident)}
	return p.POGOWhitelist != nil && p.POGOWhitelist[key]
}

func effectiveDCTParams(p BuildParams, a, b geo.Point2LL) (limit, scale, offset float32) {
	limit, scale, offset = p.DCTLimitNM, 1, 0
	mid := geo.Mid2LL(a, b)
	for _, region := range p.ExcludedRegions {
		if region.DCTLimitNM > 0 {
			bounds := region.bounds()
			if bounds.Inside([2]float32(mid)) {
				limit = region.DCTLimitNM
				if region.DCTScale > 0 {
					scale = region.DCTScale
				}
				offset += region.DCTOffset
			}
		}
	}
	return
}

// applyExclusion implements spec.md §4.B step 5: hard-remove airway
// edges inside the region's band, drop DCT edges crossing it that are
// longer than the region's DCTLimitNM, and rescale the remaining ones
// by DCTScale and DCTOffset.
func applyExclusion(g *Graph, region ExcludedRegion) {
	bounds := region.bounds()
	g.RemoveAirwayInside(bounds, region.Band)

	for u := range g.out {
		from := g.Vertices[u].Location
		filtered := g.out[u][:0]
		for _, e := range g.out[u] {
			if e.Kind == EdgeDCT && e.Band.Overlaps(region.Band) &&
				region.containsSegment(from, g.Vertices[e.To].Location, 0) {
				if region.DCTLimitNM > 0 && e.DistanceNM > region.DCTLimitNM {
					continue // replaced: dropped since it exceeds the region's DCT limit
				}
				if region.DCTScale > 0 {
					e.Metric *= region.DCTScale
				}
				e.Metric += region.DCTOffset
			}
			filtered = append(filtered, e)
		}
		g.out[u] = filtered
	}
}

// applyCrossing implements spec.md §4.B step 6: vertices inside the
// crossing radius are duplicated into "before" and "after" copies; the
// out-edges of each inside vertex move to its "after" copy, while the
// "before" copy keeps only an edge to the crossing vertex, which in turn
// links to every "after" copy, so the only way across is through it.
func applyCrossing(g *Graph, c Crossing) {
	if c.Ident == "" {
		return
	}
	crossingIdx, ok := g.FindByIdentNearest(c.Ident, c.Coord)
	if !ok {
		return
	}

	var inside []int
	for _, v := range g.Vertices {
		if v.Index == crossingIdx.Index {
			continue
		}
		if geo.NMDistance2LL(c.Coord, v.Location) <= c.RadiusNM {
			inside = append(inside, v.Index)
		}
	}
	if len(inside) == 0 {
		return
	}

	after := make(map[int]int, len(inside))
	for _, idx := range inside {
		v := g.Vertices[idx]
		after[idx] = g.AddVertex(v.Kind, v.Ident, v.Location)
	}

	insideSet := make(map[int]bool, len(inside))
	for _, idx := range inside {
		insideSet[idx] = true
	}

	for _, idx := range inside {
		afterIdx := after[idx]
		var kept []Edge
		for _, e := range g.out[idx] {
			if insideSet[e.To] {
				e.To = after[e.To]
			}
			kept = append(kept, e)
		}
		g.out[afterIdx] = kept
		g.out[idx] = nil
		dist := geo.NMDistance2LL(g.Vertices[idx].Location, g.Vertices[crossingIdx.Index].Location)
		course := geo.InitialBearing2LL(g.Vertices[idx].Location, g.Vertices[crossingIdx.Index].Location)
		afterCourse := geo.InitialBearing2LL(g.Vertices[crossingIdx.Index].Location, g.Vertices[after[idx]].Location)
		g.AddEdge(idx, crossingIdx.Index, EdgeDCT, "DCT", c.Band, dist, course, dist)
		g.AddEdge(crossingIdx.Index, afterIdx, EdgeDCT, "DCT", c.Band, dist, afterCourse, dist)
	}
}
