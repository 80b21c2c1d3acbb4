// pkg/vfrfallback/build.go
package vfrfallback

import (
	"github.com/tsailer/vfrnav-public-sub008/pkg/aero"
	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
	"github.com/tsailer/vfrnav-public-sub008/pkg/routegraph"
)

// BuildParams is the subset of Configuration (spec.md §3.1) the VFR
// Fallback construction pipeline (spec.md §4.I) consumes. It mirrors
// routegraph.BuildParams's DCT fields but adds the endpoint-local
// sidlimit/starlimit radii the IFR graph gets from procedure anchors
// instead.
type BuildParams struct {
	Departure, Destination aero.Airport

	DCTLimitNM   float32
	SIDLimitNM   float32 // DCT radius around Departure; falls back to DCTLimitNM if zero
	STARLimitNM  float32 // DCT radius around Destination; falls back to DCTLimitNM if zero

	// PenalizedClasses is the set of airspace classes whose crossing
	// multiplies an edge's metric by PenaltyFactor (spec.md §4.I step
	// 4): by default classes A-D plus the special-use P/R/D variants.
	PenalizedClasses map[aero.AirspaceClass]bool
	PenaltyFactor    float32 // defaults to 1000 if zero
}

// DefaultPenalizedClasses is spec.md §4.I's named restricted-airspace
// set.
func DefaultPenalizedClasses() map[aero.AirspaceClass]bool {
	return map[aero.AirspaceClass]bool{
		aero.ClassA: true, aero.ClassB: true, aero.ClassC: true, aero.ClassD: true,
		aero.ClassProhib: true, aero.ClassRestrict: true, aero.ClassDanger: true,
	}
}

// Build executes the VFR Fallback construction pipeline of spec.md §4.I
// steps 1-4, reusing routegraph.Graph's vertex/edge shapes and its
// ident-lookup algorithm rather than a separate geometric graph type.
func Build(provider aero.Provider, p BuildParams) (*routegraph.Graph, error) {
	g := routegraph.NewGraph()

	bbox := geo.RectFromP2LLs([]geo.Point2LL{p.Departure.Location, p.Destination.Location}).
		Expand(maxLimit(p) / geo.NMPerLatitude)

	// step 1: load every record kind in the bounding box
	for _, a := range provider.AirportsInRect(bbox) {
		g.AddVertex(aero.VertexAirport, a.ICAO, a.Location)
	}
	for _, n := range provider.NavaidsInRect(bbox) {
		g.AddVertex(aero.VertexNavaid, n.Ident, n.Location)
	}
	for _, f := range provider.FixesInRect(bbox) {
		g.AddVertex(aero.VertexIntersection, f.Ident, f.Location)
	}
	for _, m := range provider.MapElementsInRect(bbox) {
		g.AddVertex(aero.VertexMapElement, m.Ident, m.Location)
	}

	// step 2: departure/destination vertices (VFR reporting points are
	// already present among the MapElementsInRect load above, so no
	// separate anchor step is needed beyond resolving the endpoints).
	depIdx, ok := g.FindAirport(p.Departure.ICAO)
	if !ok {
		depIdx = g.AddVertex(aero.VertexAirport, p.Departure.ICAO, p.Departure.Location)
	}
	destIdx, ok := g.FindAirport(p.Destination.ICAO)
	if !ok {
		destIdx = g.AddVertex(aero.VertexAirport, p.Destination.ICAO, p.Destination.Location)
	}
	g.Dep, g.Dest = depIdx, destIdx

	airspaces := provider.AirspacesInRect(bbox)
	penalized := p.PenalizedClasses
	if penalized == nil {
		penalized = DefaultPenalizedClasses()
	}
	penaltyFactor := p.PenaltyFactor
	if penaltyFactor == 0 {
		penaltyFactor = 1000
	}

	// step 3/4: DCT edges up to the effective radius, both directions
	// (an undirected graph, as spec.md §4.I step 5 requires), penalized
	// for crossing restricted airspace.
	sidLimit, starLimit := p.SIDLimitNM, p.STARLimitNM
	if sidLimit == 0 {
		sidLimit = p.DCTLimitNM
	}
	if starLimit == 0 {
		starLimit = p.DCTLimitNM
	}

	for i := range g.Vertices {
		u := g.Vertices[i]
		for j := i + 1; j < len(g.Vertices); j++ {
			v := g.Vertices[j]
			limit := p.DCTLimitNM
			if u.Index == depIdx || v.Index == depIdx {
				limit = sidLimit
			}
			if u.Index == destIdx || v.Index == destIdx {
				limit = starLimit
			}
			dist := geo.NMDistance2LL(u.Location, v.Location)
			if dist > limit {
				continue
			}
			metric := dist
			if crossesPenalizedAirspace(airspaces, penalized, u.Location, v.Location) {
				metric *= penaltyFactor
			}
			course := geo.InitialBearing2LL(u.Location, v.Location)
			g.AddEdge(u.Index, v.Index, routegraph.EdgeDCT, "DCT", routegraph.LevelBand{Lower: 0, Upper: 999}, dist, course, metric)
			g.AddEdge(v.Index, u.Index, routegraph.EdgeDCT, "DCT", routegraph.LevelBand{Lower: 0, Upper: 999}, dist, geo.NormalizeHeading(course+180), metric)
		}
	}

	return g, nil
}

func maxLimit(p BuildParams) float32 {
	m := p.DCTLimitNM
	if p.SIDLimitNM > m {
		m = p.SIDLimitNM
	}
	if p.STARLimitNM > m {
		m = p.STARLimitNM
	}
	return m
}

func crossesPenalizedAirspace(airspaces []aero.AirspaceVolume, classes map[aero.AirspaceClass]bool, a, b geo.Point2LL) bool {
	for i := range airspaces {
		as := &airspaces[i]
		if !classes[as.Class] {
			continue
		}
		if as.IntersectsSegment(a, b) {
			return true
		}
	}
	return false
}
