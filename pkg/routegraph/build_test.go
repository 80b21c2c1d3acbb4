package routegraph

import (
	"testing"

	"github.com/tsailer/vfrnav-public-sub008/pkg/aero"
	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
)

func testAirports() (dep, dest aero.Airport) {
	dep = aero.Airport{
		ICAO:     "LSZH",
		Location: geo.Point2LL{8.5, 47.5},
		SIDs: []aero.Procedure{
			{Name: "KPT1A", Kind: aero.ProcedureSID, TerminalFix: aero.AirwayFix{Ident: "KPT", Location: geo.Point2LL{8.8, 47.3}}},
		},
	}
	dest = aero.Airport{
		ICAO:     "LIMC",
		Location: geo.Point2LL{8.7, 45.6},
		STARs: []aero.Procedure{
			{Name: "VADIS1A", Kind: aero.ProcedureSTAR, TerminalFix: aero.AirwayFix{Ident: "VADIS", Location: geo.Point2LL{8.7, 45.9}}},
		},
	}
	return
}

func testProvider() *aero.TestProvider {
	p := aero.NewTestProvider()
	dep, dest := testAirports()
	p.Airports[dep.ICAO] = dep
	p.Airports[dest.ICAO] = dest
	p.Fixes = []aero.Fix{
		{Ident: "KPT", Location: geo.Point2LL{8.8, 47.3}},
		{Ident: "VADIS", Location: geo.Point2LL{8.7, 45.9}},
	}
	p.Airways = []aero.Airway{
		{Name: "UL612", Fixes: []aero.AirwayFix{
			{Ident: "KPT", Location: geo.Point2LL{8.8, 47.3}, LowerFL: 100, UpperFL: 460},
			{Ident: "VADIS", Location: geo.Point2LL{8.7, 45.9}, LowerFL: 100, UpperFL: 460},
		}},
	}
	return p
}

func baseParams(dep, dest aero.Airport) BuildParams {
	return BuildParams{
		Departure:   dep,
		Destination: dest,
		DepAnchor: ProcedureAnchor{
			Fix:     &aero.Fix{Ident: "KPT", Location: geo.Point2LL{8.8, 47.3}},
			Penalty: 1,
		},
		DestAnchor: ProcedureAnchor{
			Fix:     &aero.Fix{Ident: "VADIS", Location: geo.Point2LL{8.7, 45.9}},
			Penalty: 1,
		},
		DCTLimitNM: 300,
		DCTPenalty: 1,
		BaseFL:     100,
		TopFL:      300,
	}
}

func TestBuildAnchorOnly(t *testing.T) {
	p := testProvider()
	dep, dest := testAirports()
	params := baseParams(dep, dest)

	g, err := NewBuilder(p, params).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	depIdx, ok := g.FindAirport("LSZH")
	if !ok {
		t.Fatal("departure airport vertex missing")
	}
	foundAnchor := false
	for _, e := range g.Neighbors(depIdx) {
		if e.Kind == EdgeAnchor && e.Ident == "KPT" {
			foundAnchor = true
		}
		if e.Kind == EdgeSID {
			t.Fatal("UseDatabaseProcedures was false; no SID edge should have been added")
		}
	}
	if !foundAnchor {
		t.Fatal("expected an anchor edge out of the departure")
	}
}

func TestBuildUsesDatabaseProcedures(t *testing.T) {
	p := testProvider()
	dep, dest := testAirports()
	params := baseParams(dep, dest)
	params.DepAnchor.UseDatabaseProcedures = true

	g, err := NewBuilder(p, params).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	depIdx, _ := g.FindAirport("LSZH")
	foundSID, foundAnchor := false, false
	for _, e := range g.Neighbors(depIdx) {
		if e.Kind == EdgeSID && e.Ident == "KPT1A" {
			foundSID = true
		}
		if e.Kind == EdgeAnchor {
			foundAnchor = true
		}
	}
	if !foundSID {
		t.Fatal("expected a database SID edge")
	}
	if !foundAnchor {
		t.Fatal("anchor edge should still be added alongside the database procedure when OnlyProcedure is false")
	}
}

func TestBuildOnlyProcedureSuppressesAnchor(t *testing.T) {
	p := testProvider()
	dep, dest := testAirports()
	params := baseParams(dep, dest)
	params.DepAnchor.UseDatabaseProcedures = true
	params.DepAnchor.OnlyProcedure = true

	g, err := NewBuilder(p, params).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	depIdx, _ := g.FindAirport("LSZH")
	for _, e := range g.Neighbors(depIdx) {
		if e.Kind == EdgeAnchor {
			t.Fatal("OnlyProcedure should suppress the anchor fallback once a database procedure was added")
		}
	}
}

func TestBuildPOGOSuppressed(t *testing.T) {
	p := aero.NewTestProvider()
	dep := aero.Airport{ICAO: "LFPG", Location: geo.Point2LL{2.55, 49.0}}
	dest := aero.Airport{ICAO: "LFPO", Location: geo.Point2LL{2.36, 48.72}}
	p.Airports[dep.ICAO] = dep
	p.Airports[dest.ICAO] = dest

	params := BuildParams{
		Departure: dep, Destination: dest,
		DCTLimitNM: 300, DCTPenalty: 1,
		BaseFL: 100, TopFL: 200,
	}
	g, err := NewBuilder(p, params).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, e := range g.Neighbors(g.Dep) {
		if e.To == g.Dest {
			t.Fatal("direct dep->dest DCT should be suppressed without a POGO whitelist entry")
		}
	}

	params.POGOWhitelist = map[[2]string]bool{{"LFPG", "LFPO"}: true}
	g2, err := NewBuilder(p, params).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	found := false
	for _, e := range g2.Neighbors(g2.Dep) {
		if e.To == g2.Dest {
			found = true
		}
	}
	if !found {
		t.Fatal("whitelisted POGO pair should get a direct DCT edge")
	}
}

func TestBuildAirwayOverlay(t *testing.T) {
	p := testProvider()
	dep, dest := testAirports()
	params := baseParams(dep, dest)

	g, err := NewBuilder(p, params).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	kpt, ok := g.FindByIdentNearest("KPT", dep.Location)
	if !ok {
		t.Fatal("KPT vertex missing")
	}
	foundAirway := false
	for _, e := range g.Neighbors(kpt.Index) {
		if e.Kind == EdgeAirway && e.Ident == "UL612" {
			foundAirway = true
		}
	}
	if !foundAirway {
		t.Fatal("expected a UL612 airway edge out of KPT")
	}
}

func TestApplyExclusionRemovesAirway(t *testing.T) {
	g := NewGraph()
	a := g.AddVertex(aero.VertexIntersection, "AAA", geo.Point2LL{8.0, 47.0})
	b := g.AddVertex(aero.VertexIntersection, "BBB", geo.Point2LL{8.2, 47.0})
	g.AddEdge(a, b, EdgeAirway, "UL612", LevelBand{100, 300}, 10, 90, 10)

	rect := geo.RectFromP2LLs([]geo.Point2LL{{7.9, 46.9}, {8.3, 47.1}})
	applyExclusion(g, ExcludedRegion{Rect: &rect, Band: LevelBand{0, 999}})
	if len(g.Neighbors(a)) != 0 {
		t.Fatal("airway edge should have been removed by the exclusion")
	}
}

func TestApplyCrossingDuplicatesVertices(t *testing.T) {
	g := NewGraph()
	fix := g.AddVertex(aero.VertexIntersection, "KPT", geo.Point2LL{8.8, 47.3})
	inner := g.AddVertex(aero.VertexIntersection, "INNER", geo.Point2LL{8.81, 47.3})
	outer := g.AddVertex(aero.VertexIntersection, "OUTER", geo.Point2LL{9.2, 47.3})
	g.AddEdge(inner, outer, EdgeDCT, "DCT", LevelBand{0, 999}, 16, 90, 16)

	before := len(g.Vertices)
	applyCrossing(g, Crossing{Coord: geo.Point2LL{8.8, 47.3}, Ident: "KPT", RadiusNM: 5, Band: LevelBand{0, 999}})
	if len(g.Vertices) <= before {
		t.Fatal("expected applyCrossing to duplicate the inner vertex")
	}
	afterInner := len(g.Vertices) - 1

	innerEdges := g.Neighbors(inner)
	if len(innerEdges) != 1 || innerEdges[0].To != fix {
		t.Fatalf("inner's 'before' copy should only reach the crossing fix, got %+v", innerEdges)
	}

	afterEdges := g.Neighbors(afterInner)
	if len(afterEdges) != 1 || afterEdges[0].To != outer {
		t.Fatalf("inner's 'after' copy should retain the original lateral edge, got %+v", afterEdges)
	}

	foundToAfter := false
	for _, e := range g.Neighbors(fix) {
		if e.To == afterInner {
			foundToAfter = true
		}
	}
	if !foundToAfter {
		t.Fatal("the crossing fix should connect onward to the 'after' copy")
	}
}
