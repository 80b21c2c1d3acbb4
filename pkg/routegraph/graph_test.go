package routegraph

import (
	"testing"

	"github.com/tsailer/vfrnav-public-sub008/pkg/aero"
	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
)

func TestAddVertexAndNeighbors(t *testing.T) {
	g := NewGraph()
	a := g.AddVertex(aero.VertexAirport, "LSZH", geo.Point2LL{8.5, 47.5})
	b := g.AddVertex(aero.VertexIntersection, "KPT", geo.Point2LL{8.8, 47.3})
	g.AddEdge(a, b, EdgeDCT, "DCT", LevelBand{0, 999}, 12, 90, 12)

	if got := len(g.Neighbors(a)); got != 1 {
		t.Fatalf("Neighbors(a) len = %d, want 1", got)
	}
	if got := g.Neighbors(a)[0].To; got != b {
		t.Fatalf("edge target = %d, want %d", got, b)
	}
}

func TestForbidEdge(t *testing.T) {
	g := NewGraph()
	a := g.AddVertex(aero.VertexIntersection, "AAA", geo.Point2LL{})
	b := g.AddVertex(aero.VertexIntersection, "BBB", geo.Point2LL{})
	g.AddEdge(a, b, EdgeAirway, "UL612", LevelBand{100, 300}, 50, 0, 50)

	if !g.ForbidEdge(a, b, "UL612") {
		t.Fatal("ForbidEdge returned false for an edge that exists")
	}
	if len(g.Neighbors(a)) != 0 {
		t.Fatal("edge survived ForbidEdge")
	}
	if g.ForbidEdge(a, b, "UL612") {
		t.Fatal("ForbidEdge returned true on a second call")
	}
}

func TestRestrictEdgeLevelsRemovesOnEmptyBand(t *testing.T) {
	g := NewGraph()
	a := g.AddVertex(aero.VertexIntersection, "AAA", geo.Point2LL{})
	b := g.AddVertex(aero.VertexIntersection, "BBB", geo.Point2LL{})
	g.AddEdge(a, b, EdgeAirway, "UL612", LevelBand{100, 300}, 50, 0, 50)

	if !g.RestrictEdgeLevels(a, b, "UL612", LevelBand{1, 0}) {
		t.Fatal("RestrictEdgeLevels returned false")
	}
	if len(g.Neighbors(a)) != 0 {
		t.Fatal("edge should have been removed by an empty restricted band")
	}
}

func TestRestrictEdgeLevelsNarrows(t *testing.T) {
	g := NewGraph()
	a := g.AddVertex(aero.VertexIntersection, "AAA", geo.Point2LL{})
	b := g.AddVertex(aero.VertexIntersection, "BBB", geo.Point2LL{})
	g.AddEdge(a, b, EdgeAirway, "UL612", LevelBand{100, 300}, 50, 0, 50)

	g.RestrictEdgeLevels(a, b, "UL612", LevelBand{200, 300})
	if got := g.Neighbors(a)[0].Band; got != (LevelBand{200, 300}) {
		t.Fatalf("band = %+v, want {200 300}", got)
	}
}

func TestRestrictAirwayByNameAndRaiseLowerBound(t *testing.T) {
	g := NewGraph()
	a := g.AddVertex(aero.VertexIntersection, "AAA", geo.Point2LL{})
	b := g.AddVertex(aero.VertexIntersection, "BBB", geo.Point2LL{})
	c := g.AddVertex(aero.VertexIntersection, "CCC", geo.Point2LL{})
	g.AddEdge(a, b, EdgeAirway, "UL612", LevelBand{100, 300}, 50, 0, 50)
	g.AddEdge(b, c, EdgeAirway, "UL612", LevelBand{100, 300}, 40, 0, 40)
	g.AddEdge(a, c, EdgeDCT, "DCT", LevelBand{0, 999}, 70, 0, 70)

	if n := g.RaiseAirwayLowerBound("UL612", 150); n != 2 {
		t.Fatalf("RaiseAirwayLowerBound touched %d edges, want 2", n)
	}
	for _, e := range g.Neighbors(a) {
		if e.Kind == EdgeAirway && e.Band.Lower != 150 {
			t.Fatalf("airway edge lower bound = %d, want 150", e.Band.Lower)
		}
	}
	if n := g.RestrictAirwayByName("UL612", LevelBand{1, 0}); n != 2 {
		t.Fatalf("RestrictAirwayByName touched %d edges, want 2", n)
	}
	if len(g.Neighbors(a)) != 1 || g.Neighbors(a)[0].Kind != EdgeDCT {
		t.Fatal("expected only the DCT edge to survive airway removal")
	}
}

func TestDeleteEdgesIncident(t *testing.T) {
	g := NewGraph()
	a := g.AddVertex(aero.VertexIntersection, "AAA", geo.Point2LL{})
	b := g.AddVertex(aero.VertexIntersection, "BBB", geo.Point2LL{})
	c := g.AddVertex(aero.VertexIntersection, "CCC", geo.Point2LL{})
	g.AddEdge(a, b, EdgeDCT, "DCT", LevelBand{0, 999}, 10, 0, 10)
	g.AddEdge(b, c, EdgeDCT, "DCT", LevelBand{0, 999}, 10, 0, 10)
	g.AddEdge(c, b, EdgeDCT, "DCT", LevelBand{0, 999}, 10, 0, 10)

	n := g.DeleteEdgesIncident("BBB")
	if n != 3 {
		t.Fatalf("DeleteEdgesIncident removed %d edges, want 3", n)
	}
	if len(g.Neighbors(a)) != 0 || len(g.Neighbors(b)) != 0 || len(g.Neighbors(c)) != 0 {
		t.Fatal("edges touching BBB should all be gone")
	}
}

func TestRemoveAllDCTInside(t *testing.T) {
	g := NewGraph()
	a := g.AddVertex(aero.VertexIntersection, "AAA", geo.Point2LL{0, 0})
	b := g.AddVertex(aero.VertexIntersection, "BBB", geo.Point2LL{1, 1})
	g.AddEdge(a, b, EdgeDCT, "DCT", LevelBand{0, 200}, 80, 0, 80)

	rect := geo.RectFromP2LLs([]geo.Point2LL{{-1, -1}, {2, 2}})
	if n := g.RemoveAllDCTInside(rect, LevelBand{0, 999}); n != 1 {
		t.Fatalf("RemoveAllDCTInside removed %d, want 1", n)
	}
	if len(g.Neighbors(a)) != 0 {
		t.Fatal("DCT edge should have been removed")
	}
}

func TestFindAirportAndFindByIdentNearest(t *testing.T) {
	g := NewGraph()
	g.AddVertex(aero.VertexIntersection, "KPT", geo.Point2LL{8.0, 47.0})
	far := g.AddVertex(aero.VertexIntersection, "KPT", geo.Point2LL{20.0, 47.0})
	near := g.AddVertex(aero.VertexIntersection, "KPT", geo.Point2LL{8.1, 47.0})
	_ = far

	v, ok := g.FindByIdentNearest("KPT", geo.Point2LL{8.05, 47.0})
	if !ok {
		t.Fatal("expected a KPT match")
	}
	if v.Index != near {
		t.Fatalf("nearest KPT = %d, want %d", v.Index, near)
	}

	ap := g.AddVertex(aero.VertexAirport, "LSZH", geo.Point2LL{8.5, 47.5})
	idx, ok := g.FindAirport("lszh")
	if !ok || idx != ap {
		t.Fatalf("FindAirport(lszh) = (%d,%v), want (%d,true)", idx, ok, ap)
	}
}
