package routegraph

import (
	"testing"
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/aero"
	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
	"github.com/tsailer/vfrnav-public-sub008/pkg/perf"
)

// testTable builds a minimal Performance Table, enough to drive Solve's
// product-space search without needing a real wx.Provider.
func testTable() *perf.Table {
	var ac perf.Aircraft
	ac.Name = "test"
	ac.Ceiling = 18000
	ac.Rate.Climb = 500
	ac.Rate.Descent = 500
	ac.Speed.CruiseTAS = 120
	ac.FuelFlowLbsPerHour = 10

	table, err := perf.Build(1400, 600, ac, perf.Atmosphere{QNHhPa: 1013.25}, perf.OptTime,
		nil, 60, 100, 0, geo.Rect{}, nil, time.Time{})
	if err != nil {
		panic(err)
	}
	return table
}

func TestSolveFindsDirectPath(t *testing.T) {
	g := NewGraph()
	dep := g.AddVertex(aero.VertexAirport, "LSZH", geo.Point2LL{8.5, 47.5})
	dest := g.AddVertex(aero.VertexAirport, "LIMC", geo.Point2LL{8.7, 45.6})
	dist := geo.NMDistance2LL(geo.Point2LL{8.5, 47.5}, geo.Point2LL{8.7, 45.6})
	g.AddEdge(dep, dest, EdgeDCT, "DCT", LevelBand{0, 999}, dist, geo.InitialBearing2LL(geo.Point2LL{8.5, 47.5}, geo.Point2LL{8.7, 45.6}), dist)
	g.Dep, g.Dest = dep, dest

	table := testTable()
	path, err := Solve(g, table, SolveOptions{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(path.Legs) == 0 {
		t.Fatal("expected at least one leg")
	}
	if path.Legs[len(path.Legs)-1].To != dest {
		t.Fatalf("last leg should reach dest, got %d", path.Legs[len(path.Legs)-1].To)
	}
}

func TestSolveNoPath(t *testing.T) {
	g := NewGraph()
	dep := g.AddVertex(aero.VertexAirport, "LSZH", geo.Point2LL{8.5, 47.5})
	dest := g.AddVertex(aero.VertexAirport, "LIMC", geo.Point2LL{8.7, 45.6})
	g.Dep, g.Dest = dep, dest
	// no edges at all: Dest is unreachable

	table := testTable()
	_, err := Solve(g, table, SolveOptions{})
	if err != ErrNoPath {
		t.Fatalf("Solve err = %v, want ErrNoPath", err)
	}
}

func TestSolveRequiresCrossing(t *testing.T) {
	g := NewGraph()
	dep := g.AddVertex(aero.VertexAirport, "LSZH", geo.Point2LL{8.5, 47.5})
	mid := g.AddVertex(aero.VertexIntersection, "KPT", geo.Point2LL{8.6, 46.5})
	dest := g.AddVertex(aero.VertexAirport, "LIMC", geo.Point2LL{8.7, 45.6})
	bypass := g.AddVertex(aero.VertexIntersection, "BYPASS", geo.Point2LL{9.5, 46.5})
	g.Dep, g.Dest = dep, dest

	addDCT := func(u, v int) {
		from, to := g.Vertices[u].Location, g.Vertices[v].Location
		d := geo.NMDistance2LL(from, to)
		g.AddEdge(u, v, EdgeDCT, "DCT", LevelBand{0, 999}, d, geo.InitialBearing2LL(from, to), d)
	}
	addDCT(dep, mid)
	addDCT(mid, dest)
	addDCT(dep, bypass)
	addDCT(bypass, dest)

	table := testTable()

	// without the crossing requirement a path is still found (here the
	// route via KPT is also the shorter one; the bypass is longer).
	optsNoCrossing := SolveOptions{}
	if _, err := Solve(g, table, optsNoCrossing); err != nil {
		t.Fatalf("Solve without crossing: %v", err)
	}

	opts := SolveOptions{Crossings: []CrossingVertex{{VertexIndex: mid, Bit: 0}}}
	path, err := Solve(g, table, opts)
	if err != nil {
		t.Fatalf("Solve with crossing requirement: %v", err)
	}
	visitedMid := false
	for _, l := range path.Legs {
		if l.To == mid {
			visitedMid = true
		}
	}
	if !visitedMid {
		t.Fatal("required crossing vertex was not on the solved path")
	}
}
