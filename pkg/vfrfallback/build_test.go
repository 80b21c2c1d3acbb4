package vfrfallback

import (
	"testing"
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/aero"
	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
	"github.com/tsailer/vfrnav-public-sub008/pkg/perf"
	"github.com/tsailer/vfrnav-public-sub008/pkg/routegraph"
)

func testAirports() (dep, dest aero.Airport) {
	dep = aero.Airport{ICAO: "LFPN", Location: geo.Point2LL{2.07, 48.75}}
	dest = aero.Airport{ICAO: "LFPV", Location: geo.Point2LL{2.03, 48.77}}
	return
}

func testProvider() *aero.TestProvider {
	p := aero.NewTestProvider()
	dep, dest := testAirports()
	p.Airports[dep.ICAO] = dep
	p.Airports[dest.ICAO] = dest
	p.MapElements = []aero.MapElement{
		{Ident: "NOVEL", Location: geo.Point2LL{2.05, 48.76}},
	}
	return p
}

func TestBuildAddsDCTWithinLimit(t *testing.T) {
	p := testProvider()
	dep, dest := testAirports()
	g, err := Build(p, BuildParams{Departure: dep, Destination: dest, DCTLimitNM: 50, PenaltyFactor: 1000})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	depIdx, ok := g.FindAirport("LFPN")
	if !ok {
		t.Fatal("departure vertex missing")
	}
	found := false
	for _, e := range g.Neighbors(depIdx) {
		if e.Kind == routegraph.EdgeDCT {
			found = true
		}
	}
	if !found {
		t.Fatal("expected at least one DCT edge out of the departure")
	}
}

func TestBuildOmitsDCTBeyondLimit(t *testing.T) {
	p := testProvider()
	dep, dest := testAirports()
	dest.Location = geo.Point2LL{20, 48.77} // far beyond any reasonable limit
	p.Airports[dest.ICAO] = dest

	g, err := Build(p, BuildParams{Departure: dep, Destination: dest, DCTLimitNM: 5, PenaltyFactor: 1000})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	depIdx, _ := g.FindAirport("LFPN")
	destIdx, _ := g.FindAirport("LFPV")
	for _, e := range g.Neighbors(depIdx) {
		if e.To == destIdx {
			t.Fatal("direct DCT edge should have been suppressed by the distance limit")
		}
	}
}

func TestBuildPenalizesAirspaceCrossing(t *testing.T) {
	p := testProvider()
	dep, dest := testAirports()
	p.Airspaces = []aero.AirspaceVolume{
		{
			Class:   aero.ClassD,
			Type:    aero.AirspaceVolumePolygon,
			Floor:   0,
			Ceiling: 10000,
			Vertices: []geo.Point2LL{
				{2.0, 48.7}, {2.2, 48.7}, {2.2, 48.9}, {2.0, 48.9},
			},
		},
	}
	g, err := Build(p, BuildParams{Departure: dep, Destination: dest, DCTLimitNM: 50, PenaltyFactor: 1000})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	depIdx, _ := g.FindAirport("LFPN")
	destIdx, _ := g.FindAirport("LFPV")
	for _, e := range g.Neighbors(depIdx) {
		if e.To == destIdx {
			if e.Metric < e.DistanceNM*999 {
				t.Fatalf("expected the dep-dest edge metric to be penalized, got %v for distance %v", e.Metric, e.DistanceNM)
			}
			return
		}
	}
	t.Fatal("expected a dep-dest DCT edge")
}

func testTable() *perf.Table {
	ac := perf.Aircraft{Name: "test", Ceiling: 14000}
	ac.Rate.Climb = 500
	ac.Rate.Descent = 500
	ac.Speed.CruiseTAS = 100
	ac.FuelFlowLbsPerHour = 8
	table, err := perf.Build(1300, 300, ac, perf.Atmosphere{QNHhPa: 1013.25}, perf.OptTime,
		nil, 20, 40, 0, geo.Rect{}, nil, time.Time{})
	if err != nil {
		panic(err)
	}
	return table
}

func TestSolveFindsDirectPath(t *testing.T) {
	p := testProvider()
	dep, dest := testAirports()
	g, err := Build(p, BuildParams{Departure: dep, Destination: dest, DCTLimitNM: 50, PenaltyFactor: 1000})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	path, err := Solve(g, testTable())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(path.Legs) == 0 {
		t.Fatal("expected at least one leg")
	}
	if path.Legs[0].From != g.Dep {
		t.Fatalf("first leg From = %d, want Dep %d", path.Legs[0].From, g.Dep)
	}
	if path.Legs[len(path.Legs)-1].To != g.Dest {
		t.Fatalf("last leg To = %d, want Dest %d", path.Legs[len(path.Legs)-1].To, g.Dest)
	}
}

func TestSolveNoPath(t *testing.T) {
	p := testProvider()
	dep, dest := testAirports()
	g, err := Build(p, BuildParams{Departure: dep, Destination: dest, DCTLimitNM: 0.5, PenaltyFactor: 1000})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := Solve(g, testTable()); err != ErrNoPath {
		t.Fatalf("Solve: %v, want ErrNoPath", err)
	}
}
