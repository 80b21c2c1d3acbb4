// pkg/aero/testprovider_test.go
package aero

import (
	"testing"

	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
)

func TestTestProviderAirportByICAO(t *testing.T) {
	p := NewTestProvider()
	p.Airports["LSZH"] = Airport{ICAO: "LSZH", Location: geo.Point2LL{8.5492, 47.4647}, Elevation: 1416}

	if _, ok := p.AirportByICAO("EDDF"); ok {
		t.Errorf("expected EDDF to be absent")
	}
	a, ok := p.AirportByICAO("LSZH")
	if !ok {
		t.Fatalf("expected LSZH to be present")
	}
	if a.Elevation != 1416 {
		t.Errorf("got elevation %d, expected 1416", a.Elevation)
	}
}

func TestTestProviderInRect(t *testing.T) {
	p := NewTestProvider()
	p.Navaids = []Navaid{
		{Ident: "ZUE", Type: "VOR", Location: geo.Point2LL{8.8167, 47.2667}},
		{Ident: "JFK", Type: "VOR", Location: geo.Point2LL{-73.7778, 40.6397}},
	}

	rect := geo.Rect{P0: [2]float32{8, 47}, P1: [2]float32{9, 48}}
	got := p.NavaidsInRect(rect)
	if len(got) != 1 || got[0].Ident != "ZUE" {
		t.Errorf("got %v, expected only ZUE", got)
	}
}

func TestAirspaceVolumeInside(t *testing.T) {
	av := AirspaceVolume{
		Type:   AirspaceVolumeCircle,
		Floor:  0,
		Ceiling: 10000,
		Center: geo.Point2LL{8.5492, 47.4647},
		Radius: 5,
	}
	if !av.Inside(geo.Point2LL{8.5492, 47.4647}, 5000) {
		t.Errorf("expected center point to be inside")
	}
	if av.Inside(geo.Point2LL{8.5492, 47.4647}, 15000) {
		t.Errorf("expected altitude above ceiling to be outside")
	}
	if av.Inside(geo.Point2LL{9.5, 48.5}, 5000) {
		t.Errorf("expected far point to be outside")
	}
}
