// pkg/autoroute/pogo.go
package autoroute

import (
	"github.com/tsailer/vfrnav-public-sub008/pkg/fplroute"
	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
)

// pogoPlan implements spec.md §4.F's special case (i): named aerodrome
// pairs (Paris-area ↔ named islands in the original CFMU rule set)
// return a fixed single-DCT plan at a predetermined level without
// running the search, looked up from Configuration.POGOLevels.
func pogoPlan(cfg Configuration) (*fplroute.Route, bool) {
	level, ok := cfg.POGOLevels[[2]string{cfg.Departure.ICAO, cfg.Destination.ICAO}]
	if !ok {
		return nil, false
	}

	dist := geo.NMDistance2LL(cfg.Departure.Location, cfg.Destination.Location)
	course := geo.InitialBearing2LL(cfg.Departure.Location, cfg.Destination.Location)

	route := &fplroute.Route{
		Waypoints: []fplroute.Waypoint{
			{
				Ident: cfg.Departure.ICAO, Name: cfg.Departure.Name,
				PathCode: fplroute.PathDirect, Coordinate: cfg.Departure.Location,
				AltitudeFt: float32(level) * 100,
				Flags:      fplroute.AltitudeFlags{IFR: true, Standard: true},
				LegDistanceNM: dist, LegTrackDeg: course, LegHeadingDeg: course,
			},
			{
				Ident: cfg.Destination.ICAO, Name: cfg.Destination.Name,
				PathCode: fplroute.PathTerminate, Coordinate: cfg.Destination.Location,
				AltitudeFt: float32(level) * 100,
				Flags:      fplroute.AltitudeFlags{IFR: true, Standard: true},
			},
		},
	}
	return route, true
}
