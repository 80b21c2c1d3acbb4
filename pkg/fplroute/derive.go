// pkg/fplroute/derive.go
package fplroute

import (
	"github.com/tsailer/vfrnav-public-sub008/pkg/perf"
	"github.com/tsailer/vfrnav-public-sub008/pkg/routegraph"
)

// FromPath re-derives a Route from a solved routegraph.Path, the
// Iteration Controller's step 4 of spec.md §4.F ("Derive FplRoute from
// the path"). It returns the route alongside a parallel cruiseIndex
// slice (one entry per waypoint, perf.GroundIndex for the ground
// sentinel) for the caller to build the cruiseOf callback Bind expects,
// keeping Route itself free of a perf.Table dependency.
func FromPath(g *routegraph.Graph, path *routegraph.Path) (*Route, []int) {
	route := &Route{}
	var cruiseIndex []int

	for _, leg := range path.Legs {
		if leg.Edge.Kind == routegraph.EdgeLevelChange {
			continue
		}
		from := g.Vertices[leg.From]
		route.Waypoints = append(route.Waypoints, Waypoint{
			Ident:         from.Ident,
			Name:          from.Ident,
			PathCode:      pathCodeOf(leg.Edge.Kind),
			PathName:      leg.Edge.Ident,
			Coordinate:    from.Location,
			Flags:         AltitudeFlags{IFR: true},
			LegDistanceNM: leg.Edge.DistanceNM,
			LegTrackDeg:   leg.Edge.TrueCourseDeg,
			LegHeadingDeg: leg.Edge.TrueCourseDeg,
		})
		cruiseIndex = append(cruiseIndex, leg.CruiseIndex)
	}

	if n := len(path.Legs); n > 0 {
		last := path.Legs[n-1]
		to := g.Vertices[last.To]
		route.Waypoints = append(route.Waypoints, Waypoint{
			Ident:      to.Ident,
			Name:       to.Ident,
			PathCode:   PathTerminate,
			Coordinate: to.Location,
			Flags:      AltitudeFlags{IFR: true},
		})
		cruiseIndex = append(cruiseIndex, last.CruiseIndex)
	}

	markClimbDescent(route, cruiseIndex)
	return route, cruiseIndex
}

func pathCodeOf(kind routegraph.EdgeKind) PathCode {
	switch kind {
	case routegraph.EdgeAirway:
		return PathAirway
	case routegraph.EdgeSID:
		return PathSID
	case routegraph.EdgeSTAR:
		return PathSTAR
	default:
		return PathDirect
	}
}

// markClimbDescent tags each waypoint's Climb/Descent flags by comparing
// its cruise row index with the next waypoint's; a pair in which either
// index is the ground sentinel is left untagged. AltitudeFt is not set
// here: SetAltitudes resolves it from the table, since cruiseIndex alone
// is only a row position.
func markClimbDescent(route *Route, cruiseIndex []int) {
	for i := range route.Waypoints {
		if i+1 >= len(cruiseIndex) {
			continue
		}
		cur, next := cruiseIndex[i], cruiseIndex[i+1]
		if cur == perf.GroundIndex || next == perf.GroundIndex {
			continue
		}
		switch {
		case next > cur:
			route.Waypoints[i].Flags.Climb = true
		case next < cur:
			route.Waypoints[i].Flags.Descent = true
		}
	}
}

// SetAltitudes fills in AltitudeFt for each waypoint from the
// Performance Table row its cruiseIndex names, leaving ground-sentinel
// waypoints (the initial climb-out/final descent endpoints) at 0 —
// there is no per-vertex elevation source in aero.Provider to do better.
func SetAltitudes(route *Route, table *perf.Table, cruiseIndex []int) {
	for i, ci := range cruiseIndex {
		if ci == perf.GroundIndex {
			continue
		}
		if row := table.CruiseRow(ci); row != nil {
			route.Waypoints[i].AltitudeFt = float32(row.Level) * 100
			route.Waypoints[i].Flags.Standard = true
		}
	}
}
