// pkg/fplroute/bind.go
package fplroute

import (
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
	"github.com/tsailer/vfrnav-public-sub008/pkg/perf"
	"github.com/tsailer/vfrnav-public-sub008/pkg/wx"
)

// TaxiOut and TaxiIn are the fixed block-time allowances spec.md §4.G adds
// around the airborne portion of the route.
const (
	TaxiOut = 5 * time.Minute
	TaxiIn  = 5 * time.Minute
)

// SurfacePressureProvider supplies QFF (sea-level-reduced station
// pressure) for a waypoint's coordinate, the ground-level pressure grid
// spec.md §4.G references independently of the cruise Performance rows.
type SurfacePressureProvider interface {
	QFFAt(coord geo.Point2LL, at time.Time) (hPa float32, ok bool)
}

// Bind is the Weather Binder of spec.md §4.G: it populates wind/OAT/QFF/
// true-altitude onto every waypoint of a finalized route using the bound
// wind and temperature grids carried by the Performance rows each leg
// cruises or transitions at, then recomputes ground-speed-corrected
// timings and fuel.
//
// cruiseOf maps a waypoint index to the *perf.Cruise row applicable to
// it (the row the leg departing that waypoint is flown at); isaOffset is
// the fallback OAT source used when no temperature layer is bound.
func Bind(route *Route, cruiseOf func(legIndex int) *perf.Cruise, qnhHPa, isaOffset float32,
	surface SurfacePressureProvider, departAt time.Time) {

	if len(route.Waypoints) == 0 {
		return
	}

	route.OffBlock = departAt
	t := departAt.Add(TaxiOut)

	route.RouteTime, route.RouteFuelLbs = 0, 0
	route.ZeroWindRouteTime, route.ZeroWindFuelLbs = 0, 0

	for i := range route.Waypoints {
		wp := &route.Waypoints[i]
		wp.TrueAltFt = wp.AltitudeFt + (qnhHPa-1013.25)*30

		cruise := cruiseOf(i)
		if cruise == nil {
			continue
		}

		dir, speed := cruise.Wind(wp.Coordinate)
		wp.WindDirDeg, wp.WindSpeedKt = dir, speed

		if oat := cruise.Temperature(wp.Coordinate); !isNaN(oat) {
			wp.OATKelvin = oat
		} else {
			wp.OATKelvin = celsiusToKelvin(15 - 1.98*(wp.AltitudeFt/1000) + isaOffset)
		}

		if surface != nil {
			if qff, ok := surface.QFFAt(wp.Coordinate, t); ok {
				wp.QFFhPa = qff
			}
		}

		wp.TASKt = cruise.TAS

		if i == 0 {
			wp.AbsoluteTime = t
			continue
		}

		prev := &route.Waypoints[i-1]
		gs := groundSpeed(prev.TASKt, prev.LegHeadingDeg, wp.WindDirDeg, wp.WindSpeedKt)

		var legTime time.Duration
		var zeroWindLegTime time.Duration
		if gs > 0 {
			legTime = time.Duration(prev.LegDistanceNM / gs * float32(time.Hour))
		}
		if prev.TASKt > 0 {
			zeroWindLegTime = time.Duration(prev.LegDistanceNM / prev.TASKt * float32(time.Hour))
		}

		wp.LegElapsed = legTime
		t = t.Add(legTime)
		wp.AbsoluteTime = t

		legFuel := cruise.FuelPerSec * float32(legTime.Seconds())
		zeroWindFuel := cruise.FuelPerSec * float32(zeroWindLegTime.Seconds())

		wp.FuelLbs = legFuel

		route.RouteTime += legTime
		route.RouteFuelLbs += legFuel
		route.ZeroWindRouteTime += zeroWindLegTime
		route.ZeroWindFuelLbs += zeroWindFuel
	}

	route.OnBlock = t.Add(TaxiIn)
}

// groundSpeed resolves the wind-triangle ground speed for a leg flown at
// tas/heading through a wind of (windDir,windSpeed).
func groundSpeed(tas, headingDeg, windDirDeg, windSpeedKt float32) float32 {
	if tas <= 0 {
		return 0
	}
	hdgRad := geo.Radians(headingDeg)
	// wind direction is "from"; the component along the heading is the
	// headwind (positive slows the aircraft).
	windAngle := geo.Radians(windDirDeg) - hdgRad
	headwind := windSpeedKt * geo.Cos(windAngle)
	crosswind := windSpeedKt * geo.Sin(windAngle)
	gsAlong := tas - headwind
	// small-angle correction for the crosswind's effect on ground speed
	underRoot := geo.Sqr(gsAlong) - geo.Sqr(crosswind)
	if underRoot < 0 {
		underRoot = 0
	}
	return geo.Sqrt(underRoot)
}

func celsiusToKelvin(c float32) float32 { return c + 273.15 }

func isNaN(f float32) bool { return f != f }
