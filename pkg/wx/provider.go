// pkg/wx/provider.go
package wx

import (
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
)

// Provider is the external atmospheric-data collaborator named in
// spec.md §6.2: gridded wind/temperature/pressure, consumed synchronously
// by the Performance Table (cruise wind/temp sampling) and the Weather
// Binder (per-waypoint wind/OAT/QFF).
type Provider interface {
	// FindLayers returns every available Layer for the given parameter
	// and time, optionally restricted to a single pressure level
	// (pressure == 0 means "all levels", used for MeanSeaLevelPressure).
	FindLayers(param Parameter, t time.Time, pressure float32) ([]Layer, error)

	// InterpolateResults clips and resamples the given layers onto a
	// bounding box at the given time and pressure, ready for point
	// queries via InterpolatedLayer.Sample.
	InterpolateResults(bbox geo.Rect, layers []Layer, t time.Time, pressure float32) (InterpolatedLayer, error)
}

// UVToDirSpeed converts an eastward/northward wind vector component pair
// (m/s) to a meteorological direction (degrees, direction the wind is
// blowing FROM) and speed in knots.
func UVToDirSpeed(u, v float32) (dir, speedKts float32) {
	dir = geo.NormalizeHeading(270 - geo.Degrees(geo.Atan2(v, u)))
	speedKts = geo.Sqrt(u*u+v*v) * 1.94384
	return
}

// DirSpeedToUV is the inverse of UVToDirSpeed.
func DirSpeedToUV(dir, speedKts float32) (u, v float32) {
	s := speedKts * 0.51444
	d := geo.Radians(dir)
	return -s * geo.Sin(d), -s * geo.Cos(d)
}

// WindVectorAt samples the U and V component layers at p and returns the
// wind as (direction degrees, speed knots); used by perf.Table.wind and
// by the Weather Binder.
func WindVectorAt(u, v *InterpolatedLayer, p geo.Point2LL) (dir, speedKts float32) {
	return UVToDirSpeed(u.Sample(p), v.Sample(p))
}
