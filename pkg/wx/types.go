// pkg/wx/types.go
package wx

import (
	gomath "math"
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
)

// Parameter names one of the gridded atmospheric fields the Performance
// Table and Weather Binder sample (spec.md §6.2).
type Parameter int

const (
	UWind Parameter = iota
	VWind
	Temperature
	MeanSeaLevelPressure
)

// Layer is one gridded sample of a single Parameter at a single pressure
// level and valid time — a raw result of find_layers before it has been
// interpolated to a specific bounding box.
type Layer struct {
	Parameter Parameter
	Pressure  float32 // hPa; 0 for surface/MSL fields
	Time      time.Time
	Lat, Long []float32 // grid axes
	Values    [][]float32
}

// InterpolatedLayer is the bilinearly-resampled result of
// interpolate_results: a dense grid clipped to a bounding box, ready for
// point queries at arbitrary (lat,lon) via Sample.
type InterpolatedLayer struct {
	Parameter Parameter
	Pressure  float32
	Time      time.Time
	BBox      geo.Rect
	Nx, Ny    int
	Values    []float32 // row-major, Nx*Ny
}

// Sample bilinearly interpolates the layer at the given point; returns
// NaN if p falls outside BBox.
func (l *InterpolatedLayer) Sample(p geo.Point2LL) float32 {
	if !l.BBox.Inside([2]float32(p)) || l.Nx < 2 || l.Ny < 2 {
		return float32(gomath.NaN())
	}

	fx := (p.Longitude() - l.BBox.P0[0]) / l.BBox.Width() * float32(l.Nx-1)
	fy := (p.Latitude() - l.BBox.P0[1]) / l.BBox.Height() * float32(l.Ny-1)

	x0 := int(fx)
	y0 := int(fy)
	x1 := min(x0+1, l.Nx-1)
	y1 := min(y0+1, l.Ny-1)
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	at := func(x, y int) float32 { return l.Values[y*l.Nx+x] }

	v00, v10 := at(x0, y0), at(x1, y0)
	v01, v11 := at(x0, y1), at(x1, y1)
	top := v00 + (v10-v00)*tx
	bot := v01 + (v11-v01)*tx
	return top + (bot-top)*ty
}
