// pkg/wx/gridprovider.go
package wx

import (
	"fmt"
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
)

// GridProvider is a simple in-memory Provider backed by a fixed set of
// Layers, the test-fixture analog of the teacher's HRRR-ingest pipeline
// (cmd/wxingest/atmos.go) without the GRIB download/decode machinery,
// which is out of scope here (spec.md §1 names the atmospheric data
// provider itself as an external collaborator).
type GridProvider struct {
	layers []Layer
}

func NewGridProvider(layers []Layer) *GridProvider {
	return &GridProvider{layers: layers}
}

func (g *GridProvider) FindLayers(param Parameter, t time.Time, pressure float32) ([]Layer, error) {
	var out []Layer
	for _, l := range g.layers {
		if l.Parameter != param {
			continue
		}
		if pressure != 0 && l.Pressure != pressure {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (g *GridProvider) InterpolateResults(bbox geo.Rect, layers []Layer, t time.Time, pressure float32) (InterpolatedLayer, error) {
	best, err := nearestInTime(layers, t)
	if err != nil {
		return InterpolatedLayer{}, err
	}

	nx, ny := len(best.Long), len(best.Lat)
	if nx == 0 || ny == 0 {
		return InterpolatedLayer{}, fmt.Errorf("wx: layer has an empty grid")
	}

	values := make([]float32, 0, nx*ny)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			values = append(values, best.Values[y][x])
		}
	}

	srcBBox := geo.Rect{
		P0: [2]float32{best.Long[0], best.Lat[0]},
		P1: [2]float32{best.Long[nx-1], best.Lat[ny-1]},
	}

	return InterpolatedLayer{
		Parameter: best.Parameter,
		Pressure:  pressure,
		Time:      best.Time,
		BBox:      srcBBox,
		Nx:        nx,
		Ny:        ny,
		Values:    values,
	}, nil
}

func nearestInTime(layers []Layer, t time.Time) (Layer, error) {
	if len(layers) == 0 {
		return Layer{}, fmt.Errorf("wx: no layers available")
	}
	best := layers[0]
	bestDelta := absDuration(best.Time.Sub(t))
	for _, l := range layers[1:] {
		if d := absDuration(l.Time.Sub(t)); d < bestDelta {
			best, bestDelta = l, d
		}
	}
	return best, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
