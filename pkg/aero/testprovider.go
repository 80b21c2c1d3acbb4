// pkg/aero/testprovider.go
package aero

import "github.com/tsailer/vfrnav-public-sub008/pkg/geo"

// TestProvider is a trivial in-memory Provider, the test-fixture
// equivalent of the teacher's approach of building a small
// hand-populated StaticDatabase in aviation_test.go rather than reaching
// for a mock-generation framework.
type TestProvider struct {
	Airports    map[string]Airport
	Navaids     []Navaid
	Fixes       []Fix
	MapElements []MapElement
	Airways     []Airway
	Airspaces   []AirspaceVolume
}

func NewTestProvider() *TestProvider {
	return &TestProvider{Airports: make(map[string]Airport)}
}

func (p *TestProvider) AirportByICAO(icao string) (Airport, bool) {
	a, ok := p.Airports[icao]
	return a, ok
}

func (p *TestProvider) NavaidsByIdent(ident string) []Navaid {
	var out []Navaid
	for _, n := range p.Navaids {
		if n.Ident == ident {
			out = append(out, n)
		}
	}
	return out
}

func (p *TestProvider) FixesByIdent(ident string) []Fix {
	var out []Fix
	for _, f := range p.Fixes {
		if f.Ident == ident {
			out = append(out, f)
		}
	}
	return out
}

func (p *TestProvider) MapElementsByIdent(ident string) []MapElement {
	var out []MapElement
	for _, m := range p.MapElements {
		if m.Ident == ident {
			out = append(out, m)
		}
	}
	return out
}

func (p *TestProvider) AirwaysByName(name string) []Airway {
	var out []Airway
	for _, a := range p.Airways {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out
}

func (p *TestProvider) AirportsInRect(rect geo.Rect) []Airport {
	var out []Airport
	for _, a := range p.Airports {
		if rect.Inside([2]float32(a.Location)) {
			out = append(out, a)
		}
	}
	return out
}

func (p *TestProvider) NavaidsInRect(rect geo.Rect) []Navaid {
	var out []Navaid
	for _, n := range p.Navaids {
		if rect.Inside([2]float32(n.Location)) {
			out = append(out, n)
		}
	}
	return out
}

func (p *TestProvider) FixesInRect(rect geo.Rect) []Fix {
	var out []Fix
	for _, f := range p.Fixes {
		if rect.Inside([2]float32(f.Location)) {
			out = append(out, f)
		}
	}
	return out
}

func (p *TestProvider) MapElementsInRect(rect geo.Rect) []MapElement {
	var out []MapElement
	for _, m := range p.MapElements {
		if rect.Inside([2]float32(m.Location)) {
			out = append(out, m)
		}
	}
	return out
}

func (p *TestProvider) AirwaysInRect(rect geo.Rect) []Airway {
	var out []Airway
	for _, a := range p.Airways {
		for _, f := range a.Fixes {
			if rect.Inside([2]float32(f.Location)) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func (p *TestProvider) AirspacesInRect(rect geo.Rect) []AirspaceVolume {
	var out []AirspaceVolume
	for _, a := range p.Airspaces {
		if a.PolygonBounds != nil && geo.Overlaps(rect, *a.PolygonBounds) {
			out = append(out, a)
			continue
		}
		if a.Type == AirspaceVolumeCircle && rect.Expand(a.Radius).Inside([2]float32(a.Center)) {
			out = append(out, a)
		}
	}
	return out
}

func (p *TestProvider) AirspaceByIDAndType(id string, typ AirspaceVolumeType) (AirspaceVolume, bool) {
	for _, a := range p.Airspaces {
		if a.Id == id && a.Type == typ {
			return a, true
		}
	}
	return AirspaceVolume{}, false
}
