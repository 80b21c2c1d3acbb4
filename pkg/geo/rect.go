// pkg/geo/rect.go
package geo

// Rect represents a 2D bounding box (longitude, latitude) with vertices
// at its minimum and maximum corners. The Routing Graph builder and the
// VFR Fallback pass one to the aeronautical provider's *InRect queries
// so they load only the records around the route.
type Rect struct {
	P0, P1 [2]float32
}

// EmptyRect returns a Rect representing an empty bounding box, ready to
// be grown with Union.
func EmptyRect() Rect {
	return Rect{P0: [2]float32{1e30, 1e30}, P1: [2]float32{-1e30, -1e30}}
}

func RectFromPoints(pts [][2]float32) Rect {
	r := EmptyRect()
	for _, p := range pts {
		r = r.Union(p)
	}
	return r
}

func RectFromP2LLs(pts []Point2LL) Rect {
	r := EmptyRect()
	for _, p := range pts {
		r = r.Union([2]float32(p))
	}
	return r
}

func (r Rect) Width() float32  { return r.P1[0] - r.P0[0] }
func (r Rect) Height() float32 { return r.P1[1] - r.P0[1] }

func (r Rect) Center() [2]float32 {
	return [2]float32{(r.P0[0] + r.P1[0]) / 2, (r.P0[1] + r.P1[1]) / 2}
}

// Expand grows the rect by d in every direction; used to pad an
// exclusion zone's bounding box by its radius before the coarse overlap
// test.
func (r Rect) Expand(d float32) Rect {
	return Rect{
		P0: [2]float32{r.P0[0] - d, r.P0[1] - d},
		P1: [2]float32{r.P1[0] + d, r.P1[1] + d},
	}
}

func (r Rect) Inside(p [2]float32) bool {
	return p[0] >= r.P0[0] && p[0] <= r.P1[0] && p[1] >= r.P0[1] && p[1] <= r.P1[1]
}

// Overlaps returns true if the two provided Rects overlap.
func Overlaps(a, b Rect) bool {
	x := (a.P1[0] >= b.P0[0]) && (a.P0[0] <= b.P1[0])
	y := (a.P1[1] >= b.P0[1]) && (a.P0[1] <= b.P1[1])
	return x && y
}

func (r Rect) Union(p [2]float32) Rect {
	r.P0[0] = min(r.P0[0], p[0])
	r.P0[1] = min(r.P0[1], p[1])
	r.P1[0] = max(r.P1[0], p[0])
	r.P1[1] = max(r.P1[1], p[1])
	return r
}
