// pkg/geo/geom.go
package geo

import gomath "math"

// LineLineIntersect returns the intersection point of the two infinite
// lines through (p1,p2) and (p3,p4), and a Boolean indicating whether a
// valid intersection was found (there is none for parallel lines, and
// numerically tricky cases are also reported as not found).
func LineLineIntersect(p1f, p2f, p3f, p4f [2]float32) ([2]float32, bool) {
	// Do this in float64 given that airway vertices at the scale of a
	// continent can be close together relative to their magnitude.
	p1 := [2]float64{float64(p1f[0]), float64(p1f[1])}
	p2 := [2]float64{float64(p2f[0]), float64(p2f[1])}
	p3 := [2]float64{float64(p3f[0]), float64(p3f[1])}
	p4 := [2]float64{float64(p4f[0]), float64(p4f[1])}

	d12 := [2]float64{p1[0] - p2[0], p1[1] - p2[1]}
	d34 := [2]float64{p3[0] - p4[0], p3[1] - p4[1]}
	denom := d12[0]*d34[1] - d12[1]*d34[0]
	if gomath.Abs(denom) < 1e-5 {
		return [2]float32{}, false
	}
	numx := (p1[0]*p2[1]-p1[1]*p2[0])*(p3[0]-p4[0]) - (p1[0]-p2[0])*(p3[0]*p4[1]-p3[1]*p4[0])
	numy := (p1[0]*p2[1]-p1[1]*p2[0])*(p3[1]-p4[1]) - (p1[1]-p2[1])*(p3[0]*p4[1]-p3[1]*p4[0])

	return [2]float32{float32(numx / denom), float32(numy / denom)}, true
}

// SegmentSegmentIntersect returns the intersection point of the segments
// (p1,p2) and (p3,p4), and whether the intersection lies within both
// segments. AirspaceVolume.IntersectsSegment uses this to test whether a
// leg crosses one of a polygonal volume's edges.
func SegmentSegmentIntersect(p1, p2, p3, p4 [2]float32) ([2]float32, bool) {
	p, ok := LineLineIntersect(p1, p2, p3, p4)
	if !ok {
		return [2]float32{}, false
	}

	b0 := RectFromPoints([][2]float32{p1, p2})
	b1 := RectFromPoints([][2]float32{p3, p4})

	return p, b0.Inside(p) && b1.Inside(p)
}

// SignedPointLineDistance returns the signed distance from p to the
// infinite line through (p0,p1); points to the right of the line have
// negative distances.
func SignedPointLineDistance(p, p0, p1 [2]float32) float32 {
	dx, dy := p1[0]-p0[0], p1[1]-p0[1]
	sq := dx*dx + dy*dy
	if sq == 0 {
		return float32(gomath.Inf(1))
	}
	return (dx*(p0[1]-p[1]) - dy*(p0[0]-p[0])) / Sqrt(sq)
}

func PointLineDistance(p, p0, p1 [2]float32) float32 {
	return Abs(SignedPointLineDistance(p, p0, p1))
}

// PointSegmentDistance returns the minimum distance between point p and
// segment vw. https://stackoverflow.com/a/1501725
func PointSegmentDistance(p, v, w [2]float32) float32 {
	l := Sub2f(v, w)
	l2 := Dot(l, l)
	if l2 == 0 {
		return Length2f(Sub2f(p, v))
	}
	t := Clamp(Dot(Sub2f(p, v), Sub2f(w, v))/l2, 0, 1)
	proj := Add2f(v, Scale2f(Sub2f(w, v), t))
	return Distance2f(p, proj)
}

// PointInPolygon checks whether p is inside the polygon pts using the
// standard crossing-number test; pts must not repeat its first vertex.
// AirspaceVolume.Inside and AirspaceVolume.IntersectsSegment use it (via
// PointInPolygon2LL) for polygonal volumes; the latter is how the VFR
// Fallback penalty pass and airspace exclusions test a leg's endpoints.
func PointInPolygon(p [2]float32, pts [][2]float32) bool {
	inside := false
	for i := 0; i < len(pts); i++ {
		p0, p1 := pts[i], pts[(i+1)%len(pts)]
		if (p0[1] <= p[1] && p[1] < p1[1]) || (p1[1] <= p[1] && p[1] < p0[1]) {
			x := p0[0] + (p[1]-p0[1])*(p1[0]-p0[0])/(p1[1]-p0[1])
			if x > p[0] {
				inside = !inside
			}
		}
	}
	return inside
}

func PointInPolygon2LL(p Point2LL, pts []Point2LL) bool {
	fpts := make([][2]float32, len(pts))
	for i, q := range pts {
		fpts[i] = [2]float32(q)
	}
	return PointInPolygon([2]float32(p), fpts)
}
