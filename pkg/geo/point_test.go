// pkg/geo/point_test.go
package geo

import "testing"

func TestParseLatLong(t *testing.T) {
	type LL struct {
		str string
		pos Point2LL
	}
	latlongs := []LL{
		{str: "N47.27.52.920,E008.32.57.120", pos: Point2LL{8.549200, 47.464700}}, // ZUE VOR-ish
		{str: "N47.27.52.9,E008.32.57.120", pos: Point2LL{8.549200, 47.4646944}},
		{str: "47.464700, 8.549200", pos: Point2LL{8.549200, 47.464700}},
		{str: "+472752.920+0083257.120", pos: Point2LL{8.5492, 47.464699}},
	}

	for _, ll := range latlongs {
		p, err := ParseLatLong([]byte(ll.str))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", ll.str, err)
			continue
		}
		if p[0] != ll.pos[0] {
			t.Errorf("%s: got %.9g for longitude, expected %.9g", ll.str, p[0], ll.pos[0])
		}
		if p[1] != ll.pos[1] {
			t.Errorf("%s: got %.9g for latitude, expected %.9g", ll.str, p[1], ll.pos[1])
		}
	}

	for _, invalid := range []string{
		"E47.27.52.920, N008.32.57.120",
		"47.27.52.920, N008.32.57.120",
		"N47.27.52.920, -8.22",
	} {
		if _, err := ParseLatLong([]byte(invalid)); err == nil {
			t.Errorf("%s: no error was returned for invalid latlong string!", invalid)
		}
	}
}

func TestPointInPolygon(t *testing.T) {
	testCases := []struct {
		name     string
		point    [2]float32
		polygon  [][2]float32
		expected bool
	}{
		{
			name:     "inside simple square",
			point:    [2]float32{1, 1},
			polygon:  [][2]float32{{0, 0}, {0, 2}, {2, 2}, {2, 0}},
			expected: true,
		},
		{
			name:     "left of quad",
			point:    [2]float32{-.2, 0.2},
			polygon:  [][2]float32{{.01, 1}, {20, 2}, {20, -2}, {.01, -1}},
			expected: false,
		},
		{
			name:     "outside simple square",
			point:    [2]float32{3, 3},
			polygon:  [][2]float32{{0, 0}, {0, 2}, {2, 2}, {2, 0}},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PointInPolygon(tc.point, tc.polygon); got != tc.expected {
				t.Errorf("got %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestNMDistance2LL(t *testing.T) {
	// LSZH to LIMC, roughly 110nm.
	lszh := Point2LL{8.549200, 47.464700}
	limc := Point2LL{8.725800, 45.630600}
	d := NMDistance2LL(lszh, limc)
	if d < 100 || d > 130 {
		t.Errorf("LSZH-LIMC distance out of expected range: got %f", d)
	}
}

func TestSegmentSegmentIntersect(t *testing.T) {
	p, ok := SegmentSegmentIntersect([2]float32{0, 0}, [2]float32{2, 2}, [2]float32{0, 2}, [2]float32{2, 0})
	if !ok {
		t.Fatalf("expected an intersection")
	}
	if Abs(p[0]-1) > 1e-3 || Abs(p[1]-1) > 1e-3 {
		t.Errorf("got %v, expected (1,1)", p)
	}

	_, ok = SegmentSegmentIntersect([2]float32{0, 0}, [2]float32{1, 0}, [2]float32{0, 2}, [2]float32{1, 2})
	if ok {
		t.Errorf("parallel, non-overlapping segments should not intersect")
	}
}
