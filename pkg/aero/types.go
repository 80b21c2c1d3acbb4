// pkg/aero/types.go
package aero

import "github.com/tsailer/vfrnav-public-sub008/pkg/geo"

// VertexKind tags what a routing-graph vertex was built from; see
// routegraph.Vertex. Kept here (rather than in pkg/routegraph) because
// it is also how a Provider classifies the records it returns.
type VertexKind int

const (
	VertexAirport VertexKind = iota
	VertexNavaid
	VertexIntersection
	VertexMapElement
	VertexVFRReportingPoint
	VertexProcedureAnchor
)

func (k VertexKind) String() string {
	switch k {
	case VertexAirport:
		return "airport"
	case VertexNavaid:
		return "navaid"
	case VertexIntersection:
		return "intersection"
	case VertexMapElement:
		return "mapelement"
	case VertexVFRReportingPoint:
		return "vfr-reporting-point"
	case VertexProcedureAnchor:
		return "procedure-anchor"
	default:
		return "unknown"
	}
}

// Airport is the subset of an aerodrome record the routing engine
// actually needs: identity, position, elevation, and the procedures that
// attach it to the enroute structure. Runway/comm/approach-chart detail
// belongs to the out-of-scope aeronautical database, not here.
type Airport struct {
	ICAO      string
	Name      string
	Location  geo.Point2LL
	Elevation int // ft
	SIDs      []Procedure
	STARs     []Procedure
}

type Navaid struct {
	Ident    string
	Type     string // VOR, NDB, VORDME, ...
	Name     string
	Location geo.Point2LL
}

type Fix struct {
	Ident    string
	Location geo.Point2LL
}

// MapElement is a catch-all for named points that are neither navaids
// nor ARINC fixes (visual reporting points, obstacles used as VFR
// anchors, etc).
type MapElement struct {
	Ident    string
	Location geo.Point2LL
}

type AirwayLevel int

const (
	AirwayLevelAll AirwayLevel = iota
	AirwayLevelLow
	AirwayLevelHigh
)

type AirwayDirection int

const (
	AirwayDirectionAny AirwayDirection = iota
	AirwayDirectionForward
	AirwayDirectionBackward
)

type AirwayFix struct {
	Ident     string
	Location  geo.Point2LL
	Level     AirwayLevel
	Direction AirwayDirection
	LowerFL   int
	UpperFL   int
}

// Airway is a named, ordered chain of fixes; routegraph.Graph overlays a
// directed edge between each consecutive pair (per AirwayFix.Direction)
// inside its bounding box.
type Airway struct {
	Name  string
	Fixes []AirwayFix
}

type ProcedureKind int

const (
	ProcedureSID ProcedureKind = iota
	ProcedureSTAR
)

// Procedure is a published SID or STAR: a named chain from an aerodrome
// to (SID) or from (STAR) a terminal enroute fix. The routing graph only
// cares about the terminal fix and the level band the procedure imposes,
// not its full lateral path.
type Procedure struct {
	Name        string
	Kind        ProcedureKind
	TerminalFix AirwayFix
}

type AirspaceVolumeType int

const (
	AirspaceVolumeUnknown AirspaceVolumeType = iota
	AirspaceVolumePolygon
	AirspaceVolumeCircle
)

// AirspaceClass mirrors the ICAO airspace classification letters used by
// exclusion-zone and VFR Fallback penalty rules (spec.md §4.I names
// classes A-D plus the special-use P/R/D variants).
type AirspaceClass string

const (
	ClassA       AirspaceClass = "A"
	ClassB       AirspaceClass = "B"
	ClassC       AirspaceClass = "C"
	ClassD       AirspaceClass = "D"
	ClassProhib  AirspaceClass = "P"
	ClassRestrict AirspaceClass = "R"
	ClassDanger  AirspaceClass = "D-special"
)

// AirspaceVolume is a 3-D airspace region: either a polygon (with
// optional holes) or a circle, bounded below by Floor and above by
// Ceiling (both in feet).
type AirspaceVolume struct {
	Id          string
	Description string
	Class       AirspaceClass
	Type        AirspaceVolumeType
	Floor       int
	Ceiling     int

	PolygonBounds *geo.Rect
	Vertices      []geo.Point2LL
	Holes         [][]geo.Point2LL

	Center geo.Point2LL
	Radius float32 // nmi, for Type == AirspaceVolumeCircle
}

// Inside reports whether p at altitude alt (ft) lies within the volume.
func (a *AirspaceVolume) Inside(p geo.Point2LL, alt int) bool {
	if alt <= a.Floor || alt > a.Ceiling {
		return false
	}

	switch a.Type {
	case AirspaceVolumePolygon:
		if a.PolygonBounds != nil && !a.PolygonBounds.Inside([2]float32(p)) {
			return false
		}
		if !geo.PointInPolygon2LL(p, a.Vertices) {
			return false
		}
		for _, hole := range a.Holes {
			if geo.PointInPolygon2LL(p, hole) {
				return false
			}
		}
		return true
	case AirspaceVolumeCircle:
		return geo.NMDistance2LL(p, a.Center) < a.Radius
	default:
		return false
	}
}

// IntersectsSegment reports whether the straight leg (p0,p1) touches the
// volume laterally: for a polygon, either endpoint lies inside it or the
// leg crosses one of its edges; for a circle, the leg passes within
// Radius of Center. Floor, Ceiling and Holes are not consulted. Used by
// the Routing Graph's exclusion pass (spec.md §4.B step 5) and by the
// VFR Fallback airspace penalty (spec.md §4.I step 4).
func (a *AirspaceVolume) IntersectsSegment(p0, p1 geo.Point2LL) bool {
	switch a.Type {
	case AirspaceVolumeCircle:
		nmPerLon := geo.NmPerLongitude(a.Center.Latitude())
		c := geo.LL2NM(a.Center, nmPerLon)
		q0, q1 := geo.LL2NM(p0, nmPerLon), geo.LL2NM(p1, nmPerLon)
		return geo.PointSegmentDistance(c, q0, q1) < a.Radius
	case AirspaceVolumePolygon:
		if geo.PointInPolygon2LL(p0, a.Vertices) || geo.PointInPolygon2LL(p1, a.Vertices) {
			return true
		}
		n := len(a.Vertices)
		for i := 0; i < n; i++ {
			v0, v1 := a.Vertices[i], a.Vertices[(i+1)%n]
			if _, ok := geo.SegmentSegmentIntersect([2]float32(p0), [2]float32(p1), [2]float32(v0), [2]float32(v1)); ok {
				return true
			}
		}
		return false
	default:
		return false
	}
}
