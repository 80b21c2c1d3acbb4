// pkg/fplroute/types.go
package fplroute

import (
	"log/slog"
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
)

// PathCode identifies how a waypoint was reached, the route-construction
// analog of the teacher's Waypoint.Airway/OnSID/OnSTAR boolean flags
// collapsed into a single tagged enum (spec.md §3.4).
type PathCode int

const (
	PathDirect PathCode = iota
	PathSID
	PathSTAR
	PathAirway
	PathVFRDeparture
	PathVFRArrival
	PathTerminate
)

func (p PathCode) String() string {
	switch p {
	case PathSID:
		return "SID"
	case PathSTAR:
		return "STAR"
	case PathAirway:
		return "airway"
	case PathVFRDeparture:
		return "VFR-departure"
	case PathVFRArrival:
		return "VFR-arrival"
	case PathTerminate:
		return "terminate"
	default:
		return "direct"
	}
}

// AltitudeFlags are the per-waypoint altitude-restriction bits of
// spec.md §3.4.
type AltitudeFlags struct {
	IFR      bool
	Standard bool // altitude is a flight level (STD, QNE) rather than QNH-referenced
	Climb    bool // waypoint is crossed climbing
	Descent  bool // waypoint is crossed descending
}

// Waypoint is one leg endpoint of a finalized route (spec.md §3.4),
// trimmed from the teacher's aviation.Waypoint (pkg/aviation/route.go) of
// its ATC-sim-only fields (TCPHandoff, PointOut, scratchpads,
// ProcedureTurn, DMEArc) and extended with the timing/wind/fuel fields
// the Weather Binder (spec.md §4.G) populates.
type Waypoint struct {
	Ident    string
	Name     string
	PathCode PathCode
	PathName string // airway/SID/STAR name when PathCode names one, else ""

	Coordinate geo.Point2LL
	AltitudeFt float32
	Flags      AltitudeFlags

	AbsoluteTime time.Time
	LegElapsed   time.Duration

	WindDirDeg  float32
	WindSpeedKt float32
	OATKelvin   float32
	QFFhPa      float32
	TrueAltFt   float32

	TASKt float32

	// LegDistanceNM/LegTrackDeg/LegHeadingDeg describe the outbound leg
	// from this waypoint to the next one; the terminal waypoint leaves
	// them zero.
	LegDistanceNM float32
	LegTrackDeg   float32
	LegHeadingDeg float32

	FuelLbs float32
}

// LogValue renders the non-zero fields of the waypoint for structured
// logging, in the style of the teacher's Waypoint.LogValue.
func (w Waypoint) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("ident", w.Ident),
		slog.String("path_code", w.PathCode.String()),
	}
	if w.PathName != "" {
		attrs = append(attrs, slog.String("path_name", w.PathName))
	}
	if w.AltitudeFt != 0 {
		attrs = append(attrs, slog.Float64("altitude_ft", float64(w.AltitudeFt)))
	}
	if w.WindSpeedKt != 0 {
		attrs = append(attrs, slog.Float64("wind_dir", float64(w.WindDirDeg)),
			slog.Float64("wind_speed_kt", float64(w.WindSpeedKt)))
	}
	if !w.AbsoluteTime.IsZero() {
		attrs = append(attrs, slog.Time("time", w.AbsoluteTime))
	}
	if w.LegDistanceNM != 0 {
		attrs = append(attrs, slog.Float64("leg_distance_nm", float64(w.LegDistanceNM)))
	}
	return slog.GroupValue(attrs...)
}

// Route is the finalized flight plan (spec.md §3.4), re-derived from the
// current graph path on every Iteration Controller pass.
type Route struct {
	Waypoints []Waypoint

	RouteTime         time.Duration
	RouteFuelLbs      float32
	ZeroWindRouteTime time.Duration
	ZeroWindFuelLbs   float32

	OffBlock time.Time
	OnBlock  time.Time
}

// TotalDistanceNM sums the leg distances across the route.
func (r *Route) TotalDistanceNM() float32 {
	var total float32
	for _, wp := range r.Waypoints {
		total += wp.LegDistanceNM
	}
	return total
}
