// pkg/perf/aircraft.go
package perf

// Aircraft is the trimmed performance model the cost tables are built
// from: the subset of the teacher's AircraftPerformance
// (pkg/aviation/db.go) that drives climb/cruise/descent numbers, plus
// the engine knobs original_source/cfmu/cfmuautoroute.hh exposes
// directly (RPM/MP/BHP, opttarget) that the teacher's ATC-sim model has
// no use for.
type Aircraft struct {
	Name string
	ICAO string

	Ceiling float32 // ft, pressure altitude

	Rate struct {
		Climb   float32 // ft/min at sea level; tapers per ClimbRateAt
		Descent float32 // ft/min
	}

	Speed struct {
		CruiseTAS float32 // kts, at sea level; true cruise TAS is density-corrected
		MaxTAS    float32
	}

	// Engine knobs (original_source/cfmu/cfmuautoroute.hh
	// set_engine_rpm/mp/bhp): these feed fuel-flow/TAS computation for
	// piston aircraft; turbine aircraft performance tables ignore them.
	RPM float32
	MP  float32 // manifold pressure, inHg
	BHP float32

	// FuelFlowLbsPerHour is the cruise fuel flow used to derive
	// fuel/sec; a simplification of the teacher's richer per-phase fuel
	// model, adequate for the metric-per-nmi computation spec.md §4.A
	// describes.
	FuelFlowLbsPerHour float32
}

// ClimbRateAt returns the climb rate (ft/min) at the given pressure
// altitude, tapering above 5000ft for aircraft with a brisk sea-level
// climb rate — mirroring the teacher's inline comment in
// AircraftPerformance.Rate.Climb ("reduce by 500 after alt 5000 if this
// is >=2500").
func (a Aircraft) ClimbRateAt(altFt float32) float32 {
	r := a.Rate.Climb
	if r >= 2500 && altFt > 5000 {
		r -= 500
	}
	return r
}
