// pkg/autoroute/config.go
package autoroute

import (
	"reflect"
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/aero"
	"github.com/tsailer/vfrnav-public-sub008/pkg/perf"
	"github.com/tsailer/vfrnav-public-sub008/pkg/routegraph"
	"github.com/tsailer/vfrnav-public-sub008/pkg/util"
	"github.com/tsailer/vfrnav-public-sub008/pkg/validate"
)

// Configuration is the process-wide state of spec.md §3.1, owned
// exclusively by Controller; every field that can affect routing is
// captured in routingKey so Configure can decide whether to Clear.
type Configuration struct {
	Departure, Destination         aero.Airport
	DepartureIFR, DestinationIFR   bool
	DepAnchor, DestAnchor          routegraph.ProcedureAnchor

	Alternates [2]string

	Crossings []routegraph.Crossing

	DCTLimitNM, DCTPenalty, DCTOffset float32
	VFRAreaLimitNM                    float32
	POGOWhitelist                     map[[2]string]bool

	// ForceEnroute overrides spec.md §4.I's default VFR-dispatch rule,
	// routing an all-VFR endpoint pair through the IFR Routing Graph
	// pipeline anyway (the machine protocol's "enroute" command).
	ForceEnroute bool

	// POGOLevels maps a (dep,dest) ICAO pair to the predetermined
	// flight level spec.md §4.F's POGO special case returns a fixed
	// single-DCT plan at, without running the search at all.
	POGOLevels map[[2]string]int

	ExcludedRegions []routegraph.ExcludedRegion

	BaseFL, TopFL   int
	MaxDescentFtMin float32

	Preferred *perf.PreferredLevel

	Atmosphere perf.Atmosphere

	RPM, MP, BHP float32
	OptTarget    perf.OptTarget

	DepartureTime          time.Time
	LocalIterationCap      int
	RemoteIterationCap     int
	ValidatorChoice        validate.Backend
	ValidatorTransport     validate.Transport

	DisabledRules map[string]bool
	TraceRules    map[string]bool

	Aircraft perf.Aircraft
}

// routingKey is the subset of Configuration whose change invalidates
// every cached result (spec.md §3.1's "any mutation that affects
// routing invalidates all cached results" invariant: "Changes to
// levels, aircraft, endpoints, or constraints trigger a full clear").
// Validator transport/choice and the rule trace/disable sets are
// deliberately excluded: they affect how a plan is validated or
// reported, not how the graph or performance table are built.
type routingKey struct {
	Departure, Destination       aero.Airport
	DepartureIFR, DestinationIFR bool
	DepAnchor, DestAnchor        routegraph.ProcedureAnchor
	ForceEnroute                 bool
	Crossings                    []routegraph.Crossing
	DCTLimitNM, DCTPenalty, DCTOffset float32
	POGOWhitelist                 map[[2]string]bool
	ExcludedRegions               []routegraph.ExcludedRegion
	BaseFL, TopFL                 int
	MaxDescentFtMin               float32
	Preferred                     *perf.PreferredLevel
	Atmosphere                    perf.Atmosphere
	OptTarget                     perf.OptTarget
	Aircraft                      perf.Aircraft
}

func (c Configuration) routingKey() routingKey {
	return routingKey{
		Departure: c.Departure, Destination: c.Destination,
		DepartureIFR: c.DepartureIFR, DestinationIFR: c.DestinationIFR,
		DepAnchor: c.DepAnchor, DestAnchor: c.DestAnchor,
		ForceEnroute:    c.ForceEnroute,
		Crossings:       c.Crossings,
		DCTLimitNM:      c.DCTLimitNM,
		DCTPenalty:      c.DCTPenalty,
		DCTOffset:       c.DCTOffset,
		POGOWhitelist:   c.POGOWhitelist,
		ExcludedRegions: c.ExcludedRegions,
		BaseFL:          c.BaseFL, TopFL: c.TopFL,
		MaxDescentFtMin: c.MaxDescentFtMin,
		Preferred:       c.Preferred,
		Atmosphere:      c.Atmosphere,
		OptTarget:       c.OptTarget,
		Aircraft:        c.Aircraft,
	}
}

func routingEqual(a, b Configuration) bool {
	return reflect.DeepEqual(a.routingKey(), b.routingKey())
}

// Validate checks a Configuration for the problems that would otherwise
// surface much later as an opaque routegraph/perf build failure,
// accumulating every problem found (rather than stopping at the first)
// via the Push/Pop hierarchy stack.
func (c Configuration) Validate() *util.ErrorLogger {
	var e util.ErrorLogger

	e.Push("departure")
	if c.Departure.ICAO == "" {
		e.ErrorString("no departure airport set")
	}
	e.Pop()

	e.Push("destination")
	if c.Destination.ICAO == "" {
		e.ErrorString("no destination airport set")
	}
	e.Pop()
	if c.Departure.ICAO != "" && c.Departure.ICAO == c.Destination.ICAO {
		e.ErrorString("departure and destination are both %s", c.Departure.ICAO)
	}

	e.Push("levels")
	if c.BaseFL < 0 {
		e.ErrorString("base FL %d is negative", c.BaseFL)
	}
	if c.BaseFL > c.TopFL {
		e.ErrorString("base FL %d is above top FL %d", c.BaseFL, c.TopFL)
	}
	e.Pop()

	e.Push("iteration caps")
	if c.LocalIterationCap < 0 {
		e.ErrorString("local iteration cap %d is negative", c.LocalIterationCap)
	}
	if c.RemoteIterationCap < 0 {
		e.ErrorString("remote iteration cap %d is negative", c.RemoteIterationCap)
	}
	e.Pop()

	return &e
}

func (c Configuration) buildParams() routegraph.BuildParams {
	return routegraph.BuildParams{
		Departure: c.Departure, Destination: c.Destination,
		DepAnchor: c.DepAnchor, DestAnchor: c.DestAnchor,
		Crossings:       c.Crossings,
		DCTLimitNM:      c.DCTLimitNM,
		DCTPenalty:      c.DCTPenalty,
		DCTOffset:       c.DCTOffset,
		POGOWhitelist:   c.POGOWhitelist,
		ExcludedRegions: c.ExcludedRegions,
		BaseFL:          c.BaseFL, TopFL: c.TopFL,
	}
}
