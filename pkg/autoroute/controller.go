// pkg/autoroute/controller.go
package autoroute

import (
	"errors"
	"strings"
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/aero"
	"github.com/tsailer/vfrnav-public-sub008/pkg/alog"
	"github.com/tsailer/vfrnav-public-sub008/pkg/fplroute"
	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
	"github.com/tsailer/vfrnav-public-sub008/pkg/mapper"
	"github.com/tsailer/vfrnav-public-sub008/pkg/perf"
	"github.com/tsailer/vfrnav-public-sub008/pkg/routegraph"
	"github.com/tsailer/vfrnav-public-sub008/pkg/util"
	"github.com/tsailer/vfrnav-public-sub008/pkg/validate"
	"github.com/tsailer/vfrnav-public-sub008/pkg/vfrfallback"
	"github.com/tsailer/vfrnav-public-sub008/pkg/wx"
)

// eventHistoryCapacity bounds how many emitted Events a Controller keeps
// for RecentEvents, so a long machine-protocol session's history doesn't
// grow without bound.
const eventHistoryCapacity = 500

// State is the Iteration Controller's top-level state machine (spec.md
// §4.F): Idle → Starting → Running → {Done | StoppedError}.
type State int

const (
	Idle State = iota
	Starting
	Running
	Done
	StoppedError
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Done:
		return "done"
	case StoppedError:
		return "stopped-error"
	default:
		return "idle"
	}
}

// PlanFormatter renders a finalized route as ICAO plan text — spec.md
// §1 names the ICAO plan formatter an external collaborator out of
// scope for this implementation, so Controller consumes it as an
// injected function rather than a concrete formatter package.
type PlanFormatter func(*fplroute.Route) string

// Controller is the Iteration Controller of spec.md §4.F: a
// single-threaded cooperative state machine driven by repeated calls to
// Poll, mirroring validate.Peer.Update's "caller polls with the current
// time" idiom rather than an internal goroutine.
type Controller struct {
	provider   aero.Provider
	wxProvider wx.Provider
	peer       *validate.Peer
	mapper     *mapper.Mapper
	format     PlanFormatter
	lg         *alog.Logger

	cfg   Configuration
	state State

	table       *perf.Table
	graph       *routegraph.Graph
	route       *fplroute.Route
	cruiseIndex []int

	planInFlight bool

	localIterations  int
	remoteIterations int

	history *util.RingBuffer[Event]
}

func NewController(provider aero.Provider, wxProvider wx.Provider, peer *validate.Peer, format PlanFormatter, lg *alog.Logger) *Controller {
	return &Controller{
		provider:   provider,
		wxProvider: wxProvider,
		peer:       peer,
		mapper:     mapper.New(),
		format:     format,
		lg:         lg,
		history:    util.NewRingBuffer[Event](eventHistoryCapacity),
	}
}

func (c *Controller) State() State { return c.state }
func (c *Controller) Route() *fplroute.Route { return c.route }

// RecentEvents returns up to the last eventHistoryCapacity Events this
// Controller has emitted across every Poll/Start/Stop call, oldest
// first — useful for a machine-protocol client that (re)connects
// mid-run and needs to catch up without replaying the whole session.
func (c *Controller) RecentEvents() []Event {
	n := c.history.Size()
	recent := make([]Event, n)
	for i := 0; i < n; i++ {
		recent[i] = c.history.Get(i)
	}
	return recent
}

func (c *Controller) record(events []Event) []Event {
	c.history.Add(events...)
	return events
}

// Configure updates Configuration, clearing every cached result when a
// routing-relevant field changed (spec.md §3.1's invariant).
func (c *Controller) Configure(cfg Configuration) {
	if !routingEqual(c.cfg, cfg) {
		c.clear()
	}
	c.cfg = cfg
}

// Clear implements spec.md §3.5's stop()/clear() lifecycle: resets
// every derived object, leaving Configuration untouched.
func (c *Controller) Clear() { c.clear() }

func (c *Controller) clear() {
	c.table = nil
	c.graph = nil
	c.route = nil
	c.cruiseIndex = nil
	c.planInFlight = false
}

// Stop implements spec.md §4.F/§5's cancellation semantics: the
// validator peer is closed, pending state discarded, and the controller
// returns to Idle ready to accept further commands.
func (c *Controller) Stop() (events []Event) {
	defer func() { c.record(events) }()
	c.peer.Stop()
	c.clear()
	c.state = Idle
	c.localIterations, c.remoteIterations = 0, 0
	return []Event{{Kind: EventStatus, Status: StatusStoppingErrorUser}}
}

// Start transitions Idle/Done/StoppedError → Running (or resolves
// immediately for the POGO and VFR special cases of spec.md §4.F).
func (c *Controller) Start() (events []Event) {
	defer func() { c.record(events) }()
	c.clear()
	c.localIterations, c.remoteIterations = 0, 0

	if e := c.cfg.Validate(); e.HaveErrors() {
		e.PrintErrors(c.lg)
		c.state = StoppedError
		return []Event{{Kind: EventStatus, Status: StatusStoppingErrorInternal}}
	}

	events = []Event{{Kind: EventStatus, Status: StatusStarting}}
	if len(c.cfg.DisabledRules) > 0 {
		events = append(events, Event{Kind: EventLog, LogItem: LogNormal,
			Text: "disabled rules: " + strings.Join(util.SortedMapKeys(c.cfg.DisabledRules), ", ")})
	}

	if route, ok := pogoPlan(c.cfg); ok {
		c.route = route
		c.state = Done
		return append(events,
			Event{Kind: EventNewFpl, Route: route},
			Event{Kind: EventStatus, Status: StatusStoppingDone})
	}

	if !c.cfg.DepartureIFR && !c.cfg.DestinationIFR && !c.cfg.ForceEnroute {
		ev := c.runVFR()
		return append(events, ev...)
	}

	c.state = Running
	return events
}

// Resume re-arms Running without discarding the cached table/graph,
// spec.md §4.H's `continue` command: unlike Start, it does not rebuild
// from scratch, only forces the next Poll to search again.
func (c *Controller) Resume() (events []Event) {
	if c.state != Idle && c.state != Done && c.state != StoppedError {
		return nil
	}
	defer func() { c.record(events) }()
	c.route = nil
	c.state = Running
	return []Event{{Kind: EventStatus, Status: StatusStarting}}
}

// runVFR dispatches to the VFR Fallback solver (spec.md §4.I) for a
// pure-VFR leg pair, resolving synchronously since it needs no
// validator round trip.
func (c *Controller) runVFR() []Event {
	g, err := vfrfallback.Build(c.provider, vfrfallback.BuildParams{
		Departure: c.cfg.Departure, Destination: c.cfg.Destination,
		DCTLimitNM: c.cfg.VFRAreaLimitNM,
	})
	if err != nil {
		c.state = StoppedError
		return []Event{{Kind: EventStatus, Status: StatusStoppingErrorInternal}}
	}

	table, err := c.buildTable()
	if err != nil {
		c.state = StoppedError
		return []Event{{Kind: EventStatus, Status: StatusStoppingErrorInternal}}
	}
	c.table = table

	path, err := vfrfallback.Solve(g, table)
	if err != nil {
		c.state = StoppedError
		return []Event{{Kind: EventStatus, Status: StatusStoppingErrorEnroute}}
	}

	route := vfrRouteFromPath(g, path)
	cruiseOf := func(int) *perf.Cruise { return table.CruiseRow(path.CruiseIndex) }
	fplroute.Bind(route, cruiseOf, c.cfg.Atmosphere.QNHhPa, c.cfg.Atmosphere.ISAOffset, nil, c.cfg.DepartureTime)

	c.route = route
	c.state = Done
	return []Event{
		{Kind: EventNewFpl, Route: route},
		{Kind: EventStatus, Status: StatusStoppingDone},
	}
}

func vfrRouteFromPath(g *routegraph.Graph, path *vfrfallback.Path) *fplroute.Route {
	route := &fplroute.Route{}
	for _, leg := range path.Legs {
		from := g.Vertices[leg.From]
		code := util.Select(leg.From == g.Dep, fplroute.PathVFRDeparture, fplroute.PathDirect)
		route.Waypoints = append(route.Waypoints, fplroute.Waypoint{
			Ident: from.Ident, Name: from.Ident, PathCode: code,
			Coordinate: from.Location, LegDistanceNM: leg.Edge.DistanceNM,
			LegTrackDeg: leg.Edge.TrueCourseDeg, LegHeadingDeg: leg.Edge.TrueCourseDeg,
		})
	}
	if n := len(path.Legs); n > 0 {
		to := g.Vertices[path.Legs[n-1].To]
		route.Waypoints = append(route.Waypoints, fplroute.Waypoint{
			Ident: to.Ident, Name: to.Ident, PathCode: fplroute.PathVFRArrival, Coordinate: to.Location,
		})
	}
	return route
}

func (c *Controller) buildTable() (*perf.Table, error) {
	return perf.Build(
		float32(c.cfg.Departure.Elevation), float32(c.cfg.Destination.Elevation),
		c.cfg.Aircraft, c.cfg.Atmosphere, c.cfg.OptTarget, c.cfg.Preferred,
		c.cfg.BaseFL, c.cfg.TopFL, c.cfg.MaxDescentFtMin,
		boundingRegion(c.cfg), c.wxProvider, c.cfg.DepartureTime)
}

// boundingRegion is the weather-lookup region (spec.md §4.G): the
// departure/destination pair, expanded by a fixed margin so crossing
// fixes and DCT legs between them stay inside the same weather window.
func boundingRegion(cfg Configuration) geo.Rect {
	return geo.RectFromP2LLs([]geo.Point2LL{cfg.Departure.Location, cfg.Destination.Location}).Expand(1)
}

// Poll drives one cooperative step of the §4.F inner loop: the
// Controller only does work while Running, and every suspension point
// (waiting on the validator) is expressed by returning an empty event
// slice for the caller to poll again later.
func (c *Controller) Poll(now time.Time) (events []Event) {
	if c.state != Running {
		return nil
	}
	defer func() { c.record(events) }()

	// steps 1-2: performance table / routing graph
	if c.table == nil {
		table, err := c.buildTable()
		if err != nil {
			c.state = StoppedError
			return append(events, Event{Kind: EventStatus, Status: StatusStoppingErrorInternal})
		}
		c.table = table
	}
	if c.graph == nil {
		g, err := routegraph.NewBuilder(c.provider, c.cfg.buildParams()).Build()
		if err != nil {
			c.state = StoppedError
			return append(events, Event{Kind: EventStatus, Status: StatusStoppingErrorInternal})
		}
		c.graph = g
	}

	// step 3-4: search + derive route, only when a new one is needed
	if c.route == nil {
		path, err := routegraph.Solve(c.graph, c.table, routegraph.SolveOptions{WindEnabled: c.cfg.Atmosphere.WindEnabled})
		if err != nil {
			c.localIterations++
			if c.localIterations >= c.cfg.LocalIterationCap && c.cfg.LocalIterationCap > 0 {
				c.state = StoppedError
				return append(events, Event{Kind: EventStatus, Status: StatusStoppingErrorEnroute})
			}
			return events
		}

		route, cruiseIdx := fplroute.FromPath(c.graph, path)
		fplroute.SetAltitudes(route, c.table, cruiseIdx)
		cruiseOf := func(i int) *perf.Cruise {
			if i < 0 || i >= len(cruiseIdx) || cruiseIdx[i] == perf.GroundIndex {
				return nil
			}
			return c.table.CruiseRow(cruiseIdx[i])
		}
		fplroute.Bind(route, cruiseOf, c.cfg.Atmosphere.QNHhPa, c.cfg.Atmosphere.ISAOffset, nil, c.cfg.DepartureTime)

		c.route = route
		c.cruiseIndex = cruiseIdx
		events = append(events, Event{Kind: EventNewFpl, Route: route}, Event{Kind: EventStatus, Status: StatusNewFpl})
	}

	// step 5-6: format and send to validator
	if !c.planInFlight && c.peer.State() == validate.Idle {
		planText := c.format(c.route)
		if err := c.peer.SendPlan(planText); err != nil {
			c.state = StoppedError
			return append(events, Event{Kind: EventStatus, Status: StatusStoppingErrorInternal})
		}
		c.planInFlight = true
		events = append(events, Event{Kind: EventLog, LogItem: LogFplProposal, Text: planText})
	}

	// step 7: drain validator diagnostics
	diagnostics, done, err := c.peer.Update(now)
	if err != nil {
		if errors.Is(err, validate.ErrValidatorTimeout) {
			c.state = StoppedError
			return append(events, Event{Kind: EventStatus, Status: StatusStoppingErrorValidatorTimeout})
		}
		c.state = StoppedError
		return append(events, Event{Kind: EventStatus, Status: StatusStoppingErrorInternal})
	}
	if !done {
		return events
	}

	c.planInFlight = false
	c.remoteIterations++
	events = append(events, Event{Kind: EventNewValidateResponse})
	for _, line := range diagnostics {
		events = append(events, Event{Kind: EventLog, LogItem: LogFplRemoteValidation, Text: line})
	}

	// step 8: accepted (no diagnostics) ends the run successfully
	if len(diagnostics) == 0 {
		c.state = Done
		return append(events, Event{Kind: EventStatus, Status: StatusStoppingDone,
			LocalIterations: c.localIterations, RemoteIterations: c.remoteIterations})
	}

	mutations := c.mapper.Apply(c.graph, diagnostics)
	mutations = util.FilterSlice(mutations, func(m mapper.Mutation) bool { return !c.cfg.DisabledRules[m.Rule] })
	if len(mutations) == 0 {
		c.state = StoppedError
		return append(events, Event{Kind: EventStatus, Status: StatusStoppingErrorIteration})
	}
	var rerunExclusions bool
	for _, m := range mutations {
		events = append(events, Event{Kind: EventLog, LogItem: LogGraphRule, Text: m.Rule + ": " + m.Description})
		if c.cfg.TraceRules[m.Rule] {
			events = append(events, Event{Kind: EventLog, LogItem: LogDebug0, Text: m.Rule + ": " + m.Description})
		}
		if m.NewCrossing != nil {
			c.cfg.Crossings = append(c.cfg.Crossings, *m.NewCrossing)
		}
		if m.NewTopFL != 0 {
			c.cfg.TopFL = m.NewTopFL
		}
		if m.InvalidatePerformanceTable {
			c.table = nil
		}
		if m.RerunExclusions {
			rerunExclusions = true
		}
	}

	// step 9: remote-iteration cap
	if c.cfg.RemoteIterationCap > 0 && c.remoteIterations >= c.cfg.RemoteIterationCap {
		c.state = StoppedError
		return append(events, Event{Kind: EventStatus, Status: StatusStoppingErrorIteration})
	}

	// step 10: loop — force a fresh search (and, if any mutation touched
	// crossings or asked for the exclusion pass to be rerun, a fresh
	// graph build) on the next Poll.
	c.route = nil
	if crossingsChanged(mutations) || rerunExclusions {
		c.graph = nil
	}
	return events
}

func crossingsChanged(muts []mapper.Mutation) bool {
	for _, m := range muts {
		if m.NewCrossing != nil {
			return true
		}
	}
	return false
}

