// pkg/machine/dispatch.go
package machine

import (
	"fmt"

	"github.com/tsailer/vfrnav-public-sub008/pkg/aero"
	"github.com/tsailer/vfrnav-public-sub008/pkg/alog"
	"github.com/tsailer/vfrnav-public-sub008/pkg/autoroute"
	"github.com/tsailer/vfrnav-public-sub008/pkg/fplroute"
	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
	"github.com/tsailer/vfrnav-public-sub008/pkg/perf"
	"github.com/tsailer/vfrnav-public-sub008/pkg/routegraph"
	"github.com/tsailer/vfrnav-public-sub008/pkg/util"
)

// Dispatcher is the machine-protocol front end of spec.md §4.H: it holds
// the one Configuration/Controller pair a process owns and translates
// wire-protocol lines to and from calls on them, the line-protocol analog
// of the teacher's RPC Dispatcher (pkg/server/dispatcher.go) gating every
// call through a single owning object.
type Dispatcher struct {
	Controller *autoroute.Controller
	Provider   aero.Provider
	cfg        autoroute.Configuration
	lg         *alog.Logger

	quitRequested bool
}

func NewDispatcher(c *autoroute.Controller, provider aero.Provider, lg *alog.Logger) *Dispatcher {
	return &Dispatcher{Controller: c, Provider: provider, lg: lg}
}

// Greeting is emitted once at startup (spec.md §4.H).
func (d *Dispatcher) Greeting(version string, backend string) string {
	return NewResponse("autoroute").Set("version", version).Set("provider", backend).String()
}

// Handle parses and dispatches one request line, returning every response
// line it produces (a setter's echo, or a run's status/log/fpl lines).
// Parse errors and command errors both render as `error=<message>` lines
// per spec.md §7's "do not tear down the loop" policy — Handle never
// returns a Go error itself.
func (d *Dispatcher) Handle(line string) []string {
	msg, err := ParseLine(line)
	if err != nil {
		return []string{errorLine("error", "", err.Error())}
	}

	handler, ok := commands[msg.Cmd]
	if !ok {
		return []string{errorLine(msg.Cmd, msg.CmdSeq, "unknown command")}
	}
	return handler(d, msg)
}

type commandFunc func(d *Dispatcher, msg Message) []string

var commands = map[string]commandFunc{
	"nop":          cmdNop,
	"quit":         cmdQuit,
	"preload":      cmdPreload,
	"start":        cmdStart,
	"stop":         cmdStop,
	"continue":     cmdContinue,
	"clear":        cmdClear,
	"departure":    cmdDeparture,
	"destination":  cmdDestination,
	"crossing":     cmdCrossing,
	"enroute":      cmdEnroute,
	"levels":       cmdLevels,
	"exclude":      cmdExclude,
	"tfr":          cmdTFR,
	"atmosphere":   cmdAtmosphere,
	"cruise":       cmdCruise,
	"optimization": cmdOptimization,
	"preferred":    cmdPreferred,
	"aircraft":     cmdAircraft,
}

// cmdNop doubles as the protocol's heartbeat: a client that polls with
// nop gets cumulative validator-connection bandwidth back, the same
// counters the teacher's RPC layer reports through its own periodic
// status line.
func cmdNop(d *Dispatcher, msg Message) []string {
	rx, tx := util.GetLoggedBandwidth()
	return []string{NewResponse("nop").WithCmdSeq(msg.CmdSeq).
		SetInt("bytesreceived", int(rx)).SetInt("bytessent", int(tx)).String()}
}

// QuitRequested is set once a "quit" line has been handled; the
// cmd/cfmuautoroute main loop polls it to know when to exit after
// flushing the response.
func (d *Dispatcher) QuitRequested() bool { return d.quitRequested }

func cmdQuit(d *Dispatcher, msg Message) []string {
	d.quitRequested = true
	return []string{NewResponse("quit").WithCmdSeq(msg.CmdSeq).String()}
}

// cmdPreload is a best-effort acknowledgment: spec.md §6.6's precomputed
// graph blob is an optional accelerator with no required on-the-wire
// payload, so preload only confirms receipt.
func cmdPreload(d *Dispatcher, msg Message) []string {
	return []string{NewResponse("preload").WithCmdSeq(msg.CmdSeq).String()}
}

func cmdStart(d *Dispatcher, msg Message) []string {
	d.Controller.Configure(d.cfg)
	return EventLines(d.Controller.Start(), msg.CmdSeq)
}

func cmdStop(d *Dispatcher, msg Message) []string {
	return EventLines(d.Controller.Stop(), msg.CmdSeq)
}

// cmdContinue resumes iteration after a `stop` or a converged run without
// discarding the cached graph/table, per spec.md §4.H listing `continue`
// distinctly from `start` (which always rebuilds); the Open Question of
// exactly what state `continue` resumes from is resolved here as "keep
// every cached object, just re-arm the Running state".
func cmdContinue(d *Dispatcher, msg Message) []string {
	return EventLines(d.Controller.Resume(), msg.CmdSeq)
}

func cmdClear(d *Dispatcher, msg Message) []string {
	d.Controller.Clear()
	return []string{NewResponse("clear").WithCmdSeq(msg.CmdSeq).String()}
}

func cmdDeparture(d *Dispatcher, msg Message) []string {
	return d.setEndpoint("departure", msg, true)
}

func cmdDestination(d *Dispatcher, msg Message) []string {
	return d.setEndpoint("destination", msg, false)
}

func (d *Dispatcher) setEndpoint(cmd string, msg Message, departure bool) []string {
	icao, ok := msg.Get("icao")
	if !ok {
		return []string{errorLine(cmd, msg.CmdSeq, "missing icao")}
	}
	ap, ok := d.Provider.AirportByICAO(icao)
	if !ok {
		return []string{errorLine(cmd, msg.CmdSeq, fmt.Sprintf("unknown airport %q", icao))}
	}
	ifr := msg.Bool("ifr", true)
	if departure {
		d.cfg.Departure, d.cfg.DepartureIFR = ap, ifr
	} else {
		d.cfg.Destination, d.cfg.DestinationIFR = ap, ifr
	}
	return []string{NewResponse(cmd).WithCmdSeq(msg.CmdSeq).Set("icao", ap.ICAO).SetBool("ifr", ifr).String()}
}

func cmdCrossing(d *Dispatcher, msg Message) []string {
	ident, ok := msg.Get("ident")
	if !ok {
		return []string{errorLine("crossing", msg.CmdSeq, "missing ident")}
	}
	d.cfg.Crossings = append(d.cfg.Crossings, routegraph.Crossing{
		Ident:    ident,
		RadiusNM: msg.Float("radius", 5),
		Band:     routegraph.LevelBand{Lower: msg.Int("lowerfl", 0), Upper: msg.Int("upperfl", 999)},
	})
	return []string{NewResponse("crossing").WithCmdSeq(msg.CmdSeq).Set("ident", ident).String()}
}

// cmdEnroute forces the IFR Routing Graph pipeline even when both
// endpoints are VFR, overriding the §4.I dispatch rule's default.
func cmdEnroute(d *Dispatcher, msg Message) []string {
	d.cfg.ForceEnroute = msg.Bool("force", true)
	return []string{NewResponse("enroute").WithCmdSeq(msg.CmdSeq).SetBool("force", d.cfg.ForceEnroute).String()}
}

func cmdLevels(d *Dispatcher, msg Message) []string {
	d.cfg.BaseFL = msg.Int("basefl", d.cfg.BaseFL)
	d.cfg.TopFL = msg.Int("topfl", d.cfg.TopFL)
	return []string{NewResponse("levels").WithCmdSeq(msg.CmdSeq).
		SetInt("basefl", d.cfg.BaseFL).SetInt("topfl", d.cfg.TopFL).String()}
}

func cmdExclude(d *Dispatcher, msg Message) []string {
	band := routegraph.LevelBand{Lower: msg.Int("lowerfl", 0), Upper: msg.Int("upperfl", 999)}
	region := routegraph.ExcludedRegion{Band: band}
	if _, ok := msg.Get("lat0"); ok {
		p0 := geo.Point2LL{msg.Float("lon0", 0), msg.Float("lat0", 0)}
		p1 := geo.Point2LL{msg.Float("lon1", 0), msg.Float("lat1", 0)}
		r := geo.RectFromP2LLs([]geo.Point2LL{p0, p1})
		region.Rect = &r
	}
	d.cfg.ExcludedRegions = append(d.cfg.ExcludedRegions, region)
	return []string{NewResponse("exclude").WithCmdSeq(msg.CmdSeq).String()}
}

// cmdTFR applies a named temporary restriction the same way cmdExclude
// does — spec.md §6.6 places TFR rule *files* out of this protocol's
// scope (they're read by opendb(), not by a wire command), so `tfr` here
// takes the same inline lat/lon/level fields as `exclude` rather than a
// file path.
func cmdTFR(d *Dispatcher, msg Message) []string {
	return cmdExclude(d, msg)
}

func cmdAtmosphere(d *Dispatcher, msg Message) []string {
	d.cfg.Atmosphere.QNHhPa = msg.Float("qnh", d.cfg.Atmosphere.QNHhPa)
	d.cfg.Atmosphere.ISAOffset = msg.Float("isa", d.cfg.Atmosphere.ISAOffset)
	d.cfg.Atmosphere.WindEnabled = msg.Bool("wind", d.cfg.Atmosphere.WindEnabled)
	return []string{NewResponse("atmosphere").WithCmdSeq(msg.CmdSeq).
		SetFloat("qnh", float64(d.cfg.Atmosphere.QNHhPa)).
		SetFloat("isa", float64(d.cfg.Atmosphere.ISAOffset)).
		SetBool("wind", d.cfg.Atmosphere.WindEnabled).String()}
}

func cmdCruise(d *Dispatcher, msg Message) []string {
	d.cfg.RPM = msg.Float("rpm", d.cfg.RPM)
	d.cfg.MP = msg.Float("mp", d.cfg.MP)
	d.cfg.BHP = msg.Float("bhp", d.cfg.BHP)
	return []string{NewResponse("cruise").WithCmdSeq(msg.CmdSeq).
		SetFloat("rpm", float64(d.cfg.RPM)).SetFloat("mp", float64(d.cfg.MP)).SetFloat("bhp", float64(d.cfg.BHP)).String()}
}

func cmdOptimization(d *Dispatcher, msg Message) []string {
	target, _ := msg.Get("target")
	switch target {
	case "fuel":
		d.cfg.OptTarget = perf.OptFuel
	case "preferred":
		d.cfg.OptTarget = perf.OptPreferred
	default:
		d.cfg.OptTarget = perf.OptTime
	}
	return []string{NewResponse("optimization").WithCmdSeq(msg.CmdSeq).Set("target", target).String()}
}

func cmdPreferred(d *Dispatcher, msg Message) []string {
	d.cfg.Preferred = &perf.PreferredLevel{
		Level:         msg.Int("level", 0),
		Penalty:       msg.Float("penalty", 0),
		ClimbPerKft:   msg.Float("climb", 0),
		DescentPerKft: msg.Float("descent", 0),
	}
	return []string{NewResponse("preferred").WithCmdSeq(msg.CmdSeq).SetInt("level", d.cfg.Preferred.Level).String()}
}

func cmdAircraft(d *Dispatcher, msg Message) []string {
	ac := &d.cfg.Aircraft
	ac.Name, _ = msg.Get("name")
	ac.Ceiling = msg.Float("ceiling", ac.Ceiling)
	ac.Rate.Climb = msg.Float("climbrate", ac.Rate.Climb)
	ac.Rate.Descent = msg.Float("descentrate", ac.Rate.Descent)
	ac.Speed.CruiseTAS = msg.Float("cruisetas", ac.Speed.CruiseTAS)
	ac.Speed.MaxTAS = msg.Float("maxtas", ac.Speed.MaxTAS)
	ac.FuelFlowLbsPerHour = msg.Float("fuelflow", ac.FuelFlowLbsPerHour)
	return []string{NewResponse("aircraft").WithCmdSeq(msg.CmdSeq).Set("name", ac.Name).String()}
}

// EventLines translates Controller events into wire-protocol lines:
// status masks render as `autoroute status=…`, log items as
// `log item=<kind> text=<line>`, and a new route as the
// fplbegin/fplwpt.../fplend atomic group of spec.md §4.H.
func EventLines(events []autoroute.Event, cmdseq string) []string {
	var lines []string
	for _, ev := range events {
		switch ev.Kind {
		case autoroute.EventStatus:
			lines = append(lines, statusLine(ev, cmdseq))
		case autoroute.EventLog:
			lines = append(lines, NewResponse("log").WithCmdSeq(cmdseq).
				Set("item", ev.LogItem.String()).Set("text", ev.Text).String())
		case autoroute.EventNewFpl:
			lines = append(lines, fplLines(ev.Route, cmdseq)...)
		case autoroute.EventNewValidateResponse:
			lines = append(lines, NewResponse("autoroute").WithCmdSeq(cmdseq).
				Set("status", "new-validate-response").String())
		}
	}
	return lines
}

func statusLine(ev autoroute.Event, cmdseq string) string {
	r := NewResponse("autoroute").WithCmdSeq(cmdseq).Set("status", statusName(ev.Status))
	if ev.Status.Has(autoroute.StatusStoppingDone) || ev.Status&errorMask != 0 {
		r.SetInt("localiterations", ev.LocalIterations).SetInt("remoteiterations", ev.RemoteIterations)
	}
	return r.String()
}

const errorMask = autoroute.StatusStoppingErrorSID | autoroute.StatusStoppingErrorSTAR |
	autoroute.StatusStoppingErrorEnroute | autoroute.StatusStoppingErrorValidatorTimeout |
	autoroute.StatusStoppingErrorInternal | autoroute.StatusStoppingErrorIteration |
	autoroute.StatusStoppingErrorUser

func statusName(s autoroute.StatusMask) string {
	switch {
	case s.Has(autoroute.StatusStarting):
		return "starting"
	case s.Has(autoroute.StatusStoppingDone):
		return "stopping-done"
	case s.Has(autoroute.StatusStoppingErrorSID):
		return "stopping-error-sid"
	case s.Has(autoroute.StatusStoppingErrorSTAR):
		return "stopping-error-star"
	case s.Has(autoroute.StatusStoppingErrorEnroute):
		return "stopping-error-enroute"
	case s.Has(autoroute.StatusStoppingErrorValidatorTimeout):
		return "stopping-error-validator-timeout"
	case s.Has(autoroute.StatusStoppingErrorInternal):
		return "stopping-error-internal"
	case s.Has(autoroute.StatusStoppingErrorIteration):
		return "stopping-error-iteration"
	case s.Has(autoroute.StatusStoppingErrorUser):
		return "stopping-error-user"
	case s.Has(autoroute.StatusNewFpl):
		return "new-fpl"
	case s.Has(autoroute.StatusNewValidateResponse):
		return "new-validate-response"
	default:
		return "unknown"
	}
}

func fplLines(route *fplroute.Route, cmdseq string) []string {
	if route == nil {
		return nil
	}
	lines := []string{NewResponse("fplbegin").WithCmdSeq(cmdseq).
		SetInt("waypoints", len(route.Waypoints)).String()}
	for _, wp := range route.Waypoints {
		lines = append(lines, NewResponse("fplwpt").WithCmdSeq(cmdseq).
			Set("ident", wp.Ident).Set("pathcode", wp.PathCode.String()).
			SetFloat("altitude", float64(wp.AltitudeFt)).String())
	}
	lines = append(lines, NewResponse("fplend").WithCmdSeq(cmdseq).
		Set("fpl", "").SetFloat("distance", float64(route.TotalDistanceNM())).String())
	return lines
}
