// cmd/cfmuautoroute/main.go
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/aero"
	"github.com/tsailer/vfrnav-public-sub008/pkg/alog"
	"github.com/tsailer/vfrnav-public-sub008/pkg/autoroute"
	"github.com/tsailer/vfrnav-public-sub008/pkg/fplroute"
	"github.com/tsailer/vfrnav-public-sub008/pkg/machine"
	"github.com/tsailer/vfrnav-public-sub008/pkg/perf"
	"github.com/tsailer/vfrnav-public-sub008/pkg/util"
	"github.com/tsailer/vfrnav-public-sub008/pkg/validate"
)

// Exit codes per spec.md §6.4.
const (
	exitOK             = 0
	exitUsage          = 64
	exitDataErr        = 65
	exitMissingInput   = 66
	exitUnavailable    = 69
	exitInternal       = 70
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("cfmuautoroute", flag.ContinueOnError)

	maindir := fs.String("maindir", "", "main aeronautical database directory")
	auxdir := fs.String("auxdir", "", "auxiliary database directory (TFR rules, etc.)")
	aircraftXML := fs.String("aircraft", "", "aircraft performance XML file")
	dctLimit := fs.Float64("dctlimit", 300, "maximum DCT leg length in nautical miles")
	dctPenalty := fs.Float64("dctpenalty", 1, "DCT metric scale factor")
	dctOffset := fs.Float64("dctoffset", 0, "DCT metric additive offset")
	validatorBinary := fs.String("validator-binary", "", "path to a spawned validator child process")
	validatorSocket := fs.String("validator-socket", "", "address of a pre-existing validator socket")
	validatorChoice := fs.String("validator-choice", "cfmu", "validator ruleset: cfmu or eurofpl")
	wind := fs.Bool("wind", true, "enable wind-corrected ground speeds")
	qnh := fs.Float64("qnh", 1013.25, "QNH in hPa")
	isa := fs.Float64("isa", 0, "ISA temperature deviation in degrees C")
	rpm := fs.Float64("rpm", 0, "cruise RPM")
	mp := fs.Float64("mp", 0, "cruise manifold pressure")
	bhp := fs.Float64("bhp", 0, "cruise brake horsepower")
	preferredLevel := fs.Int("preferredlevel", 0, "preferred flight level (0 disables)")
	preferredPenalty := fs.Float64("preferredpenalty", 0, "preferred-level deviation penalty")
	preferredClimb := fs.Float64("preferredclimb", 0, "preferred-level climb adder per 1000ft")
	preferredDescent := fs.Float64("preferreddescent", 0, "preferred-level descent adder per 1000ft")
	deptime := fs.String("deptime", "", "departure time, RFC3339")
	maxLocalIterations := fs.Int("maxlocaliterations", 1000, "local search retry cap")
	maxRemoteIterations := fs.Int("maxremoteiterations", 50, "validator round-trip cap")
	optTimeFlag := fs.Bool("time", true, "optimize for time")
	optFuelFlag := fs.Bool("fuel", false, "optimize for fuel")
	optPreferredFlag := fs.Bool("preferred", false, "optimize for the preferred level")
	machineMode := fs.Bool("machine", false, "speak the line-oriented machine protocol over stdin/stdout instead of running once")
	_ = maindir
	_ = auxdir
	_ = aircraftXML

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	lg := alog.New(false, "info", "")

	// TODO: wire a real maindir/auxdir-backed provider once opendb() lands;
	// the LRU wrapper is already here so that provider only needs to
	// satisfy aero.Provider once it exists.
	provider := aero.NewCachingProvider(aero.NewTestProvider(), 256)

	backend := validate.BackendCFMU
	if *validatorChoice == "eurofpl" {
		backend = validate.BackendEuroFPL
	}
	peer := validate.NewPeer(validate.Transport{
		SocketAddr:  *validatorSocket,
		ChildBinary: *validatorBinary,
	}, backend, lg)

	format := func(r *fplroute.Route) string { return icaoPlanText(r) }
	controller := autoroute.NewController(provider, nil, peer, format, lg)

	if *machineMode {
		return runMachineMode(controller, provider, backend, lg)
	}

	rest := fs.Args()
	if len(rest) != 4 {
		fmt.Fprintln(os.Stderr, "usage: cfmuautoroute [options] <dep> <dest> <base-fl> <top-fl>")
		return exitUsage
	}

	var baseFL, topFL int
	if _, err := fmt.Sscanf(rest[2], "%d", &baseFL); err != nil {
		return exitUsage
	}
	if _, err := fmt.Sscanf(rest[3], "%d", &topFL); err != nil {
		return exitUsage
	}
	dep, ok := provider.AirportByICAO(rest[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown departure airport %q\n", rest[0])
		return exitDataErr
	}
	dest, ok := provider.AirportByICAO(rest[1])
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown destination airport %q\n", rest[1])
		return exitDataErr
	}

	depTime := time.Now()
	if *deptime != "" {
		t, err := time.Parse(time.RFC3339, *deptime)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -deptime: %v\n", err)
			return exitUsage
		}
		depTime = t
	}

	opt := resolveOptTarget(*optTimeFlag, *optFuelFlag, *optPreferredFlag)

	cfg := autoroute.Configuration{
		Departure: dep, Destination: dest,
		DepartureIFR: true, DestinationIFR: true,
		DCTLimitNM: float32(*dctLimit), DCTPenalty: float32(*dctPenalty), DCTOffset: float32(*dctOffset),
		BaseFL: baseFL, TopFL: topFL,
		Atmosphere: perf.Atmosphere{
			QNHhPa:      float32(*qnh),
			ISAOffset:   float32(*isa),
			WindEnabled: *wind,
		},
		RPM: float32(*rpm), MP: float32(*mp), BHP: float32(*bhp),
		OptTarget:          opt,
		DepartureTime:      depTime,
		LocalIterationCap:  *maxLocalIterations,
		RemoteIterationCap: *maxRemoteIterations,
		ValidatorChoice:    backend,
	}
	if *preferredLevel > 0 {
		cfg.Preferred = &perf.PreferredLevel{
			Level:         *preferredLevel,
			Penalty:       float32(*preferredPenalty),
			ClimbPerKft:   float32(*preferredClimb),
			DescentPerKft: float32(*preferredDescent),
		}
	}
	// -aircraft is not yet wired to a parser: no aircraft performance XML
	// reader exists in this tree, so the table is built from zero-value
	// performance figures until one lands.

	controller.Configure(cfg)
	events := controller.Start()
	logEvents(lg, events)

	deadline := time.Now().Add(10 * time.Minute)
	for controller.State() == autoroute.Running && time.Now().Before(deadline) {
		logEvents(lg, controller.Poll(time.Now()))
		time.Sleep(50 * time.Millisecond)
	}

	switch controller.State() {
	case autoroute.Done:
		return exitOK
	case autoroute.StoppedError:
		return exitInternal
	default:
		return exitUnavailable
	}
}

func runMachineMode(c *autoroute.Controller, provider aero.Provider, backend validate.Backend, lg *alog.Logger) int {
	d := machine.NewDispatcher(c, provider, lg)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	fmt.Fprintln(out, d.Greeting("1.0", backend.String()))
	out.Flush()

	in := bufio.NewScanner(os.Stdin)
	for !d.QuitRequested() {
		if c.State() == autoroute.Running {
			for _, line := range machine.EventLines(c.Poll(time.Now()), "") {
				fmt.Fprintln(out, line)
			}
			out.Flush()
		}
		if !in.Scan() {
			break
		}
		for _, line := range d.Handle(in.Text()) {
			fmt.Fprintln(out, line)
		}
		out.Flush()
	}
	return exitOK
}

func resolveOptTarget(t, fuel, preferred bool) perf.OptTarget {
	switch {
	case preferred:
		return perf.OptPreferred
	case fuel:
		return perf.OptFuel
	default:
		return perf.OptTime
	}
}

func logEvents(lg *alog.Logger, events []autoroute.Event) {
	for _, ev := range events {
		if ev.Kind == autoroute.EventLog {
			lg.Info(ev.LogItem.String(), "text", ev.Text)
		}
	}
}

// icaoPlanText is a placeholder ICAO plan renderer; the real formatter
// is an external collaborator out of scope per spec.md §1.
func icaoPlanText(r *fplroute.Route) string {
	idents := util.MapSlice(r.Waypoints, func(wp fplroute.Waypoint) string { return wp.Ident })
	s := "(FPL-TEST"
	if len(idents) > 0 {
		s += "-" + strings.Join(idents, "-")
	}
	return s + ")"
}
