package autoroute

import (
	"bufio"
	"io"
	"net"
	"testing"
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/aero"
	"github.com/tsailer/vfrnav-public-sub008/pkg/alog"
	"github.com/tsailer/vfrnav-public-sub008/pkg/fplroute"
	"github.com/tsailer/vfrnav-public-sub008/pkg/geo"
	"github.com/tsailer/vfrnav-public-sub008/pkg/perf"
	"github.com/tsailer/vfrnav-public-sub008/pkg/routegraph"
	"github.com/tsailer/vfrnav-public-sub008/pkg/validate"
)

func testAirports() (dep, dest aero.Airport) {
	dep = aero.Airport{ICAO: "LSZH", Name: "Zurich", Location: geo.Point2LL{8.5, 47.5}, Elevation: 1400}
	dest = aero.Airport{ICAO: "LIMC", Name: "Malpensa", Location: geo.Point2LL{8.7, 45.6}, Elevation: 768}
	return
}

func testProvider() *aero.TestProvider {
	p := aero.NewTestProvider()
	dep, dest := testAirports()
	p.Airports[dep.ICAO] = dep
	p.Airports[dest.ICAO] = dest
	// MIDPT gives the solver an alternate path once a mutation forbids
	// the direct LSZH-LIMC DCT, so TestPollAppliesMutationThenAccepts can
	// still converge.
	p.Fixes = []aero.Fix{
		{Ident: "MIDPT", Location: geo.Point2LL{8.6, 46.55}},
	}
	return p
}

func testAircraft() perf.Aircraft {
	var ac perf.Aircraft
	ac.Name = "test"
	ac.Ceiling = 18000
	ac.Rate.Climb = 500
	ac.Rate.Descent = 500
	ac.Speed.CruiseTAS = 120
	ac.FuelFlowLbsPerHour = 10
	return ac
}

func baseConfig() Configuration {
	dep, dest := testAirports()
	return Configuration{
		Departure: dep, Destination: dest,
		DepartureIFR: true, DestinationIFR: true,
		DCTLimitNM: 300, DCTPenalty: 1,
		POGOWhitelist: map[[2]string]bool{{dep.ICAO, dest.ICAO}: true},
		BaseFL: 60, TopFL: 100,
		Atmosphere:         perf.Atmosphere{QNHhPa: 1013.25},
		Aircraft:           testAircraft(),
		RemoteIterationCap: 10,
		LocalIterationCap:  10,
	}
}

func noopFormat(r *fplroute.Route) string { return "(FPL-TEST...)" }

// pipePeer wires a *validate.Peer to a loopback TCP listener and accepts
// the single resulting connection, returning a reader/conn for the test
// to script prelude/plan/diagnostic exchanges from the server side.
func pipePeer(t *testing.T) (*validate.Peer, *bufio.Reader, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	p := validate.NewPeer(validate.Transport{SocketNetwork: "tcp", SocketAddr: ln.Addr().String()}, validate.BackendCFMU, alog.Discard())
	if err := p.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	server := <-accepted
	r := bufio.NewReader(server)
	if _, err := r.ReadString('\n'); err != nil {
		t.Fatalf("reading prelude: %v", err)
	}
	return p, r, server
}

func TestStartPogoShortCircuitsSearch(t *testing.T) {
	cfg := baseConfig()
	dep, dest := testAirports()
	cfg.POGOLevels = map[[2]string]int{{dep.ICAO, dest.ICAO}: 80}

	c := NewController(testProvider(), nil, validate.NewPeer(validate.Transport{}, validate.BackendCFMU, alog.Discard()), noopFormat, alog.Discard())
	c.Configure(cfg)
	events := c.Start()

	if c.State() != Done {
		t.Fatalf("state = %v, want Done", c.State())
	}
	var sawFpl bool
	for _, ev := range events {
		if ev.Kind == EventNewFpl {
			sawFpl = true
			if len(ev.Route.Waypoints) != 2 {
				t.Fatalf("POGO route should have exactly 2 waypoints, got %d", len(ev.Route.Waypoints))
			}
			if ev.Route.Waypoints[0].AltitudeFt != 8000 {
				t.Fatalf("POGO altitude = %v, want 8000", ev.Route.Waypoints[0].AltitudeFt)
			}
		}
	}
	if !sawFpl {
		t.Fatal("expected an EventNewFpl")
	}
}

func TestStartVFROnlyDispatchesFallback(t *testing.T) {
	cfg := baseConfig()
	cfg.DepartureIFR, cfg.DestinationIFR = false, false
	cfg.VFRAreaLimitNM = 300

	c := NewController(testProvider(), nil, validate.NewPeer(validate.Transport{}, validate.BackendCFMU, alog.Discard()), noopFormat, alog.Discard())
	c.Configure(cfg)
	events := c.Start()

	if c.State() != Done {
		t.Fatalf("state = %v, want Done", c.State())
	}
	found := false
	for _, ev := range events {
		if ev.Kind == EventNewFpl {
			found = true
		}
	}
	if !found {
		t.Fatal("expected VFR dispatch to produce an EventNewFpl")
	}
}

func TestPollAcceptsOnFirstValidatorResponse(t *testing.T) {
	peer, r, server := pipePeer(t)
	defer server.Close()

	go func() {
		line, _ := r.ReadString('\n')
		if line == "" {
			t.Errorf("no plan line received")
		}
		io.WriteString(server, "\n")
	}()

	cfg := baseConfig()
	c := NewController(testProvider(), nil, peer, noopFormat, alog.Discard())
	c.Configure(cfg)
	c.Start()

	deadline := time.Now().Add(2 * time.Second)
	var gotDone bool
	for time.Now().Before(deadline) {
		for _, ev := range c.Poll(time.Now()) {
			if ev.Kind == EventStatus && ev.Status.Has(StatusStoppingDone) {
				gotDone = true
			}
		}
		if gotDone {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !gotDone {
		t.Fatal("controller never reached stopping-done")
	}
	if c.State() != Done {
		t.Fatalf("state = %v, want Done", c.State())
	}
}

func TestPollAppliesMutationThenAccepts(t *testing.T) {
	peer, r, server := pipePeer(t)
	defer server.Close()

	round := 0
	go func() {
		for {
			line, err := r.ReadString('\n')
			if err != nil || line == "" {
				return
			}
			round++
			if round == 1 {
				io.WriteString(server, "DCT not allowed from LSZH to LIMC\n")
				io.WriteString(server, "\n")
			} else {
				io.WriteString(server, "\n")
			}
		}
	}()

	cfg := baseConfig()
	c := NewController(testProvider(), nil, peer, noopFormat, alog.Discard())
	c.Configure(cfg)
	c.Start()

	deadline := time.Now().Add(2 * time.Second)
	var gotDone bool
	for time.Now().Before(deadline) {
		for _, ev := range c.Poll(time.Now()) {
			if ev.Kind == EventStatus && ev.Status.Has(StatusStoppingDone) {
				gotDone = true
			}
		}
		if gotDone {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !gotDone {
		t.Fatal("controller never reached stopping-done after a mutation round")
	}
	if c.remoteIterations < 2 {
		t.Fatalf("remoteIterations = %d, want >= 2", c.remoteIterations)
	}
}

func TestPollStopsWhenMapperFindsNoRule(t *testing.T) {
	peer, r, server := pipePeer(t)
	defer server.Close()

	go func() {
		line, _ := r.ReadString('\n')
		if line == "" {
			return
		}
		io.WriteString(server, "some unrecognized diagnostic text\n")
		io.WriteString(server, "\n")
	}()

	cfg := baseConfig()
	c := NewController(testProvider(), nil, peer, noopFormat, alog.Discard())
	c.Configure(cfg)
	c.Start()

	deadline := time.Now().Add(2 * time.Second)
	var gotErr bool
	for time.Now().Before(deadline) {
		for _, ev := range c.Poll(time.Now()) {
			if ev.Kind == EventStatus && ev.Status.Has(StatusStoppingErrorIteration) {
				gotErr = true
			}
		}
		if gotErr {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !gotErr {
		t.Fatal("controller never reported stopping-error-iteration")
	}
	if c.State() != StoppedError {
		t.Fatalf("state = %v, want StoppedError", c.State())
	}
}

func TestStopResetsController(t *testing.T) {
	cfg := baseConfig()
	c := NewController(testProvider(), nil, validate.NewPeer(validate.Transport{}, validate.BackendCFMU, alog.Discard()), noopFormat, alog.Discard())
	c.Configure(cfg)
	c.Start()
	c.graph = routegraph.NewGraph()

	c.Stop()
	if c.State() != Idle {
		t.Fatalf("state = %v, want Idle", c.State())
	}
	if c.graph != nil {
		t.Fatal("expected graph to be cleared on Stop")
	}
}

func TestConfigureClearsCacheOnRoutingChange(t *testing.T) {
	cfg := baseConfig()
	c := NewController(testProvider(), nil, validate.NewPeer(validate.Transport{}, validate.BackendCFMU, alog.Discard()), noopFormat, alog.Discard())
	c.Configure(cfg)
	c.table = testTable()
	c.graph = routegraph.NewGraph()

	cfg2 := cfg
	cfg2.TopFL = 200
	c.Configure(cfg2)

	if c.table != nil || c.graph != nil {
		t.Fatal("expected Configure to clear cached table/graph when TopFL changed")
	}
}

func testTable() *perf.Table {
	ac := testAircraft()
	table, err := perf.Build(1400, 600, ac, perf.Atmosphere{QNHhPa: 1013.25}, perf.OptTime,
		nil, 60, 100, 0, geo.Rect{}, nil, time.Time{})
	if err != nil {
		panic(err)
	}
	return table
}
