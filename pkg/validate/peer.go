// pkg/validate/peer.go
package validate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/alog"
	"github.com/tsailer/vfrnav-public-sub008/pkg/util"
)

// Backend selects which validator ruleset the peer checks plans against
// (spec.md §4.D's configuration prelude).
type Backend int

const (
	BackendCFMU Backend = iota
	BackendEuroFPL
)

func (b Backend) prelude() string {
	if b == BackendEuroFPL {
		return "validate*:eurofpl\n"
	}
	return "validate*:cfmu\n"
}

func (b Backend) String() string {
	if b == BackendEuroFPL {
		return "eurofpl"
	}
	return "cfmu"
}

// State is the Validator Client's connection state machine (spec.md §9:
// Disconnected → Connecting → ConfigSent → Idle → PlanSent →
// (ReceivingLines*) → Idle).
type State int

const (
	Disconnected State = iota
	Connecting
	ConfigSent
	Idle
	PlanSent
	ReceivingLines
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case ConfigSent:
		return "config-sent"
	case Idle:
		return "idle"
	case PlanSent:
		return "plan-sent"
	case ReceivingLines:
		return "receiving-lines"
	default:
		return "disconnected"
	}
}

// ErrValidatorTimeout is returned by Update once the restart budget for
// the in-flight plan is exhausted (spec.md §4.D).
var ErrValidatorTimeout = errors.New("validate: peer did not respond within T_peer after retries")

// maxRestarts is spec.md §4.D's "at most 5 restarts per plan".
const maxRestarts = 5

// Transport is the peer's connection configuration (spec.md §3.1's
// validator binary/socket fields, §4.D's transport ordering): a
// pre-existing socket is tried first, a spawned child process second.
type Transport struct {
	SocketNetwork string // "unix" or "tcp"; defaults to "unix"
	SocketAddr    string // empty disables the socket transport

	ChildBinary   string
	ChildXDisplay int // 0 means "inherit DISPLAY from the parent environment, if set"
}

func (t Transport) useSocket() bool { return t.SocketAddr != "" }

// timeout is T_peer: 30s for a socket peer, 120s for a spawned child
// (spec.md §4.D).
func (t Transport) timeout() time.Duration {
	if t.useSocket() {
		return 30 * time.Second
	}
	return 120 * time.Second
}

type lineOrErr struct {
	line string
	err  error
}

// Peer is the single supervised validator connection of spec.md §4.D.
// Exactly one plan may be in flight at a time; Update must be polled from
// the cooperative main loop (mirroring the teacher's
// ConnectionManager.Update select-with-default structure in
// pkg/server/connectmgr.go) to drain diagnostic lines and enforce T_peer.
type Peer struct {
	transport Transport
	backend   Backend
	lg        *alog.Logger

	// dial is overridden by tests to avoid touching a real socket or
	// spawning a real child process; production code leaves it nil and
	// openTransport is used.
	dial func() (io.ReadWriteCloser, error)

	state  State
	conn   io.ReadWriteCloser
	reader *bufio.Reader
	lines  chan lineOrErr

	pendingPlan string
	// call bounds the in-flight plan by T_peer; only IssueTime is used —
	// diagnostics arrive over lines, not call.Done — reusing the
	// teacher-derived util.PendingCall shape rather than a bare
	// time.Time field.
	call     util.PendingCall
	restarts int
	pendingLines []string
}

func NewPeer(t Transport, backend Backend, lg *alog.Logger) *Peer {
	return &Peer{transport: t, backend: backend, lg: lg}
}

func (p *Peer) State() State { return p.state }

// Connect opens the transport, sends the backend-selection prelude, and
// leaves the peer Idle.
func (p *Peer) Connect() error {
	p.state = Connecting

	open := p.dial
	if open == nil {
		open = p.openTransport
	}
	conn, err := open()
	if err != nil {
		p.state = Disconnected
		return fmt.Errorf("validate: connect: %w", err)
	}

	p.conn = conn
	p.reader = bufio.NewReader(conn)
	p.state = ConfigSent

	if _, err := io.WriteString(p.conn, p.backend.prelude()); err != nil {
		p.Close()
		return fmt.Errorf("validate: sending prelude: %w", err)
	}

	p.startReader()
	p.state = Idle
	return nil
}

func (p *Peer) openTransport() (io.ReadWriteCloser, error) {
	if p.transport.useSocket() {
		network := p.transport.SocketNetwork
		if network == "" {
			network = "unix"
		}
		c, err := net.DialTimeout(network, p.transport.SocketAddr, 5*time.Second)
		if err != nil {
			return nil, err
		}
		return util.MakeLoggingConn(c, p.lg), nil
	}
	return spawnChild(p.transport)
}

func (p *Peer) startReader() {
	lines := make(chan lineOrErr, 64)
	go func(r *bufio.Reader) {
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				lines <- lineOrErr{err: err}
				return
			}
			lines <- lineOrErr{line: strings.TrimRight(line, "\r\n")}
		}
	}(p.reader)
	p.lines = lines
}

// SendPlan transmits a single ICAO plan text line; only one plan may be
// outstanding at a time (spec.md §4.D's exclusive-in-flight rule).
func (p *Peer) SendPlan(planText string) error {
	if p.state != Idle {
		return fmt.Errorf("validate: SendPlan called in state %v, want idle", p.state)
	}
	if err := p.writePlan(planText); err != nil {
		return err
	}
	p.pendingPlan = planText
	p.restarts = 0
	return nil
}

func (p *Peer) writePlan(planText string) error {
	if _, err := io.WriteString(p.conn, planText+"\n"); err != nil {
		return fmt.Errorf("validate: sending plan: %w", err)
	}
	p.state = PlanSent
	p.call = util.PendingCall{IssueTime: time.Now()}
	p.pendingLines = p.pendingLines[:0]
	return nil
}

// Update drains any diagnostic lines produced since the last call,
// enforces T_peer with the restart budget, and reports when a full
// response (terminated by an empty line) has arrived. done is true only
// when diagnostics holds a complete response; err is ErrValidatorTimeout
// once the restart budget is exhausted, at which point the peer is left
// Disconnected for the controller to report stopping-error-validator-timeout.
func (p *Peer) Update(now time.Time) (diagnostics []string, done bool, err error) {
	if p.state != PlanSent && p.state != ReceivingLines {
		return nil, false, nil
	}

	for {
		select {
		case loe := <-p.lines:
			if loe.err != nil {
				if restartErr := p.restart(now); restartErr != nil {
					return nil, false, restartErr
				}
				return nil, false, nil
			}
			if loe.line == "" {
				p.state = Idle
				out := p.pendingLines
				p.pendingLines = nil
				p.pendingPlan = ""
				return out, true, nil
			}
			p.state = ReceivingLines
			p.pendingLines = append(p.pendingLines, loe.line)

		default:
			if now.Sub(p.call.IssueTime) > p.transport.timeout() {
				if restartErr := p.restart(now); restartErr != nil {
					return nil, false, restartErr
				}
			}
			return nil, false, nil
		}
	}
}

// restart closes the broken or timed-out connection, reconnects, and
// resends the still-pending plan, counting against the per-plan restart
// budget.
func (p *Peer) restart(now time.Time) error {
	p.closeConn()
	p.restarts++
	if p.restarts > maxRestarts {
		p.state = Disconnected
		return ErrValidatorTimeout
	}
	if err := p.Connect(); err != nil {
		return fmt.Errorf("validate: reconnect: %w", err)
	}
	return p.writePlan(p.pendingPlan)
}

// Stop cancels any in-flight plan, closes the peer, and discards buffered
// response lines — spec.md §4.D's cancellation semantics.
func (p *Peer) Stop() {
	p.closeConn()
	p.state = Disconnected
	p.pendingPlan = ""
	p.pendingLines = nil
	p.restarts = 0
}

// Close is an alias for Stop kept for callers that only mean to tear the
// peer down rather than frame it as a mid-iteration cancellation.
func (p *Peer) Close() { p.Stop() }

func (p *Peer) closeConn() {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	p.lines = nil
}

///////////////////////////////////////////////////////////////////////////
// spawned-child transport

func spawnChild(t Transport) (io.ReadWriteCloser, error) {
	cmd := exec.Command(t.ChildBinary)
	cmd.Env = childEnv(t.ChildXDisplay)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	// stderr is discarded per spec.md §4.D.
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &childPipe{stdin: stdin, stdout: stdout, cmd: cmd}, nil
}

// childEnv whitelists PATH/DISPLAY/HOME/LANG from the current process
// environment for the spawned validator child (SPEC_FULL.md §6.D), the
// constrained-environment pattern grounded on the teacher's
// LaunchLocalServer subprocess launch in pkg/server/server.go.
func childEnv(xdisplay int) []string {
	var env []string
	for _, k := range []string{"PATH", "HOME", "LANG"} {
		if v, ok := os.LookupEnv(k); ok {
			env = append(env, k+"="+v)
		}
	}
	if xdisplay > 0 {
		env = append(env, fmt.Sprintf("DISPLAY=:%d", xdisplay))
	} else if v, ok := os.LookupEnv("DISPLAY"); ok {
		env = append(env, "DISPLAY="+v)
	}
	return env
}

type childPipe struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
	cmd    *exec.Cmd
}

func (c *childPipe) Read(b []byte) (int, error)  { return c.stdout.Read(b) }
func (c *childPipe) Write(b []byte) (int, error) { return c.stdin.Write(b) }

func (c *childPipe) Close() error {
	c.stdin.Close()
	c.stdout.Close()
	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	return c.cmd.Wait()
}
