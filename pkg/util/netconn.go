// pkg/util/netconn.go
package util

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tsailer/vfrnav-public-sub008/pkg/alog"
)

// ErrTimeout is the error value for call sites that bound an operation
// with a timer rather than a context deadline, matching the teacher's
// RPCClient.CallWithTimeout convention. No package in this module
// returns it.
var ErrTimeout = errors.New("operation timed out")

var rxTotal, txTotal int64

// GetLoggedBandwidth reports cumulative bytes read/written across every
// LoggingConn created by this process; used in the machine protocol's
// periodic status lines.
func GetLoggedBandwidth() (int64, int64) {
	return atomic.LoadInt64(&rxTotal), atomic.LoadInt64(&txTotal)
}

// LoggingConn wraps a net.Conn (the validator peer's socket transport;
// the spawned-child pipe is not wrapped) and periodically logs bandwidth, the same instrumentation the teacher
// applies to its RPC connections in pkg/util/rpc.go.
type LoggingConn struct {
	net.Conn
	lg             *alog.Logger
	sent, received int64
	start          time.Time
	lastReport     time.Time
	mu             sync.Mutex
}

func MakeLoggingConn(c net.Conn, lg *alog.Logger) *LoggingConn {
	return &LoggingConn{
		Conn:       c,
		lg:         lg,
		start:      time.Now(),
		lastReport: time.Now(),
	}
}

func (c *LoggingConn) Read(b []byte) (n int, err error) {
	n, err = c.Conn.Read(b)
	atomic.AddInt64(&c.received, int64(n))
	atomic.AddInt64(&rxTotal, int64(n))
	c.maybeReport()
	return
}

func (c *LoggingConn) Write(b []byte) (n int, err error) {
	n, err = c.Conn.Write(b)
	atomic.AddInt64(&c.sent, int64(n))
	atomic.AddInt64(&txTotal, int64(n))
	c.maybeReport()
	return
}

func (c *LoggingConn) maybeReport() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.lastReport) > time.Minute {
		min := time.Since(c.start).Minutes()
		rec, sent := atomic.LoadInt64(&c.received), atomic.LoadInt64(&c.sent)
		if c.lg != nil {
			c.lg.Info("validator peer bandwidth",
				slog.Int64("bytes_received", rec),
				slog.Int("bytes_received_per_minute", int(float64(rec)/min)),
				slog.Int64("bytes_transmitted", sent),
				slog.Int("bytes_transmitted_per_minute", int(float64(sent)/min)))
		}
		c.lastReport = time.Now()
	}
}
