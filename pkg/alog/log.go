// pkg/alog/log.go
package alog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog.Logger with call-stack annotated Debug/Info/Warn/Error
// methods and a handle to the rotating log file backing it. A nil *Logger
// is valid: Debug/Info calls on it are silently discarded, matching the
// convenience the rest of the engine relies on when a component is built
// without a logger (e.g. in unit tests).
type Logger struct {
	*slog.Logger
	LogFile string
	Start   time.Time
}

// New creates a Logger that writes newline-delimited JSON to a rotating
// file under dir (or a per-OS default config directory if dir is empty).
// server controls the rotation policy: servers (the Iteration Controller
// run headless) keep more history than an interactive CLI invocation.
func New(server bool, level string, dir string) *Logger {
	if dir == "" {
		if server {
			dir = "cfmuautoroute-logs"
		} else {
			var err error
			dir, err = os.UserConfigDir()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Unable to find user config dir: %v\n", err)
				dir = "."
			}
			dir = filepath.Join(dir, "cfmuautoroute")
		}
	}

	var w *lumberjack.Logger
	if server {
		w = &lumberjack.Logger{
			Filename: filepath.Join(dir, "autoroute.log"),
			MaxSize:  64, // MB
			MaxAge:   14,
			Compress: true,
		}
	} else {
		w = &lumberjack.Logger{
			Filename:   filepath.Join(dir, "autoroute-cli.log"),
			MaxSize:    32, // MB
			MaxBackups: 1,
		}
		if level == "debug" {
			w.MaxSize = 512
		}
	}

	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "":
		// keep default
	default:
		fmt.Fprintf(os.Stderr, "%s: invalid log level\n", level)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	l := &Logger{
		Logger:  slog.New(h),
		LogFile: w.Filename,
		Start:   time.Now(),
	}

	l.Info("Hello logging", slog.Time("start", time.Now()))
	l.Info("System information",
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("GOOS", runtime.GOOS),
		slog.Int("NumCPUs", runtime.NumCPU()))

	if bi, ok := debug.ReadBuildInfo(); ok {
		l.Info("Build", slog.String("go_version", bi.GoVersion), slog.String("path", bi.Path))
	}

	return l
}

// Discard returns a Logger that drops everything; useful in tests and as
// a zero-value-safe default.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 100}))}
}

func (l *Logger) Debug(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(nil, slog.LevelDebug) {
		args = append([]any{slog.Any("callstack", Callstack(nil))}, args...)
		l.Logger.Debug(msg, args...)
	}
}

func (l *Logger) Debugf(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(nil, slog.LevelDebug) {
		l.Logger.Debug(fmt.Sprintf(msg, args...), slog.Any("callstack", Callstack(nil)))
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(nil, slog.LevelInfo) {
		args = append([]any{slog.Any("callstack", Callstack(nil))}, args...)
		l.Logger.Info(msg, args...)
	}
}

func (l *Logger) Infof(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(nil, slog.LevelInfo) {
		l.Logger.Info(fmt.Sprintf(msg, args...), slog.Any("callstack", Callstack(nil)))
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	if l != nil {
		args = append([]any{slog.Any("callstack", Callstack(nil))}, args...)
		l.Logger.Warn(msg, args...)
	}
}

func (l *Logger) Warnf(msg string, args ...any) {
	if l != nil {
		l.Logger.Warn(fmt.Sprintf(msg, args...), slog.Any("callstack", Callstack(nil)))
	}
}

func (l *Logger) Error(msg string, args ...any) {
	if l != nil {
		args = append([]any{slog.Any("callstack", Callstack(nil))}, args...)
		l.Logger.Error(msg, args...)
	}
}

func (l *Logger) Errorf(msg string, args ...any) {
	if l != nil {
		l.Logger.Error(fmt.Sprintf(msg, args...), slog.Any("callstack", Callstack(nil)))
	}
}

func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{Logger: l.Logger.With(args...), LogFile: l.LogFile, Start: l.Start}
}

// CatchAndReportCrash recovers a panic in the calling goroutine, logs it,
// and swallows it when deferred at the top of a goroutine. No goroutine
// in this module defers it; the validator peer's reader goroutine, for
// one, does not recover panics.
func (l *Logger) CatchAndReportCrash() {
	if err := recover(); err != nil {
		l.Error("panic recovered", slog.Any("panic", err), slog.Any("callstack", Callstack(nil)))
	}
}
