package rollgate

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is the internal logging surface workers and the facade write
// diagnostic output through. Errors are never surfaced to callers (see
// the error-handling design) — the log sink is the only observability
// channel for background-worker failures.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// logrusLogger adapts *logrus.Logger to Logger, carrying structured
// fields via logrus.Fields built from the args pairs.
type logrusLogger struct {
	entry *logrus.Logger
}

// NewDefaultLogger returns a Logger backed by logrus writing to stderr
// in text format.
func NewDefaultLogger() Logger {
	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	return &logrusLogger{entry: l}
}

// DiscardLogger returns a Logger whose output is silenced, for tests and
// for callers who don't want any log output.
func DiscardLogger() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logrusLogger{entry: l}
}

func fields(args []any) logrus.Fields {
	f := make(logrus.Fields, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		f[key] = args[i+1]
	}
	return f
}

func (l *logrusLogger) Debug(msg string, args ...any) { l.entry.WithFields(fields(args)).Debug(msg) }
func (l *logrusLogger) Info(msg string, args ...any)  { l.entry.WithFields(fields(args)).Info(msg) }
func (l *logrusLogger) Warn(msg string, args ...any)  { l.entry.WithFields(fields(args)).Warn(msg) }
func (l *logrusLogger) Error(msg string, args ...any) { l.entry.WithFields(fields(args)).Error(msg) }

// NopLogger discards all output without going through logrus, for
// callers that construct a Logger directly rather than via
// NewDefaultLogger/DiscardLogger.
type NopLogger struct{}

func (NopLogger) Debug(msg string, args ...any) {}
func (NopLogger) Info(msg string, args ...any)  {}
func (NopLogger) Warn(msg string, args ...any)  {}
func (NopLogger) Error(msg string, args ...any) {}

var logLevelNumeric = map[logrus.Level]int{
	logrus.DebugLevel: 0,
	logrus.InfoLevel:  1,
	logrus.WarnLevel:  2,
	logrus.ErrorLevel: 3,
}

func logLevelsAtOrAbove(minLevel int) []logrus.Level {
	all := []logrus.Level{logrus.DebugLevel, logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
	out := make([]logrus.Level, 0, len(all))
	for _, lvl := range all {
		if logLevelNumeric[lvl] >= minLevel {
			out = append(out, lvl)
		}
	}
	return out
}

// sinkHook adapts a plain sink function to logrus.Hook so SetLogSink can
// attach it without requiring callers to import logrus themselves.
type sinkHook struct {
	levels []logrus.Level
	sink   func(level int, message string)
}

func (h *sinkHook) Levels() []logrus.Level { return h.levels }

func (h *sinkHook) Fire(entry *logrus.Entry) error {
	h.sink(logLevelNumeric[entry.Level], entry.Message)
	return nil
}

// SetLogSink directs internal log messages at or above minLevel to sink.
// Numeric levels follow logLevelsAtOrAbove: 0=debug, 1=info, 2=warn,
// 3=error. A no-op unless logger came from NewDefaultLogger or
// DiscardLogger.
func SetLogSink(logger Logger, minLevel int, sink func(level int, message string)) {
	ll, ok := logger.(*logrusLogger)
	if !ok {
		return
	}
	ll.entry.AddHook(&sinkHook{levels: logLevelsAtOrAbove(minLevel), sink: sink})
}
