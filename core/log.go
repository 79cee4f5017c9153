// Package core holds the forwarder's ambient, cross-cutting state: the
// structured logger, the loaded configuration, the injectable clock, and
// the process-wide shutdown flag. Every other package depends on core;
// core depends on nothing else in this module.
package core

import (
	"fmt"
	"os"

	stdlog "github.com/gonfd/gonfd/std/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// traceLevel sits one notch below zapcore.DebugLevel so Trace-level calls
// (the hot per-packet path) can be silenced independently of Debug, which
// zap has no built-in level for.
const traceLevel = zapcore.Level(-2)

func levelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == traceLevel {
		enc.AppendString("TRACE")
		return
	}
	zapcore.CapitalLevelEncoder(l, enc)
}

func toZapLevel(l stdlog.Level) zapcore.Level {
	switch l {
	case stdlog.LevelTrace:
		return traceLevel
	case stdlog.LevelDebug:
		return zapcore.DebugLevel
	case stdlog.LevelWarn:
		return zapcore.WarnLevel
	case stdlog.LevelError:
		return zapcore.ErrorLevel
	case stdlog.LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logging is the forwarder-wide structured logger. Every call site passes
// the logging subject (the component emitting the line) as the first
// argument, logged under the "module" key via its String() method - this
// mirrors how each transport, listener, and strategy names itself.
type Logging struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// Log is the process-wide logger instance. cmd/gonfd swaps its level after
// parsing the config file; until then it logs at Info.
var Log = newLogging(stdlog.LevelInfo)

func newLogging(lvl stdlog.Level) *Logging {
	level := zap.NewAtomicLevelAt(toZapLevel(lvl))
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "module",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	c := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	return &Logging{sugar: zap.New(c).Sugar(), level: level}
}

// SetLevel adjusts the minimum level logged at runtime.
func (l *Logging) SetLevel(lvl stdlog.Level) { l.level.SetLevel(toZapLevel(lvl)) }

func subjectName(subject any) string {
	if s, ok := subject.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", subject)
}

func (l *Logging) log(lvl zapcore.Level, subject any, msg string, kv ...any) {
	args := append([]any{"module", subjectName(subject)}, kv...)
	switch lvl {
	case traceLevel:
		if l.level.Enabled(traceLevel) {
			l.sugar.Debugw(msg, args...)
		}
	case zapcore.DebugLevel:
		l.sugar.Debugw(msg, args...)
	case zapcore.InfoLevel:
		l.sugar.Infow(msg, args...)
	case zapcore.WarnLevel:
		l.sugar.Warnw(msg, args...)
	case zapcore.ErrorLevel:
		l.sugar.Errorw(msg, args...)
	case zapcore.FatalLevel:
		l.sugar.Fatalw(msg, args...)
	}
}

// Trace logs the hottest, per-packet-path detail (PIT/FIB/CS lookups,
// strategy decisions).
func (l *Logging) Trace(subject any, msg string, kv ...any) { l.log(traceLevel, subject, msg, kv...) }

// Debug logs detail useful while diagnosing a specific face or table.
func (l *Logging) Debug(subject any, msg string, kv ...any) {
	l.log(zapcore.DebugLevel, subject, msg, kv...)
}

// Info logs expected lifecycle events (face up/down, listener started).
func (l *Logging) Info(subject any, msg string, kv ...any) {
	l.log(zapcore.InfoLevel, subject, msg, kv...)
}

// Warn logs a recoverable anomaly (dropped frame, oversized packet).
func (l *Logging) Warn(subject any, msg string, kv ...any) {
	l.log(zapcore.WarnLevel, subject, msg, kv...)
}

// Error logs a failure that degrades but does not stop the forwarder.
func (l *Logging) Error(subject any, msg string, kv ...any) {
	l.log(zapcore.ErrorLevel, subject, msg, kv...)
}

// Fatal logs an unrecoverable failure and terminates the process.
func (l *Logging) Fatal(subject any, msg string, kv ...any) {
	l.log(zapcore.FatalLevel, subject, msg, kv...)
}
