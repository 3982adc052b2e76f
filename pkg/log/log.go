// Package log provides named, leveled loggers for prospect components.
//
// Every component asks for its own logger with ForService and every line is
// prefixed with "[name>]" so interleaved output from the engine, the HTTP
// client and the web dashboard stays readable:
//
//	l := log.ForService("search")
//	l.Infof("committed page %d (%d leads)", page, n)
//	l.With("generation", gen).Debugf("discarding stale response")
//
// Debug output is off by default. It can be enabled for every logger with
// SetGlobalDebug or for a single service with EnableDebugFor.
//
// The package name collides with the standard library "log" package; alias
// one of them when both are needed:
//
//	stdlog "log"
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Level names rendered at the start of every line.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelDebug = "DEBUG"
)

// Logger is a named logger. Derived loggers created with With share the
// underlying writer and debug settings of their parent service.
type Logger struct {
	name   string
	std    *log.Logger
	fields string
}

// writerHolder keeps atomic.Value storing a single concrete type regardless
// of the writer assigned by SetOutput.
type writerHolder struct {
	w io.Writer
}

var (
	globalDebug  atomic.Bool
	serviceDebug sync.Map // map[string]*atomic.Bool
	loggers      sync.Map // map[string]*Logger
	outputWriter atomic.Value
)

func init() {
	outputWriter.Store(writerHolder{w: os.Stderr})
}

// ForService returns the memoized logger for name.
func ForService(name string) *Logger {
	if name == "" {
		name = "prospect"
	}
	if l, ok := loggers.Load(name); ok {
		return l.(*Logger)
	}
	current := outputWriter.Load().(writerHolder).w
	logger := &Logger{
		name: name,
		std:  log.New(current, "", log.LstdFlags|log.Lmicroseconds),
	}
	actual, _ := loggers.LoadOrStore(name, logger)
	return actual.(*Logger)
}

// SetGlobalDebug enables or disables debug logging for every service.
func SetGlobalDebug(enabled bool) {
	globalDebug.Store(enabled)
}

// GlobalDebug reports whether debug logging is enabled globally.
func GlobalDebug() bool {
	return globalDebug.Load()
}

// EnableDebugFor enables debug logging for a single service.
func EnableDebugFor(name string) {
	if name == "" {
		return
	}
	val, _ := serviceDebug.LoadOrStore(name, &atomic.Bool{})
	val.(*atomic.Bool).Store(true)
}

// DisableDebugFor disables debug logging for a single service.
func DisableDebugFor(name string) {
	if val, ok := serviceDebug.Load(name); ok {
		val.(*atomic.Bool).Store(false)
	}
}

// DebugEnabledFor reports whether debug lines for name are emitted.
func DebugEnabledFor(name string) bool {
	if globalDebug.Load() {
		return true
	}
	if val, ok := serviceDebug.Load(name); ok {
		return val.(*atomic.Bool).Load()
	}
	return false
}

// SetOutput redirects all existing and future loggers to w.
func SetOutput(w io.Writer) {
	if w == nil {
		return
	}
	outputWriter.Store(writerHolder{w: w})
	loggers.Range(func(_, v any) bool {
		v.(*Logger).std.SetOutput(w)
		return true
	})
}

// With returns a logger that appends key=value to every line.
func (l *Logger) With(key string, value any) *Logger {
	field := fmt.Sprintf("%s=%v", key, value)
	if strings.ContainsAny(field, " \t") {
		field = fmt.Sprintf("%s=%q", key, fmt.Sprint(value))
	}
	fields := field
	if l.fields != "" {
		fields = l.fields + " " + field
	}
	return &Logger{name: l.name, std: l.std, fields: fields}
}

// Name returns the service name of the logger.
func (l *Logger) Name() string {
	return l.name
}

func (l *Logger) output(level, msg string) {
	line := level + " [" + l.name + ">] " + msg
	if l.fields != "" {
		line += " " + l.fields
	}
	l.std.Println(line)
}

// Infof logs an informational message.
func (l *Logger) Infof(format string, args ...any) {
	l.output(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf logs a warning.
func (l *Logger) Warnf(format string, args ...any) {
	l.output(LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf logs an error.
func (l *Logger) Errorf(format string, args ...any) {
	l.output(LevelError, fmt.Sprintf(format, args...))
}

// Debugf logs a message when debug is enabled for the logger's service.
func (l *Logger) Debugf(format string, args ...any) {
	if !DebugEnabledFor(l.name) {
		return
	}
	l.output(LevelDebug, fmt.Sprintf(format, args...))
}
