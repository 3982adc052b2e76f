package log

import (
	"bytes"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, name string) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	return ForService(name), buf
}

func TestPrefixAndLevel(t *testing.T) {
	SetGlobalDebug(false)

	const name = "prefix_service_test"
	l, buf := newTestLogger(t, name)

	l.Infof("hello %s", "world")
	out := buf.String()

	if !strings.Contains(out, "INFO ["+name+">] hello world") {
		t.Fatalf("expected level, prefix and message, got: %q", out)
	}
}

func TestDebugPerService(t *testing.T) {
	SetGlobalDebug(false)

	const name = "debug_service_specific"
	DisableDebugFor(name)
	l, buf := newTestLogger(t, name)

	l.Debugf("should not appear")
	if strings.Contains(buf.String(), "should not appear") {
		t.Fatalf("debug message appeared while debug disabled")
	}

	EnableDebugFor(name)
	defer DisableDebugFor(name)
	l.Debugf("visible now")
	if !strings.Contains(buf.String(), "visible now") {
		t.Fatalf("expected debug message after enabling per-service debug; got: %q", buf.String())
	}
}

func TestDebugGlobal(t *testing.T) {
	SetGlobalDebug(false)

	const name = "debug_service_global"
	DisableDebugFor(name)
	l, buf := newTestLogger(t, name)

	l.Debugf("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug message appeared while global debug disabled")
	}

	SetGlobalDebug(true)
	defer SetGlobalDebug(false)

	l.Debugf("global visible")
	if !strings.Contains(buf.String(), "global visible") {
		t.Fatalf("expected debug message after enabling global debug; got: %q", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	const name = "fields_service_test"
	l, buf := newTestLogger(t, name)

	l.With("generation", 3).With("country", "United States").Warnf("stale")
	out := buf.String()

	if !strings.Contains(out, "WARN ["+name+">] stale generation=3 country=\"United States\"") {
		t.Fatalf("expected fields after message, got: %q", out)
	}

	buf.Reset()
	l.Infof("plain")
	if strings.Contains(buf.String(), "generation=") {
		t.Fatalf("fields leaked into parent logger: %q", buf.String())
	}
}

func TestForServiceMemoized(t *testing.T) {
	a := ForService("memo")
	b := ForService("memo")
	if a != b {
		t.Fatal("expected the same logger instance for the same name")
	}
	if ForService("").Name() != "prospect" {
		t.Fatalf("expected default name for empty service")
	}
}
