package obslog

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q)=%v want %v", in, got, want)
		}
	}
}

func TestOptionsFromEnvFallsBackToLegacy(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("LOG_TO_FILE", "false")
	opts := OptionsFromEnv()
	if opts.Format != "legacy" {
		t.Fatalf("format=%q", opts.Format)
	}
	if opts.ToFile {
		t.Fatalf("file logging should be off")
	}
}

func TestNamedUsesReplacedLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	Named("attendance").Info("attendance_query", zap.String("channel", "c1"))
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries=%d", len(entries))
	}
	if entries[0].LoggerName != "attendance" {
		t.Fatalf("logger name=%q", entries[0].LoggerName)
	}
	if entries[0].ContextMap()["channel"] != "c1" {
		t.Fatalf("fields=%v", entries[0].ContextMap())
	}
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	l, err := New(Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if l.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("expected nop logger")
	}
}
