package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := Truncate("abcdef", 3); got != "abc...(truncated)" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for raw, want := range cases {
		if got := parseLevel(raw); got != want {
			t.Fatalf("parseLevel(%q)=%v want %v", raw, got, want)
		}
	}
}

func TestToFieldsKeepsErrors(t *testing.T) {
	fields := toFields(map[string]any{"err": errors.New("boom")})
	if len(fields) != 1 || fields[0].Type != zapcore.ErrorType {
		t.Fatalf("expected error field, got %+v", fields)
	}
}
