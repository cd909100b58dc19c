package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		v    int
		want slog.Level
	}{
		{-1, slog.LevelError},
		{0, slog.LevelError},
		{1, slog.LevelWarn},
		{2, slog.LevelInfo},
		{3, slog.LevelDebug},
		{9, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := VerbosityToLevel(tt.v); got != tt.want {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestInitWriter(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	if err := InitWriter(&buf, 2, "json"); err != nil {
		t.Fatalf("InitWriter() unexpected error: %v", err)
	}
	Component("planner").Info("planned", "jobs", 3)
	slog.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, `"component":"planner"`) || !strings.Contains(out, `"jobs":3`) {
		t.Errorf("unexpected log output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged at info verbosity: %s", out)
	}

	if err := InitWriter(&buf, 2, "xml"); err == nil {
		t.Error("InitWriter() accepted an unknown format")
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, true, Summary{Resized: 2})
	if buf.Len() != 0 {
		t.Errorf("quiet summary without errors printed %q", buf.String())
	}

	PrintSummary(&buf, true, Summary{Resized: 2, Errors: 1, BytesWritten: 2048, Duration: 1500 * time.Millisecond})
	out := buf.String()
	for _, want := range []string{"Resized: 2 derivatives (2.0 KB)", "Errors: 1", "Duration: 1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
