package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Verbosity levels: 0=error, 1=warn, 2=info, 3=debug.
func VerbosityToLevel(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelError
	case v == 1:
		return slog.LevelWarn
	case v == 2:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Init installs the process-wide slog logger. format is "text" or "json".
func Init(verbosity int, format string) error {
	return InitWriter(os.Stderr, verbosity, format)
}

func InitWriter(w io.Writer, verbosity int, format string) error {
	opts := &slog.HandlerOptions{Level: VerbosityToLevel(verbosity)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// Component returns a logger tagged with component name.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}

// Summary totals of a run
type Summary struct {
	Resized      int
	Deleted      int
	UpToDate     int
	Errors       int
	BytesWritten int64
	Duration     time.Duration
}

// PrintSummary prints a summary of the run
func PrintSummary(w io.Writer, quiet bool, s Summary) {
	if quiet && s.Errors == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Summary ===")
	fmt.Fprintf(w, "Resized: %d derivatives (%s)\n", s.Resized, formatBytes(s.BytesWritten))
	fmt.Fprintf(w, "Deleted: %d derivatives\n", s.Deleted)
	fmt.Fprintf(w, "Up to date: %d sources\n", s.UpToDate)
	if s.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	}
	fmt.Fprintf(w, "Duration: %s\n", s.Duration.Round(time.Millisecond))
}

// formatBytes formats bytes in human readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
