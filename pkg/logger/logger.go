package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Logger reports what the executor does to derivatives.
type Logger interface {
	Resize(source, destination string)
	Delete(path string)
	Error(operation, path string, err error)
	Debug(message string)
}

// SyncLogger prints one line per action, AWS CLI style:
//
//	resize: /orig/a.jpg to /resized/a-thumb.jpg
//	(dryrun) delete: /resized/old-thumb.jpg
//
// Errors and debug messages go through slog.
type SyncLogger struct {
	IsDryRun bool
	IsQuiet  bool

	// Out defaults to stdout.
	Out io.Writer

	mu sync.Mutex
}

func (l *SyncLogger) Resize(source, destination string) {
	l.action(fmt.Sprintf("resize: %s to %s", source, destination))
}

func (l *SyncLogger) Delete(path string) {
	l.action(fmt.Sprintf("delete: %s", path))
}

func (l *SyncLogger) Error(operation, path string, err error) {
	slog.Error(operation+" failed", "path", path, "error", err)
}

func (l *SyncLogger) Debug(message string) {
	if l.IsQuiet {
		return
	}
	slog.Debug(message)
}

func (l *SyncLogger) action(line string) {
	if l.IsQuiet {
		return
	}
	if l.IsDryRun {
		line = "(dryrun) " + line
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, line)
}

type NullLogger struct{}

func (l *NullLogger) Resize(source, destination string) {}

func (l *NullLogger) Delete(path string) {}

func (l *NullLogger) Error(operation, path string, err error) {}

func (l *NullLogger) Debug(message string) {}
