package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const filePrefix = "bootstrap-"

// Logger writes the per-run bootstrap log: every line goes to stdout and
// to a timestamp-qualified file so operators can diagnose a failed run
// without re-running it. Lines have the shape
// "<timestamp> <component> [<LEVEL>]: <message>".
type Logger struct {
	std  *log.Logger
	file *os.File
	path string
}

// New creates the log directory (restricted to the owning user) and opens
// a fresh per-run log file inside it.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("ensure log directory %s: %w", dir, err)
	}

	name := filePrefix + time.Now().Format("20060102-150405") + ".log"
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	mw := io.MultiWriter(os.Stdout, f)
	return &Logger{
		std:  log.New(mw, "", log.LstdFlags|log.Lmicroseconds),
		file: f,
		path: path,
	}, nil
}

// Discard returns a logger that drops everything; for tests
func Discard() *Logger {
	return &Logger{std: log.New(io.Discard, "", 0)}
}

// Path returns the location of the per-run log file, empty for Discard
func (l *Logger) Path() string {
	return l.path
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) Infof(component, format string, args ...any) {
	l.printf(component, "INFO", format, args...)
}

func (l *Logger) Warnf(component, format string, args ...any) {
	l.printf(component, "WARN", format, args...)
}

func (l *Logger) Errorf(component, format string, args ...any) {
	l.printf(component, "ERROR", format, args...)
}

func (l *Logger) printf(component, level, format string, args ...any) {
	l.std.Printf("%s [%s]: %s", component, level, fmt.Sprintf(format, args...))
}

// PruneOld removes per-run log files whose modification time is older
// than retentionDays. Failures are non-fatal; pruning is housekeeping,
// not part of the run's verdict.
func PruneOld(dir string, retentionDays int) {
	if retentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), filePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			full := filepath.Join(dir, entry.Name())
			if err := os.Remove(full); err != nil {
				log.Printf("failed to remove old log file %s: %v", full, err)
			}
		}
	}
}
