// Package log provides the leveled printf-style logger used across netxlate.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"netxlate/internal/core"
)

// Level is a log severity.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (lv Level) String() string {
	switch lv {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "LOG"
	}
}

// AppLogger writes "[LEVEL] message" lines. A nil *AppLogger discards everything.
type AppLogger struct {
	logger *log.Logger
	floor  Level
	file   *os.File
	mu     sync.Mutex
	exit   func(int)
}

// New creates a logger writing to output. Debug lines are dropped unless debug is set.
func New(output io.Writer, debug bool) *AppLogger {
	floor := INFO
	if debug {
		floor = DEBUG
	}
	return &AppLogger{
		logger: log.New(output, "", log.LstdFlags),
		floor:  floor,
		exit:   os.Exit,
	}
}

// Open creates a logger that appends to debugFile, or stdout when debugFile
// is empty or unusable. Rejected paths are reported as warnings on stdout.
func Open(debugFile string, debug bool) *AppLogger {
	if debugFile == "" {
		return New(os.Stdout, debug)
	}

	reason := ""
	switch {
	case len(debugFile) > core.MaxDebugFilePathLength:
		reason = "path too long"
	case containsPathTraversal(debugFile):
		reason = "path contains traversal characters"
	}
	if reason == "" {
		//nolint:gosec // G304: path validated above
		file, err := os.OpenFile(debugFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, core.FilePermissionReadWrite)
		if err == nil {
			l := New(file, debug)
			l.file = file
			return l
		}
		reason = err.Error()
	}

	l := New(os.Stdout, debug)
	l.Warn("DEBUG_FILE %q not used (%s), falling back to stdout", debugFile, reason)
	return l
}

// IsDebug reports whether ginMode selects debug logging.
func IsDebug(ginMode string) bool {
	return ginMode == "debug"
}

func (l *AppLogger) Debug(format string, args ...any) { l.logf(DEBUG, format, args...) }
func (l *AppLogger) Info(format string, args ...any)  { l.logf(INFO, format, args...) }
func (l *AppLogger) Warn(format string, args ...any)  { l.logf(WARN, format, args...) }
func (l *AppLogger) Error(format string, args ...any) { l.logf(ERROR, format, args...) }

// Fatal logs and terminates the process.
func (l *AppLogger) Fatal(format string, args ...any) {
	if l == nil {
		fmt.Fprintf(os.Stderr, "[FATAL] "+format+"\n", args...)
		os.Exit(1)
	}
	l.logf(FATAL, format, args...)
	l.exit(1)
}

func (l *AppLogger) logf(level Level, format string, args ...any) {
	if l == nil || level < l.floor {
		return
	}
	l.logger.Printf("["+level.String()+"] "+format, args...)
}

// Close releases the debug file, if any.
func (l *AppLogger) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func containsPathTraversal(path string) bool {
	return strings.Contains(path, "..")
}
