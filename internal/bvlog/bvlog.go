// Package bvlog provides the viewer's debug log. While the TUI is
// running, stdout and stderr belong to the terminal, so diagnostics go
// to a side file, enabled with --log and filtered by --log-level.
package bvlog

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel maps a config/flag string onto a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// Logger appends one line per event to the log file. Events below the
// minimum level are dropped.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	min  Level
}

// Log is the global logger. It stays disabled until Init points it at
// a file.
var Log = &Logger{}

// Init opens path for appending and sets the level gate. An empty path
// leaves logging disabled.
func Init(path string, min Level) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	Log.mu.Lock()
	Log.file = f
	Log.min = min
	Log.mu.Unlock()

	Log.Info("session start", "pid", os.Getpid(), "level", min)
	return nil
}

// Close closes the log file and disables the logger.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Enabled reports whether events at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file != nil && level >= l.min
}

func (l *Logger) log(level Level, msg string, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil || level < l.min {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %-5s %s", time.Now().Format("2006-01-02T15:04:05.000"), level, msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", keyvals[i], keyvals[i+1])
	}
	if len(keyvals)%2 != 0 {
		fmt.Fprintf(&sb, " %v=?", keyvals[len(keyvals)-1])
	}
	sb.WriteByte('\n')
	l.file.WriteString(sb.String())
}

// Debug logs at debug level with optional key-value pairs.
func (l *Logger) Debug(msg string, keyvals ...any) { l.log(LevelDebug, msg, keyvals...) }

// Info logs at info level with optional key-value pairs.
func (l *Logger) Info(msg string, keyvals ...any) { l.log(LevelInfo, msg, keyvals...) }

// Warn logs at warn level with optional key-value pairs.
func (l *Logger) Warn(msg string, keyvals ...any) { l.log(LevelWarn, msg, keyvals...) }

// Error logs at error level with optional key-value pairs.
func (l *Logger) Error(msg string, keyvals ...any) { l.log(LevelError, msg, keyvals...) }

// Viewport logs one debug snapshot of the viewer's positional state,
// the fields every motion bug report needs. Fields are emitted in a
// fixed order so log lines diff cleanly between events.
func (l *Logger) Viewport(event string, fields map[string]int) {
	if !l.Enabled(LevelDebug) {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	keyvals := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		keyvals = append(keyvals, k, fields[k])
	}
	l.log(LevelDebug, "viewport "+event, keyvals...)
}
