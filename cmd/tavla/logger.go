package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/hylla/tavla/internal/config"
	"github.com/hylla/tavla/internal/platform"
)

// defaultDevLogDir holds dev-mode log files, relative to the working directory.
const defaultDevLogDir = ".tavla/log"

// runtimeLogger writes command flow events to stderr and, in dev mode, to a
// daily logfmt file. The console half is muted while the board owns the terminal.
type runtimeLogger struct {
	console *charmLog.Logger
	file    *charmLog.Logger
	logFile *os.File
	muted   bool
}

// newRuntimeLogger builds the console logger and opens the dev log file when enabled.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}
	l := &runtimeLogger{console: newSink(stderr, level, appName, charmLog.TextFormatter)}
	if !devMode || !cfg.DevFile.Enabled {
		return l, nil
	}

	if now == nil {
		now = time.Now
	}
	path, err := devLogPath(cfg.DevFile.Dir, appName, now().UTC())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}
	l.logFile = f
	l.file = newSink(f, level, appName, charmLog.LogfmtFormatter)
	return l, nil
}

func newSink(w io.Writer, level charmLog.Level, prefix string, f charmLog.Formatter) *charmLog.Logger {
	return charmLog.NewWithOptions(w, charmLog.Options{
		Level:           level,
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       f,
	})
}

// FilePath returns the dev log file path, or "" when file logging is off.
func (l *runtimeLogger) FilePath() string {
	if l == nil || l.logFile == nil {
		return ""
	}
	return l.logFile.Name()
}

// Close closes the dev log file.
func (l *runtimeLogger) Close() error {
	if l == nil || l.logFile == nil {
		return nil
	}
	return l.logFile.Close()
}

// MuteConsole stops console output; the dev log file keeps receiving events.
func (l *runtimeLogger) MuteConsole() {
	if l != nil {
		l.muted = true
	}
}

// Component returns a logger for one subsystem, prefixed "<app>/<name>".
// While the console is muted it writes to the dev log file, or nowhere.
func (l *runtimeLogger) Component(name string) *charmLog.Logger {
	sink := l.activeSink()
	if sink == nil {
		return charmLog.New(io.Discard)
	}
	return sink.WithPrefix(sink.GetPrefix() + "/" + name)
}

func (l *runtimeLogger) activeSink() *charmLog.Logger {
	switch {
	case l == nil:
		return nil
	case !l.muted:
		return l.console
	default:
		return l.file
	}
}

func (l *runtimeLogger) Debug(msg string, keyvals ...any) { l.log(charmLog.DebugLevel, msg, keyvals) }
func (l *runtimeLogger) Info(msg string, keyvals ...any)  { l.log(charmLog.InfoLevel, msg, keyvals) }
func (l *runtimeLogger) Warn(msg string, keyvals ...any)  { l.log(charmLog.WarnLevel, msg, keyvals) }
func (l *runtimeLogger) Error(msg string, keyvals ...any) { l.log(charmLog.ErrorLevel, msg, keyvals) }

// log writes to the console unless muted, and always to the dev log file.
func (l *runtimeLogger) log(level charmLog.Level, msg string, keyvals []any) {
	if l == nil {
		return
	}
	if !l.muted {
		l.console.Log(level, msg, keyvals...)
	}
	if l.file != nil {
		l.file.Log(level, msg, keyvals...)
	}
}

// devLogPath resolves <dir>/<app>-YYYYMMDD.log. Relative dirs resolve against the working directory.
func devLogPath(dir, appName string, day time.Time) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultDevLogDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve dev log dir: %w", err)
	}
	stem := strings.Trim(strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-").Replace(strings.TrimSpace(appName)), "-")
	if stem == "" {
		stem = platform.DefaultAppName
	}
	return filepath.Join(abs, fmt.Sprintf("%s-%s.log", stem, day.Format("20060102"))), nil
}
