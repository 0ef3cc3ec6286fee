// Package logging provides the injected logger capability used throughout
// the HLS video session subsystem. It mirrors the reference receiver's
// logger: an independent mutex guards the level, a second independent mutex
// guards the sink, so raising the log level never blocks a write in flight.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is a log severity, ordered least to most verbose.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

func parseLevel(s string) Level {
	switch s {
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Logger is a level-gated sink, safe for concurrent use from the forward,
// reverse, and local HLS connection goroutines.
type Logger struct {
	lvlMu sync.RWMutex
	level Level

	sinkMu sync.Mutex
	out    *log.Logger
}

// Config configures the rotating file sink. File empty means stdout only.
type Config struct {
	File       string
	Level      string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// New builds a Logger from Config, creating the log directory if needed.
func New(cfg Config) *Logger {
	var w io.Writer = os.Stdout
	if cfg.File != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}
	return &Logger{
		level: parseLevel(cfg.Level),
		out:   log.New(w, "", log.LstdFlags),
	}
}

// SetLevel changes the minimum level logged; safe to call concurrently with Logf.
func (l *Logger) SetLevel(level Level) {
	l.lvlMu.Lock()
	l.level = level
	l.lvlMu.Unlock()
}

func (l *Logger) enabled(level Level) bool {
	l.lvlMu.RLock()
	defer l.lvlMu.RUnlock()
	return level <= l.level
}

// Logf writes a formatted line at level if the current level permits it.
func (l *Logger) Logf(level Level, format string, args ...interface{}) {
	if !l.enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.sinkMu.Lock()
	l.out.Printf("[%s] %s", level, msg)
	l.sinkMu.Unlock()
}

func (l *Logger) Errorf(format string, args ...interface{}) { l.Logf(LevelError, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.Logf(LevelWarn, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.Logf(LevelInfo, format, args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.Logf(LevelDebug, format, args...) }
