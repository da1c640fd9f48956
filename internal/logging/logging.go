// Package logging is the diagnostic channel of the todo client. It uses
// zerolog for structured logging and lumberjack for log file rotation.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a log level.
type Level = zerolog.Level

// Log levels for convenience.
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level Level

	// JSON enables JSON output format for the console writer
	JSON bool

	// FilePath is the path to the log file (empty for console only)
	FilePath string

	// MaxSize is the maximum size in megabytes before rotation
	MaxSize int

	// MaxBackups is the maximum number of old log files to retain
	MaxBackups int

	// MaxAge is the maximum number of days to retain old log files
	MaxAge int

	// Compress enables gzip compression of rotated files
	Compress bool

	// Console enables stderr output in addition to file output
	Console bool

	// Quiet suppresses stderr output entirely. Used while the TUI owns
	// the terminal.
	Quiet bool
}

// DefaultConfig returns the default logging configuration: warnings and
// above, human readable, to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:      WarnLevel,
		JSON:       false,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     7,
		Compress:   true,
	}
}

// Logger wraps zerolog.Logger with the fields the client cares about.
type Logger struct {
	zl        zerolog.Logger
	component string
	taskID    string
}

var (
	globalLogger *Logger
	loggerMu     sync.RWMutex
)

// Init initializes the global logger with the given configuration.
// If config is nil, defaults are used.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var writers []io.Writer

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return err
		}

		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	if !cfg.Quiet && (cfg.Console || cfg.FilePath == "") {
		if cfg.JSON {
			writers = append(writers, os.Stderr)
		} else {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: time.RFC3339,
			})
		}
	}

	var output io.Writer
	switch len(writers) {
	case 0:
		output = io.Discard
	case 1:
		output = writers[0]
	default:
		output = zerolog.MultiLevelWriter(writers...)
	}

	setGlobal(New(output, cfg.Level))
	return nil
}

// New creates a logger writing to w. Mostly useful in tests.
func New(w io.Writer, level Level) *Logger {
	zl := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
	return &Logger{zl: zl}
}

// SetGlobal replaces the global logger.
func SetGlobal(l *Logger) {
	setGlobal(l)
}

func setGlobal(l *Logger) {
	loggerMu.Lock()
	globalLogger = l
	loggerMu.Unlock()
}

// Get returns the global logger, initializing with defaults if needed.
func Get() *Logger {
	loggerMu.RLock()
	l := globalLogger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}

	_ = Init(nil)

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return globalLogger
}

func (l *Logger) derive(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl, component: l.component, taskID: l.taskID}
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	nl := l.derive(l.zl.With().Str("component", component).Logger())
	nl.component = component
	return nl
}

// WithTaskID returns a new logger with the task_id field set.
func (l *Logger) WithTaskID(taskID string) *Logger {
	nl := l.derive(l.zl.With().Str("task_id", taskID).Logger())
	nl.taskID = taskID
	return nl
}

// WithField returns a new logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.derive(l.zl.With().Interface(key, value).Logger())
}

// WithFields returns a new logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zl.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return l.derive(ctx.Logger())
}

// WithError returns a new logger with the error field set.
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zl.With().Err(err).Logger())
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.zl.Debug().Msg(msg)
}

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.zl.Info().Msg(msg)
}

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.zl.Warn().Msg(msg)
}

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string) {
	l.zl.Error().Msg(msg)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

// ParseLevel parses a level string into a Level.
func ParseLevel(level string) (Level, error) {
	return zerolog.ParseLevel(level)
}

// Convenience functions that use the global logger

// Debug logs a debug message using the global logger.
func Debug(msg string) {
	Get().Debug(msg)
}

// Info logs an info message using the global logger.
func Info(msg string) {
	Get().Info(msg)
}

// Warn logs a warning message using the global logger.
func Warn(msg string) {
	Get().Warn(msg)
}

// Error logs an error message using the global logger.
func Error(msg string) {
	Get().Error(msg)
}

// WithComponent returns a new logger with component set.
func WithComponent(component string) *Logger {
	return Get().WithComponent(component)
}

// WithTaskID returns a new logger with task_id set.
func WithTaskID(taskID string) *Logger {
	return Get().WithTaskID(taskID)
}

// WithField returns a new logger with an additional field.
func WithField(key string, value interface{}) *Logger {
	return Get().WithField(key, value)
}

// WithFields returns a new logger with additional fields.
func WithFields(fields map[string]interface{}) *Logger {
	return Get().WithFields(fields)
}

// WithError returns a new logger with the error set.
func WithError(err error) *Logger {
	return Get().WithError(err)
}

// Settings mirrors the logging section of the config file.
type Settings struct {
	Level      string
	FilePath   string
	JSON       bool
	Console    bool
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// InitFromSettings initializes the logger from config file settings.
// quiet suppresses stderr output regardless of the settings.
func InitFromSettings(s Settings, quiet bool) error {
	cfg := DefaultConfig()

	if s.Level != "" {
		level, err := ParseLevel(s.Level)
		if err != nil {
			return err
		}
		cfg.Level = level
	}

	cfg.FilePath = s.FilePath
	cfg.JSON = s.JSON
	cfg.Console = s.Console
	cfg.Quiet = quiet

	if s.MaxSize > 0 {
		cfg.MaxSize = s.MaxSize
	}
	if s.MaxBackups > 0 {
		cfg.MaxBackups = s.MaxBackups
	}
	if s.MaxAge > 0 {
		cfg.MaxAge = s.MaxAge
	}
	cfg.Compress = s.Compress

	return Init(cfg)
}
