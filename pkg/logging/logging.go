package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) ZerologLevel() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel // Default to INFO for unknown
	}
}

// ParseLevel converts a case-insensitive level name into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info", "information":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Config is the "Logging" configuration section.
type Config struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	mu            sync.RWMutex
	defaultLogger = newConsoleLogger(LevelInfo, os.Stdout)
)

func newConsoleLogger(level LogLevel, output io.Writer) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
		NoColor:    output != os.Stdout && output != os.Stderr,
	}
	return zerolog.New(console).Level(level.ZerologLevel()).With().Timestamp().Logger()
}

func newJSONLogger(level LogLevel, output io.Writer) zerolog.Logger {
	return zerolog.New(output).Level(level.ZerologLevel()).With().Timestamp().Logger()
}

// InitForCLI initializes the logging system for human readable console output.
// This should be called once at application startup.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	setDefault(newConsoleLogger(filterLevel, output))
}

// InitJSON initializes the logging system for line-delimited JSON output.
func InitJSON(filterLevel LogLevel, output io.Writer) {
	setDefault(newJSONLogger(filterLevel, output))
}

// Configure applies a Logging configuration section. An empty format means text.
func Configure(cfg Config, output io.Writer) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		InitForCLI(level, output)
	case FormatJSON:
		InitJSON(level, output)
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return nil
}

func setDefault(l zerolog.Logger) {
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func logInternal(base zerolog.Logger, level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	event := base.WithLevel(level.ZerologLevel())
	if event == nil {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	event = event.Str("subsystem", subsystem)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(current(), LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(current(), LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(current(), LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(current(), LevelError, subsystem, err, messageFmt, args...)
}
