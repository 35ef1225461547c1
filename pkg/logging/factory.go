package logging

import "github.com/rs/zerolog"

// Logger writes messages for one category.
type Logger interface {
	Debug(messageFmt string, args ...interface{})
	Info(messageFmt string, args ...interface{})
	Warn(messageFmt string, args ...interface{})
	Error(err error, messageFmt string, args ...interface{})
}

// Factory hands out category loggers.
type Factory interface {
	CreateLogger(category string) Logger
}

type factory struct {
	base *zerolog.Logger
}

// NewFactory returns a Factory whose loggers write through base.
func NewFactory(base zerolog.Logger) Factory {
	return &factory{base: &base}
}

// DefaultFactory returns a Factory whose loggers follow the package-level
// logger, including later InitForCLI or Configure calls.
func DefaultFactory() Factory {
	return &factory{}
}

// NopFactory returns a Factory whose loggers discard everything.
func NopFactory() Factory {
	return NewFactory(zerolog.Nop())
}

func (f *factory) CreateLogger(category string) Logger {
	return &categoryLogger{category: category, base: f.base}
}

type categoryLogger struct {
	category string
	base     *zerolog.Logger
}

func (l *categoryLogger) logger() zerolog.Logger {
	if l.base != nil {
		return *l.base
	}
	return current()
}

func (l *categoryLogger) Debug(messageFmt string, args ...interface{}) {
	logInternal(l.logger(), LevelDebug, l.category, nil, messageFmt, args...)
}

func (l *categoryLogger) Info(messageFmt string, args ...interface{}) {
	logInternal(l.logger(), LevelInfo, l.category, nil, messageFmt, args...)
}

func (l *categoryLogger) Warn(messageFmt string, args ...interface{}) {
	logInternal(l.logger(), LevelWarn, l.category, nil, messageFmt, args...)
}

func (l *categoryLogger) Error(err error, messageFmt string, args ...interface{}) {
	logInternal(l.logger(), LevelError, l.category, err, messageFmt, args...)
}
