package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	logger = New(os.Stderr, zerolog.WarnLevel)
}

// New builds a console logger writing to w. The CLI passes stderr, leaving
// stdout to command output such as list and version.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger()
}

// ParseLevel accepts zerolog level names; anything unknown maps to warn.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.WarnLevel
	}
	return lvl
}

// SetLevel changes the level of the package logger.
func SetLevel(level zerolog.Level) {
	logger = logger.Level(level)
}

// SetOutput replaces the package logger, keeping its level.
func SetOutput(w io.Writer) {
	logger = New(w, logger.GetLevel())
}

// With returns a child of the package logger carrying one extra field.
func With(key, value string) zerolog.Logger {
	return logger.With().Str(key, value).Logger()
}

// Get returns the package logger.
func Get() *zerolog.Logger {
	return &logger
}

func Info(msg string) {
	logger.Info().Msg(msg)
}

func Infof(format string, args ...interface{}) {
	logger.Info().Msgf(format, args...)
}

func Warn(msg string) {
	logger.Warn().Msg(msg)
}

func Warnf(format string, args ...interface{}) {
	logger.Warn().Msgf(format, args...)
}

func Error(msg string) {
	logger.Error().Msg(msg)
}

func Errorf(format string, args ...interface{}) {
	logger.Error().Msgf(format, args...)
}

func Debug(msg string) {
	logger.Debug().Msg(msg)
}

func Debugf(format string, args ...interface{}) {
	logger.Debug().Msgf(format, args...)
}
