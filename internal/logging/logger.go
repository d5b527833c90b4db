package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// New creates the application logger with JSON output at the configured level
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(ParseLevel(level))
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

// ParseLevel converts a string level to logrus.Level, defaulting to info
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
