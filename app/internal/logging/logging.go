// Package logging builds the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stdout with the given level and format
// ("json" or "text"). An unknown level falls back to info.
func New(level, format string) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, format)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(out io.Writer, level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	if strings.ToLower(format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		l.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339Nano, FullTimestamp: true})
	}

	SetLevel(l, level)
	return l
}

// SetLevel applies level to l, keeping info when level does not parse.
// Reports whether the level was recognised.
func SetLevel(l *logrus.Logger, level string) bool {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		l.SetLevel(logrus.InfoLevel)
		return false
	}
	l.SetLevel(parsed)
	return true
}
