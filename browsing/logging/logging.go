// Package logging configures the logrus loggers shared by the commands.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// New returns a text logger writing to w at the named level ("debug", "info", "warn", ...).
func New(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	return l, nil
}

// NewJSON returns a JSON logger for machine-read logs, tagged with service.
func NewJSON(w io.Writer, level, service string) (*logrus.Entry, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	return l.WithField("service", service), nil
}

func parseLevel(level string) (logrus.Level, error) {
	if level == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
