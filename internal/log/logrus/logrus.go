// Package logrus adapts a logrus entry to the vibedeck log.Logger interface.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/waabox/vibedeck/internal/log"
)

type logger struct {
	*logrus.Entry
}

// NewLogrus returns a log.Logger backed by the given logrus entry.
func NewLogrus(l *logrus.Entry) log.Logger {
	return logger{Entry: l}
}

func (l logger) WithValues(kv log.Kv) log.Logger {
	return NewLogrus(l.Entry.WithFields(kv))
}
