package logrus_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/waabox/vibedeck/internal/log"
	loglogrus "github.com/waabox/vibedeck/internal/log/logrus"
)

func TestLogrus_WithValuesAddsFields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.Out = &buf
	l.SetFormatter(&logrus.JSONFormatter{})

	logger := loglogrus.NewLogrus(logrus.NewEntry(l)).WithValues(log.Kv{"job": "job-1"})
	logger.Warningf("stream dropped: %s", "EOF")

	out := buf.String()
	assert.Contains(t, out, `"job":"job-1"`)
	assert.Contains(t, out, `"msg":"stream dropped: EOF"`)
	assert.Contains(t, out, `"level":"warning"`)
}
