package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level logrus.Level) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := logrus.New()
	l.SetOutput(buf)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	return NewLogrusLogger(l), buf
}

func TestLogrusLoggerLevels(t *testing.T) {
	l, buf := newBufferLogger(logrus.InfoLevel)
	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.Errorf("failed: %v", "boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "level=error")
	assert.Contains(t, out, "failed: boom")
}

func TestLogrusLoggerWithField(t *testing.T) {
	l, buf := newBufferLogger(logrus.DebugLevel)
	l.WithField("flow", "abc").Info("hello")
	l.Info("plain")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "flow=abc")
	assert.NotContains(t, string(lines[1]), "flow=abc")
}

func TestConfigure(t *testing.T) {
	defer func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
		logrus.SetOutput(os.Stderr)
	}()
	buf := &bytes.Buffer{}

	require.NoError(t, Configure("warn", "json", buf))
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	Info("dropped")
	Warnf("kept %s", "json")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept json"`)

	assert.Error(t, Configure("loud", "text", nil))
	assert.Error(t, Configure("info", "xml", nil))
}
