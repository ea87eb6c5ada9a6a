package log

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogrusLogger writes through a logrus entry. The zero value logs through
// the logrus standard logger.
type LogrusLogger struct {
	entry *logrus.Entry
}

func NewLogrusLogger(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{entry: logrus.NewEntry(l)}
}

func (l LogrusLogger) e() *logrus.Entry {
	if l.entry == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return l.entry
}

func (l LogrusLogger) WithField(key string, value any) Logger {
	return LogrusLogger{entry: l.e().WithField(key, value)}
}

func (l LogrusLogger) Debug(args ...any) {
	l.e().Debug(args...)
}

func (l LogrusLogger) Debugf(format string, args ...any) {
	l.e().Debugf(format, args...)
}

func (l LogrusLogger) Info(args ...any) {
	l.e().Info(args...)
}

func (l LogrusLogger) Infof(format string, args ...any) {
	l.e().Infof(format, args...)
}

func (l LogrusLogger) Warn(args ...any) {
	l.e().Warn(args...)
}

func (l LogrusLogger) Warnf(format string, args ...any) {
	l.e().Warnf(format, args...)
}

func (l LogrusLogger) Error(args ...any) {
	l.e().Error(args...)
}

func (l LogrusLogger) Errorf(format string, args ...any) {
	l.e().Errorf(format, args...)
}

func (l LogrusLogger) Fatal(args ...any) {
	l.e().Fatal(args...)
}

func (l LogrusLogger) Fatalf(format string, args ...any) {
	l.e().Fatalf(format, args...)
}

// Configure sets level, format and output of the logrus standard logger,
// which backs DefaultLogger and the proxy engine's own logging.
func Configure(level, format string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	switch strings.ToLower(format) {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	if out != nil {
		logrus.SetOutput(out)
	}
	return nil
}
