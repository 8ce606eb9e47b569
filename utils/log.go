package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
)

func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config/flag string to a level, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TRACE
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "critical":
		return CRITICAL
	default:
		return INFO
	}
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case TRACE:
		return logrus.TraceLevel
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR, CRITICAL:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger is a leveled printf-style logger on top of logrus.
type Logger struct {
	log  *logrus.Logger
	file *os.File
}

func NewFileLogger(filePath string, minLevel LogLevel, alsoStdout bool) (*Logger, error) {
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	var out io.Writer = f
	if alsoStdout {
		out = io.MultiWriter(f, os.Stdout)
	}
	l := NewLogger(out, minLevel)
	l.file = f
	return l, nil
}

// NewLogger writes to out without owning it.
func NewLogger(out io.Writer, minLevel LogLevel) *Logger {
	lr := logrus.New()
	lr.SetOutput(out)
	lr.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lr.SetLevel(minLevel.logrus())
	return &Logger{log: lr}
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) SetMinLevel(level LogLevel) {
	l.log.SetLevel(level.logrus())
}

// Fields exposes the structured side of the logger to components that log
// with WithField.
func (l *Logger) Fields() logrus.FieldLogger {
	return l.log
}

func (l *Logger) Trace(msg string, args ...any) { l.log.Tracef(msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { l.log.Debugf(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log.Infof(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log.Warnf(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log.Errorf(msg, args...) }
func (l *Logger) Critical(msg string, args ...any) {
	l.log.WithField("severity", CRITICAL.String()).Errorf(msg, args...)
}
