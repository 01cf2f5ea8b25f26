package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Ctx is the structured context attached to a log entry.
type Ctx map[string]any

// Logger is the logging interface used across the service.
type Logger interface {
	Panic(msg string, ctx ...Ctx)
	Fatal(msg string, ctx ...Ctx)
	Error(msg string, ctx ...Ctx)
	Warn(msg string, ctx ...Ctx)
	Info(msg string, ctx ...Ctx)
	Debug(msg string, ctx ...Ctx)
	Trace(msg string, ctx ...Ctx)
	AddContext(ctx Ctx) Logger
}

type targetLogger interface {
	WithFields(fields logrus.Fields) *logrus.Entry
	Panic(args ...any)
	Fatal(args ...any)
	Error(args ...any)
	Warn(args ...any)
	Info(args ...any)
	Debug(args ...any)
	Trace(args ...any)
}

// Log is the process-wide logger. It is usable before InitLogger is called.
var Log Logger = newWrapper(logrus.StandardLogger())

// InitLogger configures the process-wide logger.
func InitLogger(level string, jsonOutput bool, out io.Writer) error {
	l := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	if jsonOutput {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if level == "" {
		level = "info"
	}

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return err
	}
	l.SetLevel(lvl)

	Log = newWrapper(l)
	return nil
}

// Error logs an error level message on the process-wide logger.
func Error(msg string, ctx ...Ctx) { Log.Error(msg, ctx...) }

// Warn logs a warning level message on the process-wide logger.
func Warn(msg string, ctx ...Ctx) { Log.Warn(msg, ctx...) }

// Info logs an info level message on the process-wide logger.
func Info(msg string, ctx ...Ctx) { Log.Info(msg, ctx...) }

// Debug logs a debug level message on the process-wide logger.
func Debug(msg string, ctx ...Ctx) { Log.Debug(msg, ctx...) }

// Trace logs a trace level message on the process-wide logger.
func Trace(msg string, ctx ...Ctx) { Log.Trace(msg, ctx...) }

// Fatal logs a fatal level message on the process-wide logger and exits.
func Fatal(msg string, ctx ...Ctx) { Log.Fatal(msg, ctx...) }

// AddContext returns a sub-logger of the process-wide logger.
func AddContext(ctx Ctx) Logger { return Log.AddContext(ctx) }
