package cmdlib

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// VerbosityKind represents logging verbosity
type VerbosityKind int

// Verbosity constants
const (
	SilentVerbosity VerbosityKind = 0
	ErrVerbosity    VerbosityKind = 1
	InfVerbosity    VerbosityKind = 2
	DbgVerbosity    VerbosityKind = 3
)

// Verbosity is the current logging verbosity
var Verbosity = ErrVerbosity

var logger = newLogger(os.Stderr)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// InitLog directs log output to w and sets the verbosity
func InitLog(w io.Writer, v VerbosityKind) {
	logger = newLogger(w)
	Verbosity = v
}

// Lerr logs an error
func Lerr(format string, v ...interface{}) {
	if Verbosity >= ErrVerbosity {
		logger.Errorf(format, v...)
	}
}

// Linf logs an info message
func Linf(format string, v ...interface{}) {
	if Verbosity >= InfVerbosity {
		logger.Infof(format, v...)
	}
}

// Ldbg logs a debug message
func Ldbg(format string, v ...interface{}) {
	if Verbosity >= DbgVerbosity {
		logger.Debugf(format, v...)
	}
}
