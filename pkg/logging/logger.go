package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logger provides structured logging for uirunner components.
// Logs are written to a run-specific file in ~/.uirunner/logs/ unless a
// fallback or discard logger is used.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	entry     *logrus.Entry
	logPath   string
	closeOnce sync.Once
}

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error
)

// getSessionID returns or creates the session ID for this execution
func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir != "" {
			initErr = os.MkdirAll(logDir, 0750)
			return
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, ".uirunner", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// levelFromEnv reads UIRUNNER_LOG_LEVEL, defaulting to info.
func levelFromEnv() logrus.Level {
	raw := strings.TrimSpace(os.Getenv("UIRUNNER_LOG_LEVEL"))
	if raw == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func newBase(out io.Writer) *logrus.Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(levelFromEnv())
	base.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return base
}

// NewLogger creates a new logger for a specific component.
// The logger writes to ~/.uirunner/logs/<session-id>-uirunner.log
//
// If the log directory cannot be created or the log file cannot be opened,
// it returns a fallback logger that writes to stderr along with the error.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-uirunner.log", sessID))

	// Append mode: every component of a run shares the file.
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return newFallbackLogger(component, fmt.Errorf("failed to open log file: %w", err)), err
	}

	return &Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		entry:     newBase(file).WithFields(logrus.Fields{"component": component, "run": sessID}),
		logPath:   logPath,
	}, nil
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	l := &Logger{
		sessionID: getSessionID(),
		component: component,
		entry:     newBase(os.Stderr).WithField("component", component),
	}
	l.entry.Warnf("failed to initialize file logging, falling back to stderr: %v", err)
	return l
}

// New wraps an existing logrus logger, e.g. one configured by a CLI.
func New(base *logrus.Logger, component string) *Logger {
	return &Logger{
		sessionID: getSessionID(),
		component: component,
		entry:     base.WithField("component", component),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{component: "discard", entry: logrus.NewEntry(base)}
}

// Component returns a logger for a sub-component sharing the same sink.
func (l *Logger) Component(component string) *Logger {
	return &Logger{
		sessionID: l.sessionID,
		component: component,
		entry:     l.entry.WithField("component", component),
		logPath:   l.logPath,
	}
}

// WithFields returns a logger that adds fields to every entry.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{
		sessionID: l.sessionID,
		component: l.component,
		entry:     l.entry.WithFields(logrus.Fields(fields)),
		logPath:   l.logPath,
	}
}

// Printf logs a formatted message at info level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.entry.Infof(format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.entry.Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.entry.Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.entry.Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.entry.Errorf(format, v...)
}

// Writer returns an io.Writer that writes to this logger
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return l.entry.Logger.Out
}

// SessionID returns the run ID shared by all loggers of this process
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetSessionID returns the current global run ID
func GetSessionID() string {
	return getSessionID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
