package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/op/go-logging"

	"trader-gateway/src/models"
)

// -----------------------------------------------------------------------------

var logFormat = logging.MustStringFormatter(
	`%{time:2006-01-02 15:04:05} %{level:.5s} [%{module}] %{message}`,
)

var setupMu sync.Mutex

// -----------------------------------------------------------------------------

// Setup installs the stdout backend for every module at the given level
// ("DEBUG", "INFO", ...). An empty level means INFO.
func Setup(level string) error {
	setupMu.Lock()
	defer setupMu.Unlock()

	if level == "" {
		level = "INFO"
	}
	lvl, err := logging.LogLevel(strings.ToUpper(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	backend := logging.NewLogBackend(os.Stdout, "", 0)
	formatted := logging.NewBackendFormatter(backend, logFormat)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(lvl, "")
	logging.SetBackend(leveled)
	return nil
}

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	logger *logging.Logger
	config interface{}
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. A config with debug enabled
// turns on DEBUG for this logger only.
func NewLogger(config interface{}, name string) *Logger {
	l := &Logger{
		name:   name,
		logger: logging.MustGetLogger(name),
		config: config,
	}
	if c, ok := config.(*models.MConfig); ok && c != nil && c.Debug {
		logging.SetLevel(logging.DEBUG, name)
	}
	return l
}

// -----------------------------------------------------------------------------

// Named returns a logger for a sub component sharing this logger's config.
func (l *Logger) Named(name string) *Logger {
	return NewLogger(l.config, name)
}

// -----------------------------------------------------------------------------

// DebugEnabled reports whether Debug output would be written.
func (l *Logger) DebugEnabled() bool {
	return l.logger.IsEnabledFor(logging.DEBUG)
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.logger.Warningf(format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.logger.Criticalf(format, args...)
	os.Exit(1)
}
