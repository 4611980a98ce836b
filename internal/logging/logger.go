// Package logging wraps a process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lansepyy/article-admin/internal/config"
	"github.com/sirupsen/logrus"
)

// ComponentKey is the field every component logger is tagged with.
const ComponentKey = "component"

var (
	mu      sync.Mutex
	logger  = newDefault()
	logFile *os.File
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{})
	return l
}

// Logger returns the shared logger.
func Logger() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(name string) *logrus.Entry {
	return Logger().WithField(ComponentKey, name)
}

// Init configures the shared logger from c. The returned func closes any
// log file that was opened.
func Init(c config.Log) (func(), error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}

	mu.Lock()
	defer mu.Unlock()

	logger.SetLevel(level)

	switch strings.ToLower(c.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}

	switch strings.ToLower(c.Output) {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "", "stderr":
		logger.SetOutput(os.Stderr)
	case "discard":
		logger.SetOutput(io.Discard)
	case "file":
		if err := openFile(c.File, time.Now()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid log output %q", c.Output)
	}

	return closeFile, nil
}

// DatedPath turns base (".../articles.log") into ".../articles-2024-07-15.log".
func DatedPath(base string, now time.Time) string {
	return fmt.Sprintf("%s-%s.log", strings.TrimSuffix(base, ".log"), now.Format("2006-01-02"))
}

func openFile(base string, now time.Time) error {
	if base == "" {
		return fmt.Errorf("log output is file but log.file is empty")
	}
	if err := os.MkdirAll(filepath.Dir(base), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(DatedPath(base, now), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	logger.SetOutput(f)
	return nil
}

func closeFile() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
		logger.SetOutput(os.Stderr)
	}
}
