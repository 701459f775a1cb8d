// Package log implements structured logging on top of logrus.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"firestige.xyz/microburst/internal/config"
)

type Logger interface {
	Print(args ...interface{})
	Printf(format string, args ...interface{})

	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

const (
	defaultPattern    = "%time [%level] %msg %field\n"
	defaultTimeFormat = "2006-01-02 15:04:05"
)

var (
	mu     sync.RWMutex
	logger Logger
	closer io.Closer
)

func init() {
	logger = consoleLogger()
}

// consoleLogger logs to stderr at info level with the default pattern.
func consoleLogger() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&formatter{pattern: defaultPattern, time: defaultTimeFormat})
	return &logrusAdapter{entry: logrus.NewEntry(l)}
}

// GetLogger returns the process logger. It logs to stderr at info level
// until Init is called.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Init replaces the process logger according to cfg. Output always goes to
// stderr; cfg.File adds a rotating file.
func Init(cfg config.LogConfig) error {
	return InitWithWriter(cfg, os.Stderr)
}

// InitWithWriter is Init with a caller-supplied console writer.
func InitWithWriter(cfg config.LogConfig, console io.Writer) error {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	writers := NewMultiWriter().Add(console)

	var fileWriter *lumberjack.Logger
	if cfg.File.Enabled {
		fileWriter, err = createFileWriter(cfg.File)
		if err != nil {
			return fmt.Errorf("failed to create file output: %w", err)
		}
		writers.Add(fileWriter)
	}

	pattern := cfg.Pattern
	if pattern == "" {
		pattern = defaultPattern
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}

	l := logrus.New()
	l.SetOutput(writers)
	l.SetLevel(level)
	l.SetFormatter(&formatter{pattern: pattern, time: timeFormat})

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer.Close()
		closer = nil
	}
	if fileWriter != nil {
		closer = fileWriter
	}
	logger = &logrusAdapter{entry: logrus.NewEntry(l)}
	return nil
}

// Close releases the log file, if any, and falls back to the stderr logger
// so later entries do not reopen the file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	logger = consoleLogger()
	return err
}

// createFileWriter creates a lumberjack file writer for log rotation.
func createFileWriter(fc config.FileOutputConfig) (*lumberjack.Logger, error) {
	if fc.Path == "" {
		return nil, fmt.Errorf("file output requires 'path' field")
	}
	return &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    fc.MaxSizeMB,  // megabytes
		MaxBackups: fc.MaxBackups, // number of backups
		MaxAge:     fc.MaxAgeDays, // days
		Compress:   fc.Compress,   // compress the backups
	}, nil
}
