package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	arborcommon "github.com/ternarybob/arbor/common"
	"github.com/ternarybob/arbor/models"
)

const (
	defaultTimeFormat = "15:04:05.000"
	logFileName       = "venicekb.log"
	logFileMaxSize    = 100 * 1024 * 1024
	logFileMaxBackups = 3
)

var (
	loggerMu     sync.RWMutex
	globalLogger arbor.ILogger
)

// InitLogger stores l as the process-wide logger returned by GetLogger.
func InitLogger(l arbor.ILogger) {
	loggerMu.Lock()
	globalLogger = l
	loggerMu.Unlock()
}

// GetLogger returns the process-wide logger. Before SetupLogger has run
// (config failed to load, or a code path fired too early) it lazily
// installs a bare console logger so callers never receive nil.
func GetLogger() arbor.ILogger {
	loggerMu.RLock()
	l := globalLogger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().
			WithConsoleWriter(writerConfig(models.LogWriterTypeConsole, "", defaultTimeFormat))
		globalLogger.Warn().Msg("logger requested before SetupLogger, writing to console only")
	}
	return globalLogger
}

// SetupLogger builds the logger every pipeline stage shares from cfg's
// logging section and installs it as the singleton. Each name in
// cfg.Logging.Output attaches one writer via the attach table; a memory
// writer is always added on top. No command reads the memory writer back.
func SetupLogger(cfg *Config) arbor.ILogger {
	timeFormat := cfg.Logging.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}

	type attachFunc func(arbor.ILogger) (arbor.ILogger, error)
	attach := map[string]attachFunc{
		"stdout": func(l arbor.ILogger) (arbor.ILogger, error) {
			return l.WithConsoleWriter(writerConfig(models.LogWriterTypeConsole, "", timeFormat)), nil
		},
		"file": func(l arbor.ILogger) (arbor.ILogger, error) {
			path, err := logFilePath()
			if err != nil {
				return l, err
			}
			return l.WithFileWriter(writerConfig(models.LogWriterTypeFile, path, timeFormat)), nil
		},
	}
	attach["console"] = attach["stdout"]

	logger := arbor.NewLogger()
	attached := 0
	var deferred []string
	for _, output := range cfg.Logging.Output {
		fn, known := attach[output]
		if !known {
			deferred = append(deferred, fmt.Sprintf("unknown log output %q skipped", output))
			continue
		}
		next, err := fn(logger)
		if err != nil {
			deferred = append(deferred, fmt.Sprintf("log output %q unavailable: %v", output, err))
			continue
		}
		logger = next
		attached++
	}

	// A build with nothing visible configured still needs somewhere to
	// complain, so console is the floor.
	if attached == 0 {
		logger = logger.WithConsoleWriter(writerConfig(models.LogWriterTypeConsole, "", timeFormat))
		deferred = append(deferred, "no usable log outputs configured, falling back to console")
	}

	logger = logger.
		WithMemoryWriter(writerConfig(models.LogWriterTypeMemory, "", timeFormat)).
		WithLevelFromString(cfg.Logging.Level)

	// Warnings gathered while the logger was still being assembled.
	for _, msg := range deferred {
		logger.Warn().Msg(msg)
	}

	InitLogger(logger)
	return logger
}

// logFilePath places the log file in a logs/ directory beside the
// executable, creating it if needed.
func logFilePath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	logsDir := filepath.Join(filepath.Dir(execPath), "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", fmt.Errorf("create logs directory %s: %w", logsDir, err)
	}
	return filepath.Join(logsDir, logFileName), nil
}

func writerConfig(writerType models.LogWriterType, filename, timeFormat string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       writerType,
		FileName:   filename,
		TimeFormat: timeFormat,
		MaxSize:    logFileMaxSize,
		MaxBackups: logFileMaxBackups,
	}
}

// Stop flushes buffered log writers; safe to call more than once.
func Stop() {
	arborcommon.Stop()
}
