package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu        sync.Mutex
	logFile   *os.File
	debugMode = false
	logger    = log.New(os.Stdout, "", log.LstdFlags)
)

// Setup tees every log line to stdout and to fileName inside logDir.
func Setup(logDir, fileName string, enableDebug bool) error {
	mu.Lock()
	defer mu.Unlock()

	debugMode = enableDebug

	if logFile != nil {
		_ = logFile.Close() // close the previous file if it exists
		logFile = nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log directory %s: %w", logDir, err)
	}
	logPath := filepath.Join(logDir, fileName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", logPath, err)
	}
	logFile = f
	logger.SetOutput(io.MultiWriter(os.Stdout, logFile))
	return nil
}

// SetOutput sends log lines to w only. Used by tests and by commands that
// don't want a log file.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debugMode = enabled
}

func IsDebug() bool {
	mu.Lock()
	defer mu.Unlock()
	return debugMode
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	logger.SetOutput(os.Stdout)
	err := logFile.Close()
	logFile = nil
	return err
}

func Info(msg string, v ...any) {
	output("[INFO] ", msg, v...)
}

func Warn(msg string, v ...any) {
	output("[WARN] ", msg, v...)
}

func Error(msg string, v ...any) {
	output("[ERROR] ", msg, v...)
}

func Fatal(msg string, v ...any) {
	output("[FATAL] ", msg, v...)
	os.Exit(1)
}

func Debug(msg string, v ...any) {
	if IsDebug() {
		output("[DEBUG] ", msg, v...)
	}
}

func output(level, msg string, v ...any) {
	line := level + formatMessage(msg, v...)
	// the std logger serialises writes itself, the lock only guards the writer swap
	mu.Lock()
	defer mu.Unlock()
	_ = logger.Output(3, line)
}

func formatMessage(msg string, v ...any) string {
	if len(v) == 0 {
		return msg
	}

	// Try to use Sprintf if format verbs exist
	formatted := fmt.Sprintf(msg, v...)
	if isFormatSafe(formatted) {
		return formatted
	}

	// Fallback: join everything manually
	return fmt.Sprintln(append([]any{msg}, v...)...)
}

func isFormatSafe(s string) bool {
	return !containsAny(s, "%!(EXTRA", "%!(", "%!INVALID")
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
