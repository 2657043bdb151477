// Package logger provides a small leveled logging utility for the Zephyr
// pipeline. It wraps the standard `log` package and filters messages by the
// globally configured level.
package logger

import (
	"fmt"
	"log"
	"strings"
)

// LogLevel represents a logging verbosity level.
type LogLevel int

const (
	// LevelDebug enables detailed diagnostic output.
	LevelDebug LogLevel = iota
	// LevelInfo enables general informational messages.
	LevelInfo
	// LevelWarn enables warnings about recoverable problems.
	LevelWarn
	// LevelError enables error messages.
	LevelError
	// LevelFatal enables only fatal messages that terminate the process.
	LevelFatal
)

var logLevel = LevelInfo

// SetLogLevel sets the global log level. Valid values are "DEBUG", "INFO",
// "WARN", "ERROR" and "FATAL" (case-insensitive). An unknown value falls back
// to INFO with a notice on stdout.
func SetLogLevel(level string) {
	switch strings.ToUpper(level) {
	case "INFO":
		logLevel = LevelInfo
	case "WARN":
		logLevel = LevelWarn
	case "ERROR":
		logLevel = LevelError
	case "FATAL":
		logLevel = LevelFatal
	case "DEBUG":
		logLevel = LevelDebug
	default:
		fmt.Printf("Unknown log level '%s' specified. Defaulting to INFO level.\n", level)
		logLevel = LevelInfo
	}
}

// Debugf logs a DEBUG level message.
func Debugf(format string, v ...interface{}) {
	if logLevel <= LevelDebug {
		log.Printf("[DEBUG] "+format, v...)
	}
}

// Infof logs an INFO level message.
func Infof(format string, v ...interface{}) {
	if logLevel <= LevelInfo {
		log.Printf("[INFO] "+format, v...)
	}
}

// Warnf logs a WARN level message.
func Warnf(format string, v ...interface{}) {
	if logLevel <= LevelWarn {
		log.Printf("[WARN] "+format, v...)
	}
}

// Errorf logs an ERROR level message.
func Errorf(format string, v ...interface{}) {
	if logLevel <= LevelError {
		log.Printf("[ERROR] "+format, v...)
	}
}

// Fatalf logs a FATAL level message and terminates the process.
func Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}
