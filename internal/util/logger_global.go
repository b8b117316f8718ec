package util

import (
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// InitLogger installs the process-wide logger used by the LogXxx helpers.
// Calling it again replaces the previous logger.
func InitLogger(logLevel, logFile string, debugToConsole bool) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = NewLogger(logLevel, logFile, debugToConsole)
}

func global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// The helpers below are no-ops until InitLogger runs, so library code can
// log unconditionally and tests stay quiet.

func LogDebug(msg string, fields ...Field) {
	if l := global(); l != nil {
		l.Debug(msg, fields...)
	}
}

func LogDebugf(format string, args ...interface{}) {
	if l := global(); l != nil {
		l.Debugf(format, args...)
	}
}

func LogInfo(msg string, fields ...Field) {
	if l := global(); l != nil {
		l.Info(msg, fields...)
	}
}

func LogInfof(format string, args ...interface{}) {
	if l := global(); l != nil {
		l.Infof(format, args...)
	}
}

func LogWarn(msg string, fields ...Field) {
	if l := global(); l != nil {
		l.Warn(msg, fields...)
	}
}

func LogError(msg string, fields ...Field) {
	if l := global(); l != nil {
		l.Error(msg, fields...)
	}
}
