package log

import (
	stdlog "log"
	"strings"
)

// stdLogBridge adapts a Logger to io.Writer so stdlib log output can be
// routed through the structured pipeline.
type stdLogBridge struct {
	logger Logger
	level  Level
}

func (b stdLogBridge) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	switch b.level {
	case DebugLevel:
		b.logger.Debug(msg)
	case WarnLevel:
		b.logger.Warn(msg)
	case ErrorLevel:
		b.logger.Error(msg)
	default:
		b.logger.Info(msg)
	}
	return len(p), nil
}

// ToStdLogger returns a *log.Logger emitting at the given level through l.
func ToStdLogger(l Logger, level Level) *stdlog.Logger {
	return stdlog.New(stdLogBridge{logger: l, level: level}, "", 0)
}

// RedirectStdLog routes the stdlib default logger (used by Pebble and
// net/http) through l at InfoLevel.
func RedirectStdLog(l Logger) {
	stdlog.SetFlags(0)
	stdlog.SetPrefix("")
	stdlog.SetOutput(stdLogBridge{logger: l, level: InfoLevel})
}
