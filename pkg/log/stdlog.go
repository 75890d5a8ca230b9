package log

import (
	stdlog "log"
	"strings"
)

// stdLogWriter adapts a Logger to an io.Writer for the standard library's
// log package. Each Write becomes one Info entry.
type stdLogWriter struct {
	logger Logger
}

func (w *stdLogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg != "" {
		w.logger.Info(msg)
	}
	return len(p), nil
}

// RedirectStdLog routes standard library log output (used by Pebble) through
// the given Logger.
func RedirectStdLog(logger Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(&stdLogWriter{logger: logger.WithComponent("stdlog")})
}

// ToStdLogger returns a *log.Logger that writes through the given Logger.
func ToStdLogger(logger Logger) *stdlog.Logger {
	return stdlog.New(&stdLogWriter{logger: logger}, "", 0)
}
