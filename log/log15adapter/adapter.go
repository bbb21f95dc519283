// Package log15adapter provides a logger that writes to a
// gopkg.in/inconshreveable/log15.v2.Logger log.
package log15adapter

import (
	"context"

	log15 "gopkg.in/inconshreveable/log15.v2"

	"github.com/pgsql-go/pgsql"
)

type Logger struct {
	l log15.Logger
}

func NewLogger(l log15.Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level pgsql.LogLevel, msg string, data map[string]interface{}) {
	logArgs := make([]interface{}, 0, len(data)*2)
	for k, v := range data {
		logArgs = append(logArgs, k, v)
	}

	switch level {
	case pgsql.LogLevelTrace:
		l.l.Debug(msg, append(logArgs, "PGSQL_LOG_LEVEL", level)...)
	case pgsql.LogLevelDebug:
		l.l.Debug(msg, logArgs...)
	case pgsql.LogLevelInfo:
		l.l.Info(msg, logArgs...)
	case pgsql.LogLevelWarn:
		l.l.Warn(msg, logArgs...)
	case pgsql.LogLevelError:
		l.l.Error(msg, logArgs...)
	default:
		l.l.Error(msg, append(logArgs, "INVALID_PGSQL_LOG_LEVEL", level)...)
	}
}
