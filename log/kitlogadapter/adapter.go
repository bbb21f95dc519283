// Package kitlogadapter provides a logger that writes to a github.com/go-kit/log.Logger.
package kitlogadapter

import (
	"context"

	"github.com/go-kit/log"
	kitlevel "github.com/go-kit/log/level"

	"github.com/pgsql-go/pgsql"
)

type Logger struct {
	l log.Logger
}

func NewLogger(l log.Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level pgsql.LogLevel, msg string, data map[string]interface{}) {
	logger := l.l
	for k, v := range data {
		logger = log.With(logger, k, v)
	}

	switch level {
	case pgsql.LogLevelTrace:
		logger.Log("PGSQL_LOG_LEVEL", level, "msg", msg)
	case pgsql.LogLevelDebug:
		kitlevel.Debug(logger).Log("msg", msg)
	case pgsql.LogLevelInfo:
		kitlevel.Info(logger).Log("msg", msg)
	case pgsql.LogLevelWarn:
		kitlevel.Warn(logger).Log("msg", msg)
	case pgsql.LogLevelError:
		kitlevel.Error(logger).Log("msg", msg)
	default:
		logger.Log("INVALID_PGSQL_LOG_LEVEL", level, "error", msg)
	}
}
