// Package zerologadapter provides a logger that writes to a github.com/rs/zerolog.
package zerologadapter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pgsql-go/pgsql"
)

type Logger struct {
	logger zerolog.Logger
}

// NewLogger accepts a zerolog.Logger as input and returns a new custom pgsql
// logging facade as output.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		logger: logger.With().Str("module", "pgsql").Logger(),
	}
}

func (pl *Logger) Log(ctx context.Context, level pgsql.LogLevel, msg string, data map[string]interface{}) {
	var zlevel zerolog.Level
	switch level {
	case pgsql.LogLevelNone:
		zlevel = zerolog.NoLevel
	case pgsql.LogLevelError:
		zlevel = zerolog.ErrorLevel
	case pgsql.LogLevelWarn:
		zlevel = zerolog.WarnLevel
	case pgsql.LogLevelInfo:
		zlevel = zerolog.InfoLevel
	case pgsql.LogLevelDebug:
		zlevel = zerolog.DebugLevel
	default:
		zlevel = zerolog.DebugLevel
	}

	pgsqllog := pl.logger.With().Fields(data).Logger()
	pgsqllog.WithLevel(zlevel).Msg(msg)
}
