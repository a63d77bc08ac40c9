package observability

import (
	"fmt"

	"github.com/rs/zerolog"
)

// TemporalLogger satisfies go.temporal.io/sdk/log.Logger on top of zerolog.
type TemporalLogger struct {
	logger zerolog.Logger
}

func NewTemporalLogger(logger zerolog.Logger) *TemporalLogger {
	return &TemporalLogger{logger: logger.With().Str("component", "temporal").Logger()}
}

func (l *TemporalLogger) Debug(msg string, keyvals ...any) {
	l.logger.Debug().Fields(pairs(keyvals)).Msg(msg)
}

func (l *TemporalLogger) Info(msg string, keyvals ...any) {
	l.logger.Info().Fields(pairs(keyvals)).Msg(msg)
}

func (l *TemporalLogger) Warn(msg string, keyvals ...any) {
	l.logger.Warn().Fields(pairs(keyvals)).Msg(msg)
}

func (l *TemporalLogger) Error(msg string, keyvals ...any) {
	l.logger.Error().Fields(pairs(keyvals)).Msg(msg)
}

func pairs(keyvals []any) map[string]any {
	m := make(map[string]any, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		m[key] = keyvals[i+1]
	}
	return m
}
