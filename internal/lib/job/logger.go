package job

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// asynqLogger routes asynq's internal logging into zerolog.
type asynqLogger struct {
	logger zerolog.Logger
}

func newAsynqLogger(l *zerolog.Logger) *asynqLogger {
	return &asynqLogger{logger: l.With().Str("component", "asynq").Logger()}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }

// Fatal is only called by asynq on unrecoverable startup errors; logging at
// error level lets Start report the failure instead of exiting the process.
func (l *asynqLogger) Fatal(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }

func asynqLevel(level zerolog.Level) asynq.LogLevel {
	switch {
	case level <= zerolog.DebugLevel:
		return asynq.DebugLevel
	case level == zerolog.InfoLevel:
		return asynq.InfoLevel
	case level == zerolog.WarnLevel:
		return asynq.WarnLevel
	default:
		return asynq.ErrorLevel
	}
}
