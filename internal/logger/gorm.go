package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger sends gorm's query and warning output through zerolog.
type GormLogger struct {
	Logger        zerolog.Logger
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
}

// NewGormLogger logs through l at warn level, reporting queries slower
// than 200ms.
func NewGormLogger(l zerolog.Logger) *GormLogger {
	return &GormLogger{
		Logger:        l.With().Str("component", "gorm").Logger(),
		Level:         gormlogger.Warn,
		SlowThreshold: 200 * time.Millisecond,
	}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.Level = level
	return &clone
}

func (g *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.Level >= gormlogger.Info {
		g.Logger.Info().Msg(fmt.Sprintf(msg, args...))
	}
}

func (g *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.Level >= gormlogger.Warn {
		g.Logger.Warn().Msg(fmt.Sprintf(msg, args...))
	}
}

func (g *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.Level >= gormlogger.Error {
		g.Logger.Error().Msg(fmt.Sprintf(msg, args...))
	}
}

// Trace logs failed queries at error level and slow ones at warn level.
// Missing records are not errors.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)

	var event *zerolog.Event
	switch {
	case err != nil && g.Level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		event = g.Logger.Error().Err(err)
	case g.SlowThreshold > 0 && elapsed > g.SlowThreshold && g.Level >= gormlogger.Warn:
		event = g.Logger.Warn().Dur("threshold", g.SlowThreshold)
	case g.Level >= gormlogger.Info:
		event = g.Logger.Debug()
	default:
		return
	}

	sql, rows := fc()
	event.Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query")
}
