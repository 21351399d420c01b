package easynote

import (
	"fmt"
	"log"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// Logger is the structured logging interface used throughout the client.
// Arguments are alternating keys and values, as with log/slog; a
// *slog.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DefaultLogger writes through the standard library log package.
type DefaultLogger struct{}

func (l *DefaultLogger) Debug(msg string, args ...any) { log.Print("DEBUG: " + msg + formatArgs(args)) }
func (l *DefaultLogger) Info(msg string, args ...any)  { log.Print("INFO: " + msg + formatArgs(args)) }
func (l *DefaultLogger) Warn(msg string, args ...any)  { log.Print("WARN: " + msg + formatArgs(args)) }
func (l *DefaultLogger) Error(msg string, args ...any) { log.Print("ERROR: " + msg + formatArgs(args)) }

func formatArgs(args []any) string {
	var b strings.Builder
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	return b.String()
}

// NewZapLogger returns a Logger adapter for zap.SugaredLogger.
func NewZapLogger(l *zap.SugaredLogger) Logger {
	return &zapLoggerAdapter{l}
}

type zapLoggerAdapter struct{ l *zap.SugaredLogger }

func (z *zapLoggerAdapter) Debug(msg string, args ...any) { z.l.Debugw(msg, args...) }
func (z *zapLoggerAdapter) Info(msg string, args ...any)  { z.l.Infow(msg, args...) }
func (z *zapLoggerAdapter) Warn(msg string, args ...any)  { z.l.Warnw(msg, args...) }
func (z *zapLoggerAdapter) Error(msg string, args ...any) { z.l.Errorw(msg, args...) }

// NewZerologLogger returns a Logger adapter for zerolog.Logger.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLoggerAdapter{l}
}

type zerologLoggerAdapter struct{ l zerolog.Logger }

func (z *zerologLoggerAdapter) Debug(msg string, args ...any) {
	z.l.Debug().Fields(args).Msg(msg)
}
func (z *zerologLoggerAdapter) Info(msg string, args ...any) {
	z.l.Info().Fields(args).Msg(msg)
}
func (z *zerologLoggerAdapter) Warn(msg string, args ...any) {
	z.l.Warn().Fields(args).Msg(msg)
}
func (z *zerologLoggerAdapter) Error(msg string, args ...any) {
	z.l.Error().Fields(args).Msg(msg)
}

// NewLogrusLogger returns a Logger adapter for logrus.FieldLogger.
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return &logrusLoggerAdapter{l}
}

type logrusLoggerAdapter struct{ l logrus.FieldLogger }

func (l *logrusLoggerAdapter) Debug(msg string, args ...any) { l.with(args).Debug(msg) }
func (l *logrusLoggerAdapter) Info(msg string, args ...any)  { l.with(args).Info(msg) }
func (l *logrusLoggerAdapter) Warn(msg string, args ...any)  { l.with(args).Warn(msg) }
func (l *logrusLoggerAdapter) Error(msg string, args ...any) { l.with(args).Error(msg) }

func (l *logrusLoggerAdapter) with(args []any) logrus.FieldLogger {
	if len(args) == 0 {
		return l.l
	}
	fields := make(logrus.Fields, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		fields[fmt.Sprint(args[i])] = args[i+1]
	}
	return l.l.WithFields(fields)
}
