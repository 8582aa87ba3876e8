package logger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/narwhalmedia/watchstate/pkg/interfaces"
)

// ZapLogger implements interfaces.Logger on top of zap.
type ZapLogger struct {
	logger *zap.Logger
}

func newZapLogger(core zapcore.Core, development bool) *ZapLogger {
	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)}
	if development {
		opts = append(opts, zap.Development())
	}
	return &ZapLogger{logger: zap.New(core, opts...)}
}

func (l *ZapLogger) Debug(msg string, fields ...interfaces.Field) {
	l.logger.Debug(msg, toZap(fields)...)
}

func (l *ZapLogger) Info(msg string, fields ...interfaces.Field) {
	l.logger.Info(msg, toZap(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields ...interfaces.Field) {
	l.logger.Warn(msg, toZap(fields)...)
}

func (l *ZapLogger) Error(msg string, fields ...interfaces.Field) {
	l.logger.Error(msg, toZap(fields)...)
}

func (l *ZapLogger) Fatal(msg string, fields ...interfaces.Field) {
	l.logger.Fatal(msg, toZap(fields)...)
}

// WithContext is a no-op; zap does not read from the context.
func (l *ZapLogger) WithContext(context.Context) interfaces.Logger {
	return l
}

func (l *ZapLogger) WithFields(fields ...interfaces.Field) interfaces.Logger {
	return &ZapLogger{logger: l.logger.With(toZap(fields)...)}
}

// Sync flushes buffered entries. Call it before exit.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func toZap(fields []interfaces.Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out[i] = zap.String(f.Key, v)
		case int:
			out[i] = zap.Int(f.Key, v)
		case int64:
			out[i] = zap.Int64(f.Key, v)
		case bool:
			out[i] = zap.Bool(f.Key, v)
		case time.Duration:
			out[i] = zap.Duration(f.Key, v)
		case error:
			out[i] = zap.NamedError(f.Key, v)
		case fmt.Stringer:
			out[i] = zap.Stringer(f.Key, v)
		default:
			out[i] = zap.Any(f.Key, v)
		}
	}
	return out
}

// Shorthands so callers that already import this package need not import
// interfaces as well.

func String(key, value string) interfaces.Field { return interfaces.String(key, value) }
func Int(key string, value int) interfaces.Field { return interfaces.Int(key, value) }
func Error(err error) interfaces.Field          { return interfaces.Error(err) }
