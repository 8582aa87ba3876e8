package interfaces

import (
	"context"
	"fmt"
	"time"
)

// Logger is the structured logger used throughout the engine. The zap
// implementation lives in pkg/logger.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// Fatal logs and exits the process.
	Fatal(msg string, fields ...Field)

	WithContext(ctx context.Context) Logger
	WithFields(fields ...Field) Logger
}

// Field is a key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field                 { return Field{Key: key, Value: value} }
func Int(key string, value int) Field                { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field            { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field              { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Stringer logs v.String(). Used for ids such as uuid.UUID.
func Stringer(key string, v fmt.Stringer) Field { return Field{Key: key, Value: v} }

// Error creates the conventional "error" field.
func Error(err error) Field { return Field{Key: "error", Value: err} }
