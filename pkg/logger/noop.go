package logger

import (
	"context"

	"github.com/narwhalmedia/watchstate/pkg/interfaces"
)

type nop struct{}

// NewNoop returns a logger that discards everything, including Fatal.
func NewNoop() interfaces.Logger {
	return nop{}
}

func (nop) Debug(string, ...interfaces.Field)                  {}
func (nop) Info(string, ...interfaces.Field)                   {}
func (nop) Warn(string, ...interfaces.Field)                   {}
func (nop) Error(string, ...interfaces.Field)                  {}
func (nop) Fatal(string, ...interfaces.Field)                  {}
func (n nop) WithContext(context.Context) interfaces.Logger    { return n }
func (n nop) WithFields(...interfaces.Field) interfaces.Logger { return n }
