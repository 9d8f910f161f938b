// Package logger provides Logger implementations for defaults and tests.
package logger

import "github.com/arloliu/robotcmd/types"

// NopLogger discards every record. It is the controller's default when no
// logger option is given.
type NopLogger struct{}

var _ types.Logger = (*NopLogger)(nil)

// NewNop returns a NopLogger.
func NewNop() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(string, ...any) {}
func (n *NopLogger) Info(string, ...any)  {}
func (n *NopLogger) Warn(string, ...any)  {}
func (n *NopLogger) Error(string, ...any) {}

// Fatal discards the record; it does not exit.
func (n *NopLogger) Fatal(string, ...any) {}
