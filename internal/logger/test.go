package logger

import (
	"fmt"
	"strings"
	"testing"

	"github.com/arloliu/robotcmd/types"
)

// TestLogger routes log records to a testing.TB so they show up next to the
// failing assertion.
type TestLogger struct {
	tb     testing.TB
	fields []any
}

var _ types.Logger = (*TestLogger)(nil)

// NewTest returns a logger writing through tb.Logf.
//
// Example:
//
//	c, err := robotcmd.NewController(&cfg, registry, robotcmd.WithLogger(logger.NewTest(t)))
func NewTest(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

// With returns a logger that prepends keysAndValues to every record.
func (l *TestLogger) With(keysAndValues ...any) *TestLogger {
	fields := make([]any, 0, len(l.fields)+len(keysAndValues))
	fields = append(fields, l.fields...)
	fields = append(fields, keysAndValues...)

	return &TestLogger{tb: l.tb, fields: fields}
}

func (l *TestLogger) Debug(msg string, keysAndValues ...any) { l.log("DEBUG", msg, keysAndValues) }
func (l *TestLogger) Info(msg string, keysAndValues ...any)  { l.log("INFO", msg, keysAndValues) }
func (l *TestLogger) Warn(msg string, keysAndValues ...any)  { l.log("WARN", msg, keysAndValues) }
func (l *TestLogger) Error(msg string, keysAndValues ...any) { l.log("ERROR", msg, keysAndValues) }

// Fatal fails the test immediately.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.tb.Helper()
	l.tb.Fatalf("FATAL %s%s", msg, formatKeyValues(append(l.fields, keysAndValues...)))
}

func (l *TestLogger) log(level, msg string, keysAndValues []any) {
	l.tb.Helper()
	l.tb.Logf("%s %s%s", level, msg, formatKeyValues(append(l.fields, keysAndValues...)))
}

// formatKeyValues renders pairs as " k=v k=v"; a dangling key gets "<missing>".
func formatKeyValues(keysAndValues []any) string {
	var b strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, " %v=<missing>", keysAndValues[i])
		}
	}

	return b.String()
}
