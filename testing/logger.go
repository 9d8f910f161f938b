package testing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/arloliu/robotcmd/types"
)

// NewTestLogger creates a logger that writes to the test log.
//
// Key-value pairs are rendered as key=value so subscriber log lines read the
// same as the text handler used by the binaries.
func NewTestLogger(tb testing.TB) types.Logger {
	return &testLogger{tb: tb}
}

type testLogger struct {
	tb testing.TB
}

var _ types.Logger = (*testLogger)(nil)

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.tb.Logf("DEBUG %s%s", msg, formatFields(keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.tb.Logf("INFO  %s%s", msg, formatFields(keysAndValues))
}

func (l *testLogger) Warn(msg string, keysAndValues ...any) {
	l.tb.Logf("WARN  %s%s", msg, formatFields(keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.tb.Logf("ERROR %s%s", msg, formatFields(keysAndValues))
}

func (l *testLogger) Fatal(msg string, keysAndValues ...any) {
	l.tb.Fatalf("FATAL %s%s", msg, formatFields(keysAndValues))
}

func formatFields(keysAndValues []any) string {
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
