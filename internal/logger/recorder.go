package logger

import (
	"sync"

	"github.com/arloliu/robotcmd/types"
)

// Entry is one captured log call.
type Entry struct {
	Level  string
	Msg    string
	Fields map[string]any
}

// Recorder is a Logger that keeps every entry in memory for assertions.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Compile-time assertion that Recorder implements Logger.
var _ types.Logger = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Debug records a debug entry.
func (r *Recorder) Debug(msg string, keysAndValues ...any) { r.record("debug", msg, keysAndValues) }

// Info records an info entry.
func (r *Recorder) Info(msg string, keysAndValues ...any) { r.record("info", msg, keysAndValues) }

// Warn records a warn entry.
func (r *Recorder) Warn(msg string, keysAndValues ...any) { r.record("warn", msg, keysAndValues) }

// Error records an error entry.
func (r *Recorder) Error(msg string, keysAndValues ...any) { r.record("error", msg, keysAndValues) }

// Fatal records a fatal entry. It does not exit.
func (r *Recorder) Fatal(msg string, keysAndValues ...any) { r.record("fatal", msg, keysAndValues) }

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)

	return out
}

// Find returns the entries whose message equals msg.
func (r *Recorder) Find(msg string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, e := range r.entries {
		if e.Msg == msg {
			out = append(out, e)
		}
	}

	return out
}

// Reset discards all entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
}

func (r *Recorder) record(level string, msg string, keysAndValues []any) {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Fields: fields})
}
