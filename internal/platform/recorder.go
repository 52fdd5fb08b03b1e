package platform

import (
	"sync"
	"time"
)

// Recorder remembers every request it receives. Err, when set, is returned
// from every call. It is meant for tests.
type Recorder struct {
	mu    sync.Mutex
	calls []string
	Err   error
}

var _ Affordances = (*Recorder)(nil)

func (r *Recorder) record(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op)
	if r.Err != nil {
		return &AffordanceError{Op: op, Err: r.Err}
	}
	return nil
}

// Calls returns the recorded operations in order.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how often op was requested.
func (r *Recorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == op {
			n++
		}
	}
	return n
}

// AcquireWakeLock implements Affordances.
func (r *Recorder) AcquireWakeLock() error { return r.record("acquire") }

// ReleaseWakeLock implements Affordances.
func (r *Recorder) ReleaseWakeLock() error { return r.record("release") }

// Vibrate implements Affordances.
func (r *Recorder) Vibrate(time.Duration) error { return r.record("vibrate") }

// PlayCue implements Affordances.
func (r *Recorder) PlayCue() error { return r.record("cue") }

// StopCue implements Affordances.
func (r *Recorder) StopCue() error { return r.record("stop-cue") }
