// Package platform implements the fire-and-forget side effects the turn engine requests:
// keeping the machine awake, haptic feedback and the audio cue.
package platform

import (
	"fmt"
	"time"
)

// Affordances is the set of platform side effects the engine may request.
// Every method is best effort; callers log failures and carry on.
type Affordances interface {
	AcquireWakeLock() error
	ReleaseWakeLock() error
	Vibrate(d time.Duration) error
	PlayCue() error
	StopCue() error
}

// AffordanceError reports a failed platform request.
type AffordanceError struct {
	Op  string
	Err error
}

func (e *AffordanceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AffordanceError) Unwrap() error {
	return e.Err
}

// Nop ignores every request.
type Nop struct{}

var _ Affordances = Nop{}

// AcquireWakeLock implements Affordances.
func (Nop) AcquireWakeLock() error { return nil }

// ReleaseWakeLock implements Affordances.
func (Nop) ReleaseWakeLock() error { return nil }

// Vibrate implements Affordances.
func (Nop) Vibrate(time.Duration) error { return nil }

// PlayCue implements Affordances.
func (Nop) PlayCue() error { return nil }

// StopCue implements Affordances.
func (Nop) StopCue() error { return nil }
