package platform

import (
	"errors"
	"io"
	"os/exec"
	"sync"
	"time"
)

const defaultInhibitor = "systemd-inhibit"

var errNoHaptics = errors.New("terminal has no haptic device")

// TerminalOptions selects which affordances a Terminal provides.
type TerminalOptions struct {
	// Bell rings the terminal bell as the audio cue.
	Bell bool
	// KeepAwake holds an idle inhibitor while a session runs.
	KeepAwake bool
	// Inhibitor overrides the inhibitor binary (default systemd-inhibit).
	Inhibitor string
	// StrictHaptics reports Vibrate as a failure instead of ignoring it.
	StrictHaptics bool
}

// Terminal provides affordances for a text terminal: the BEL character as
// audio cue and an idle-inhibitor subprocess as wake lock.
type Terminal struct {
	out  io.Writer
	opts TerminalOptions

	mu        sync.Mutex
	inhibitor *exec.Cmd
}

var _ Affordances = (*Terminal)(nil)

// NewTerminal returns Terminal affordances writing cues to out.
func NewTerminal(out io.Writer, opts TerminalOptions) *Terminal {
	if opts.Inhibitor == "" {
		opts.Inhibitor = defaultInhibitor
	}
	return &Terminal{out: out, opts: opts}
}

// AcquireWakeLock starts the idle inhibitor unless it already runs.
func (t *Terminal) AcquireWakeLock() error {
	if !t.opts.KeepAwake {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inhibitor != nil {
		return nil
	}
	path, err := exec.LookPath(t.opts.Inhibitor)
	if err != nil {
		return &AffordanceError{Op: "acquire wake lock", Err: err}
	}
	cmd := exec.Command(path,
		"--what=idle:sleep",
		"--who=crongame",
		"--why=turn timer running",
		"--mode=block",
		"sleep", "infinity",
	)
	if err := cmd.Start(); err != nil {
		return &AffordanceError{Op: "acquire wake lock", Err: err}
	}
	t.inhibitor = cmd
	return nil
}

// ReleaseWakeLock stops the idle inhibitor if one runs.
func (t *Terminal) ReleaseWakeLock() error {
	t.mu.Lock()
	cmd := t.inhibitor
	t.inhibitor = nil
	t.mu.Unlock()
	if cmd == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return &AffordanceError{Op: "release wake lock", Err: err}
	}
	// Wait reports the kill signal; it only reaps the process here.
	_ = cmd.Wait()
	return nil
}

// Vibrate has nothing to drive in a terminal.
func (t *Terminal) Vibrate(time.Duration) error {
	if t.opts.StrictHaptics {
		return &AffordanceError{Op: "vibrate", Err: errNoHaptics}
	}
	return nil
}

// PlayCue rings the terminal bell.
func (t *Terminal) PlayCue() error {
	if !t.opts.Bell || t.out == nil {
		return nil
	}
	if _, err := io.WriteString(t.out, "\a"); err != nil {
		return &AffordanceError{Op: "play cue", Err: err}
	}
	return nil
}

// StopCue is a no-op: the bell is a single beep.
func (t *Terminal) StopCue() error {
	return nil
}
