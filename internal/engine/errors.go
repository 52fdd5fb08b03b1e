package engine

import (
	"errors"
	"fmt"
)

// ErrNoSession is matched by every PreconditionError.
var ErrNoSession = errors.New("no active session")

// PreconditionError reports a command issued while no session is active.
// It signals a caller bug, not a user error.
type PreconditionError struct {
	Op string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, ErrNoSession)
}

// Is reports whether target is ErrNoSession.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrNoSession
}
