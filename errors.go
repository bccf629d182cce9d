package flowkit

import (
	"errors"
	"fmt"
)

// ErrBadRetry reports an invalid retry policy (MaxAttempts < 1 or a
// negative wait). It surfaces from Validate and from the first Run.
var ErrBadRetry = errors.New("flowkit: invalid retry policy")

// ExecFailure is returned when a node's exec phase exhausted every retry
// attempt with no fallback. Post is skipped and the enclosing flow run
// aborts; shared-store writes committed by earlier nodes stay in place.
type ExecFailure struct {
	Node     string
	Attempts int
	Err      error
}

func (e *ExecFailure) Error() string {
	return fmt.Sprintf("node %s: exec failed after %d attempt(s): %v", e.Node, e.Attempts, e.Err)
}

func (e *ExecFailure) Unwrap() error {
	return e.Err
}
