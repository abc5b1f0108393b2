package vm

import "fmt"

// RuntimeIOError reports a failed read, write or flush during a run. The
// run stops at the failing instruction; output already handed to the sink
// is not recalled.
type RuntimeIOError struct {
	Op  string // "read", "write" or "flush"
	Err error
}

func (e *RuntimeIOError) Error() string {
	return fmt.Sprintf("runtime %s error: %v", e.Op, e.Err)
}

func (e *RuntimeIOError) Unwrap() error {
	return e.Err
}
