package oo

import (
	"errors"
	"fmt"
)

// Error kinds. Runtime errors carry the host-facing message and unwrap to
// one of these.
var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("already defined")
	ErrAccess      = errors.New("access denied")
	ErrWrongArgs   = errors.New("wrong # args")
	ErrDefinition  = errors.New("bad definition")
	ErrDestructing = errors.New("can't delete an object while it is being destructed")
)

// runtimeError is an error whose text is what the script author sees.
type runtimeError struct {
	kind error
	msg  string
}

func (e *runtimeError) Error() string { return e.msg }
func (e *runtimeError) Unwrap() error { return e.kind }

func errorf(kind error, format string, args ...any) error {
	return &runtimeError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// ConstructError reports a failed object construction. Teardown is set
// only when cleaning up the partial object failed with a different error.
type ConstructError struct {
	Object   string
	Err      error
	Teardown error
}

func (e *ConstructError) Error() string {
	if e.Teardown == nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s\n    (while cleaning up %q: %s)", e.Err, e.Object, e.Teardown)
}

func (e *ConstructError) Unwrap() error { return e.Err }
