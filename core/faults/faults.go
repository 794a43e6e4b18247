// Package faults defines the caller-recoverable error taxonomy shared by the
// scheduling engine: NotFound, Conflict and PreconditionFailed. All three are
// expected outcomes and are returned as typed values so callers can branch on
// them with errors.Is.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a fault.
type Kind int

const (
	KindNotFound Kind = iota
	KindConflict
	KindPreconditionFailed
)

// Sentinels used as errors.Is targets.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrPreconditionFailed = errors.New("precondition failed")
)

// Fault is a typed domain error carrying a kind and a message.
type Fault struct {
	Kind Kind
	Msg  string
}

func (f *Fault) Error() string { return f.Msg }

// Is maps the fault kind onto the package sentinels.
func (f *Fault) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return f.Kind == KindNotFound
	case ErrConflict:
		return f.Kind == KindConflict
	case ErrPreconditionFailed:
		return f.Kind == KindPreconditionFailed
	}
	return false
}

// NotFound reports that a referenced entity does not exist.
func NotFound(format string, args ...any) error {
	return &Fault{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports capacity exhaustion, an overlapping slot or an invalid
// state transition.
func Conflict(format string, args ...any) error {
	return &Fault{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// PreconditionFailed reports an operation attempted before its prerequisite,
// such as a check-out without a recorded check-in.
func PreconditionFailed(format string, args ...any) error {
	return &Fault{Kind: KindPreconditionFailed, Msg: fmt.Sprintf(format, args...)}
}
