package luabridge

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch reports a stack value whose tag does not match the
	// requested native type.
	ErrTypeMismatch = errors.New("luabridge: type mismatch")
	// ErrStackCapacity reports a push sequence that would exceed the stack limit.
	ErrStackCapacity = errors.New("luabridge: stack capacity exceeded")
	// ErrNotATable reports a namespace path that does not resolve to a table.
	ErrNotATable = errors.New("luabridge: value is not a table")
	// ErrNotAFunction reports a call target that is not callable.
	ErrNotAFunction = errors.New("luabridge: value is not a function")
	// ErrIsNil reports a nil value where a structural value was required.
	ErrIsNil = errors.New("luabridge: value is nil")
	// ErrCallFailed reports an error raised by the interpreter during a call.
	ErrCallFailed = errors.New("luabridge: call failed")
	// ErrReleasedRef reports use of a handle after Release.
	ErrReleasedRef = errors.New("luabridge: reference already released")
	// ErrClosed reports use of a State after Close.
	ErrClosed = errors.New("luabridge: state closed")
)

// TypeMismatchError describes a failed conversion at the marshalling boundary.
type TypeMismatchError struct {
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("luabridge: type mismatch: want %s, got %s", e.Want, e.Got)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}

// StructureError reports a violated structural expectation while navigating
// the script namespace. Dump holds the stack contents at the point of failure.
type StructureError struct {
	Path string
	Err  error
	Dump string
}

func (e *StructureError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%v path=%q", e.Err, e.Path)
	if e.Dump != "" {
		msg += "\n" + e.Dump
	}
	return msg
}

func (e *StructureError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CallError carries the interpreter's diagnostic text decorated with the
// argument signature of the failed call.
type CallError struct {
	Signature string
	Message   string
}

func (e *CallError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("luabridge: call%s failed: %s", e.Signature, e.Message)
}

func (e *CallError) Unwrap() error {
	return ErrCallFailed
}

func mismatch(want, got string) error {
	return &TypeMismatchError{Want: want, Got: got}
}
