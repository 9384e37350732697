package inputs

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-inputs/pkg/luabridge"
)

var (
	// ErrTargetNotFound marks a target no source could answer. It is recorded
	// in the kind's failed set and never aborts a pass.
	ErrTargetNotFound = errors.New("inputs: target not found in any source")
	// ErrKeyNotFound is returned by GetValue for names without a resolved value.
	ErrKeyNotFound = errors.New("inputs: key not found")
	// ErrUnresolvedAccess is returned when a ConfigValue is read before its
	// target resolved.
	ErrUnresolvedAccess = errors.New("inputs: value accessed before resolution succeeded")
	// ErrValidationFailed is returned when a ConfigValue validator rejects a
	// resolved value.
	ErrValidationFailed = errors.New("inputs: validation failed")
	// ErrResultArity reports a script function returning the wrong number of values.
	ErrResultArity = errors.New("inputs: unexpected number of results")
	// ErrUnknownKind reports a kind name outside the supported set.
	ErrUnknownKind = errors.New("inputs: unknown kind")
	// ErrUnknownTable reports a script table that was never registered.
	ErrUnknownTable = errors.New("inputs: table not registered")

	ErrTypeMismatch  = luabridge.ErrTypeMismatch
	ErrStackCapacity = luabridge.ErrStackCapacity
	ErrNotATable     = luabridge.ErrNotATable
	ErrNotAFunction  = luabridge.ErrNotAFunction
	ErrIsNil         = luabridge.ErrIsNil
	ErrCallFailed    = luabridge.ErrCallFailed
)

// TargetError captures which target and source produced a hard failure.
type TargetError struct {
	Kind   Kind
	Target string
	Source string
	Err    error
}

func (e *TargetError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source == "" {
		return fmt.Sprintf("inputs: %s target %q: %v", e.Kind, e.Target, e.Err)
	}
	return fmt.Sprintf("inputs: %s target %q from %s source: %v", e.Kind, e.Target, e.Source, e.Err)
}

func (e *TargetError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapTargetError(kind Kind, target, source string, err error) error {
	if err == nil {
		return nil
	}
	var targetErr *TargetError
	if errors.As(err, &targetErr) {
		if targetErr.Source == "" {
			targetErr.Source = source
		}
		return err
	}
	return &TargetError{
		Kind:   kind,
		Target: target,
		Source: source,
		Err:    err,
	}
}
