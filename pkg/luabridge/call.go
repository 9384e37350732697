package luabridge

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Call invokes the function held by fn with args. Every value the call leaves
// on the stack is returned as a Ref, in order; the caller owns and releases
// them. The number of results is taken from stack growth, not from a declared
// signature.
func (s *State) Call(fn *Ref, args ...any) ([]*Ref, error) {
	if s.Closed() {
		return nil, ErrClosed
	}
	base := s.L.GetTop()
	if err := s.ensureHeadroom(1 + len(args)); err != nil {
		return nil, err
	}
	if err := s.PushRef(fn); err != nil {
		return nil, err
	}
	if s.L.Get(-1).Type() != lua.LTFunction {
		err := s.structureError("<call>", fmt.Errorf("%w: got %s", ErrNotAFunction, s.L.Get(-1).Type().String()))
		s.L.SetTop(base)
		return nil, err
	}

	types := make([]string, 0, len(args))
	for _, arg := range args {
		name, err := s.PushValue(arg)
		if err != nil {
			s.L.SetTop(base)
			return nil, fmt.Errorf("luabridge: argument %d of %s: %w", len(types)+1, signature(append(types, "?")), err)
		}
		types = append(types, name)
	}

	if err := s.L.PCall(len(args), lua.MultRet, nil); err != nil {
		s.L.SetTop(base)
		return nil, &CallError{Signature: signature(types), Message: err.Error()}
	}

	n := s.L.GetTop() - base
	results := make([]*Ref, n)
	for i := n - 1; i >= 0; i-- {
		results[i] = s.refTop()
	}
	return results, nil
}

func signature(types []string) string {
	return "(" + strings.Join(types, ", ") + ")"
}
