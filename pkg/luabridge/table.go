package luabridge

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Globals returns a reference to the global table.
func (s *State) Globals() (*Ref, error) {
	if err := s.ensureHeadroom(1); err != nil {
		return nil, err
	}
	s.L.Push(s.L.G.Global)
	return s.refTop(), nil
}

// Global returns a reference to the global named name. Missing globals yield
// a nil reference, not an error.
func (s *State) Global(name string) (*Ref, error) {
	globals, err := s.Globals()
	if err != nil {
		return nil, err
	}
	defer globals.Release()
	return s.Field(globals, name)
}

// Field fetches tbl[key] without metamethods. The table is popped before
// returning, so the stack is left as it was found.
func (s *State) Field(tbl *Ref, key string) (*Ref, error) {
	return s.member(tbl, lua.LString(key), key)
}

// Index fetches tbl[i] (1-based) without metamethods.
func (s *State) Index(tbl *Ref, i int) (*Ref, error) {
	return s.member(tbl, lua.LNumber(i), fmt.Sprintf("[%d]", i))
}

// Table fetches tbl[key] and requires the result to be a table.
func (s *State) Table(tbl *Ref, key string) (*Ref, error) {
	ref, err := s.Field(tbl, key)
	if err != nil {
		return nil, err
	}
	switch {
	case ref.IsNil():
		ref.Release()
		return nil, s.structureError(key, ErrIsNil)
	case !ref.IsTable():
		got := ref.Type()
		ref.Release()
		return nil, s.structureError(key, fmt.Errorf("%w: got %s", ErrNotATable, got))
	}
	return ref, nil
}

func (s *State) member(tbl *Ref, key lua.LValue, path string) (*Ref, error) {
	if err := s.PushRef(tbl); err != nil {
		return nil, err
	}
	t, ok := s.L.Get(-1).(*lua.LTable)
	if !ok {
		err := s.structureError(path, fmt.Errorf("%w: got %s", ErrNotATable, s.L.Get(-1).Type().String()))
		s.L.Pop(1)
		return nil, err
	}
	if err := s.ensureHeadroom(1); err != nil {
		s.L.Pop(1)
		return nil, err
	}
	s.L.Push(key)
	value := t.RawGet(s.L.Get(-1))
	s.L.Pop(1)
	s.L.Push(value)
	ref := s.refTop()
	s.L.Pop(1)
	return ref, nil
}
