package luabridge

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// PushInt pushes an integer as a number.
func (s *State) PushInt(v int) error {
	if err := s.ensureHeadroom(1); err != nil {
		return err
	}
	s.L.Push(lua.LNumber(v))
	return nil
}

// PushFloat pushes a number.
func (s *State) PushFloat(v float64) error {
	if err := s.ensureHeadroom(1); err != nil {
		return err
	}
	s.L.Push(lua.LNumber(v))
	return nil
}

// PushBool pushes a boolean.
func (s *State) PushBool(v bool) error {
	if err := s.ensureHeadroom(1); err != nil {
		return err
	}
	s.L.Push(lua.LBool(v))
	return nil
}

// PushString pushes a string.
func (s *State) PushString(v string) error {
	if err := s.ensureHeadroom(1); err != nil {
		return err
	}
	s.L.Push(lua.LString(v))
	return nil
}

// PushFloats pushes values as a sequence table. Every element passes through
// the stack, so headroom is checked before each one. On failure the partially
// built table is popped.
func (s *State) PushFloats(values []float64) error {
	if err := s.ensureHeadroom(1); err != nil {
		return err
	}
	tbl := s.L.CreateTable(len(values), 0)
	s.L.Push(tbl)
	for i, v := range values {
		if err := s.PushFloat(v); err != nil {
			s.L.Pop(1)
			return err
		}
		tbl.RawSetInt(i+1, s.L.Get(-1))
		s.L.Pop(1)
	}
	return nil
}

// PushMatrix pushes rows as nested sequence tables in row-major order.
func (s *State) PushMatrix(rows [][]float64) error {
	if err := s.ensureHeadroom(1); err != nil {
		return err
	}
	tbl := s.L.CreateTable(len(rows), 0)
	s.L.Push(tbl)
	for i, row := range rows {
		if err := s.PushFloats(row); err != nil {
			s.L.Pop(1)
			return err
		}
		tbl.RawSetInt(i+1, s.L.Get(-1))
		s.L.Pop(1)
	}
	return nil
}

// PushValue dispatches v to the matching encoder and returns the type name
// recorded for call signatures.
func (s *State) PushValue(v any) (string, error) {
	switch typed := v.(type) {
	case nil:
		if err := s.ensureHeadroom(1); err != nil {
			return "", err
		}
		s.L.Push(lua.LNil)
		return "nil", nil
	case bool:
		return "boolean", s.PushBool(typed)
	case int:
		return "integer", s.PushInt(typed)
	case int64:
		return "integer", s.PushInt(int(typed))
	case float32:
		return "number", s.PushFloat(float64(typed))
	case float64:
		return "number", s.PushFloat(typed)
	case string:
		return "string", s.PushString(typed)
	case []float64:
		return fmt.Sprintf("array[%d]", len(typed)), s.PushFloats(typed)
	case [][]float64:
		cols := 0
		if len(typed) > 0 {
			cols = len(typed[0])
		}
		return fmt.Sprintf("matrix[%dx%d]", len(typed), cols), s.PushMatrix(typed)
	case *Ref:
		return typed.Type(), s.PushRef(typed)
	case lua.LValue:
		if err := s.ensureHeadroom(1); err != nil {
			return "", err
		}
		s.L.Push(typed)
		return typed.Type().String(), nil
	default:
		return "", mismatch("pushable value", fmt.Sprintf("%T", v))
	}
}
