package luabridge

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"
)

// Decoders inspect the top of the stack, convert it and pop it. The value is
// popped on mismatch as well so the caller's stack stays balanced.

func (s *State) top() (lua.LValue, error) {
	if s.Closed() {
		return lua.LNil, ErrClosed
	}
	if s.L.GetTop() == 0 {
		return lua.LNil, fmt.Errorf("%w: stack is empty", ErrTypeMismatch)
	}
	v := s.L.Get(-1)
	s.L.Pop(1)
	return v, nil
}

// PopFloat pops a number.
func (s *State) PopFloat() (float64, error) {
	v, err := s.top()
	if err != nil {
		return 0, err
	}
	return toFloat(v)
}

// PopInt pops a number holding an integral value.
func (s *State) PopInt() (int, error) {
	v, err := s.top()
	if err != nil {
		return 0, err
	}
	return toInt(v)
}

// PopBool pops a boolean. Truthiness of other types is not accepted.
func (s *State) PopBool() (bool, error) {
	v, err := s.top()
	if err != nil {
		return false, err
	}
	b, ok := v.(lua.LBool)
	if !ok {
		return false, mismatch("boolean", v.Type().String())
	}
	return bool(b), nil
}

// PopString pops a string. Numbers are not coerced.
func (s *State) PopString() (string, error) {
	v, err := s.top()
	if err != nil {
		return "", err
	}
	str, ok := v.(lua.LString)
	if !ok {
		return "", mismatch("string", v.Type().String())
	}
	return string(str), nil
}

// PopFloats pops a sequence of exactly n numbers.
func (s *State) PopFloats(n int) ([]float64, error) {
	v, err := s.top()
	if err != nil {
		return nil, err
	}
	return toFloats(v, n)
}

// PopMatrix pops rows nested sequences of cols numbers each.
func (s *State) PopMatrix(rows, cols int) ([][]float64, error) {
	v, err := s.top()
	if err != nil {
		return nil, err
	}
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, mismatch(matrixName(rows, cols), v.Type().String())
	}
	if tbl.Len() != rows {
		return nil, mismatch(matrixName(rows, cols), fmt.Sprintf("table with %d rows", tbl.Len()))
	}
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row, err := toFloats(tbl.RawGetInt(i+1), cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = row
	}
	return out, nil
}

// FloatOf converts the value held by r.
func (s *State) FloatOf(r *Ref) (float64, error) {
	if err := s.PushRef(r); err != nil {
		return 0, err
	}
	return s.PopFloat()
}

// IntOf converts the value held by r.
func (s *State) IntOf(r *Ref) (int, error) {
	if err := s.PushRef(r); err != nil {
		return 0, err
	}
	return s.PopInt()
}

// BoolOf converts the value held by r.
func (s *State) BoolOf(r *Ref) (bool, error) {
	if err := s.PushRef(r); err != nil {
		return false, err
	}
	return s.PopBool()
}

// StringOf converts the value held by r.
func (s *State) StringOf(r *Ref) (string, error) {
	if err := s.PushRef(r); err != nil {
		return "", err
	}
	return s.PopString()
}

// FloatsOf converts the sequence held by r.
func (s *State) FloatsOf(r *Ref, n int) ([]float64, error) {
	if err := s.PushRef(r); err != nil {
		return nil, err
	}
	return s.PopFloats(n)
}

// MatrixOf converts the nested sequence held by r.
func (s *State) MatrixOf(r *Ref, rows, cols int) ([][]float64, error) {
	if err := s.PushRef(r); err != nil {
		return nil, err
	}
	return s.PopMatrix(rows, cols)
}

func toFloat(v lua.LValue) (float64, error) {
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, mismatch("number", v.Type().String())
	}
	return float64(n), nil
}

func toInt(v lua.LValue) (int, error) {
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, mismatch("integer", v.Type().String())
	}
	f := float64(n)
	if math.Trunc(f) != f || math.IsInf(f, 0) {
		return 0, mismatch("integer", fmt.Sprintf("number %v", f))
	}
	return int(f), nil
}

func toFloats(v lua.LValue, n int) ([]float64, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, mismatch(arrayName(n), v.Type().String())
	}
	if tbl.Len() != n {
		return nil, mismatch(arrayName(n), fmt.Sprintf("table of length %d", tbl.Len()))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		f, err := toFloat(tbl.RawGetInt(i + 1))
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

func arrayName(n int) string {
	return fmt.Sprintf("array[%d]", n)
}

func matrixName(rows, cols int) string {
	return fmt.Sprintf("matrix[%dx%d]", rows, cols)
}
