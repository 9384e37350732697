package inputs

import (
	"encoding/json"
	"fmt"
	"math"
)

// coerce converts a loosely typed value (decoded documents, evaluator
// results) into the Go type of kind. Lengths must match exactly.
func coerce(kind Kind, value any) (any, error) {
	value = unwrapValuer(value)
	switch kind {
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, coerceMismatch(kind, value)
		}
		return b, nil
	case KindInt:
		f, ok := toNumber(value)
		if !ok || math.Trunc(f) != f || math.IsInf(f, 0) {
			return nil, coerceMismatch(kind, value)
		}
		return int(f), nil
	case KindFloat:
		f, ok := toNumber(value)
		if !ok {
			return nil, coerceMismatch(kind, value)
		}
		return f, nil
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, coerceMismatch(kind, value)
		}
		return s, nil
	case KindVec2:
		values, err := coerceFloats(kind, value, 2)
		if err != nil {
			return nil, err
		}
		var v Vec2
		copy(v[:], values)
		return v, nil
	case KindVec3:
		values, err := coerceFloats(kind, value, 3)
		if err != nil {
			return nil, err
		}
		var v Vec3
		copy(v[:], values)
		return v, nil
	case KindMat2:
		rows, err := coerceRows(kind, value, 2)
		if err != nil {
			return nil, err
		}
		var m Mat2
		for i := range m {
			copy(m[i][:], rows[i])
		}
		return m, nil
	case KindMat3:
		rows, err := coerceRows(kind, value, 3)
		if err != nil {
			return nil, err
		}
		var m Mat3
		for i := range m {
			copy(m[i][:], rows[i])
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %s values cannot be built from %T", ErrTypeMismatch, kind, value)
	}
}

func coerceMismatch(kind Kind, value any) error {
	return fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, kind, value)
}

type valuer interface {
	Value() any
}

func unwrapValuer(value any) any {
	if v, ok := value.(valuer); ok {
		return v.Value()
	}
	return value
}

func toNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func sequence(value any) ([]any, bool) {
	switch seq := value.(type) {
	case []any:
		return seq, true
	case []float64:
		out := make([]any, len(seq))
		for i, v := range seq {
			out[i] = v
		}
		return out, true
	case []int:
		out := make([]any, len(seq))
		for i, v := range seq {
			out[i] = v
		}
		return out, true
	case []int64:
		out := make([]any, len(seq))
		for i, v := range seq {
			out[i] = v
		}
		return out, true
	case Vec2:
		return []any{seq[0], seq[1]}, true
	case Vec3:
		return []any{seq[0], seq[1], seq[2]}, true
	case [][]float64:
		out := make([]any, len(seq))
		for i, v := range seq {
			out[i] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func coerceFloats(kind Kind, value any, n int) ([]float64, error) {
	seq, ok := sequence(unwrapValuer(value))
	if !ok {
		return nil, coerceMismatch(kind, value)
	}
	if len(seq) != n {
		return nil, fmt.Errorf("%w: want %s of %d elements, got %d", ErrTypeMismatch, kind, n, len(seq))
	}
	out := make([]float64, n)
	for i, item := range seq {
		f, ok := toNumber(unwrapValuer(item))
		if !ok {
			return nil, fmt.Errorf("%w: %s element %d is %T", ErrTypeMismatch, kind, i+1, item)
		}
		out[i] = f
	}
	return out, nil
}

func coerceRows(kind Kind, value any, n int) ([][]float64, error) {
	seq, ok := sequence(unwrapValuer(value))
	if !ok {
		return nil, coerceMismatch(kind, value)
	}
	if len(seq) != n {
		return nil, fmt.Errorf("%w: want %s with %d rows, got %d", ErrTypeMismatch, kind, n, len(seq))
	}
	rows := make([][]float64, n)
	for i, item := range seq {
		row, err := coerceFloats(kind, item, n)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows[i] = row
	}
	return rows, nil
}

// bindingValue converts a Value into plain Go data evaluators understand.
func bindingValue(value any) any {
	switch v := value.(type) {
	case Vec2:
		return []any{v[0], v[1]}
	case Vec3:
		return []any{v[0], v[1], v[2]}
	case Mat2:
		return []any{bindingValue(Vec2(v[0])), bindingValue(Vec2(v[1]))}
	case Mat3:
		return []any{bindingValue(Vec3(v[0])), bindingValue(Vec3(v[1])), bindingValue(Vec3(v[2]))}
	default:
		return value
	}
}
