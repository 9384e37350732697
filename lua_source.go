package inputs

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-inputs/pkg/luabridge"
)

// BaseState names the top-level scope of a script.
const BaseState = "base_state"

const luaSourceName = "lua"

type luaValue struct {
	table     string
	scriptKey string
}

// heldFunc is a script function handed out as a typed closure. One is kept
// per target and kind; a lookup that finds a different function releases the
// previous one.
type heldFunc struct {
	ref   *luabridge.Ref
	value any
}

type funcKey struct {
	kind Kind
	name string
}

// LuaSource answers targets from a Lua script. Tables are loaded eagerly when
// registered; leaf values are read on lookup. Function values are wrapped as
// typed Go closures that call back into the script.
type LuaSource struct {
	origin string
	state  *luabridge.State
	tables map[string]*luabridge.Ref
	values map[string]luaValue
	funcs  map[funcKey]heldFunc
	closed bool
}

// NewLuaSource loads and runs the script at path.
func NewLuaSource(path string, opts ...luabridge.Option) (*LuaSource, error) {
	state := luabridge.New(opts...)
	if err := state.DoFile(path); err != nil {
		state.Close()
		return nil, fmt.Errorf("inputs: load script %s: %w", path, err)
	}
	return newLuaSource(path, state)
}

// NewLuaSourceString runs code as a script named name.
func NewLuaSourceString(name, code string, opts ...luabridge.Option) (*LuaSource, error) {
	state := luabridge.New(opts...)
	if err := state.DoString(name, code); err != nil {
		state.Close()
		return nil, fmt.Errorf("inputs: load script %s: %w", name, err)
	}
	return newLuaSource(name, state)
}

func newLuaSource(origin string, state *luabridge.State) (*LuaSource, error) {
	globals, err := state.Globals()
	if err != nil {
		state.Close()
		return nil, err
	}
	return &LuaSource{
		origin: origin,
		state:  state,
		tables: map[string]*luabridge.Ref{BaseState: globals},
		values: map[string]luaValue{},
		funcs:  map[funcKey]heldFunc{},
	}, nil
}

// Name implements Source.
func (s *LuaSource) Name() string {
	return luaSourceName
}

// Origin returns the script path or name the source was loaded from.
func (s *LuaSource) Origin() string {
	return s.origin
}

// State exposes the bridge for callers that need direct stack access.
func (s *LuaSource) State() *luabridge.State {
	return s.state
}

// RegisterTable loads parent[scriptKey] (scriptKey defaults to table) and
// records it under table. The value must be a table.
func (s *LuaSource) RegisterTable(table, parent string, scriptKey ...string) error {
	if s.closed {
		return luabridge.ErrClosed
	}
	parentRef, ok := s.tables[parent]
	if !ok {
		return fmt.Errorf("%w: parent %q of %q", ErrUnknownTable, parent, table)
	}
	key := pickKey(table, scriptKey)
	ref, err := s.state.Table(parentRef, key)
	if err != nil {
		return fmt.Errorf("inputs: register table %q: %w", table, err)
	}
	if previous, exists := s.tables[table]; exists {
		previous.Release()
	}
	s.tables[table] = ref
	return nil
}

// RegisterValue records that the logical key lives in table under scriptKey
// (defaulting to key). The value itself is read on lookup.
func (s *LuaSource) RegisterValue(key, table string, scriptKey ...string) error {
	if _, ok := s.tables[table]; !ok {
		return fmt.Errorf("%w: %q for value %q", ErrUnknownTable, table, key)
	}
	s.values[key] = luaValue{table: table, scriptKey: pickKey(key, scriptKey)}
	return nil
}

// Tables returns the registered table names, sorted.
func (s *LuaSource) Tables() []string {
	out := make([]string, 0, len(s.tables))
	for name := range s.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup implements Source. Keys that were never registered and nil leaves
// are not found; values of the wrong type are errors.
func (s *LuaSource) Lookup(kind Kind, name string) (any, bool, error) {
	entry, ok := s.values[name]
	if !ok {
		return nil, false, nil
	}
	if s.closed {
		return nil, false, luabridge.ErrClosed
	}
	ref, err := s.state.Field(s.tables[entry.table], entry.scriptKey)
	if err != nil {
		return nil, false, err
	}
	defer ref.Release()
	if ref.IsNil() {
		return nil, false, nil
	}
	value, err := s.decode(kind, name, ref)
	if err != nil {
		return nil, false, fmt.Errorf("%s.%s: %w", entry.table, entry.scriptKey, err)
	}
	return value, true, nil
}

func (s *LuaSource) decode(kind Kind, name string, ref *luabridge.Ref) (any, error) {
	st := s.state
	switch kind {
	case KindBool:
		return st.BoolOf(ref)
	case KindInt:
		return st.IntOf(ref)
	case KindFloat:
		return st.FloatOf(ref)
	case KindString:
		return st.StringOf(ref)
	case KindVec2:
		values, err := st.FloatsOf(ref, 2)
		if err != nil {
			return nil, err
		}
		return Vec2{values[0], values[1]}, nil
	case KindVec3:
		values, err := st.FloatsOf(ref, 3)
		if err != nil {
			return nil, err
		}
		return Vec3{values[0], values[1], values[2]}, nil
	case KindMat2:
		rows, err := st.MatrixOf(ref, 2, 2)
		if err != nil {
			return nil, err
		}
		return Mat2{{rows[0][0], rows[0][1]}, {rows[1][0], rows[1][1]}}, nil
	case KindMat3:
		rows, err := st.MatrixOf(ref, 3, 3)
		if err != nil {
			return nil, err
		}
		var m Mat3
		for i := range m {
			copy(m[i][:], rows[i])
		}
		return m, nil
	}

	if !ref.IsFunction() {
		return nil, &luabridge.TypeMismatchError{Want: "function", Got: ref.Type()}
	}
	key := funcKey{kind: kind, name: name}
	held, ok := s.funcs[key]
	if ok && st.Same(held.ref, ref) {
		return held.value, nil
	}
	fn := ref.Clone()
	value, err := s.wrap(kind, fn)
	if err != nil {
		fn.Release()
		return nil, err
	}
	if ok {
		held.ref.Release()
	}
	s.funcs[key] = heldFunc{ref: fn, value: value}
	return value, nil
}

func (s *LuaSource) wrap(kind Kind, fn *luabridge.Ref) (any, error) {
	switch kind {
	case KindScalarFunc2:
		return ScalarFunc2(func(x Vec2, t float64) (float64, error) {
			return s.callScalar(fn, x[:], t)
		}), nil
	case KindScalarFunc3:
		return ScalarFunc3(func(x Vec3, t float64) (float64, error) {
			return s.callScalar(fn, x[:], t)
		}), nil
	case KindPrimitiveFunc2:
		return PrimitiveFunc2(func(x Vec2, t float64) (float64, Vec2, float64, error) {
			rho, u, p, err := s.callPrimitive(fn, x[:], t)
			if err != nil {
				return 0, Vec2{}, 0, err
			}
			return rho, Vec2{u[0], u[1]}, p, nil
		}), nil
	case KindPrimitiveFunc3:
		return PrimitiveFunc3(func(x Vec3, t float64) (float64, Vec3, float64, error) {
			rho, u, p, err := s.callPrimitive(fn, x[:], t)
			if err != nil {
				return 0, Vec3{}, 0, err
			}
			return rho, Vec3{u[0], u[1], u[2]}, p, nil
		}), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}

// callScalar runs fn(x, t) and expects exactly one number back.
func (s *LuaSource) callScalar(fn *luabridge.Ref, x []float64, t float64) (float64, error) {
	results, err := s.state.Call(fn, x, t)
	if err != nil {
		return 0, err
	}
	defer luabridge.ReleaseAll(results)
	if len(results) != 1 {
		return 0, fmt.Errorf("%w: want 1, got %d", ErrResultArity, len(results))
	}
	return s.state.FloatOf(results[0])
}

// callPrimitive runs fn(x, t) and expects density, a velocity of len(x)
// components and pressure.
func (s *LuaSource) callPrimitive(fn *luabridge.Ref, x []float64, t float64) (float64, []float64, float64, error) {
	results, err := s.state.Call(fn, x, t)
	if err != nil {
		return 0, nil, 0, err
	}
	defer luabridge.ReleaseAll(results)
	if len(results) != 3 {
		return 0, nil, 0, fmt.Errorf("%w: want 3, got %d", ErrResultArity, len(results))
	}
	rho, err := s.state.FloatOf(results[0])
	if err != nil {
		return 0, nil, 0, fmt.Errorf("density: %w", err)
	}
	u, err := s.state.FloatsOf(results[1], len(x))
	if err != nil {
		return 0, nil, 0, fmt.Errorf("velocity: %w", err)
	}
	p, err := s.state.FloatOf(results[2])
	if err != nil {
		return 0, nil, 0, fmt.Errorf("pressure: %w", err)
	}
	return rho, u, p, nil
}

// Close releases every handle the source holds and shuts the interpreter
// down. Function values obtained from the source fail afterwards.
func (s *LuaSource) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	for key, held := range s.funcs {
		held.ref.Release()
		delete(s.funcs, key)
	}
	for name, ref := range s.tables {
		ref.Release()
		delete(s.tables, name)
	}
	s.state.Close()
	return nil
}

func pickKey(fallback string, keys []string) string {
	if len(keys) > 0 && keys[0] != "" {
		return keys[0]
	}
	return fallback
}
