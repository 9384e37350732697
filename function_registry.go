package inputs

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// Function represents a callable registered against evaluators.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions keyed by lower-case name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("inputs: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("inputs: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("inputs: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("inputs: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("inputs: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewMathFunctionRegistry returns a registry preloaded with the float
// functions initial conditions usually need: sqrt, exp, log, sin, cos, tan,
// pow, hypot, atan2 and tanh.
func NewMathFunctionRegistry() *FunctionRegistry {
	r := NewFunctionRegistry()
	unary := map[string]func(float64) float64{
		"sqrt": math.Sqrt,
		"exp":  math.Exp,
		"log":  math.Log,
		"sin":  math.Sin,
		"cos":  math.Cos,
		"tan":  math.Tan,
		"tanh": math.Tanh,
	}
	for name, fn := range unary {
		_ = r.Register(name, floatFunction(name, 1, func(v []float64) float64 { return fn(v[0]) }))
	}
	binary := map[string]func(float64, float64) float64{
		"pow":   math.Pow,
		"hypot": math.Hypot,
		"atan2": math.Atan2,
	}
	for name, fn := range binary {
		_ = r.Register(name, floatFunction(name, 2, func(v []float64) float64 { return fn(v[0], v[1]) }))
	}
	return r
}

func floatFunction(name string, arity int, fn func([]float64) float64) Function {
	return func(args ...any) (any, error) {
		if len(args) != arity {
			return nil, fmt.Errorf("inputs: %s expects %d argument(s), got %d", name, arity, len(args))
		}
		values := make([]float64, arity)
		for i, arg := range args {
			f, ok := toNumber(unwrapValuer(arg))
			if !ok {
				return nil, fmt.Errorf("inputs: %s argument %d is %T, want number", name, i+1, arg)
			}
			values[i] = f
		}
		return fn(values), nil
	}
}
