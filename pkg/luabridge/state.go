package luabridge

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

const (
	defaultRegistrySize    = 1024
	defaultRegistryMaxSize = 1024 * 64
	defaultCallStackSize   = 256
)

// Option configures a State.
type Option func(*stateConfig)

type stateConfig struct {
	registrySize    int
	registryMaxSize int
	callStackSize   int
	stackLimit      int
	skipStdlib      bool
}

// WithRegistrySize sets the initial and maximum interpreter stack sizes. A max
// larger than initial lets the interpreter grow its stack on demand.
func WithRegistrySize(initial, max int) Option {
	return func(cfg *stateConfig) {
		if initial > 0 {
			cfg.registrySize = initial
		}
		if max > 0 {
			cfg.registryMaxSize = max
		}
	}
}

// WithCallStackSize sets the interpreter call depth.
func WithCallStackSize(size int) Option {
	return func(cfg *stateConfig) {
		if size > 0 {
			cfg.callStackSize = size
		}
	}
}

// WithStackLimit caps how many slots the bridge may occupy. Pushes that would
// cross the limit fail with ErrStackCapacity instead of growing further.
func WithStackLimit(limit int) Option {
	return func(cfg *stateConfig) {
		if limit > 0 {
			cfg.stackLimit = limit
		}
	}
}

// WithoutStdlib skips opening the Lua standard libraries.
func WithoutStdlib() Option {
	return func(cfg *stateConfig) {
		cfg.skipStdlib = true
	}
}

func applyOptions(opts []Option) stateConfig {
	cfg := stateConfig{
		registrySize:    defaultRegistrySize,
		registryMaxSize: defaultRegistryMaxSize,
		callStackSize:   defaultCallStackSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.registryMaxSize < cfg.registrySize {
		cfg.registryMaxSize = cfg.registrySize
	}
	if cfg.stackLimit == 0 || cfg.stackLimit > cfg.registryMaxSize {
		cfg.stackLimit = cfg.registryMaxSize
	}
	return cfg
}

// State owns one interpreter execution context and its evaluation stack.
// A State is not safe for concurrent use.
type State struct {
	L      *lua.LState
	limit  int
	refs   *refTable
	closed bool
}

// New creates a State with a fresh interpreter.
func New(opts ...Option) *State {
	cfg := applyOptions(opts)
	L := lua.NewState(lua.Options{
		CallStackSize:   cfg.callStackSize,
		RegistrySize:    cfg.registrySize,
		RegistryMaxSize: cfg.registryMaxSize,
		SkipOpenLibs:    cfg.skipStdlib,
	})
	s := &State{
		L:     L,
		limit: cfg.stackLimit,
	}
	s.refs = newRefTable(L)
	return s
}

// Close releases the interpreter. Outstanding Refs become inert.
func (s *State) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}

// Closed reports whether Close was called.
func (s *State) Closed() bool {
	return s == nil || s.closed
}

// DoFile loads and runs a script file in the global scope.
func (s *State) DoFile(path string) error {
	if s.Closed() {
		return ErrClosed
	}
	base := s.L.GetTop()
	if err := s.L.DoFile(path); err != nil {
		s.L.SetTop(base)
		return fmt.Errorf("luabridge: load %q: %w", path, err)
	}
	s.L.SetTop(base)
	return nil
}

// DoString runs source text in the global scope. name labels diagnostics.
func (s *State) DoString(name, source string) error {
	if s.Closed() {
		return ErrClosed
	}
	base := s.L.GetTop()
	if err := s.L.DoString(source); err != nil {
		s.L.SetTop(base)
		return fmt.Errorf("luabridge: load %q: %w", name, err)
	}
	s.L.SetTop(base)
	return nil
}

// Top returns the number of values on the stack.
func (s *State) Top() int {
	return s.L.GetTop()
}

// Pop removes n values from the stack.
func (s *State) Pop(n int) {
	if n <= 0 {
		return
	}
	s.L.Pop(n)
}

// Limit returns the configured stack limit.
func (s *State) Limit() int {
	return s.limit
}

// ensureHeadroom fails when n more slots would cross the stack limit.
func (s *State) ensureHeadroom(n int) error {
	if s.Closed() {
		return ErrClosed
	}
	top := s.L.GetTop()
	if top+n > s.limit {
		return fmt.Errorf("%w: need %d slots, %d of %d in use", ErrStackCapacity, n, top, s.limit)
	}
	return nil
}

// Dump renders the stack from bottom to top for diagnostics.
func (s *State) Dump() string {
	if s.Closed() {
		return "stack: <closed>"
	}
	top := s.L.GetTop()
	var b strings.Builder
	fmt.Fprintf(&b, "stack: %d value(s)", top)
	for i := 1; i <= top; i++ {
		v := s.L.Get(i)
		fmt.Fprintf(&b, "\n  [%d] %s: %s", i, v.Type().String(), v.String())
	}
	return b.String()
}

func (s *State) structureError(path string, err error) error {
	return &StructureError{Path: path, Err: err, Dump: s.Dump()}
}
