package inputs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-inputs/pkg/luabridge"
)

// Manifest describes a complete resolution setup: the script and defaults to
// load, where script values live and which targets to resolve.
type Manifest struct {
	Script      string              `yaml:"script" toml:"script"`
	Defaults    string              `yaml:"defaults" toml:"defaults"`
	StackLimit  int                 `yaml:"stack_limit" toml:"stack_limit" validate:"omitempty,gte=16"`
	Tables      []TableSpec         `yaml:"tables" toml:"tables" validate:"dive"`
	Values      []ValueSpec         `yaml:"values" toml:"values" validate:"dive"`
	Expressions *ExpressionSpec     `yaml:"expressions" toml:"expressions"`
	Targets     map[string][]string `yaml:"targets" toml:"targets" validate:"required,min=1,dive,keys,oneof=bool int float string vec2 vec3 mat2 mat3 scalar_func2 scalar_func3 primitive_func2 primitive_func3,endkeys,min=1,dive,required"`

	dir string
}

// TableSpec registers a script table. Parent defaults to the top-level
// scope.
type TableSpec struct {
	Name   string `yaml:"name" toml:"name" validate:"required"`
	Parent string `yaml:"parent" toml:"parent"`
	Key    string `yaml:"key" toml:"key"`
}

// ValueSpec maps a logical key to a value inside a registered table.
type ValueSpec struct {
	Key       string `yaml:"key" toml:"key" validate:"required"`
	Table     string `yaml:"table" toml:"table" validate:"required"`
	ScriptKey string `yaml:"script_key" toml:"script_key"`
}

// ExpressionSpec configures an expression source.
type ExpressionSpec struct {
	Engine   string            `yaml:"engine" toml:"engine" validate:"omitempty,oneof=expr cel js"`
	Math     bool              `yaml:"math" toml:"math"`
	Bindings map[string]any    `yaml:"bindings" toml:"bindings"`
	Define   map[string]string `yaml:"define" toml:"define" validate:"required,min=1,dive,required"`
}

// LoadManifest reads a manifest from a .yaml/.yml or .toml file. Relative
// script and defaults paths are resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inputs: read manifest: %w", err)
	}
	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, fmt.Errorf("inputs: parse manifest %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("inputs: manifest %s: unknown key %q", path, undecoded[0].String())
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("inputs: parse manifest %s: %w", path, err)
		}
	}
	m.dir = filepath.Dir(path)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("inputs: invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks struct tags and cross-field rules.
func (m *Manifest) Validate() error {
	if err := structValidator().Struct(m); err != nil {
		return err
	}
	if m.Script == "" && (len(m.Tables) > 0 || len(m.Values) > 0) {
		return errors.New("tables and values require a script")
	}
	if m.Script == "" && m.Defaults == "" && m.Expressions == nil {
		return errors.New("at least one of script, defaults or expressions is required")
	}
	return nil
}

func (m *Manifest) path(p string) string {
	if p == "" || filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// Build creates a Resolver wired with the manifest's sources and targets.
// The returned Closer shuts the script interpreter down.
func (m *Manifest) Build(opts ...Option) (*Resolver, io.Closer, error) {
	r := New(opts...)
	closer := &sourceCloser{}

	if m.Script != "" {
		var bridgeOpts []luabridge.Option
		if m.StackLimit > 0 {
			bridgeOpts = append(bridgeOpts, luabridge.WithStackLimit(m.StackLimit))
		}
		src, err := NewLuaSource(m.path(m.Script), bridgeOpts...)
		if err != nil {
			return nil, nil, err
		}
		closer.sources = append(closer.sources, src)
		for _, table := range m.Tables {
			parent := table.Parent
			if parent == "" {
				parent = BaseState
			}
			if err := src.RegisterTable(table.Name, parent, table.Key); err != nil {
				_ = closer.Close()
				return nil, nil, err
			}
		}
		for _, value := range m.Values {
			if err := src.RegisterValue(value.Key, value.Table, value.ScriptKey); err != nil {
				_ = closer.Close()
				return nil, nil, err
			}
		}
		r.RegisterLuaSource(src)
	}

	if m.Expressions != nil {
		src, err := m.Expressions.source()
		if err != nil {
			_ = closer.Close()
			return nil, nil, err
		}
		r.RegisterSource(src)
	}

	if m.Defaults != "" {
		src, err := LoadHardCodedSource(m.path(m.Defaults))
		if err != nil {
			_ = closer.Close()
			return nil, nil, err
		}
		r.RegisterHardCodedSource(src)
	}

	kinds := make([]string, 0, len(m.Targets))
	for kind := range m.Targets {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, name := range kinds {
		kind, ok := ParseKind(name)
		if !ok {
			_ = closer.Close()
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
		}
		for _, target := range m.Targets[name] {
			if err := r.RegisterKind(kind, target); err != nil {
				_ = closer.Close()
				return nil, nil, err
			}
		}
	}
	return r, closer, nil
}

func (spec *ExpressionSpec) source() (*ExpressionSource, error) {
	var registry *FunctionRegistry
	if spec.Math {
		registry = NewMathFunctionRegistry()
	}
	evaluator, err := NewEvaluator(spec.Engine, NewMemoryProgramCache(), registry)
	if err != nil {
		return nil, err
	}
	src := NewExpressionSource(WithEvaluator(evaluator))
	for name, value := range spec.Bindings {
		src.Bind(name, value)
	}
	for name, expression := range spec.Define {
		if err := src.Define(name, expression); err != nil {
			return nil, err
		}
	}
	return src, nil
}

type sourceCloser struct {
	sources []io.Closer
}

func (c *sourceCloser) Close() error {
	var errs []error
	for _, src := range c.sources {
		if err := src.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.sources = nil
	return errors.Join(errs...)
}
