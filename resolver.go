package inputs

import (
	"context"
	"sync"

	"github.com/goliatone/go-inputs/pkg/activity"
)

// Option configures a Resolver.
type Option func(*resolverConfig)

type resolverConfig struct {
	logger        Logger
	activityHooks activity.Hooks
	activityCfg   activity.Config
	context       context.Context
}

// WithLogger routes resolution diagnostics to logger. A nil logger discards
// them.
func WithLogger(logger Logger) Option {
	return func(cfg *resolverConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithActivityHooks attaches activity hooks. Attaching at least one hook
// enables emission.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Clone()
	return func(cfg *resolverConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig sets channel and identity defaults for activity events.
func WithActivityConfig(activityCfg activity.Config) Option {
	return func(cfg *resolverConfig) {
		cfg.activityCfg = activityCfg
	}
}

// WithContext sets the context passed to activity hooks.
func WithContext(ctx context.Context) Option {
	return func(cfg *resolverConfig) {
		if ctx != nil {
			cfg.context = ctx
		}
	}
}

// Resolver owns one Registry per kind and the sources targets are resolved
// against. Code holding the same Resolver observes the same resolved values.
// A Resolver is not safe for concurrent use.
type Resolver struct {
	registries [kindCount]kindRegistry
	lua        *LuaSource
	hardCoded  *HardCodedSource
	extra      []Source
	logger     Logger
	emitter    *activity.Emitter
	ctx        context.Context
	traces     map[traceKey]Trace
}

// New constructs an empty Resolver.
func New(opts ...Option) *Resolver {
	cfg := resolverConfig{
		logger:  defaultLogger(),
		context: context.Background(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(cfg.activityHooks) > 0 {
		cfg.activityCfg.Enabled = true
	}
	r := &Resolver{
		logger:  cfg.logger,
		emitter: activity.NewEmitter(cfg.activityHooks, cfg.activityCfg),
		ctx:     cfg.context,
		traces:  map[traceKey]Trace{},
	}
	for k := range kindTable {
		r.registries[k] = kindTable[k].newRegistry()
	}
	return r
}

var (
	defaultMu       sync.Mutex
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// Default returns a process-wide Resolver, created on first use, for hosts
// that want every package to share one resolution context.
func Default() *Resolver {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOnce.Do(func() {
		defaultResolver = New()
	})
	return defaultResolver
}

// ResetDefault discards the process-wide Resolver. The next Default call
// builds a fresh one.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOnce = sync.Once{}
	defaultResolver = nil
}

func registryFor[T Value](r *Resolver) *Registry[T] {
	return r.registries[KindOf[T]()].(*Registry[T])
}

// RegistryOf returns the Registry holding targets of type T.
func RegistryOf[T Value](r *Resolver) *Registry[T] {
	return registryFor[T](r)
}

// RegisterTarget declares name as a target of type T. Registering the same
// name twice is a no-op reported as a diagnostic.
func RegisterTarget[T Value](r *Resolver, name string) {
	r.register(KindOf[T](), name)
}

// RegisterTargets declares every name as a target of type T.
func RegisterTargets[T Value](r *Resolver, names ...string) {
	for _, name := range names {
		RegisterTarget[T](r, name)
	}
}

// RegisterKind declares name as a target of kind. It is the non-generic
// entry point used when kinds come from configuration.
func (r *Resolver) RegisterKind(kind Kind, name string) error {
	if !kind.Valid() {
		return ErrUnknownKind
	}
	r.register(kind, name)
	return nil
}

func (r *Resolver) register(kind Kind, name string) {
	if !r.registries[kind].Register(name) {
		r.logger.LogEvent(LogEvent{Event: EventTargetDuplicate, Kind: kind, Target: name})
	}
}

// RegisterLuaSource sets the script source. It takes priority over every
// other source.
func (r *Resolver) RegisterLuaSource(src *LuaSource) {
	r.lua = src
}

// RegisterHardCodedSource sets the default source, queried last.
func (r *Resolver) RegisterHardCodedSource(src *HardCodedSource) {
	r.hardCoded = src
}

// RegisterSource appends an additional source. Additional sources are
// queried after the script source and before the hard-coded source, in
// registration order.
func (r *Resolver) RegisterSource(src Source) {
	if src != nil {
		r.extra = append(r.extra, src)
	}
}

// HasLuaSource reports whether a script source is registered.
func (r *Resolver) HasLuaSource() bool {
	return r.lua != nil
}

// HasHardCodedSource reports whether a hard-coded source is registered.
func (r *Resolver) HasHardCodedSource() bool {
	return r.hardCoded != nil
}

// Sources returns the sources in priority order.
func (r *Resolver) Sources() []Source {
	out := make([]Source, 0, len(r.extra)+2)
	if r.lua != nil {
		out = append(out, r.lua)
	}
	out = append(out, r.extra...)
	if r.hardCoded != nil {
		out = append(out, r.hardCoded)
	}
	return out
}

// GetValue returns the resolved value of name. It fails with ErrKeyNotFound
// when name holds no resolved value.
func GetValue[T Value](r *Resolver, name string) (T, error) {
	value, ok := registryFor[T](r).Value(name)
	if !ok {
		var zero T
		return zero, &TargetError{Kind: KindOf[T](), Target: name, Err: ErrKeyNotFound}
	}
	return value, nil
}

// Resolved reports whether name holds a resolved value of type T.
func Resolved[T Value](r *Resolver, name string) bool {
	return registryFor[T](r).IsResolved(name)
}

// Lookup returns the resolved value of name for kind.
func (r *Resolver) Lookup(kind Kind, name string) (any, bool) {
	if !kind.Valid() {
		return nil, false
	}
	return r.registries[kind].lookup(name)
}

// Targets returns the registered names of kind, sorted.
func (r *Resolver) Targets(kind Kind) []string {
	if !kind.Valid() {
		return nil
	}
	return r.registries[kind].Targets()
}

// Failed returns the names of kind that failed the last pass, sorted.
func (r *Resolver) Failed(kind Kind) []string {
	if !kind.Valid() {
		return nil
	}
	return r.registries[kind].Failed()
}

// ClearRegistry empties every registry and drops recorded traces. Sources
// stay registered.
func (r *Resolver) ClearRegistry() {
	for _, reg := range r.registries {
		reg.Clear()
	}
	clear(r.traces)
}
