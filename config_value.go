package inputs

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Status is the lifecycle state of a ConfigValue.
type Status int

const (
	StatusUnregistered Status = iota
	StatusRegistered
	StatusResolveFailed
	StatusInitialized
	StatusInvalid
	StatusValid
)

func (s Status) String() string {
	switch s {
	case StatusUnregistered:
		return "unregistered"
	case StatusRegistered:
		return "registered"
	case StatusResolveFailed:
		return "resolve_failed"
	case StatusInitialized:
		return "initialized"
	case StatusInvalid:
		return "invalid"
	case StatusValid:
		return "valid"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Validator accepts or rejects a resolved value.
type Validator[T Value] func(T) bool

// ValueOption configures a ConfigValue.
type ValueOption interface {
	applyValueOption(*valueSettings)
}

type valueSettings struct {
	namespace string
	validator any
}

type valueOptionFunc func(*valueSettings)

func (f valueOptionFunc) applyValueOption(s *valueSettings) {
	f(s)
}

// WithNamespace prefixes the target name as namespace.name.
func WithNamespace(namespace string) ValueOption {
	return valueOptionFunc(func(s *valueSettings) {
		s.namespace = strings.TrimSpace(namespace)
	})
}

// WithValidator attaches fn as the value validator. Its type must match the
// ConfigValue it is passed to.
func WithValidator[T Value](fn Validator[T]) ValueOption {
	return valueOptionFunc(func(s *valueSettings) {
		if fn != nil {
			s.validator = fn
		}
	})
}

// ConfigValue is a lazy accessor for one target. Construction registers the
// target; the value is read from the registry on first successful access and
// kept from then on.
type ConfigValue[T Value] struct {
	resolver  *Resolver
	name      string
	namespace string
	validator Validator[T]
	setupErr  error
	status    Status
	value     T
	// generation is the registry generation the target was registered in.
	generation int
}

// NewConfigValue registers name (qualified by any namespace option) as a
// target of type T on r. A nil r uses Default().
func NewConfigValue[T Value](r *Resolver, name string, opts ...ValueOption) *ConfigValue[T] {
	if r == nil {
		r = Default()
	}
	settings := valueSettings{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyValueOption(&settings)
		}
	}
	cv := &ConfigValue[T]{
		resolver:  r,
		name:      name,
		namespace: settings.namespace,
		status:    StatusUnregistered,
	}
	if settings.validator != nil {
		fn, ok := settings.validator.(Validator[T])
		if !ok {
			cv.setupErr = fmt.Errorf("%w: validator %T does not accept %s", ErrTypeMismatch, settings.validator, KindOf[T]())
		}
		cv.validator = fn
	}
	cv.Register()
	return cv
}

// Register declares the target on the resolver again, typically after
// ClearRegistry. It is a no-op while the target is still registered.
func (c *ConfigValue[T]) Register() {
	reg := registryFor[T](c.resolver)
	if c.status != StatusUnregistered && c.generation == reg.Generation() && reg.Registered(c.FullName()) {
		return
	}
	RegisterTarget[T](c.resolver, c.FullName())
	c.reset(StatusRegistered)
	c.generation = reg.Generation()
}

func (c *ConfigValue[T]) reset(status Status) {
	var zero T
	c.value = zero
	c.status = status
}

// FullName returns namespace.name, or name without a namespace.
func (c *ConfigValue[T]) FullName() string {
	if c.namespace == "" {
		return c.name
	}
	return c.namespace + "." + c.name
}

// Kind returns the kind of T.
func (c *ConfigValue[T]) Kind() Kind {
	return KindOf[T]()
}

// Status returns the current lifecycle state.
func (c *ConfigValue[T]) Status() Status {
	c.sync()
	return c.status
}

// sync drops state left over from before the registry was cleared.
func (c *ConfigValue[T]) sync() {
	if c.status == StatusUnregistered {
		return
	}
	reg := registryFor[T](c.resolver)
	if c.generation != reg.Generation() || !reg.Registered(c.FullName()) {
		c.reset(StatusUnregistered)
	}
}

// Resolved reports whether the value is available. It never fails; a pass
// that ran without resolving the target moves the status to resolve_failed.
// Once read, a value is kept across passes until the registry is cleared.
func (c *ConfigValue[T]) Resolved() bool {
	c.sync()
	if c.status == StatusUnregistered {
		return false
	}
	if c.status >= StatusInitialized {
		return true
	}
	reg := registryFor[T](c.resolver)
	full := c.FullName()
	if value, ok := reg.Value(full); ok {
		c.value = value
		c.status = StatusInitialized
		return true
	}
	if reg.ResolveCalled() {
		if _, failed := reg.FailedSet()[full]; failed {
			c.status = StatusResolveFailed
		}
	}
	return false
}

// Get returns the validated value. It fails with ErrUnresolvedAccess when
// the target never resolved and ErrValidationFailed when the validator
// rejects the value.
func (c *ConfigValue[T]) Get() (T, error) {
	var zero T
	if c.setupErr != nil {
		return zero, c.targetError(c.setupErr)
	}
	if !c.Resolved() {
		return zero, c.targetError(fmt.Errorf("%w (status %s)", ErrUnresolvedAccess, c.status))
	}
	if c.validator != nil && !c.validator(c.value) {
		c.status = StatusInvalid
		return zero, c.targetError(ErrValidationFailed)
	}
	c.status = StatusValid
	return c.value, nil
}

// Valid is the non-failing counterpart of Get.
func (c *ConfigValue[T]) Valid() bool {
	_, err := c.Get()
	return err == nil
}

func (c *ConfigValue[T]) targetError(err error) error {
	return &TargetError{Kind: KindOf[T](), Target: c.FullName(), Err: err}
}

// NewExprValidator builds a validator from a boolean expression evaluated
// with the candidate bound as value, e.g. "value > 0 && value < 5".
func NewExprValidator[T Value](evaluator Evaluator, expression string) (Validator[T], error) {
	if evaluator == nil {
		evaluator = NewExprEvaluator()
	}
	rule, err := evaluator.Compile(expression)
	if err != nil {
		return nil, err
	}
	return func(value T) bool {
		out, err := rule.Evaluate(RuleContext{
			Bindings: map[string]any{"value": bindingValue(value)},
			Target:   expression,
		})
		if err != nil {
			return false
		}
		ok, isBool := out.(bool)
		return isBool && ok
	}, nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// NewTagValidator builds a validator from go-playground/validator tags, e.g.
// "gt=0" for scalars or "dive,gte=0" for vectors.
func NewTagValidator[T Value](tag string) Validator[T] {
	return func(value T) bool {
		return structValidator().Var(value, tag) == nil
	}
}
