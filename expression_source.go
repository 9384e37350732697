package inputs

import (
	"fmt"
	"strings"
	"time"
)

const expressionSourceName = "expression"

// ExpressionOption configures an ExpressionSource.
type ExpressionOption func(*ExpressionSource)

// WithEvaluator selects the expression engine. The default is expr with a
// memory program cache.
func WithEvaluator(evaluator Evaluator) ExpressionOption {
	return func(s *ExpressionSource) {
		if evaluator != nil {
			s.evaluator = evaluator
		}
	}
}

// WithSourceName overrides the name reported in errors and diagnostics.
func WithSourceName(name string) ExpressionOption {
	return func(s *ExpressionSource) {
		if name = strings.TrimSpace(name); name != "" {
			s.name = name
		}
	}
}

// WithEvaluatorLogger attaches an evaluator logger.
func WithEvaluatorLogger(logger EvaluatorLogger) ExpressionOption {
	return func(s *ExpressionSource) {
		if logger == nil {
			s.logger = noopEvaluatorLogger{}
			return
		}
		s.logger = logger
	}
}

// ExpressionSource answers targets from expressions. Data kinds are coerced
// from the expression result. Scalar function kinds compile the expression
// once and evaluate it per call with x and t bound. Primitive function kinds
// are never answered.
type ExpressionSource struct {
	name      string
	evaluator Evaluator
	logger    EvaluatorLogger
	exprs     map[string]string
	bindings  map[string]any
}

// NewExpressionSource returns an empty source.
func NewExpressionSource(opts ...ExpressionOption) *ExpressionSource {
	s := &ExpressionSource{
		name:     expressionSourceName,
		logger:   noopEvaluatorLogger{},
		exprs:    map[string]string{},
		bindings: map[string]any{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.evaluator == nil {
		s.evaluator = NewExprEvaluator(ExprWithProgramCache(NewMemoryProgramCache()))
	}
	return s
}

// Define maps name to expression, replacing any earlier definition.
func (s *ExpressionSource) Define(name, expression string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("inputs: expression name must not be empty")
	}
	if strings.TrimSpace(expression) == "" {
		return wrapEvaluationError(s.evaluator.Engine(), expression, name, errEmptyExpression)
	}
	s.exprs[name] = expression
	return nil
}

// Bind exposes value to every expression under name. Vectors and matrices
// are bound as nested lists.
func (s *ExpressionSource) Bind(name string, value any) {
	s.bindings[name] = bindingValue(value)
}

// Defined reports whether name has an expression.
func (s *ExpressionSource) Defined(name string) bool {
	_, ok := s.exprs[name]
	return ok
}

// Engine returns the evaluator engine name.
func (s *ExpressionSource) Engine() string {
	return s.evaluator.Engine()
}

// Name implements Source.
func (s *ExpressionSource) Name() string {
	return s.name
}

// Lookup implements Source.
func (s *ExpressionSource) Lookup(kind Kind, name string) (any, bool, error) {
	expression, ok := s.exprs[name]
	if !ok {
		return nil, false, nil
	}
	switch kind {
	case KindPrimitiveFunc2, KindPrimitiveFunc3:
		return nil, false, nil
	case KindScalarFunc2:
		rule, err := s.evaluator.Compile(expression)
		if err != nil {
			return nil, false, err
		}
		return ScalarFunc2(func(x Vec2, t float64) (float64, error) {
			return s.evalScalar(rule, expression, name, x[:], t)
		}), true, nil
	case KindScalarFunc3:
		rule, err := s.evaluator.Compile(expression)
		if err != nil {
			return nil, false, err
		}
		return ScalarFunc3(func(x Vec3, t float64) (float64, error) {
			return s.evalScalar(rule, expression, name, x[:], t)
		}), true, nil
	}

	start := time.Now()
	result, err := s.evaluator.Evaluate(RuleContext{Bindings: s.scope(), Target: name}, expression)
	s.log(expression, name, start, err)
	if err != nil {
		return nil, false, err
	}
	if result == nil {
		return nil, false, nil
	}
	value, err := coerce(kind, result)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *ExpressionSource) evalScalar(rule CompiledRule, expression, name string, x []float64, t float64) (float64, error) {
	bindings := s.scope()
	position := make([]any, len(x))
	for i, v := range x {
		position[i] = v
	}
	bindings["x"] = position
	bindings["t"] = t

	start := time.Now()
	result, err := rule.Evaluate(RuleContext{Bindings: bindings, Target: name})
	s.log(expression, name, start, err)
	if err != nil {
		return 0, err
	}
	value, err := coerce(KindFloat, result)
	if err != nil {
		return 0, wrapEvaluationError(s.evaluator.Engine(), expression, name, err)
	}
	return value.(float64), nil
}

func (s *ExpressionSource) scope() map[string]any {
	out := make(map[string]any, len(s.bindings)+2)
	for key, value := range s.bindings {
		out[key] = value
	}
	return out
}

func (s *ExpressionSource) log(expression, name string, start time.Time, err error) {
	s.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   s.evaluator.Engine(),
		Expr:     expression,
		Target:   name,
		Duration: time.Since(start),
		Err:      err,
	})
}
