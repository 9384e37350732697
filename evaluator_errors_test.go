package inputs

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "gamma * missing", "gas.gamma", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", evalErr.Engine)
	}
	if evalErr.Expr != "gamma * missing" {
		t.Fatalf("expected expression metadata, got %q", evalErr.Expr)
	}
	if evalErr.Target != "gas.gamma" {
		t.Fatalf("expected target metadata, got %q", evalErr.Target)
	}
	if !errors.Is(evalErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{
		Engine: "expr",
		Err:    base,
	}

	err := wrapEvaluationError("cel", "rule", "cfl", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" {
		t.Fatalf("expression should be filled, got %q", existing.Expr)
	}
	if existing.Target != "cfl" {
		t.Fatalf("target should be filled, got %q", existing.Target)
	}
}

func TestWrapEvaluatorErrorKeepsPrefixedErrors(t *testing.T) {
	prefixed := errors.New("inputs: already decorated")
	if got := wrapEvaluatorError("cel", prefixed); got != prefixed {
		t.Fatalf("expected prefixed error to pass through, got %v", got)
	}
	wrapped := wrapEvaluatorError("cel", errors.New("plain"))
	if !strings.HasPrefix(wrapped.Error(), "inputs: cel evaluator:") {
		t.Fatalf("expected engine prefix, got %q", wrapped.Error())
	}
	if wrapEvaluatorError("cel", nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
}
