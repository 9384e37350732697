package inputs

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-inputs/pkg/activity"
)

type recordingLogger struct {
	events []LogEvent
}

func (l *recordingLogger) LogEvent(event LogEvent) {
	l.events = append(l.events, event)
}

func (l *recordingLogger) named(name string) []LogEvent {
	var out []LogEvent
	for _, event := range l.events {
		if event.Event == name {
			out = append(out, event)
		}
	}
	return out
}

func newTestResolver(opts ...Option) (*Resolver, *recordingLogger) {
	logger := &recordingLogger{}
	return New(append([]Option{WithLogger(logger)}, opts...)...), logger
}

func TestResolveInputsPriority(t *testing.T) {
	r, logger := newTestResolver()

	script := newTestLuaSource(t, "gas = {gamma = 1.67}\n")
	if err := script.RegisterTable("gas", BaseState); err != nil {
		t.Fatalf("register table: %v", err)
	}
	if err := script.RegisterValue("gas.gamma", "gas", "gamma"); err != nil {
		t.Fatalf("register value: %v", err)
	}
	r.RegisterLuaSource(script)

	exprs := NewExpressionSource()
	if err := exprs.Define("gas.gamma", "2.0"); err != nil {
		t.Fatalf("define: %v", err)
	}
	if err := exprs.Define("gas.viscosity", "0.1"); err != nil {
		t.Fatalf("define: %v", err)
	}
	r.RegisterSource(exprs)

	defaults := NewHardCodedSource()
	Set(defaults, "gas.gamma", 1.4)
	Set(defaults, "gas.viscosity", 0.0)
	Set(defaults, "run.output", "out")
	r.RegisterHardCodedSource(defaults)

	RegisterTargets[float64](r, "gas.gamma", "gas.viscosity")
	RegisterTarget[string](r, "run.output")

	all, err := r.ResolveInputs()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !all {
		t.Fatalf("expected every target to resolve")
	}

	checks := []struct {
		name string
		want float64
	}{
		{"gas.gamma", 1.67},
		{"gas.viscosity", 0.1},
	}
	for _, tc := range checks {
		got, err := GetValue[float64](r, tc.name)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
	if got, _ := GetValue[string](r, "run.output"); got != "out" {
		t.Fatalf("expected default output, got %q", got)
	}

	sources := map[string]string{}
	for _, event := range logger.named(EventTargetResolved) {
		sources[event.Target] = event.Source
	}
	want := map[string]string{"gas.gamma": "lua", "gas.viscosity": "expression", "run.output": "hard-coded"}
	if !reflect.DeepEqual(sources, want) {
		t.Fatalf("expected sources %v, got %v", want, sources)
	}
	if names := r.Sources(); len(names) != 3 || names[0].Name() != "lua" || names[2].Name() != "hard-coded" {
		t.Fatalf("unexpected source order %v", names)
	}
}

func TestResolveInputsPartialFailureAcrossKinds(t *testing.T) {
	r, logger := newTestResolver()
	defaults := NewHardCodedSource()
	Set(defaults, "c", 3)
	r.RegisterHardCodedSource(defaults)

	RegisterTargets[float64](r, "b", "a")
	RegisterTarget[int](r, "c")

	all, err := r.ResolveInputs()
	if err != nil {
		t.Fatalf("missing values must not be errors: %v", err)
	}
	if all {
		t.Fatalf("expected partial failure")
	}
	if got := r.Failed(KindFloat); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected failed [a b], got %v", got)
	}
	if len(r.Failed(KindInt)) != 0 {
		t.Fatalf("int kind should be fully resolved")
	}
	if !RegistryOf[int](r).AllResolved() || RegistryOf[float64](r).AllResolved() {
		t.Fatalf("unexpected per-kind flags")
	}

	summary := logger.named(EventKindUnresolved)
	if len(summary) != 1 {
		t.Fatalf("expected one kind summary, got %d", len(summary))
	}
	if summary[0].Kind != KindFloat || !reflect.DeepEqual(summary[0].Names, []string{"a", "b"}) {
		t.Fatalf("unexpected summary %+v", summary[0])
	}
	if got := len(logger.named(EventTargetUnresolved)); got != 2 {
		t.Fatalf("expected two unresolved events, got %d", got)
	}
	for _, event := range logger.named(EventTargetUnresolved) {
		if !errors.Is(event.Err, ErrTargetNotFound) {
			t.Fatalf("expected ErrTargetNotFound, got %v", event.Err)
		}
	}

	_, err = GetValue[float64](r, "a")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	var targetErr *TargetError
	if !errors.As(err, &targetErr) || targetErr.Target != "a" || targetErr.Kind != KindFloat {
		t.Fatalf("expected TargetError for a, got %#v", err)
	}
}

func TestResolveInputsPartialFailureWithinKind(t *testing.T) {
	r, _ := newTestResolver()
	defaults := NewHardCodedSource()
	Set(defaults, "a", 1.5)
	r.RegisterHardCodedSource(defaults)
	RegisterTargets[float64](r, "a", "b")

	all, err := r.ResolveInputs()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if all {
		t.Fatalf("expected false when b has no source")
	}
	if got := r.Failed(KindFloat); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("expected failed [b], got %v", got)
	}
	if v, err := GetValue[float64](r, "a"); err != nil || v != 1.5 {
		t.Fatalf("expected a = 1.5, got %v (%v)", v, err)
	}
	if Resolved[float64](r, "b") {
		t.Fatalf("b must not be resolved")
	}
}

func TestResolveInputsAbortsOnMalformedData(t *testing.T) {
	r, _ := newTestResolver()
	script := newTestLuaSource(t, "gamma = \"fast\"\n")
	if err := script.RegisterValue("gamma", BaseState); err != nil {
		t.Fatalf("register: %v", err)
	}
	r.RegisterLuaSource(script)
	RegisterTarget[float64](r, "gamma")

	all, err := r.ResolveInputs()
	if err == nil || all {
		t.Fatalf("expected hard error, got all=%v err=%v", all, err)
	}
	var targetErr *TargetError
	if !errors.As(err, &targetErr) {
		t.Fatalf("expected *TargetError, got %T", err)
	}
	if targetErr.Source != "lua" || targetErr.Target != "gamma" {
		t.Fatalf("unexpected error context %+v", targetErr)
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch in chain, got %v", err)
	}
}

func TestResolveInputsWithoutTargets(t *testing.T) {
	r, _ := newTestResolver()
	all, err := r.ResolveInputs()
	if err != nil || !all {
		t.Fatalf("empty registry should resolve trivially, all=%v err=%v", all, err)
	}
}

func TestRegisterTargetDuplicateIsLogged(t *testing.T) {
	r, logger := newTestResolver()
	RegisterTarget[int](r, "cells")
	RegisterTarget[int](r, "cells")
	RegisterTarget[float64](r, "cells")

	if got := r.Targets(KindInt); !reflect.DeepEqual(got, []string{"cells"}) {
		t.Fatalf("expected one int target, got %v", got)
	}
	if got := r.Targets(KindFloat); !reflect.DeepEqual(got, []string{"cells"}) {
		t.Fatalf("kinds keep separate namespaces, got %v", got)
	}
	dups := logger.named(EventTargetDuplicate)
	if len(dups) != 1 || dups[0].Kind != KindInt {
		t.Fatalf("expected one duplicate diagnostic, got %+v", dups)
	}
	if err := r.RegisterKind(Kind(-1), "x"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestReResolveOverwritesAndClearDropsState(t *testing.T) {
	r, _ := newTestResolver()
	defaults := NewHardCodedSource()
	Set(defaults, "cfl", 0.5)
	r.RegisterHardCodedSource(defaults)
	RegisterTarget[float64](r, "cfl")

	if all, err := r.ResolveInputs(); err != nil || !all {
		t.Fatalf("first pass: all=%v err=%v", all, err)
	}

	Set(defaults, "cfl", 0.9)
	if _, err := r.ResolveInputs(); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if got, _ := GetValue[float64](r, "cfl"); got != 0.9 {
		t.Fatalf("re-resolution should overwrite, got %v", got)
	}

	r.ClearRegistry()
	if Resolved[float64](r, "cfl") || len(r.Targets(KindFloat)) != 0 {
		t.Fatalf("clear should drop targets and values")
	}
	if RegistryOf[float64](r).ResolveCalled() {
		t.Fatalf("clear should reset the resolve flag")
	}
	if !r.HasHardCodedSource() || r.HasLuaSource() {
		t.Fatalf("clear must keep sources")
	}
	if value, ok := r.Lookup(KindFloat, "cfl"); ok {
		t.Fatalf("expected no value after clear, got %v", value)
	}
}

func TestClearRegistryMatchesFreshResolver(t *testing.T) {
	script := newTestLuaSource(t, "gas = {gamma = 1.67}\n")
	if err := script.RegisterTable("gas", BaseState); err != nil {
		t.Fatalf("register table: %v", err)
	}
	if err := script.RegisterValue("gas.gamma", "gas", "gamma"); err != nil {
		t.Fatalf("register value: %v", err)
	}
	defaults := NewHardCodedSource()
	Set(defaults, "mesh.cells", 64)
	Set(defaults, "run.output", "sod")

	build := func() *Resolver {
		r, _ := newTestResolver()
		r.RegisterLuaSource(script)
		r.RegisterHardCodedSource(defaults)
		return r
	}
	register := func(r *Resolver) {
		RegisterTarget[float64](r, "gas.gamma")
		RegisterTargets[int](r, "mesh.cells", "mesh.missing")
		RegisterTarget[string](r, "run.output")
	}

	reused := build()
	RegisterTargets[float64](reused, "stale.one", "stale.two")
	RegisterTarget[Vec2](reused, "stale.vec")
	if _, err := reused.ResolveInputs(); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	reused.ClearRegistry()
	register(reused)
	reusedAll, err := reused.ResolveInputs()
	if err != nil {
		t.Fatalf("pass after clear: %v", err)
	}

	fresh := build()
	register(fresh)
	freshAll, err := fresh.ResolveInputs()
	if err != nil {
		t.Fatalf("fresh pass: %v", err)
	}

	if reusedAll != freshAll {
		t.Fatalf("all-resolved differs: cleared=%v fresh=%v", reusedAll, freshAll)
	}
	for k := Kind(0); k < kindCount; k++ {
		if got, want := reused.Targets(k), fresh.Targets(k); !reflect.DeepEqual(got, want) {
			t.Fatalf("%s targets differ: cleared=%v fresh=%v", k, got, want)
		}
		if got, want := reused.Failed(k), fresh.Failed(k); !reflect.DeepEqual(got, want) {
			t.Fatalf("%s failed differ: cleared=%v fresh=%v", k, got, want)
		}
		for _, name := range fresh.Targets(k) {
			got, gotOK := reused.Lookup(k, name)
			want, wantOK := fresh.Lookup(k, name)
			if gotOK != wantOK || !reflect.DeepEqual(got, want) {
				t.Fatalf("%s %s differs: cleared=%v,%v fresh=%v,%v", k, name, got, gotOK, want, wantOK)
			}
		}
	}
	if _, ok := reused.Trace(KindFloat, "stale.one"); ok {
		t.Fatalf("traces from before the clear must be gone")
	}
}

func TestDefaultResolverIsShared(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	first := Default()
	if first != Default() {
		t.Fatalf("Default should return the same resolver")
	}
	RegisterTarget[bool](first, "verbose")
	ResetDefault()
	if Default() == first {
		t.Fatalf("ResetDefault should discard the shared resolver")
	}
	if len(Default().Targets(KindBool)) != 0 {
		t.Fatalf("fresh default should be empty")
	}
}

func TestResolveInputsEmitsActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	r, _ := newTestResolver(
		WithActivityHooks(activity.Hooks{capture}),
		WithActivityConfig(activity.Config{Channel: "solver", ActorID: "runner"}),
	)
	defaults := NewHardCodedSource()
	Set(defaults, "gamma", 1.4)
	Set[ScalarFunc2](defaults, "wall", func(x Vec2, t float64) (float64, error) { return 0, nil })
	r.RegisterHardCodedSource(defaults)
	RegisterTargets[float64](r, "gamma", "missing")
	RegisterTarget[ScalarFunc2](r, "wall")

	if _, err := r.ResolveInputs(); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	want := []string{
		activity.VerbTargetResolved,
		activity.VerbTargetUnresolved,
		activity.VerbTargetResolved,
		activity.VerbPassCompleted,
	}
	if got := capture.Verbs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected verbs %v, got %v", want, got)
	}

	gamma := capture.Events[0]
	if gamma.ObjectID != "float:gamma" || gamma.Channel != "solver" || gamma.ActorID != "runner" {
		t.Fatalf("unexpected resolved event %+v", gamma)
	}
	if gamma.Metadata["value"] != 1.4 || gamma.Metadata["source"] != "hard-coded" {
		t.Fatalf("unexpected metadata %v", gamma.Metadata)
	}
	if _, ok := capture.Events[1].Metadata["value"]; ok {
		t.Fatalf("unresolved events carry no value")
	}
	wall := capture.Events[2]
	if wall.ObjectID != "scalar_func2:wall" {
		t.Fatalf("unexpected function event %+v", wall)
	}
	if _, ok := wall.Metadata["value"]; ok {
		t.Fatalf("function values must not be copied into metadata")
	}

	pass := capture.Events[3]
	if pass.Metadata["targets"] != 3 || pass.Metadata["resolved"] != 2 || pass.Metadata["all_resolved"] != false {
		t.Fatalf("unexpected pass summary %v", pass.Metadata)
	}
	if gamma.Metadata["pass_id"] != pass.ObjectID {
		t.Fatalf("target events should share the pass id, got %v and %v", gamma.Metadata["pass_id"], pass.ObjectID)
	}
}

func TestActivityFailureIsLogged(t *testing.T) {
	capture := &activity.CaptureHook{Err: errors.New("sink offline")}
	r, logger := newTestResolver(WithActivityHooks(activity.Hooks{capture}))
	RegisterTarget[int](r, "cells")

	if _, err := r.ResolveInputs(); err != nil {
		t.Fatalf("hook failures must not fail the pass: %v", err)
	}
	failures := logger.named(EventActivityFailed)
	if len(failures) == 0 {
		t.Fatalf("expected activity failure diagnostics")
	}
	if !strings.Contains(failures[0].Err.Error(), "sink offline") {
		t.Fatalf("unexpected error %v", failures[0].Err)
	}
}

func TestResolveInputsRecordsTraces(t *testing.T) {
	r, _ := newTestResolver()
	exprs := NewExpressionSource()
	if err := exprs.Define("lower", "[0, 1]"); err != nil {
		t.Fatalf("define: %v", err)
	}
	r.RegisterSource(exprs)
	r.RegisterHardCodedSource(NewHardCodedSource())
	RegisterTargets[Vec2](r, "lower", "upper")

	if _, err := r.ResolveInputs(); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	lower, ok := r.Trace(KindVec2, "lower")
	if !ok || !lower.Resolved || lower.Source() != "expression" {
		t.Fatalf("unexpected trace %+v", lower)
	}
	if len(lower.Steps) != 1 || !reflect.DeepEqual(lower.Steps[0].Value, []any{0.0, 1.0}) {
		t.Fatalf("unexpected steps %+v", lower.Steps)
	}

	upper, ok := r.Trace(KindVec2, "upper")
	if !ok || upper.Resolved || upper.Source() != "" {
		t.Fatalf("unexpected trace %+v", upper)
	}
	if len(upper.Steps) != 2 || upper.Steps[1].Source != "hard-coded" || upper.Steps[1].Found {
		t.Fatalf("expected both sources consulted, got %+v", upper.Steps)
	}

	payload, err := upper.ToJSON()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil || decoded.Target != "upper" || decoded.Kind != "vec2" || len(decoded.Steps) != 2 {
		t.Fatalf("round trip mismatch %+v (%v)", decoded, err)
	}

	r.ClearRegistry()
	if _, ok := r.Trace(KindVec2, "lower"); ok {
		t.Fatalf("clear should drop traces")
	}
}
