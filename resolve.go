package inputs

import (
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-inputs/pkg/activity"
)

type kindOps struct {
	newRegistry func() kindRegistry
	resolve     func(r *Resolver, pass *passState) (bool, error)
}

func opsFor[T Value]() kindOps {
	return kindOps{
		newRegistry: func() kindRegistry { return newRegistry[T]() },
		resolve:     resolveKind[T],
	}
}

// kindTable drives every operation that walks all kinds. Order is resolution
// order.
var kindTable = [kindCount]kindOps{
	KindBool:           opsFor[bool](),
	KindInt:            opsFor[int](),
	KindFloat:          opsFor[float64](),
	KindString:         opsFor[string](),
	KindVec2:           opsFor[Vec2](),
	KindVec3:           opsFor[Vec3](),
	KindMat2:           opsFor[Mat2](),
	KindMat3:           opsFor[Mat3](),
	KindScalarFunc2:    opsFor[ScalarFunc2](),
	KindScalarFunc3:    opsFor[ScalarFunc3](),
	KindPrimitiveFunc2: opsFor[PrimitiveFunc2](),
	KindPrimitiveFunc3: opsFor[PrimitiveFunc3](),
}

type passState struct {
	id         string
	sources    []Source
	targets    int
	resolved   int
	unresolved map[string][]string
}

// ResolveInputs attempts every registered target of every kind against the
// sources in priority order. It returns true when every target resolved.
// Targets no source answers are recorded as failed and reported through the
// logger; they are not errors. Malformed source data aborts the pass with a
// *TargetError.
//
// Calling ResolveInputs again re-resolves every target and overwrites
// earlier values.
func (r *Resolver) ResolveInputs() (bool, error) {
	start := time.Now()
	pass := &passState{
		id:         uuid.NewString(),
		sources:    r.Sources(),
		unresolved: map[string][]string{},
	}
	all := true
	for k := range kindTable {
		ok, err := kindTable[k].resolve(r, pass)
		if err != nil {
			return false, err
		}
		all = all && ok
	}
	r.emit(activity.BuildPassCompletedEvent(activity.PassEventInput{
		PassID:     pass.id,
		Targets:    pass.targets,
		Resolved:   pass.resolved,
		Unresolved: pass.unresolved,
		Duration:   time.Since(start),
	}))
	return all, nil
}

func resolveKind[T Value](r *Resolver, pass *passState) (bool, error) {
	reg := registryFor[T](r)
	kind := reg.Kind()
	for _, name := range reg.Targets() {
		pass.targets++
		trace := Trace{Kind: kind.String(), Target: name}
		for _, src := range pass.sources {
			value, ok, err := TryGet[T](src, name)
			if err != nil {
				return false, wrapTargetError(kind, name, src.Name(), err)
			}
			if !ok {
				trace.Steps = append(trace.Steps, Provenance{Source: src.Name()})
				continue
			}
			reg.store(name, value)
			pass.resolved++
			trace.Resolved = true
			trace.Steps = append(trace.Steps, Provenance{Source: src.Name(), Found: true, Value: eventValue(kind, value)})
			r.logger.LogEvent(LogEvent{Event: EventTargetResolved, Kind: kind, Target: name, Source: src.Name()})
			r.emit(activity.BuildTargetResolvedEvent(activity.TargetEventInput{
				PassID: pass.id,
				Kind:   kind.String(),
				Target: name,
				Source: src.Name(),
				Value:  eventValue(kind, value),
			}))
			break
		}
		r.traces[traceKey{kind: kind, name: name}] = trace
		if trace.Resolved {
			continue
		}
		reg.fail(name)
		r.logger.LogEvent(LogEvent{Event: EventTargetUnresolved, Kind: kind, Target: name, Err: ErrTargetNotFound})
		r.emit(activity.BuildTargetUnresolvedEvent(activity.TargetEventInput{
			PassID: pass.id,
			Kind:   kind.String(),
			Target: name,
		}))
	}

	if reg.finish() {
		return true, nil
	}
	failed := reg.Failed()
	pass.unresolved[kind.String()] = failed
	r.logger.LogEvent(LogEvent{Event: EventKindUnresolved, Kind: kind, Names: failed})
	return false, nil
}

// eventValue keeps data values in activity metadata and drops callables.
func eventValue(kind Kind, value any) any {
	if kind.IsFunction() {
		return nil
	}
	return bindingValue(value)
}

func (r *Resolver) emit(event activity.Event) {
	if !r.emitter.Enabled() {
		return
	}
	if err := r.emitter.Emit(r.ctx, event); err != nil {
		r.logger.LogEvent(LogEvent{Event: EventActivityFailed, Err: err})
	}
}
