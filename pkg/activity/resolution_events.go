package activity

import (
	"sort"
	"strings"
	"time"
)

// Verbs and object types emitted during resolution.
const (
	VerbTargetResolved   = "inputs.target.resolved"
	VerbTargetUnresolved = "inputs.target.unresolved"
	VerbPassCompleted    = "inputs.pass.completed"

	ObjectTarget = "inputs.target"
	ObjectPass   = "inputs.pass"
)

// TargetEventInput describes one target outcome.
type TargetEventInput struct {
	ActorID    string
	TenantID   string
	Channel    string
	PassID     string
	Kind       string
	Target     string
	Source     string
	Value      any
	Metadata   map[string]any
	OccurredAt time.Time
}

// PassEventInput summarises a resolution pass.
type PassEventInput struct {
	ActorID  string
	TenantID string
	Channel  string
	PassID   string
	Targets  int
	Resolved int
	// Unresolved maps kind names to the targets that failed.
	Unresolved map[string][]string
	Duration   time.Duration
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildTargetResolvedEvent constructs the event for a resolved target.
func BuildTargetResolvedEvent(input TargetEventInput) Event {
	return buildTargetEvent(VerbTargetResolved, input)
}

// BuildTargetUnresolvedEvent constructs the event for a target no source
// could answer.
func BuildTargetUnresolvedEvent(input TargetEventInput) Event {
	return buildTargetEvent(VerbTargetUnresolved, input)
}

func buildTargetEvent(verb string, input TargetEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["kind"] = strings.TrimSpace(input.Kind)
	metadata["target"] = strings.TrimSpace(input.Target)
	if input.Source != "" {
		metadata["source"] = input.Source
	}
	if input.PassID != "" {
		metadata["pass_id"] = input.PassID
	}
	if input.Value != nil {
		metadata["value"] = input.Value
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTarget,
		ObjectID:   targetObjectID(input.Kind, input.Target),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// BuildPassCompletedEvent constructs the summary event for a pass.
func BuildPassCompletedEvent(input PassEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["targets"] = input.Targets
	metadata["resolved"] = input.Resolved
	metadata["all_resolved"] = len(input.Unresolved) == 0
	if input.Duration > 0 {
		metadata["duration_ms"] = input.Duration.Milliseconds()
	}
	if len(input.Unresolved) > 0 {
		unresolved := make(map[string][]string, len(input.Unresolved))
		for kind, names := range input.Unresolved {
			sorted := append([]string{}, names...)
			sort.Strings(sorted)
			unresolved[kind] = sorted
		}
		metadata["unresolved"] = unresolved
	}

	objectID := strings.TrimSpace(input.PassID)
	if objectID == "" {
		objectID = ObjectPass
	}

	return Event{
		Verb:       VerbPassCompleted,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectPass,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func targetObjectID(kind, target string) string {
	kind = strings.TrimSpace(kind)
	target = strings.TrimSpace(target)
	if kind == "" {
		return target
	}
	return kind + ":" + target
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
