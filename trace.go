package inputs

import (
	"encoding/json"
)

// Trace records how the last pass resolved one target: every source that was
// consulted, in priority order, up to and including the one that answered.
type Trace struct {
	Kind     string       `json:"kind"`
	Target   string       `json:"target"`
	Resolved bool         `json:"resolved"`
	Steps    []Provenance `json:"steps"`
}

// Provenance is one source consultation within a Trace.
type Provenance struct {
	Source string `json:"source"`
	Found  bool   `json:"found"`
	Value  any    `json:"value,omitempty"`
}

// Source returns the name of the source that answered, or "" when the target
// did not resolve.
func (t Trace) Source() string {
	if !t.Resolved || len(t.Steps) == 0 {
		return ""
	}
	return t.Steps[len(t.Steps)-1].Source
}

// ToJSON serialises the trace.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON decodes a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

type traceKey struct {
	kind Kind
	name string
}

// Trace returns the provenance recorded for name by the last pass.
func (r *Resolver) Trace(kind Kind, name string) (Trace, bool) {
	trace, ok := r.traces[traceKey{kind: kind, name: name}]
	return trace, ok
}
