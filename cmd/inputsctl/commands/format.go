package commands

import (
	"fmt"
	"strconv"
	"strings"

	inputs "github.com/goliatone/go-inputs"
)

type probe struct {
	x []float64
	t float64
}

type row struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Resolved bool   `json:"resolved"`
	Source   string `json:"source,omitempty"`
	Value    any    `json:"value,omitempty"`
	display  string
}

func (r row) text(showSource bool) string {
	if !r.Resolved {
		return fmt.Sprintf("%s %s: unresolved", r.Kind, r.Name)
	}
	if showSource {
		return fmt.Sprintf("%s %s = %s (%s)", r.Kind, r.Name, r.display, r.Source)
	}
	return fmt.Sprintf("%s %s = %s", r.Kind, r.Name, r.display)
}

func collect(r *inputs.Resolver, p *probe) ([]row, error) {
	var rows []row
	for _, kind := range inputs.Kinds() {
		for _, name := range r.Targets(kind) {
			value, ok := r.Lookup(kind, name)
			entry := row{Kind: kind.String(), Name: name, Resolved: ok}
			if trace, traced := r.Trace(kind, name); traced {
				entry.Source = trace.Source()
			}
			if ok {
				v, display, err := render(value, p)
				if err != nil {
					return nil, fmt.Errorf("%s %s: %w", kind, name, err)
				}
				entry.Value, entry.display = v, display
			}
			rows = append(rows, entry)
		}
	}
	return rows, nil
}

// render returns a JSON-friendly value and its text form. Functions are
// evaluated only when p is set.
func render(value any, p *probe) (any, string, error) {
	switch v := value.(type) {
	case bool:
		return v, strconv.FormatBool(v), nil
	case int:
		return v, strconv.Itoa(v), nil
	case float64:
		return v, formatFloat(v), nil
	case string:
		return v, strconv.Quote(v), nil
	case inputs.Vec2:
		return v[:], formatFloats(v[:]), nil
	case inputs.Vec3:
		return v[:], formatFloats(v[:]), nil
	case inputs.Mat2:
		rows := [][]float64{v[0][:], v[1][:]}
		return rows, formatRows(rows), nil
	case inputs.Mat3:
		rows := [][]float64{v[0][:], v[1][:], v[2][:]}
		return rows, formatRows(rows), nil
	}
	if p == nil {
		return "<function>", "<function>", nil
	}
	return evaluate(value, p)
}

func evaluate(value any, p *probe) (any, string, error) {
	switch fn := value.(type) {
	case inputs.ScalarFunc2:
		x, err := vec2(p.x)
		if err != nil {
			return nil, "", err
		}
		s, err := fn(x, p.t)
		if err != nil {
			return nil, "", err
		}
		return s, formatFloat(s), nil
	case inputs.ScalarFunc3:
		x, err := vec3(p.x)
		if err != nil {
			return nil, "", err
		}
		s, err := fn(x, p.t)
		if err != nil {
			return nil, "", err
		}
		return s, formatFloat(s), nil
	case inputs.PrimitiveFunc2:
		x, err := vec2(p.x)
		if err != nil {
			return nil, "", err
		}
		rho, u, pr, err := fn(x, p.t)
		if err != nil {
			return nil, "", err
		}
		return primitive(rho, u[:], pr)
	case inputs.PrimitiveFunc3:
		x, err := vec3(p.x)
		if err != nil {
			return nil, "", err
		}
		rho, u, pr, err := fn(x, p.t)
		if err != nil {
			return nil, "", err
		}
		return primitive(rho, u[:], pr)
	}
	return nil, "", fmt.Errorf("cannot render %T", value)
}

func primitive(rho float64, u []float64, p float64) (any, string, error) {
	out := map[string]any{"rho": rho, "u": u, "p": p}
	text := fmt.Sprintf("rho=%s u=%s p=%s", formatFloat(rho), formatFloats(u), formatFloat(p))
	return out, text, nil
}

func vec2(x []float64) (inputs.Vec2, error) {
	var v inputs.Vec2
	if len(x) != len(v) {
		return v, fmt.Errorf("--at needs 2 components, got %d", len(x))
	}
	copy(v[:], x)
	return v, nil
}

func vec3(x []float64) (inputs.Vec3, error) {
	var v inputs.Vec3
	if len(x) != len(v) {
		return v, fmt.Errorf("--at needs 3 components, got %d", len(x))
	}
	copy(v[:], x)
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatRows(rows [][]float64) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = formatFloats(r)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
