package inputs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-inputs/internal/hydrate"
)

const hardCodedSourceName = "hard-coded"

// HardCodedSource is an in-memory source populated by host code before
// resolution. Lookups are direct map probes.
type HardCodedSource struct {
	values [kindCount]map[string]any
}

// NewHardCodedSource returns an empty source.
func NewHardCodedSource() *HardCodedSource {
	s := &HardCodedSource{}
	for k := range s.values {
		s.values[k] = map[string]any{}
	}
	return s
}

// Set stores value for name. Function kinds are stored as native callables.
func Set[T Value](s *HardCodedSource, name string, value T) {
	if s == nil {
		return
	}
	s.values[KindOf[T]()][name] = value
}

// Name implements Source.
func (s *HardCodedSource) Name() string {
	return hardCodedSourceName
}

// Lookup implements Source.
func (s *HardCodedSource) Lookup(kind Kind, name string) (any, bool, error) {
	if s == nil || !kind.Valid() {
		return nil, false, nil
	}
	value, ok := s.values[kind][name]
	return value, ok, nil
}

// Names returns the names stored for kind, sorted.
func (s *HardCodedSource) Names(kind Kind) []string {
	if s == nil || !kind.Valid() {
		return nil
	}
	out := make(map[string]struct{}, len(s.values[kind]))
	for name := range s.values[kind] {
		out[name] = struct{}{}
	}
	return sortedKeys(out)
}

// Len returns the number of values across all kinds.
func (s *HardCodedSource) Len() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, values := range s.values {
		total += len(values)
	}
	return total
}

// defaultsDocument is the typed shape of a defaults file. Every section is a
// kind name mapping target names to values.
type defaultsDocument struct {
	Bool   map[string]bool    `json:"bool" validate:"dive,keys,required,endkeys"`
	Int    map[string]int     `json:"int" validate:"dive,keys,required,endkeys"`
	Float  map[string]float64 `json:"float" validate:"dive,keys,required,endkeys"`
	String map[string]string  `json:"string" validate:"dive,keys,required,endkeys"`
	Vec2   map[string]Vec2    `json:"vec2" validate:"dive,keys,required,endkeys"`
	Vec3   map[string]Vec3    `json:"vec3" validate:"dive,keys,required,endkeys"`
	Mat2   map[string]Mat2    `json:"mat2" validate:"dive,keys,required,endkeys"`
	Mat3   map[string]Mat3    `json:"mat3" validate:"dive,keys,required,endkeys"`
}

// LoadHardCodedSource reads a defaults document. The format is chosen from
// the extension: .toml, .yaml/.yml or .json.
func LoadHardCodedSource(path string) (*HardCodedSource, error) {
	format, err := formatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inputs: read defaults %s: %w", path, err)
	}
	return decodeDefaults(hydrate.Context{Path: path, Format: format}, data)
}

// ParseHardCodedSource decodes a defaults document held in memory.
func ParseHardCodedSource(format string, data []byte) (*HardCodedSource, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "yml" {
		format = "yaml"
	}
	return decodeDefaults(hydrate.Context{Format: format}, data)
}

func formatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml", nil
	case ".yaml", ".yml":
		return "yaml", nil
	case ".json":
		return "json", nil
	default:
		return "", fmt.Errorf("inputs: unsupported defaults format %q", filepath.Ext(path))
	}
}

func decodeDefaults(ctx hydrate.Context, data []byte) (*HardCodedSource, error) {
	raw := map[string]any{}
	var err error
	switch ctx.Format {
	case "toml":
		err = toml.Unmarshal(data, &raw)
	case "yaml":
		err = yaml.Unmarshal(data, &raw)
	case "json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("inputs: unsupported defaults format %q", ctx.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("inputs: parse defaults %s: %w", ctx.Format, err)
	}

	decoder := hydrate.NewDecoder[defaultsDocument](
		hydrate.WithPreHook[defaultsDocument](checkDefaultsShape),
		hydrate.WithPostHook[defaultsDocument](checkDefaultsNames),
		hydrate.WithDisallowUnknownFields[defaultsDocument](),
	)
	doc, err := decoder.Decode(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("inputs: defaults: %w", err)
	}

	src := NewHardCodedSource()
	fill(src, doc.Bool)
	fill(src, doc.Int)
	fill(src, doc.Float)
	fill(src, doc.String)
	fill(src, doc.Vec2)
	fill(src, doc.Vec3)
	fill(src, doc.Mat2)
	fill(src, doc.Mat3)
	return src, nil
}

func fill[T Value](src *HardCodedSource, values map[string]T) {
	for name, value := range values {
		Set(src, name, value)
	}
}

// checkDefaultsShape rejects sections that are not data kinds and values
// whose shape does not match their kind. JSON decoding into fixed arrays
// would otherwise drop extra elements or zero-fill missing ones.
func checkDefaultsShape(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	for section, entries := range payload {
		kind, ok := ParseKind(section)
		if !ok {
			return nil, fmt.Errorf("%w: section %q", ErrUnknownKind, section)
		}
		if kind.IsFunction() {
			return nil, fmt.Errorf("section %q: function kinds cannot be loaded from documents", section)
		}
		values, ok := entries.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("section %q: expected a table of name = value, got %T", section, entries)
		}
		for name, value := range values {
			if _, err := coerce(kind, value); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", section, name, err)
			}
		}
	}
	return payload, nil
}

// checkDefaultsNames rejects empty target names.
func checkDefaultsNames(_ hydrate.Context, doc *defaultsDocument) error {
	return structValidator().Struct(doc)
}
