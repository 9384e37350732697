package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context identifies the document being decoded.
type Context struct {
	Path   string
	Format string
}

func (c Context) label() string {
	if c.Path == "" {
		return "<memory>"
	}
	return c.Path
}

// PreHook inspects the normalised payload before it is decoded. Returning a
// non-nil map replaces the payload.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook checks the decoded document.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder turns the generic maps produced by toml, yaml or json unmarshalling
// into a typed document.
type Decoder[T any] struct {
	pre    []PreHook
	post   []PostHook[T]
	strict bool
}

// WithPreHook runs hook on the payload before decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.pre = append(d.pre, hook)
		}
	}
}

// WithPostHook runs hook on the decoded document.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.post = append(d.post, hook)
		}
	}
}

// WithDisallowUnknownFields fails decoding on keys T has no field for.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.strict = true
	}
}

// NewDecoder builds a Decoder for T.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into T. The payload goes through a JSON round trip
// first, so hooks only ever see map[string]any, []any, float64, string and
// bool whatever format the document came from.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var doc T
	if payload == nil {
		return doc, fmt.Errorf("hydrate: payload is nil for %s", ctx.label())
	}
	current, err := normalise(payload)
	if err != nil {
		return doc, fmt.Errorf("hydrate: normalise %s: %w", ctx.label(), err)
	}
	for _, hook := range d.pre {
		next, err := hook(ctx, current)
		if err != nil {
			return doc, fmt.Errorf("hydrate: check %s: %w", ctx.label(), err)
		}
		if next != nil {
			current = next
		}
	}
	if err := d.decodeInto(current, &doc); err != nil {
		return doc, fmt.Errorf("hydrate: decode %s: %w", ctx.label(), err)
	}
	for _, hook := range d.post {
		if err := hook(ctx, &doc); err != nil {
			return doc, fmt.Errorf("hydrate: validate %s: %w", ctx.label(), err)
		}
	}
	return doc, nil
}

func (d *Decoder[T]) decodeInto(payload map[string]any, doc *T) error {
	buffer, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(buffer))
	if d.strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(doc)
}

func normalise(payload map[string]any) (map[string]any, error) {
	buffer, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(buffer, &out); err != nil {
		return nil, err
	}
	return out, nil
}
