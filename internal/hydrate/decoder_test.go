package hydrate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

type gasDefaults struct {
	Gamma  float64     `json:"gamma"`
	Name   string      `json:"name"`
	Origin []float64   `json:"origin"`
	Grid   [][]float64 `json:"grid"`
	Tags   []string    `json:"tags"`
}

func TestDecoderCases(t *testing.T) {
	cases := []struct {
		name      string
		input     map[string]any
		options   []DecoderOption[gasDefaults]
		expect    gasDefaults
		expectErr string
	}{
		{
			name: "plain document",
			input: map[string]any{
				"gamma":  1.4,
				"name":   "air",
				"origin": []any{0.25, int64(-1)},
			},
			expect: gasDefaults{Gamma: 1.4, Name: "air", Origin: []float64{0.25, -1}},
		},
		{
			name: "nested rows survive normalisation",
			input: map[string]any{
				"grid": []any{[]any{1, 0}, []any{0, 1}},
			},
			expect: gasDefaults{Grid: [][]float64{{1, 0}, {0, 1}}},
		},
		{
			name:      "unknown fields rejected",
			input:     map[string]any{"gamma": 1.4, "viscosity": 0.1},
			options:   []DecoderOption[gasDefaults]{WithDisallowUnknownFields[gasDefaults]()},
			expectErr: "unknown field",
		},
		{
			name:  "pre-hook rewrites payload",
			input: map[string]any{"name": "  Air  "},
			options: []DecoderOption[gasDefaults]{
				WithPreHook[gasDefaults](trimNamePreHook),
			},
			expect: gasDefaults{Name: "air"},
		},
		{
			name:  "pre-hook error aborts",
			input: map[string]any{"gamma": -1.0},
			options: []DecoderOption[gasDefaults]{
				WithPreHook[gasDefaults](positiveGammaPreHook),
			},
			expectErr: "gamma must be positive",
		},
		{
			name:  "post-hook tags document",
			input: map[string]any{"name": "air"},
			options: []DecoderOption[gasDefaults]{
				WithPostHook[gasDefaults](formatTagPostHook),
			},
			expect: gasDefaults{Name: "air", Tags: []string{"toml:defaults.toml"}},
		},
		{
			name:  "post-hook error aborts",
			input: map[string]any{"gamma": 0.5},
			options: []DecoderOption[gasDefaults]{
				WithPostHook[gasDefaults](adiabaticPostHook),
			},
			expectErr: "validate defaults.toml: gamma 0.5 is not above 1",
		},
		{
			name:  "nil hooks ignored",
			input: map[string]any{"gamma": 1.4},
			options: []DecoderOption[gasDefaults]{
				WithPreHook[gasDefaults](nil),
				WithPostHook[gasDefaults](nil),
			},
			expect: gasDefaults{Gamma: 1.4},
		},
		{
			name:      "nil payload",
			input:     nil,
			expectErr: "payload is nil for defaults.toml",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoder := NewDecoder[gasDefaults](tc.options...)
			ctx := Context{Path: "defaults.toml", Format: "toml"}

			result, err := decoder.Decode(ctx, tc.input)

			if tc.expectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.expectErr)
				}
				if !strings.Contains(err.Error(), tc.expectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.expect, result) {
				t.Fatalf("decoded mismatch:\nwant: %#v\n got: %#v", tc.expect, result)
			}
		})
	}
}

func TestPreHookSeesNormalisedPayload(t *testing.T) {
	var seen any
	hook := func(_ Context, payload map[string]any) (map[string]any, error) {
		seen = payload["origin"]
		return payload, nil
	}
	decoder := NewDecoder[gasDefaults](WithPreHook[gasDefaults](hook))
	if _, err := decoder.Decode(Context{}, map[string]any{"origin": []float64{1, 2}}); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if _, ok := seen.([]any); !ok {
		t.Fatalf("expected pre-hook to see []any, got %T", seen)
	}
}

func trimNamePreHook(_ Context, payload map[string]any) (map[string]any, error) {
	if name, ok := payload["name"].(string); ok {
		payload["name"] = strings.ToLower(strings.TrimSpace(name))
	}
	return payload, nil
}

func positiveGammaPreHook(_ Context, payload map[string]any) (map[string]any, error) {
	if gamma, ok := payload["gamma"].(float64); ok && gamma <= 0 {
		return nil, fmt.Errorf("gamma must be positive, got %v", gamma)
	}
	return payload, nil
}

func formatTagPostHook(ctx Context, doc *gasDefaults) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	doc.Tags = append(doc.Tags, ctx.Format+":"+ctx.Path)
	return nil
}

func adiabaticPostHook(_ Context, doc *gasDefaults) error {
	if doc.Gamma <= 1 {
		return fmt.Errorf("gamma %v is not above 1", doc.Gamma)
	}
	return nil
}
