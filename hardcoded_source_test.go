package inputs

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadHardCodedSourceFormats(t *testing.T) {
	for _, file := range []string{"defaults.toml", "defaults.yaml", "defaults.json"} {
		t.Run(file, func(t *testing.T) {
			src, err := LoadHardCodedSource(filepath.Join("testdata", file))
			if err != nil {
				t.Fatalf("load %s: %v", file, err)
			}
			if src.Len() != 8 {
				t.Fatalf("expected 8 values, got %d", src.Len())
			}
			assertSourceValue(t, src, "verbose", true)
			assertSourceValue(t, src, "mesh.cells", 128)
			assertSourceValue(t, src, "gas.gamma", 1.4)
			assertSourceValue(t, src, "run.output", "sod")
			assertSourceValue(t, src, "mesh.lower", Vec2{0, -1})
			assertSourceValue(t, src, "gravity", Vec3{0, 0, -9.81})
			assertSourceValue(t, src, "rotation", Mat2{{0, -1}, {1, 0}})
			assertSourceValue(t, src, "identity", Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
		})
	}
}

func assertSourceValue[T Value](t *testing.T, src Source, name string, want T) {
	t.Helper()
	got, ok, err := TryGet[T](src, name)
	if err != nil {
		t.Fatalf("%s: unexpected error %v", name, err)
	}
	if !ok {
		t.Fatalf("%s: expected a value", name)
	}
	if any(got) != any(want) {
		t.Fatalf("%s: expected %v, got %v", name, want, got)
	}
}

func TestParseHardCodedSourceRejectsBadDocuments(t *testing.T) {
	cases := []struct {
		name    string
		format  string
		data    string
		wantErr string
		is      error
	}{
		{
			name:    "vector too long",
			format:  "toml",
			data:    "[vec2]\nlower = [1.0, 2.0, 3.0]\n",
			wantErr: "vec2.lower",
			is:      ErrTypeMismatch,
		},
		{
			name:    "matrix too short",
			format:  "yaml",
			data:    "mat3:\n  m: [[1, 0, 0], [0, 1, 0]]\n",
			wantErr: "mat3.m",
			is:      ErrTypeMismatch,
		},
		{
			name:    "fractional int",
			format:  "json",
			data:    `{"int": {"cells": 1.5}}`,
			wantErr: "int.cells",
			is:      ErrTypeMismatch,
		},
		{
			name:    "unknown section",
			format:  "toml",
			data:    "[tensor]\nt = 1\n",
			wantErr: "tensor",
			is:      ErrUnknownKind,
		},
		{
			name:    "function section",
			format:  "yml",
			data:    "scalar_func2:\n  f: 1\n",
			wantErr: "function kinds",
		},
		{
			name:    "section not a table",
			format:  "json",
			data:    `{"float": 1.0}`,
			wantErr: "expected a table",
		},
		{
			name:    "empty target name",
			format:  "yaml",
			data:    "float:\n  \"\": 1.4\n",
			wantErr: "validate",
		},
		{
			name:    "unsupported format",
			format:  "ini",
			data:    "",
			wantErr: "unsupported defaults format",
		},
		{
			name:    "syntax error",
			format:  "json",
			data:    `{"float": `,
			wantErr: "parse defaults json",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseHardCodedSource(tc.format, []byte(tc.data))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected %q in %v", tc.wantErr, err)
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("expected %v in chain, got %v", tc.is, err)
			}
		})
	}
}

func TestLoadHardCodedSourceUnknownExtension(t *testing.T) {
	_, err := LoadHardCodedSource("defaults.ini")
	if err == nil || !strings.Contains(err.Error(), "unsupported defaults format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestHardCodedSourceSetAndNames(t *testing.T) {
	src := NewHardCodedSource()
	Set(src, "b", 2.0)
	Set(src, "a", 1.0)
	Set[ScalarFunc2](src, "f", func(x Vec2, t float64) (float64, error) { return x[0] + t, nil })

	if got := src.Names(KindFloat); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected sorted names [a b], got %v", got)
	}
	fn, ok, err := TryGet[ScalarFunc2](src, "f")
	if err != nil || !ok {
		t.Fatalf("expected function, got ok=%v err=%v", ok, err)
	}
	if v, _ := fn(Vec2{1, 0}, 2); v != 3 {
		t.Fatalf("expected 3, got %v", v)
	}
	if _, ok, _ := TryGet[int](src, "a"); ok {
		t.Fatalf("kinds must not share names")
	}
	if src.Name() != "hard-coded" {
		t.Fatalf("unexpected name %q", src.Name())
	}
}
