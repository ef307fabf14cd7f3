package param

import (
	"errors"
	"testing"
)

func TestBoundsValidate(t *testing.T) {
	tests := []struct {
		name    string
		bounds  Bounds
		wantErr bool
	}{
		{"valid", Bounds{"a": {0, 1}, "b": {-5, 5}}, false},
		{"constant dimension", Bounds{"a": {2, 2}}, false},
		{"empty", Bounds{}, true},
		{"nil", nil, true},
		{"min above max", Bounds{"a": {1, 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bounds.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidBounds) {
				t.Fatalf("expected ErrInvalidBounds, got %v", err)
			}
		})
	}
}

func TestBoundsNamesSorted(t *testing.T) {
	bounds := Bounds{"gamma": {0, 1}, "alpha": {0, 1}, "beta": {0, 1}}
	names := bounds.Names()
	expected := []string{"alpha", "beta", "gamma"}
	if len(names) != len(expected) {
		t.Fatalf("expected %d names, got %d", len(expected), len(names))
	}
	for i, name := range expected {
		if names[i] != name {
			t.Fatalf("expected names[%d] = %s, got %s", i, name, names[i])
		}
	}
}

func TestSetClone(t *testing.T) {
	original := Set{"a": 1.0, "b": 2.0}
	cloned := original.Clone()

	cloned["a"] = 99.0
	if original["a"] != 1.0 {
		t.Fatalf("modifying clone should not affect original")
	}
}

func TestSetClamp(t *testing.T) {
	bounds := Bounds{"a": {0, 1}, "b": {0, 10}}
	s := Set{"a": 1.5, "b": -3}
	s.Clamp(bounds)

	if s["a"] != 1.0 {
		t.Fatalf("expected a clamped to 1.0, got %f", s["a"])
	}
	if s["b"] != 0.0 {
		t.Fatalf("expected b clamped to 0.0, got %f", s["b"])
	}
}

func TestSetComplete(t *testing.T) {
	bounds := Bounds{"a": {0, 1}, "b": {2, 6}}
	s := Set{"a": 0.3}.Complete(bounds)

	if s["a"] != 0.3 {
		t.Fatalf("expected existing value preserved, got %f", s["a"])
	}
	if s["b"] != 4.0 {
		t.Fatalf("expected missing parameter filled with midpoint 4.0, got %f", s["b"])
	}
}

func TestSetValidate(t *testing.T) {
	bounds := Bounds{"a": {0, 1}}

	if err := (Set{"a": 0.5}).Validate(bounds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Set{}).Validate(bounds); err == nil {
		t.Fatalf("expected error for missing parameter")
	}
	if err := (Set{"a": 2.0}).Validate(bounds); err == nil {
		t.Fatalf("expected error for out-of-range value")
	}
}

func TestRangeSpanAndClamp(t *testing.T) {
	r := Range{Min: -2, Max: 3}
	if r.Span() != 5 {
		t.Fatalf("expected span 5, got %f", r.Span())
	}
	if r.Clamp(-10) != -2 || r.Clamp(10) != 3 || r.Clamp(0) != 0 {
		t.Fatalf("clamp misbehaved")
	}
}
