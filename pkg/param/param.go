// Package param defines the parameter-space data model shared by the
// sampler, the optimization engine, and the balance scoring layer: named
// numeric ranges and concrete parameter assignments kept inside them.
package param

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidBounds indicates an empty bounds map or a range with min > max.
// It is rejected before any evaluation takes place.
var ErrInvalidBounds = errors.New("invalid parameter bounds")

// Range is an inclusive numeric range [Min, Max] for one parameter.
// A range with Min == Max pins the parameter to a constant.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Span returns the width of the range
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// Clamp clamps a value into the range
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Bounds maps parameter names to their ranges. Immutable for the duration
// of one optimization run.
type Bounds map[string]Range

// Validate checks that the bounds map is non-empty and every range has
// Min <= Max.
func (b Bounds) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("%w: bounds map is empty", ErrInvalidBounds)
	}
	for name, r := range b {
		if r.Min > r.Max {
			return fmt.Errorf("%w: parameter %s has min %f > max %f", ErrInvalidBounds, name, r.Min, r.Max)
		}
	}
	return nil
}

// Names returns the parameter names in sorted order. Iterating bounds in
// this order keeps seeded runs reproducible.
func (b Bounds) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set maps parameter names to concrete values. Every key in the governing
// Bounds must be present and every value must lie within its range; the
// invariant is maintained by clamping after each mutation.
type Set map[string]float64

// Clone returns a deep copy of the set
func (s Set) Clone() Set {
	cloned := make(Set, len(s))
	for k, v := range s {
		cloned[k] = v
	}
	return cloned
}

// Clamp clamps every value into its bound in place and returns the set
func (s Set) Clamp(bounds Bounds) Set {
	for name, r := range bounds {
		if v, ok := s[name]; ok {
			s[name] = r.Clamp(v)
		}
	}
	return s
}

// Complete fills in any parameter missing from the set with the midpoint
// of its range, then clamps. The result always covers every bound.
func (s Set) Complete(bounds Bounds) Set {
	for name, r := range bounds {
		if _, ok := s[name]; !ok {
			s[name] = r.Min + r.Span()/2
		}
	}
	return s.Clamp(bounds)
}

// Validate checks that every bound parameter is present and in range
func (s Set) Validate(bounds Bounds) error {
	for name, r := range bounds {
		v, ok := s[name]
		if !ok {
			return fmt.Errorf("parameter set is missing %s", name)
		}
		if v < r.Min || v > r.Max {
			return fmt.Errorf("parameter %s value %f outside [%f, %f]", name, v, r.Min, r.Max)
		}
	}
	return nil
}
