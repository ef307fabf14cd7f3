// Package sampler produces candidate parameter sets that cover a bounded
// search space. Three strategies are supported: a low-discrepancy
// Sobol-style sequence, latin-hypercube stratification, and independent
// uniform draws.
package sampler

import (
	"fmt"
	"math"

	"github.com/balancelab/balance-core/pkg/param"
	"github.com/balancelab/balance-core/pkg/utils"
)

// Method selects the sampling strategy
type Method string

const (
	// MethodSobol generates a deterministic low-discrepancy sequence
	MethodSobol Method = "sobol"
	// MethodLatinHypercube draws one value per stratum per dimension
	MethodLatinHypercube Method = "latin-hypercube"
	// MethodRandom draws independent uniform values per dimension
	MethodRandom Method = "random"
)

// ParseMethod parses a method name, accepting a few aliases
func ParseMethod(s string) (Method, error) {
	switch s {
	case "", "sobol":
		return MethodSobol, nil
	case "latin-hypercube", "lhs":
		return MethodLatinHypercube, nil
	case "random", "uniform":
		return MethodRandom, nil
	default:
		return "", fmt.Errorf("unknown sampling method: %s", s)
	}
}

// Sample produces count parameter sets covering the bounded space using
// the given method. The rng drives the stochastic methods; the sobol
// sequence is fully deterministic and ignores it.
func Sample(bounds param.Bounds, count int, method Method, rng *utils.RandSource) ([]param.Set, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("sample count cannot be negative, got %d", count)
	}
	if count == 0 {
		return []param.Set{}, nil
	}

	switch method {
	case MethodSobol:
		return sampleSobol(bounds, count), nil
	case MethodLatinHypercube:
		return sampleLatinHypercube(bounds, count, rng), nil
	case MethodRandom:
		return sampleRandom(bounds, count, rng), nil
	default:
		return nil, fmt.Errorf("unknown sampling method: %s", method)
	}
}

// sampleSobol generates a Van der Corput-style low-discrepancy sequence.
// Sample i in dimension j uses the bit-reversed Gray code of i, offset by
// j*0.1 mod 1 to decorrelate dimensions.
func sampleSobol(bounds param.Bounds, count int) []param.Set {
	names := bounds.Names()
	samples := make([]param.Set, 0, count)

	for i := 0; i < count; i++ {
		gray := uint32(i) ^ (uint32(i) >> 1)
		base := radicalInverse(gray)

		set := make(param.Set, len(names))
		for j, name := range names {
			v := math.Mod(base+float64(j)*0.1, 1.0)
			r := bounds[name]
			set[name] = r.Min + v*r.Span()
		}
		samples = append(samples, set)
	}
	return samples
}

// radicalInverse reverses the bits of v and normalizes into [0, 1)
func radicalInverse(v uint32) float64 {
	v = (v << 16) | (v >> 16)
	v = ((v & 0x00ff00ff) << 8) | ((v & 0xff00ff00) >> 8)
	v = ((v & 0x0f0f0f0f) << 4) | ((v & 0xf0f0f0f0) >> 4)
	v = ((v & 0x33333333) << 2) | ((v & 0xcccccccc) >> 2)
	v = ((v & 0x55555555) << 1) | ((v & 0xaaaaaaaa) >> 1)
	return float64(v) / float64(1<<32)
}

// sampleLatinHypercube partitions each dimension into count equal strata,
// draws one value per stratum, and permutes the stratum assignment
// independently per dimension so each stratum is used exactly once.
func sampleLatinHypercube(bounds param.Bounds, count int, rng *utils.RandSource) []param.Set {
	names := bounds.Names()

	samples := make([]param.Set, count)
	for i := range samples {
		samples[i] = make(param.Set, len(names))
	}

	for _, name := range names {
		r := bounds[name]
		perm := rng.Perm(count)
		for i := 0; i < count; i++ {
			stratum := perm[i]
			v := (float64(stratum) + rng.Float64()) / float64(count)
			samples[i][name] = r.Min + v*r.Span()
		}
	}
	return samples
}

// sampleRandom draws each dimension independently and uniformly
func sampleRandom(bounds param.Bounds, count int, rng *utils.RandSource) []param.Set {
	names := bounds.Names()
	samples := make([]param.Set, 0, count)

	for i := 0; i < count; i++ {
		set := make(param.Set, len(names))
		for _, name := range names {
			r := bounds[name]
			set[name] = rng.UniformFloat64(r.Min, r.Max)
		}
		samples = append(samples, set)
	}
	return samples
}
