package optimizer

import (
	"math"

	"github.com/balancelab/balance-core/pkg/param"
	"github.com/balancelab/balance-core/pkg/utils"
)

const (
	// eliteFraction is the share of history eligible as parents
	eliteFraction = 0.3
	// copyParentProbability is the chance a child copies one parent's
	// value instead of averaging both
	copyParentProbability = 0.8
	// mutationProbability is the per-dimension mutation chance
	mutationProbability = 0.1
	// mutationSpan is the mutation noise magnitude as a fraction of the
	// dimension's range
	mutationSpan = 0.2
	// similarityThreshold is the minimum mean normalized distance between
	// batch members, as a fraction of range
	similarityThreshold = 0.05
	// maxPerturbAttempts bounds the re-perturbation loop for candidates
	// too similar to an already accepted batch member
	maxPerturbAttempts = 5
)

// evolver produces candidate batches by elitist recombination over the
// recorded history, with mutation and a diversity guard so one batch does
// not collapse onto near-identical points.
type evolver struct {
	bounds param.Bounds
	names  []string
	rng    *utils.RandSource
}

func newEvolver(bounds param.Bounds, rng *utils.RandSource) *evolver {
	return &evolver{
		bounds: bounds,
		names:  bounds.Names(),
		rng:    rng,
	}
}

// generate produces n diverse candidates from the history. With fewer
// than two recorded trials it falls back to uniform random points.
func (e *evolver) generate(history History, n int) []param.Set {
	batch := make([]param.Set, 0, n)
	elite := history.TopFraction(eliteFraction, 2)

	for len(batch) < n {
		var candidate param.Set
		if len(elite) < 2 {
			candidate = e.randomPoint()
		} else {
			candidate = e.crossover(elite)
			e.mutate(candidate)
		}
		candidate.Clamp(e.bounds)

		for attempt := 0; attempt < maxPerturbAttempts && e.tooSimilar(candidate, batch); attempt++ {
			e.perturb(candidate)
			candidate.Clamp(e.bounds)
		}
		batch = append(batch, candidate)
	}
	return batch
}

// crossover builds a child from two distinct elite parents: per
// parameter, usually a straight copy of one parent, occasionally the
// average of both.
func (e *evolver) crossover(elite []TrialResult) param.Set {
	i1 := e.rng.Intn(len(elite))
	i2 := e.rng.Intn(len(elite))
	for i2 == i1 {
		i2 = e.rng.Intn(len(elite))
	}
	p1, p2 := elite[i1], elite[i2]

	child := make(param.Set, len(e.names))
	for _, name := range e.names {
		if e.rng.BernoulliBool(copyParentProbability) {
			if e.rng.BernoulliBool(0.5) {
				child[name] = p1.Params[name]
			} else {
				child[name] = p2.Params[name]
			}
		} else {
			child[name] = (p1.Params[name] + p2.Params[name]) / 2
		}
	}
	return child
}

// mutate applies per-dimension noise with the configured probability
func (e *evolver) mutate(candidate param.Set) {
	for _, name := range e.names {
		if e.rng.BernoulliBool(mutationProbability) {
			span := e.bounds[name].Span()
			candidate[name] += e.rng.UniformFloat64(-mutationSpan, mutationSpan) * span
		}
	}
}

// perturb nudges every dimension; used to recover diversity
func (e *evolver) perturb(candidate param.Set) {
	for _, name := range e.names {
		span := e.bounds[name].Span()
		candidate[name] += e.rng.UniformFloat64(-mutationSpan, mutationSpan) * span
	}
}

// randomPoint draws a fresh uniform point in bounds
func (e *evolver) randomPoint() param.Set {
	point := make(param.Set, len(e.names))
	for _, name := range e.names {
		r := e.bounds[name]
		point[name] = e.rng.UniformFloat64(r.Min, r.Max)
	}
	return point
}

// tooSimilar reports whether the candidate sits within the similarity
// threshold of any already accepted batch member, measured as the mean
// normalized per-dimension distance.
func (e *evolver) tooSimilar(candidate param.Set, batch []param.Set) bool {
	for _, member := range batch {
		if e.normalizedDistance(candidate, member) < similarityThreshold {
			return true
		}
	}
	return false
}

func (e *evolver) normalizedDistance(a, b param.Set) float64 {
	if len(e.names) == 0 {
		return 0
	}
	total := 0.0
	for _, name := range e.names {
		span := e.bounds[name].Span()
		if span == 0 {
			continue
		}
		total += math.Abs(a[name]-b[name]) / span
	}
	return total / float64(len(e.names))
}
