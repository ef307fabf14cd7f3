package optimizer

import (
	"time"

	"github.com/balancelab/balance-core/internal/balance"
	"github.com/balancelab/balance-core/pkg/param"
)

// TrialResult is one evaluation outcome. It is created exactly once per
// scoring call and never modified afterwards.
type TrialResult struct {
	// Params is the parameter set that was evaluated
	Params param.Set `json:"params"`
	// Score is the balance score in [0, 100]
	Score float64 `json:"score"`
	// Metrics carries the structured simulation outcome when available
	Metrics *balance.Metrics `json:"metrics,omitempty"`
	// Confidence is a heuristic [lower, upper] interval around Score that
	// narrows as the run progresses
	Confidence [2]float64 `json:"confidence"`
	// Trial is the outer trial index this evaluation belongs to
	Trial int `json:"trial"`
	// Iteration is the inner step index within the trial
	Iteration int `json:"iteration"`
	// Elapsed is wall-clock time since the run started
	Elapsed time.Duration `json:"elapsedNs"`
	// Seed is the effective random seed of the run
	Seed int64 `json:"seed"`
	// Failed marks a trial whose evaluation errored and was recorded with
	// the sentinel worst score
	Failed bool `json:"failed,omitempty"`
}

// clone returns a deep copy so callers cannot alias engine state
func (t *TrialResult) clone() *TrialResult {
	if t == nil {
		return nil
	}
	c := *t
	c.Params = t.Params.Clone()
	return &c
}

// History is the append-only record of every trial in evaluation order
type History []TrialResult

// Scores returns the score of every entry in order
func (h History) Scores() []float64 {
	out := make([]float64, len(h))
	for i := range h {
		out[i] = h[i].Score
	}
	return out
}

// Best returns the entry with the highest score, or nil for an empty
// history. Earlier entries win ties.
func (h History) Best() *TrialResult {
	if len(h) == 0 {
		return nil
	}
	best := &h[0]
	for i := 1; i < len(h); i++ {
		if h[i].Score > best.Score {
			best = &h[i]
		}
	}
	return best
}

// TopFraction returns the best entries covering the given fraction of the
// history (at least min entries when available), ordered best first.
func (h History) TopFraction(fraction float64, min int) []TrialResult {
	if len(h) == 0 {
		return nil
	}
	n := int(float64(len(h)) * fraction)
	if n < min {
		n = min
	}
	if n > len(h) {
		n = len(h)
	}

	sorted := make([]TrialResult, len(h))
	copy(sorted, h)
	// Insertion sort by descending score; histories are small.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Score > sorted[j-1].Score; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted[:n]
}
